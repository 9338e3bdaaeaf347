package app

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

const usageNotes = `'correction' is the correction factor to apply: if the desired center
frequency is fc, the radio is tuned to fc*correction so that its true
frequency is fc. 'ppm' is the remaining frequency error of the crystal.

Start with the default ppm and correction until a cell is found. The search
reports a correction factor that can be reused; with a reliable correction
the ppm can be reduced to about 10, but typically not to 0.`

// flags holds the raw command line values
type flags struct {
	configPath string
	freqStart  float64
	freqEnd    float64
	ppm        float64
	correction float64
	record     bool
	load       bool
	dataDir    string
	dbDir      string
	device     string
	workers    int
	verbose    bool
	brief      bool
	json       bool
	help       bool
}

// NewCommand returns the cellsearch root command. The log level is raised or
// lowered by the verbosity flags once they are parsed.
func NewCommand(logger *slog.Logger, logLevel *slog.LevelVar) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "cellsearch -s start_frequency [flags]",
		Short: "Blind search for LTE cells over a frequency range",
		Long: "cellsearch scans LTE center frequencies, detects cells through PSS, SSS\n" +
			"and MIB decoding, and reports a refined crystal correction factor.\n\n" + usageNotes,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, err := LoadConfig(f.configPath)
			if err != nil {
				return err
			}
			if err = f.apply(cmd, config); err != nil {
				return err
			}
			if err = logLevel.UnmarshalText([]byte(config.Settings.LogLevel)); err != nil {
				return fmt.Errorf("invalid log level '%s': %w", config.Settings.LogLevel, err)
			}
			if err = config.Validate(logger); err != nil {
				return err
			}

			return Run(cmd.Context(), config, cmd.OutOrStdout(), logger)
		},
	}

	fs := cmd.Flags()
	fs.BoolVarP(&f.help, "help", "h", false, "print this help screen")
	fs.StringVar(&f.configPath, "config", "", "path to the YAML configuration file")
	fs.Float64VarP(&f.freqStart, "freq-start", "s", 0, "frequency where cell search should start (Hz)")
	fs.Float64VarP(&f.freqEnd, "freq-end", "e", 0, "frequency where cell search should end (Hz)")
	fs.Float64VarP(&f.ppm, "ppm", "p", DefaultPPM, "crystal remaining PPM error")
	fs.Float64VarP(&f.correction, "correction", "c", DefaultCorrection, "crystal correction factor")
	fs.BoolVarP(&f.record, "record", "r", false, "save captured data in capbuf_<kHz>.iq files")
	fs.BoolVarP(&f.load, "load", "l", false, "use data in capbuf_<kHz>.iq files instead of live data")
	fs.StringVarP(&f.dataDir, "data-dir", "d", ".", "directory where capbuf files are located")
	fs.StringVar(&f.dbDir, "db", "", "directory for the SQLite results database (disabled when empty)")
	fs.StringVar(&f.device, "device", DeviceRTLSDR, "radio type: rtl-sdr or hackrf")
	fs.IntVar(&f.workers, "workers", 1, "number of center frequencies processed concurrently")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "increase status messages from program")
	fs.BoolVarP(&f.brief, "brief", "b", false, "reduce status messages from program")
	fs.BoolVar(&f.json, "json", false, "print detected cells as JSON")

	return cmd
}

// HelpRequested reports whether the command was invoked with -h or --help
func HelpRequested(cmd *cobra.Command) bool {
	help, err := cmd.Flags().GetBool("help")
	return err == nil && help
}

// apply overrides the file configuration with every flag given on the
// command line.
func (f *flags) apply(cmd *cobra.Command, config *Config) error {
	changed := cmd.Flags().Changed

	if changed("freq-start") {
		config.Search.FreqStart = f.freqStart
	}
	if config.Search.FreqStart == 0 {
		return fmt.Errorf("must specify a start frequency")
	}
	if changed("freq-end") {
		end := f.freqEnd
		config.Search.FreqEnd = &end
	}
	if changed("ppm") {
		config.Search.PPM = f.ppm
	}
	if changed("correction") {
		config.Search.Correction = f.correction
	}
	if changed("workers") {
		config.Search.Workers = f.workers
	}
	if changed("record") {
		config.Storage.Record = f.record
	}
	if changed("load") {
		config.Storage.Load = f.load
	}
	if changed("data-dir") {
		config.Storage.DataDirectory = f.dataDir
	}
	if changed("db") {
		config.Storage.DatabaseDirectory = f.dbDir
	}
	if changed("device") {
		config.Device.Type = f.device
	}
	if changed("json") {
		config.Settings.JSON = f.json
	}

	switch {
	case f.verbose && f.brief:
		return fmt.Errorf("verbose and brief are mutually exclusive")
	case f.verbose:
		config.Settings.LogLevel = "debug"
	case f.brief:
		config.Settings.LogLevel = "warn"
	}

	return nil
}
