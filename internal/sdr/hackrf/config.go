package hackrf

import (
	"fmt"
	"strconv"

	"github.com/roman-kulish/cellsearch/internal/sdr/driver"
)

const (
	// SampleRate is the capture rate; the HackRF does not go below 2 Msps,
	// so samples are decimated by Decimation to 1.92 Msps.
	SampleRate = 3_840_000
	Decimation = 2

	MaxLNAGain  = 40
	MaxVGAGain  = 62
	LNAGainStep = 8
	VGAGainStep = 2

	MinBasebandFilter = 1_750_000
	MaxBasebandFilter = 28_000_000

	// settleSamples are discarded at SampleRate after tuning
	settleSamples = 38_400
)

/*
	hackrfConfig := hackrf.Config{
        LNAGain:      ptr(24),
        VGAGain:      ptr(20),
    }
    args, _ := hackrfConfig.Args(739_000_000, 153_600)
    // Executes: hackrf_transfer -r - -f 739000000 -s 3840000 -n 345600 -l 24 -g 20
*/

// Config is a struct for configuring the `hackrf_transfer` tool
type Config struct {
	SerialNumber string `yaml:"serialNumber" json:"serialNumber"` // -d serial_number Serial number of desired HackRF

	LNAGain        *int  `yaml:"lnaGain" json:"lnaGain"`               // -l gain_db LNA (IF) gain, 0-40dB, 8dB steps
	VGAGain        *int  `yaml:"vgaGain" json:"vgaGain"`               // -g gain_db VGA (baseband) gain, 0-62dB, 2dB steps
	BasebandFilter int64 `yaml:"basebandFilter" json:"basebandFilter"` // -b baseband filter bandwidth in Hz

	EnableAmp    bool `yaml:"enableAmp" json:"enableAmp"`       // -a amp_enable RX RF amplifier 1=Enable, 0=Disable
	AntennaPower bool `yaml:"antennaPower" json:"antennaPower"` // -p antenna_enable Antenna port power, 1=Enable, 0=Disable
}

func (c *Config) Validate() error {
	// LNA gain validation (0-40dB in 8dB steps)
	if c.LNAGain != nil {
		if *c.LNAGain < 0 || *c.LNAGain > MaxLNAGain {
			return driver.NewConfigError(fmt.Sprintf("hackrf.Config: LNA gain must be between 0 and 40 dB: %d given", *c.LNAGain))
		}
		if *c.LNAGain%LNAGainStep != 0 {
			return driver.NewConfigError("hackrf.Config: LNA gain must be a multiple of 8 dB")
		}
	}

	// VGA gain validation (0-62dB in 2dB steps)
	if c.VGAGain != nil {
		if *c.VGAGain < 0 || *c.VGAGain > MaxVGAGain {
			return driver.NewConfigError(fmt.Sprintf("hackrf.Config: VGA gain must be between 0 and 62 dB: %d given", *c.VGAGain))
		}
		if *c.VGAGain%VGAGainStep != 0 {
			return driver.NewConfigError("hackrf.Config: VGA gain must be a multiple of 2 dB")
		}
	}

	if c.BasebandFilter != 0 && (c.BasebandFilter < MinBasebandFilter || c.BasebandFilter > MaxBasebandFilter) {
		return driver.NewConfigError(fmt.Sprintf("hackrf.Config: baseband filter must be between 1.75 and 28 MHz: %d given", c.BasebandFilter))
	}

	return nil
}

// rawSamples is the number of samples requested from the tool for numSamples
// output samples.
func rawSamples(numSamples int) int {
	return numSamples*Decimation + settleSamples
}

// Args builds the command line arguments for `hackrf_transfer`
// See `man hackrf_transfer` for more information:
// https://manpages.debian.org/bookworm/hackrf/hackrf_transfer.1.en.html
func (c *Config) Args(frequency float64, numSamples int) ([]string, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if frequency <= 0 {
		return nil, driver.NewConfigError(fmt.Sprintf("hackrf.Config: frequency must be positive: %.0f", frequency))
	}
	if numSamples <= 0 {
		return nil, driver.NewConfigError(fmt.Sprintf("hackrf.Config: number of samples must be positive: %d", numSamples))
	}

	args := []string{
		"-r", "-", // Always dump to stdout
		"-f", strconv.FormatInt(int64(frequency+0.5), 10),
		"-s", strconv.Itoa(SampleRate),
		"-n", strconv.Itoa(rawSamples(numSamples)),
	}

	if c.SerialNumber != "" {
		args = append(args, "-d", c.SerialNumber)
	}

	if c.LNAGain != nil {
		args = append(args, "-l", strconv.Itoa(*c.LNAGain))
	}

	if c.VGAGain != nil {
		args = append(args, "-g", strconv.Itoa(*c.VGAGain))
	}

	if c.BasebandFilter > 0 {
		args = append(args, "-b", strconv.FormatInt(c.BasebandFilter, 10))
	}

	if c.EnableAmp {
		args = append(args, "-a", "1")
	}

	if c.AntennaPower {
		args = append(args, "-p", "1")
	}

	return args, nil
}
