package rtl

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/cellsearch/internal/sdr/driver"
)

const (
	SampleRate = 1_920_000

	BlockSizeMin  = 512
	BlockSizeMax  = 256 * 16384
	MaxGain       = 50
	MaxSettleTime = time.Second

	// DefaultSettleTime is discarded after tuning while the PLL and AGC settle
	DefaultSettleTime = 50 * time.Millisecond
)

type TimeDuration time.Duration

func NewTimeDuration(d time.Duration) TimeDuration {
	return TimeDuration(d)
}

func (d *TimeDuration) UnmarshalYAML(value *yaml.Node) error {
	duration, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("rtl.TimeDuration: failed to parse: %s", err)
	}

	*d = TimeDuration(duration)
	return nil
}

func (d TimeDuration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

func (d *TimeDuration) UnmarshalJSON(bytes []byte) error {
	var v string
	if err := json.Unmarshal(bytes, &v); err != nil {
		return err
	}

	duration, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("rtl.TimeDuration: failed to parse: %s", err)
	}

	*d = TimeDuration(duration)
	return nil
}

func (d TimeDuration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d TimeDuration) Validate() error {
	duration := time.Duration(d)

	if duration < 0 {
		return fmt.Errorf("rtl.TimeDuration: must not be negative: %s", duration)
	}
	if duration > MaxSettleTime {
		return fmt.Errorf("rtl.TimeDuration: must be at most %s: %s given", MaxSettleTime, duration)
	}

	return nil
}

func (d TimeDuration) String() string {
	return time.Duration(d).String()
}

// Samples returns the number of samples spanned by d at SampleRate.
func (d TimeDuration) Samples() int {
	return int(int64(d) * SampleRate / int64(time.Second))
}

/*
Example: capture 80 ms at 739 MHz
    rtlConfig := rtl.Config{
        Gain:       ptr(40.2),
        SettleTime: rtl.NewTimeDuration(50 * time.Millisecond),
    }
    args, _ := rtlConfig.Args(739_000_000, 153_600)
    // Executes: rtl_sdr -f 739000000 -s 1920000 -n 249600 -d 0 -g 40.2 -
*/

// Config is the `rtl_sdr` tool configuration
type Config struct {
	DeviceIndex int      `yaml:"deviceIndex" json:"deviceIndex"` // -d device_index (default: 0)
	Gain        *float64 `yaml:"gain" json:"gain"`               // -g gain in dB (default: automatic)
	PPMError    int      `yaml:"ppmError" json:"ppmError"`       // -p ppm_error (default: 0)
	BlockSize   int      `yaml:"blockSize" json:"blockSize"`     // -b output_block_size (default: 16 * 16384)

	// Discarded samples at the start of each capture
	SettleTime TimeDuration `yaml:"settleTime" json:"settleTime"`
}

func (c *Config) Validate() error {
	if c.DeviceIndex < 0 {
		return driver.NewConfigError(fmt.Sprintf("rtl.Config: device index must not be negative: %d", c.DeviceIndex))
	}

	if c.Gain != nil && (*c.Gain < 0 || *c.Gain > MaxGain) {
		return driver.NewConfigError(fmt.Sprintf("rtl.Config: gain must be between 0 and %d dB: %.1f given", MaxGain, *c.Gain))
	}

	if c.BlockSize != 0 {
		if c.BlockSize < BlockSizeMin || c.BlockSize > BlockSizeMax {
			return driver.NewConfigError(fmt.Sprintf("rtl.Config: invalid block size: %d, must be between %d and %d", c.BlockSize, BlockSizeMin, BlockSizeMax))
		}
		if c.BlockSize%BlockSizeMin != 0 {
			return driver.NewConfigError(fmt.Sprintf("rtl.Config: block size must be a multiple of %d: %d given", BlockSizeMin, c.BlockSize))
		}
	}

	if err := c.SettleTime.Validate(); err != nil {
		return driver.NewConfigError(fmt.Sprintf("rtl.Config: invalid settle time: %s", err))
	}

	return nil
}

// Args returns the command line arguments for `rtl_sdr`, requesting the settle
// samples on top of numSamples.
// See `man rtl_sdr` for more information:
// https://manpages.debian.org/bookworm/rtl-sdr/rtl_sdr.1.en.html
func (c *Config) Args(frequency float64, numSamples int) ([]string, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if frequency <= 0 {
		return nil, driver.NewConfigError(fmt.Sprintf("rtl.Config: frequency must be positive: %.0f", frequency))
	}
	if numSamples <= 0 {
		return nil, driver.NewConfigError(fmt.Sprintf("rtl.Config: number of samples must be positive: %d", numSamples))
	}

	args := []string{
		"-f", strconv.FormatInt(int64(frequency+0.5), 10),
		"-s", strconv.Itoa(SampleRate),
		"-n", strconv.Itoa(numSamples + c.SettleTime.Samples()),
	}

	args = append(args, "-d", strconv.Itoa(c.DeviceIndex)) // 0 is the default device index

	if c.Gain != nil {
		args = append(args, "-g", strconv.FormatFloat(*c.Gain, 'f', 1, 64))
	}

	if c.PPMError != 0 {
		args = append(args, "-p", strconv.Itoa(c.PPMError))
	}

	if c.BlockSize > 0 {
		args = append(args, "-b", strconv.Itoa(c.BlockSize))
	}

	args = append(args, "-") // Always dump to stdout

	return args, nil
}

func (c *Config) String() string {
	args, err := c.Args(100e6, 1)
	if err != nil {
		return fmt.Sprintf("rtl.Config: failed to build args: %s", err)
	}
	return fmt.Sprintf("%s %s", Runtime, strings.Join(args, " "))
}
