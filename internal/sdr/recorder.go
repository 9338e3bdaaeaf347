package sdr

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/xxh3"
	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/cellsearch/internal/lte"
)

var (
	// ErrNoRecording is returned when no recording exists for a center frequency
	ErrNoRecording = errors.New("no recording")

	// ErrCorruptRecording is returned when a recording fails its checksum or size check
	ErrCorruptRecording = errors.New("corrupt recording")

	// ErrSampleRate is returned when a recording was not taken at lte.SampleRate
	ErrSampleRate = errors.New("unexpected sample rate")
)

// recordingMeta is the YAML sidecar stored next to every sample file.
type recordingMeta struct {
	CenterFrequency float64   `yaml:"centerFrequency"`
	Correction      float64   `yaml:"correction"`
	SampleRate      float64   `yaml:"sampleRate"`
	Samples         int       `yaml:"samples"`
	Checksum        string    `yaml:"checksum"` // xxh3 of the sample file
	Recorded        time.Time `yaml:"recorded"`
}

// Recorder stores captures as capbuf_<kHz>.iq files of little-endian float32
// I/Q pairs, each with a capbuf_<kHz>.yaml sidecar.
type Recorder struct {
	dir string
}

// NewRecorder creates a recorder rooted at dir.
func NewRecorder(dir string) *Recorder {
	return &Recorder{dir: dir}
}

func (r *Recorder) name(fc float64) string {
	return filepath.Join(r.dir, fmt.Sprintf("capbuf_%d", int64(math.Round(fc/1e3))))
}

// Path returns the sample file used for center frequency fc.
func (r *Recorder) Path(fc float64) string {
	return r.name(fc) + ".iq"
}

// Save writes a capture and its sidecar, replacing any earlier recording.
func (r *Recorder) Save(capture *lte.Capture) error {
	data := make([]byte, 8*len(capture.Samples))
	for i, s := range capture.Samples {
		binary.LittleEndian.PutUint32(data[8*i:], math.Float32bits(float32(real(s))))
		binary.LittleEndian.PutUint32(data[8*i+4:], math.Float32bits(float32(imag(s))))
	}

	meta := recordingMeta{
		CenterFrequency: capture.CenterFrequency,
		Correction:      capture.Correction,
		SampleRate:      capture.SampleRate,
		Samples:         len(capture.Samples),
		Checksum:        fmt.Sprintf("%016x", xxh3.Hash(data)),
		Recorded:        time.Now().UTC(),
	}
	sidecar, err := yaml.Marshal(&meta)
	if err != nil {
		return fmt.Errorf("failed to encode recording metadata: %w", err)
	}

	base := r.name(capture.CenterFrequency)
	if err = os.WriteFile(base+".iq", data, 0o644); err != nil {
		return fmt.Errorf("failed to write samples: %w", err)
	}
	if err = os.WriteFile(base+".yaml", sidecar, 0o644); err != nil {
		return fmt.Errorf("failed to write recording metadata: %w", err)
	}
	return nil
}

// Load reads the recording for center frequency fc. A missing sample file
// yields ErrNoRecording; a recording without sidecar is loaded unchecked.
func (r *Recorder) Load(fc float64) (*lte.Capture, error) {
	base := r.name(fc)

	data, err := os.ReadFile(base + ".iq")
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoRecording, base+".iq")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read samples: %w", err)
	}
	if len(data)%8 != 0 {
		return nil, fmt.Errorf("%w: %s has %d trailing bytes", ErrCorruptRecording, base+".iq", len(data)%8)
	}

	capture := &lte.Capture{
		CenterFrequency: fc,
		Correction:      1,
		SampleRate:      lte.SampleRate,
	}

	sidecar, err := os.ReadFile(base + ".yaml")
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read recording metadata: %w", err)
	default:
		var meta recordingMeta
		if err = yaml.Unmarshal(sidecar, &meta); err != nil {
			return nil, fmt.Errorf("failed to decode recording metadata: %w", err)
		}
		if sum := fmt.Sprintf("%016x", xxh3.Hash(data)); sum != meta.Checksum {
			return nil, fmt.Errorf("%w: checksum %s, expected %s", ErrCorruptRecording, sum, meta.Checksum)
		}
		if meta.Samples != len(data)/8 {
			return nil, fmt.Errorf("%w: %d samples, expected %d", ErrCorruptRecording, len(data)/8, meta.Samples)
		}
		if meta.Correction > 0 {
			capture.Correction = meta.Correction
		}
		if meta.SampleRate > 0 {
			capture.SampleRate = meta.SampleRate
		}
	}

	capture.Samples = make([]complex128, len(data)/8)
	for i := range capture.Samples {
		re := math.Float32frombits(binary.LittleEndian.Uint32(data[8*i:]))
		im := math.Float32frombits(binary.LittleEndian.Uint32(data[8*i+4:]))
		capture.Samples[i] = complex(float64(re), float64(im))
	}
	return capture, nil
}
