package hackrf

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/roman-kulish/cellsearch/internal/sdr/driver"
)

func ptr[T any](v T) *T {
	return &v
}

func TestConfigArgs(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   []string
	}{
		{
			name:   "defaults",
			config: Config{},
			want:   []string{"-r", "-", "-f", "739000000", "-s", "3840000", "-n", "345600"},
		},
		{
			name: "all options",
			config: Config{
				SerialNumber:   "0000000000000000457863c82a2a1f5f",
				LNAGain:        ptr(24),
				VGAGain:        ptr(20),
				BasebandFilter: 1_750_000,
				EnableAmp:      true,
				AntennaPower:   true,
			},
			want: []string{
				"-r", "-", "-f", "739000000", "-s", "3840000", "-n", "345600",
				"-d", "0000000000000000457863c82a2a1f5f", "-l", "24", "-g", "20",
				"-b", "1750000", "-a", "1", "-p", "1",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.config.Args(739e6, 153_600)
			if err != nil {
				t.Fatalf("Args() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Args() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{"LNA gain too high", Config{LNAGain: ptr(48)}},
		{"LNA gain step", Config{LNAGain: ptr(12)}},
		{"VGA gain negative", Config{VGAGain: ptr(-2)}},
		{"VGA gain step", Config{VGAGain: ptr(21)}},
		{"baseband filter", Config{BasebandFilter: 100_000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfgErr *driver.ConfigError
			if err := tt.config.Validate(); !errors.As(err, &cfgErr) {
				t.Errorf("Validate() error = %v, want *driver.ConfigError", err)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	h := handler{}
	const n = 64

	raw := make([]byte, h.RawSize(n))
	for i := 2 * settleSamples; i < len(raw); i += 2 {
		raw[i] = 64 // 0.5 + 0i
	}

	got, err := h.Decode(raw, n)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(got) != n {
		t.Fatalf("len(Decode()) = %d, want %d", len(got), n)
	}
	// away from the edges the filter passes DC unchanged
	if v := got[n/2]; real(v) < 0.49 || real(v) > 0.51 || imag(v) != 0 {
		t.Errorf("Decode()[%d] = %v, want 0.5", n/2, v)
	}

	if _, err = h.Decode(raw[:10], n); err == nil {
		t.Error("Decode() of short input should fail")
	}
	if v := DecodeInt8([]byte{0x80, 0x7f}); v[0] != complex(-1, 127.0/128) {
		t.Errorf("DecodeInt8() = %v", v[0])
	}
}
