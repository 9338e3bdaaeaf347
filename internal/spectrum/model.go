package spectrum

import (
	"time"
)

// ScanSession represents a single cell search run with a specific device.
// Each session captures metadata about when and how the search was performed.
type ScanSession struct {
	ID         int64     `json:"ID"`                      // Unique identifier for the session
	RunID      string    `json:"runID"`                   // Random identifier shared with logs and recordings
	StartTime  time.Time `json:"startTime"`               // When the search began
	DeviceType string    `json:"deviceType"`              // Type of SDR device used (e.g., "rtl-sdr", "hackrf")
	DeviceID   string    `json:"deviceID"`                // Unique identifier of the specific device (e.g., serial number)
	Mode       string    `json:"mode"`                    // live, record or replay
	Correction float64   `json:"correction"`              // Oscillator correction factor in effect
	Config     *string   `json:"config,string,omitempty"` // Optional search configuration in JSON format
}

// OffsetPower is the strongest PSS correlation power seen at one frequency
// offset hypothesis, with the detection threshold it was compared against.
type OffsetPower struct {
	Offset    float64 `json:"offset"`    // Hz from the center frequency
	Power     float64 `json:"power"`     // Linear correlation power
	Threshold float64 `json:"threshold"` // Mean detection threshold of the sweep
}

// ProfileRow is the correlation profile of one center frequency: a row of
// the center frequency x offset detection map.
type ProfileRow struct {
	Index           int           `json:"index"` // Position in the sweep order
	Timestamp       time.Time     `json:"timestamp"`
	CenterFrequency float64       `json:"centerFrequency"` // Hz
	Peaks           int           `json:"peaks"`           // Candidates above threshold
	Rejected        int           `json:"rejected"`        // Candidates dropped by the pipeline
	Confirmed       int           `json:"confirmed"`       // Candidates with decoded MIB
	Points          []OffsetPower `json:"points,omitempty"`
}

// MaxPower returns the highest power of the row, zero when it is empty.
func (r *ProfileRow) MaxPower() float64 {
	var m float64
	for _, p := range r.Points {
		m = max(m, p.Power)
	}
	return m
}

// DetectedCell is a deduplicated LTE cell with decoded MIB.
type DetectedCell struct {
	CellID          int     `json:"cellID"`          // Physical cell identity, 0..503
	CenterFrequency float64 `json:"centerFrequency"` // Hz
	FrequencyOffset float64 `json:"frequencyOffset"` // Hz
	PeakPower       float64 `json:"peakPower"`       // Linear PSS correlation power
	CP              string  `json:"cp"`              // normal or extended
	NRBDL           int     `json:"nRBDL"`           // Downlink bandwidth in resource blocks
	PHICHDuration   string  `json:"phichDuration"`
	PHICHResource   string  `json:"phichResource"`
	Ports           int     `json:"ports"` // Transmit antenna ports
	SFN             int     `json:"sfn"`   // System frame number at the start of the capture
	Correction      float64 `json:"correction"`
}

// Frequency returns the carrier frequency of the cell.
func (c *DetectedCell) Frequency() float64 {
	return c.CenterFrequency + c.FrequencyOffset
}
