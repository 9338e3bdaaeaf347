package storage

import (
	"database/sql"
	"time"
)

type sessionData struct {
	ID         int64
	RunID      string
	StartTime  time.Time
	DeviceType string
	DeviceID   string
	Mode       string
	Correction float64
	Config     sql.NullString
}

// profileData is one row of the sweeps/profile join; the profile columns are
// NULL for a sweep that recorded no profile.
type profileData struct {
	SweepIndex      int
	Timestamp       time.Time
	CenterFrequency float64
	Peaks           int
	Rejected        int
	Confirmed       int
	Offset          sql.NullFloat64
	Power           sql.NullFloat64
	Threshold       sql.NullFloat64
}
