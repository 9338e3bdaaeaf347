package storage

import (
	"database/sql"
	"errors"

	"github.com/roman-kulish/cellsearch/internal/spectrum"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if cErr := rb.Rollback(); cErr != nil && !errors.Is(cErr, sql.ErrTxDone) && *err == nil {
		*err = cErr
	}
}

func toScanSession(data *sessionData) *spectrum.ScanSession {
	sess := spectrum.ScanSession{
		ID:         data.ID,
		RunID:      data.RunID,
		StartTime:  data.StartTime,
		DeviceType: data.DeviceType,
		DeviceID:   data.DeviceID,
		Mode:       data.Mode,
		Correction: data.Correction,
	}
	if data.Config.Valid {
		sess.Config = &data.Config.String
	}
	return &sess
}

func toOffsetPower(data *profileData) (spectrum.OffsetPower, bool) {
	if !data.Offset.Valid {
		return spectrum.OffsetPower{}, false
	}
	return spectrum.OffsetPower{
		Offset:    data.Offset.Float64,
		Power:     data.Power.Float64,
		Threshold: data.Threshold.Float64,
	}, true
}
