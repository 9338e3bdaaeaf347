package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/roman-kulish/cellsearch/internal/spectrum"
)

// ProfileReader provides an iterator-based interface for reading the stored
// correlation profile of a session with optional center frequency filtering.
type ProfileReader interface {
	// Session returns metadata about the search session this reader is accessing.
	Session() *spectrum.ScanSession

	// Next advances the iterator and returns true if there is another row
	// to read, false when the iteration is complete or if an error occurred.
	Next(context.Context) bool

	// Current returns the current profile row in the iteration.
	// If called after Next() returns false, the behavior is undefined.
	Current() *spectrum.ProfileRow

	// Error returns any error that occurred during iteration.
	// If Next() returns false, Error() should be checked to distinguish between
	// end of data and an error condition.
	Error() error

	// Close releases any resources associated with the reader.
	Close() error
}

var _ ProfileReader = (*SqliteProfileReader)(nil)

// ReaderOption configures a profile reader with specific filtering criteria.
type ReaderOption func(*SqliteProfileReader)

// WithMinFreq excludes center frequencies below f.
func WithMinFreq(f float64) ReaderOption {
	return func(r *SqliteProfileReader) {
		r.minFreq = f
	}
}

// WithMaxFreq excludes center frequencies above f.
func WithMaxFreq(f float64) ReaderOption {
	return func(r *SqliteProfileReader) {
		r.maxFreq = f
	}
}

// WithFreqRange sets both minimum and maximum center frequency filters.
func WithFreqRange(minFreq, maxFreq float64) ReaderOption {
	return func(r *SqliteProfileReader) {
		r.minFreq = minFreq
		r.maxFreq = maxFreq
	}
}

// SqliteProfileReader implements ProfileReader for SQLite database backend.
type SqliteProfileReader struct {
	db *sql.DB

	sessionID int64
	session   *spectrum.ScanSession

	minFreq float64
	maxFreq float64

	currentRow *spectrum.ProfileRow
	pending    *profileData // first record of the next row
	rows       *sql.Rows
	err        error
}

func newSqliteProfileReader(ctx context.Context, db *sql.DB, sessionID int64, opts ...ReaderOption) (*SqliteProfileReader, error) {
	r := &SqliteProfileReader{
		db:        db,
		sessionID: sessionID,
		minFreq:   0,
		maxFreq:   math.MaxFloat64,
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.init(ctx); err != nil {
		return nil, fmt.Errorf("initializing reader: %w", err)
	}
	return r, nil
}

func (r *SqliteProfileReader) init(ctx context.Context) error {
	if r.db == nil {
		return errors.New("database connection required")
	}
	if r.sessionID <= 0 {
		return errors.New("session ID required")
	}
	if r.minFreq > r.maxFreq {
		return fmt.Errorf("min frequency %f is greater than max frequency %f", r.minFreq, r.maxFreq)
	}

	steps := []struct {
		msg string
		fn  func(context.Context) error
	}{
		{msg: "loading session", fn: r.loadSession},
		{msg: "initializing query", fn: r.initQuery},
	}
	for _, s := range steps {
		if err := s.fn(ctx); err != nil {
			return fmt.Errorf("%s: %w", s.msg, err)
		}
	}
	return nil
}

func (r *SqliteProfileReader) loadSession(ctx context.Context) (err error) {
	stmt, err := r.db.PrepareContext(ctx, selectSessionSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	if r.session, err = scanSession(stmt.QueryRowContext(ctx, r.sessionID)); err != nil {
		return fmt.Errorf("querying session: %w", err)
	}
	return
}

func (r *SqliteProfileReader) initQuery(ctx context.Context) (err error) {
	r.rows, err = r.db.QueryContext(ctx, selectProfileSQL, r.sessionID, r.minFreq, r.maxFreq)
	return
}

func (r *SqliteProfileReader) scanRecord() (*profileData, error) {
	var data profileData
	err := r.rows.Scan(
		&data.SweepIndex,
		&data.Timestamp,
		&data.CenterFrequency,
		&data.Peaks,
		&data.Rejected,
		&data.Confirmed,
		&data.Offset,
		&data.Power,
		&data.Threshold,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning profile: %w", err)
	}
	return &data, nil
}

func newProfileRow(data *profileData) *spectrum.ProfileRow {
	row := &spectrum.ProfileRow{
		Index:           data.SweepIndex,
		Timestamp:       data.Timestamp,
		CenterFrequency: data.CenterFrequency,
		Peaks:           data.Peaks,
		Rejected:        data.Rejected,
		Confirmed:       data.Confirmed,
	}
	if p, ok := toOffsetPower(data); ok {
		row.Points = append(row.Points, p)
	}
	return row
}

func (r *SqliteProfileReader) Session() *spectrum.ScanSession {
	return r.session
}

func (r *SqliteProfileReader) Next(ctx context.Context) bool {
	if r.err != nil || r.rows == nil {
		return false
	}

	r.currentRow = nil
	if r.pending != nil {
		r.currentRow = newProfileRow(r.pending)
		r.pending = nil
	}

	for {
		select {
		case <-ctx.Done():
			r.err = ctx.Err()
			return false
		default:
		}

		if !r.rows.Next() {
			return r.currentRow != nil
		}

		data, err := r.scanRecord()
		if err != nil {
			r.err = err
			return false
		}

		if r.currentRow == nil {
			r.currentRow = newProfileRow(data)
			continue
		}

		// Sweep index changed, the current row is complete
		if data.SweepIndex != r.currentRow.Index {
			r.pending = data
			return true
		}

		if p, ok := toOffsetPower(data); ok {
			r.currentRow.Points = append(r.currentRow.Points, p)
		}
	}
}

func (r *SqliteProfileReader) Current() *spectrum.ProfileRow {
	return r.currentRow
}

func (r *SqliteProfileReader) Error() error {
	if r.err != nil {
		return r.err
	}
	if r.rows != nil {
		return r.rows.Err()
	}
	return nil
}

func (r *SqliteProfileReader) Close() error {
	if r.rows != nil {
		err := r.rows.Close()
		r.currentRow = nil
		r.pending = nil
		r.rows = nil
		return err
	}
	return nil
}
