package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roman-kulish/cellsearch/internal/spectrum"
)

// SqliteStore handles database operations
type SqliteStore struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// NewSqliteStore creates a store backed by the SQLite database at dbPath.
// Connections are opened lazily and the schema is created on first write.
func NewSqliteStore(dbPath string) *SqliteStore {
	return &SqliteStore{dbPath: dbPath}
}

func runSQLCommand(db *sql.DB, sql string) error {
	_, err := db.Exec(sql)
	return err
}

func (s *SqliteStore) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}
		db.SetMaxOpenConns(1) // SQLite allows a single writer

		if err = runSQLCommand(db, initSchemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *SqliteStore) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

func (s *SqliteStore) CreateSession(ctx context.Context, session *spectrum.ScanSession, config any) (sessionID int64, err error) {
	var configData sql.NullString

	if config != nil {
		switch c := config.(type) {
		case string:
			configData.Valid = true
			configData.String = c

		case []byte:
			configData.Valid = true
			configData.String = string(c)

		default:
			var p []byte
			if p, err = json.Marshal(config); err != nil {
				err = fmt.Errorf("marshaling config: %w", err)
				return
			}

			configData.Valid = true
			configData.String = string(p)
		}
	}

	runID := session.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	startTime := session.StartTime
	if startTime.IsZero() {
		startTime = time.Now()
	}

	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, insertSessionSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	result, err := stmt.ExecContext(ctx, runID, startTime.UTC(), session.DeviceType, session.DeviceID, session.Mode, session.Correction, configData)
	if err != nil {
		err = fmt.Errorf("inserting session: %w", err)
		return
	}

	sessionID, err = result.LastInsertId()
	if err != nil {
		err = fmt.Errorf("getting session ID: %w", err)
		return
	}

	session.ID, session.RunID, session.StartTime = sessionID, runID, startTime.UTC()
	return
}

func scanSession(row interface{ Scan(...any) error }) (*spectrum.ScanSession, error) {
	var data sessionData
	err := row.Scan(&data.ID, &data.RunID, &data.StartTime, &data.DeviceType, &data.DeviceID, &data.Mode, &data.Correction, &data.Config)
	if err != nil {
		return nil, err
	}
	return toScanSession(&data), nil
}

func (s *SqliteStore) Session(ctx context.Context, id int64) (session *spectrum.ScanSession, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, selectSessionSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	if session, err = scanSession(stmt.QueryRowContext(ctx, id)); err != nil {
		err = fmt.Errorf("scanning session: %w", err)
	}
	return
}

func (s *SqliteStore) Sessions(ctx context.Context) (sessions []*spectrum.ScanSession, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectSessionsSQL)
	if err != nil {
		err = fmt.Errorf("querying sessions: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var sess *spectrum.ScanSession
		if sess, err = scanSession(rows); err != nil {
			err = fmt.Errorf("scanning session: %w", err)
			return
		}
		sessions = append(sessions, sess)
	}
	err = rows.Err()
	return
}

func (s *SqliteStore) StoreProfile(ctx context.Context, sessionID int64, row *spectrum.ProfileRow) (err error) {
	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	result, err := tx.ExecContext(ctx, insertSweepSQL,
		sessionID,
		row.Index,
		row.Timestamp.UTC(),
		row.CenterFrequency,
		row.Peaks,
		row.Rejected,
		row.Confirmed,
	)
	if err != nil {
		return fmt.Errorf("inserting sweep: %w", err)
	}

	sweepID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting sweep ID: %w", err)
	}

	if len(row.Points) > 0 {
		// Prepare values array
		values := make([]interface{}, 0, len(row.Points)*4)

		// Build batch insert query
		valuesPlaceholder := "(?, ?, ?, ?)"

		var sb strings.Builder
		sb.WriteString(insertProfileSQL)

		for i, p := range row.Points {
			values = append(values, sweepID, p.Offset, p.Power, p.Threshold)

			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(valuesPlaceholder)
		}

		// Single batch insert
		if _, err = tx.ExecContext(ctx, sb.String(), values...); err != nil {
			return fmt.Errorf("batch inserting profile: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (s *SqliteStore) StoreCells(ctx context.Context, sessionID int64, cells []spectrum.DetectedCell) (err error) {
	if len(cells) == 0 {
		return
	}

	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	stmt, err := tx.PrepareContext(ctx, insertCellSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	for _, c := range cells {
		_, err = stmt.ExecContext(ctx,
			sessionID,
			c.CellID,
			c.CenterFrequency,
			c.FrequencyOffset,
			c.PeakPower,
			c.CP,
			c.NRBDL,
			c.PHICHDuration,
			c.PHICHResource,
			c.Ports,
			c.SFN,
			c.Correction,
		)
		if err != nil {
			return fmt.Errorf("inserting cell %d: %w", c.CellID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (s *SqliteStore) Cells(ctx context.Context, sessionID int64) (cells []spectrum.DetectedCell, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectCellsSQL, sessionID)
	if err != nil {
		err = fmt.Errorf("querying cells: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var c spectrum.DetectedCell
		err = rows.Scan(
			&c.CellID,
			&c.CenterFrequency,
			&c.FrequencyOffset,
			&c.PeakPower,
			&c.CP,
			&c.NRBDL,
			&c.PHICHDuration,
			&c.PHICHResource,
			&c.Ports,
			&c.SFN,
			&c.Correction,
		)
		if err != nil {
			err = fmt.Errorf("scanning cell: %w", err)
			return
		}
		cells = append(cells, c)
	}
	err = rows.Err()
	return
}

// ReadProfile creates a ProfileReader over the correlation profile of a
// session, one row per center frequency in sweep order.
//
// The returned reader must be closed after use to release database resources.
// Each reader instance should only be used from a single goroutine.
func (s *SqliteStore) ReadProfile(ctx context.Context, sessionID int64, opts ...ReaderOption) (*SqliteProfileReader, error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}
	return newSqliteProfileReader(ctx, db, sessionID, opts...)
}

func (s *SqliteStore) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.writeDB != nil {
			_ = runSQLCommand(s.writeDB, initIndexesSQL)

			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		s.closeErr = errors.Join(writeErr, readErr)
	})

	return s.closeErr
}
