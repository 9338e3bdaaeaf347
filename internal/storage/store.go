package storage

import (
	"context"

	"github.com/roman-kulish/cellsearch/internal/spectrum"
)

// Store provides an interface for managing cell search result storage operations.
// It handles sessions, per-sweep correlation profiles and detected cells.
// All operations that write to the database should be considered atomic.
type Store interface {
	// CreateSession records the start of a search run and returns its unique identifier.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - session: Session metadata; ID, RunID and StartTime are filled in on success
	//   - config: Optional search configuration. Can be string, []byte, or JSON-serializable object
	//
	// Returns:
	//   - sessionID: Unique identifier for the created session
	//   - error: If session creation fails or context is cancelled
	CreateSession(ctx context.Context, session *spectrum.ScanSession, config any) (sessionID int64, err error)

	// Session retrieves a specific search session by its ID.
	Session(ctx context.Context, id int64) (session *spectrum.ScanSession, err error)

	// Sessions returns all search sessions stored in the database,
	// ordered by start time in ascending order.
	Sessions(ctx context.Context) (sessions []*spectrum.ScanSession, err error)

	// StoreProfile saves the outcome and correlation profile of one center
	// frequency in a single transaction.
	StoreProfile(ctx context.Context, sessionID int64, row *spectrum.ProfileRow) error

	// StoreCells saves the final, deduplicated cells of a session.
	StoreCells(ctx context.Context, sessionID int64, cells []spectrum.DetectedCell) error

	// Cells returns the cells of a session in the order they were stored.
	Cells(ctx context.Context, sessionID int64) ([]spectrum.DetectedCell, error)

	// Close releases all database connections and resources.
	// It is safe to call Close multiple times.
	Close() error
}

var _ Store = (*SqliteStore)(nil)
