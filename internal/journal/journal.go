package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-presence/internal/gateway"
	"github.com/nerrad567/gray-logic-presence/internal/presence"
)

const (
	// DefaultLimit is the history page size when none is requested.
	DefaultLimit = 50
	// MaxLimit caps a history page.
	MaxLimit = 200

	// timeLayout is fixed width so stored timestamps sort lexically.
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

// ErrHostRequired is returned when a host name is missing.
var ErrHostRequired = errors.New("journal: host name is required")

// Entry is one journaled signal.
type Entry struct {
	ID         int64             `json:"id"`
	Identity   presence.Identity `json:"identity"`
	Signal     presence.Signal   `json:"signal"`
	SignalName string            `json:"signal_name"`
	Effect     string            `json:"effect"`
	ReceivedAt time.Time         `json:"received_at"`
}

// Journal stores signals in the signal_journal table.
//
// It is safe for concurrent use; serialisation is left to database/sql.
type Journal struct {
	db *sql.DB
}

var _ gateway.Hook = (*Journal)(nil)

// New creates a journal over an open database with the signal_journal migration applied.
func New(db *sql.DB) *Journal {
	return &Journal{db: db}
}

// OnSignal records ev. It implements gateway.Hook.
func (j *Journal) OnSignal(ctx context.Context, ev gateway.Event) error {
	return j.Record(ctx, ev.Message, string(ev.Effect), ev.ReceivedAt)
}

// Record appends one signal for msg's host.
func (j *Journal) Record(ctx context.Context, msg presence.Message, effect string, at time.Time) error {
	if msg.Identity.HostName == "" {
		return ErrHostRequired
	}
	if at.IsZero() {
		at = time.Now()
	}

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO signal_journal (host_name, ip_address, mac_address, signal, effect, received_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		msg.Identity.HostName,
		msg.Identity.IPAddress,
		msg.Identity.MACAddress,
		msg.Signal.Code(),
		effect,
		at.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting signal journal: %w", err)
	}
	return nil
}

// History returns a host's journal, newest first.
//
// Parameters:
//   - ctx: Context for the query
//   - host: Device host name; required
//   - limit: Page size; non-positive means DefaultLimit, capped at MaxLimit
//
// Returns:
//   - []Entry: Up to limit entries, newest first (empty for unknown hosts)
//   - error: ErrHostRequired, or the wrapped query error
func (j *Journal) History(ctx context.Context, host string, limit int) ([]Entry, error) {
	if host == "" {
		return nil, ErrHostRequired
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, host_name, ip_address, mac_address, signal, effect, received_at
		 FROM signal_journal
		 WHERE host_name = ?
		 ORDER BY received_at DESC, id DESC
		 LIMIT ?`,
		host, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying signal journal: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		var code int
		var receivedAt string
		if err := rows.Scan(&e.ID, &e.Identity.HostName, &e.Identity.IPAddress, &e.Identity.MACAddress,
			&code, &e.Effect, &receivedAt); err != nil {
			return nil, fmt.Errorf("scanning signal journal: %w", err)
		}

		e.Signal = presence.Signal(code)
		e.SignalName = e.Signal.String()
		if e.ReceivedAt, err = time.Parse(timeLayout, receivedAt); err != nil {
			return nil, fmt.Errorf("parsing received_at: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating signal journal: %w", err)
	}
	return entries, nil
}

// Prune deletes entries older than olderThan and returns how many were removed.
func (j *Journal) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("journal: olderThan must be positive")
	}

	cutoff := time.Now().UTC().Add(-olderThan).Format(timeLayout)
	result, err := j.db.ExecContext(ctx, "DELETE FROM signal_journal WHERE received_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting signal journal: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return n, nil
}
