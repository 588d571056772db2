// Package store persists the notification log in SQLite. The store is an
// explicit object constructed once per process and injected where needed;
// there is no package-level state.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"dispatch-sim/internal/model"
)

// Repository is the persistence contract for the notification log.
type Repository interface {
	Init() error
	Append(n model.Notification) error
	MarkRead(id string) error
	List(limit int) ([]model.Notification, error)
	UnreadCount() (int, error)
	Close() error
}

// NotificationStore handles all SQLite interactions for the notification log.
type NotificationStore struct {
	db *sql.DB
}

func NewNotificationStore(dbPath string) (*NotificationStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &NotificationStore{db: db}
	if err := s.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return s, nil
}

// Init creates the notifications table and its indexes.
func (s *NotificationStore) Init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		target_type TEXT NOT NULL,
		target_id TEXT NOT NULL,
		message TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		read INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_created_at ON notifications(created_at);
	CREATE INDEX IF NOT EXISTS idx_target ON notifications(target_type, target_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append inserts one notification. The log is append-only; existing rows are
// never replaced.
func (s *NotificationStore) Append(n model.Notification) error {
	_, err := s.db.Exec(`
		INSERT INTO notifications (id, target_type, target_id, message, created_at, read)
		VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID, string(n.TargetType), n.TargetID, n.Message,
		n.CreatedAt.Format(time.RFC3339Nano), boolToInt(n.Read),
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification %s: %w", n.ID, err)
	}
	return nil
}

// Emit satisfies the proximity engine's sink contract.
func (s *NotificationStore) Emit(n model.Notification) error {
	return s.Append(n)
}

// MarkRead flips the read flag; the only mutation the log allows.
func (s *NotificationStore) MarkRead(id string) error {
	res, err := s.db.Exec(`UPDATE notifications SET read = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification %s read: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("notification %s not found", id)
	}
	return nil
}

// List returns the newest notifications first, up to limit.
func (s *NotificationStore) List(limit int) ([]model.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, target_type, target_id, message, created_at, read
		FROM notifications
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		var n model.Notification
		var targetType, createdAt string
		var read int
		if err := rows.Scan(&n.ID, &targetType, &n.TargetID, &n.Message, &createdAt, &read); err != nil {
			return nil, err
		}
		n.TargetType = model.TargetType(targetType)
		n.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		n.Read = read != 0
		out = append(out, n)
	}
	return out, rows.Err()
}

// UnreadCount reports how many notifications are still unread.
func (s *NotificationStore) UnreadCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM notifications WHERE read = 0`).Scan(&count)
	return count, err
}

func (s *NotificationStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
