// Package history persists farmer chat history: users, conversations,
// and messages. Storage is embedded SQLite so the service needs no
// external database to start.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id                 TEXT PRIMARY KEY,
	phone_number       TEXT NOT NULL UNIQUE,
	preferred_language TEXT NOT NULL DEFAULT 'en',
	created_at         TIMESTAMP NOT NULL,
	last_active_at     TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS conversations (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	started_at    TIMESTAMP NOT NULL,
	message_count INTEGER NOT NULL DEFAULT 0,
	is_active     INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS messages (
	id              TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
	role            TEXT NOT NULL,
	content         TEXT NOT NULL,
	language        TEXT NOT NULL DEFAULT 'en',
	created_at      TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at);
CREATE INDEX IF NOT EXISTS idx_conversations_user ON conversations(user_id, is_active);
`

// User is a farmer profile keyed by phone number.
type User struct {
	ID                string
	PhoneNumber       string
	PreferredLanguage string
	CreatedAt         time.Time
	LastActiveAt      time.Time
}

// Conversation groups the messages of one user session.
type Conversation struct {
	ID           string
	UserID       string
	StartedAt    time.Time
	MessageCount int
	IsActive     bool
}

// Message is one chat turn within a conversation.
type Message struct {
	ID             string
	ConversationID string
	Role           string // user or assistant
	Content        string
	Language       string
	CreatedAt      time.Time
}

// Store is a SQLite-backed chat history store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) the history database under
// dataDir.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "history.db")

	// WAL keeps readers unblocked while chat turns are written.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// EnsureUser returns the user with the given phone number, creating the
// profile on first contact and refreshing last_active_at otherwise.
func (s *Store) EnsureUser(ctx context.Context, phoneNumber string) (User, error) {
	now := time.Now().UTC()

	var u User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, phone_number, preferred_language, created_at, last_active_at
		 FROM users WHERE phone_number = ?`, phoneNumber).
		Scan(&u.ID, &u.PhoneNumber, &u.PreferredLanguage, &u.CreatedAt, &u.LastActiveAt)
	switch {
	case err == nil:
		if _, err := s.db.ExecContext(ctx,
			`UPDATE users SET last_active_at = ? WHERE id = ?`, now, u.ID); err != nil {
			return User{}, fmt.Errorf("updating user activity: %w", err)
		}
		u.LastActiveAt = now
		return u, nil
	case errors.Is(err, sql.ErrNoRows):
		u = User{
			ID:                uuid.NewString(),
			PhoneNumber:       phoneNumber,
			PreferredLanguage: "en",
			CreatedAt:         now,
			LastActiveAt:      now,
		}
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO users (id, phone_number, preferred_language, created_at, last_active_at)
			 VALUES (?, ?, ?, ?, ?)`,
			u.ID, u.PhoneNumber, u.PreferredLanguage, u.CreatedAt, u.LastActiveAt); err != nil {
			return User{}, fmt.Errorf("creating user: %w", err)
		}
		return u, nil
	default:
		return User{}, fmt.Errorf("looking up user: %w", err)
	}
}

// SetPreferredLanguage records the user's preferred response language.
func (s *Store) SetPreferredLanguage(ctx context.Context, userID, code string) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE users SET preferred_language = ? WHERE id = ?`, code, userID); err != nil {
		return fmt.Errorf("updating preferred language: %w", err)
	}
	return nil
}

// ActiveConversation returns the user's active conversation, starting a
// new one if none exists.
func (s *Store) ActiveConversation(ctx context.Context, userID string) (Conversation, error) {
	var c Conversation
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, started_at, message_count, is_active
		 FROM conversations WHERE user_id = ? AND is_active = 1
		 ORDER BY started_at DESC LIMIT 1`, userID).
		Scan(&c.ID, &c.UserID, &c.StartedAt, &c.MessageCount, &c.IsActive)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Conversation{}, fmt.Errorf("looking up conversation: %w", err)
	}

	c = Conversation{
		ID:        uuid.NewString(),
		UserID:    userID,
		StartedAt: time.Now().UTC(),
		IsActive:  true,
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, user_id, started_at, message_count, is_active)
		 VALUES (?, ?, ?, 0, 1)`, c.ID, c.UserID, c.StartedAt); err != nil {
		return Conversation{}, fmt.Errorf("creating conversation: %w", err)
	}
	return c, nil
}

// AppendMessage stores one chat turn and bumps the conversation's
// message count.
func (s *Store) AppendMessage(ctx context.Context, conversationID, role, content, lang string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, role, content, language, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), conversationID, role, content, lang, time.Now().UTC()); err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE conversations SET message_count = message_count + 1 WHERE id = ?`,
		conversationID); err != nil {
		return fmt.Errorf("updating message count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing message: %w", err)
	}
	return nil
}

// RecentMessages returns up to limit messages of a conversation, oldest
// first.
func (s *Store) RecentMessages(ctx context.Context, conversationID string, limit int) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, role, content, language, created_at
		 FROM (
			SELECT * FROM messages WHERE conversation_id = ?
			ORDER BY created_at DESC LIMIT ?
		 ) ORDER BY created_at ASC`, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.Language, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
