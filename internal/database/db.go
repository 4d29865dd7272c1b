package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tradeplusonline/accessbot/models"
)

// DB represents a database connection
type DB struct {
	*sql.DB
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// New creates a new database connection
func New(params ConnectionParams) (*DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		params.Host, params.Port, params.User, params.Password, params.DBName, params.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Check connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	// Create tables if they don't exist
	if err := createTables(db); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS entitlements (
			user_id BIGINT PRIMARY KEY,
			chat_id BIGINT NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL,
			lang TEXT NOT NULL DEFAULT 'uk'
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS gpt_log (
			user_id BIGINT NOT NULL,
			question TEXT NOT NULL,
			asked_at TIMESTAMPTZ NOT NULL
		)
	`)

	return err
}

// UpsertEntitlement inserts or unconditionally overwrites a user's
// entitlement. The expiry is never merged with a previous record; last write
// wins, keyed by user_id.
func (db *DB) UpsertEntitlement(userID, chatID int64, expiresAt time.Time) error {
	_, err := db.Exec(`
		INSERT INTO entitlements (user_id, chat_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id)
		DO UPDATE SET
			chat_id = EXCLUDED.chat_id,
			expires_at = EXCLUDED.expires_at
	`, userID, chatID, expiresAt)

	return err
}

// GetEntitlement retrieves a user's entitlement. Returns (nil, nil) when no
// record exists; absence is not an error.
func (db *DB) GetEntitlement(userID int64) (*models.Entitlement, error) {
	var ent models.Entitlement

	err := db.QueryRow(`
		SELECT user_id, chat_id, expires_at, lang
		FROM entitlements
		WHERE user_id = $1
	`, userID).Scan(&ent.UserID, &ent.ChatID, &ent.ExpiresAt, &ent.Lang)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // No entitlement found
		}
		return nil, err
	}

	return &ent, nil
}

// DeleteEntitlement removes a user's entitlement. Idempotent: deleting an
// absent record is not an error.
func (db *DB) DeleteEntitlement(userID int64) error {
	_, err := db.Exec(`
		DELETE FROM entitlements
		WHERE user_id = $1
	`, userID)

	return err
}

// ListEntitlements returns a snapshot of every entitlement. Row order is
// whatever the database gives back; callers must not depend on it.
func (db *DB) ListEntitlements() ([]models.Entitlement, error) {
	rows, err := db.Query(`
		SELECT user_id, chat_id, expires_at, lang
		FROM entitlements
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ents []models.Entitlement
	for rows.Next() {
		var ent models.Entitlement
		if err := rows.Scan(&ent.UserID, &ent.ChatID, &ent.ExpiresAt, &ent.Lang); err != nil {
			return nil, err
		}
		ents = append(ents, ent)
	}

	return ents, rows.Err()
}

// SetLanguage updates the stored language for a user that already has an
// entitlement row. Users without a row keep their language in session only.
func (db *DB) SetLanguage(userID int64, lang string) error {
	_, err := db.Exec(`
		UPDATE entitlements
		SET lang = $1
		WHERE user_id = $2
	`, lang, userID)

	return err
}

// LogQuestion records one GPT question for the daily quota.
func (db *DB) LogQuestion(userID int64, question string, askedAt time.Time) error {
	_, err := db.Exec(`
		INSERT INTO gpt_log (user_id, question, asked_at)
		VALUES ($1, $2, $3)
	`, userID, question, askedAt)

	return err
}

// CountQuestionsToday returns how many questions a user asked since the
// given day started. The counter resets naturally at the date boundary.
func (db *DB) CountQuestionsToday(userID int64, dayStart time.Time) (int, error) {
	var count int

	err := db.QueryRow(`
		SELECT COUNT(*)
		FROM gpt_log
		WHERE user_id = $1 AND asked_at >= $2
	`, userID, dayStart).Scan(&count)

	return count, err
}
