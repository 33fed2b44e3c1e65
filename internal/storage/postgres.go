package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"crypto-signal-bot/models"
)

// PostgresStore persists subscriptions in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
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

// NewPostgresStore opens a connection and creates the schema if missing.
func NewPostgresStore(params ConnectionParams) (*PostgresStore, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		params.Host, params.Port, params.User, params.Password, params.DBName, params.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS signal_subscriptions (
			chat_id BIGINT NOT NULL,
			symbol TEXT NOT NULL,
			signal_class TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			PRIMARY KEY (chat_id, symbol)
		)
	`)
	return err
}

func (s *PostgresStore) Subscribe(chatID int64, symbol string, class models.SignalClass) error {
	_, err := s.db.Exec(`
		INSERT INTO signal_subscriptions (chat_id, symbol, signal_class, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (chat_id, symbol)
		DO UPDATE SET signal_class = EXCLUDED.signal_class
	`, chatID, symbol, string(class), time.Now())
	return err
}

func (s *PostgresStore) Unsubscribe(chatID int64, symbol string) error {
	_, err := s.db.Exec(`
		DELETE FROM signal_subscriptions
		WHERE chat_id = $1 AND symbol = $2
	`, chatID, symbol)
	return err
}

func (s *PostgresStore) SetSignalClass(chatID int64, class models.SignalClass) error {
	_, err := s.db.Exec(`
		UPDATE signal_subscriptions
		SET signal_class = $1
		WHERE chat_id = $2
	`, string(class), chatID)
	return err
}

func (s *PostgresStore) Subscriptions(chatID int64) ([]models.Subscription, error) {
	rows, err := s.db.Query(`
		SELECT chat_id, symbol, signal_class, created_at
		FROM signal_subscriptions
		WHERE chat_id = $1
		ORDER BY symbol
	`, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

func (s *PostgresStore) Subscribers(symbol string) ([]models.Subscription, error) {
	rows, err := s.db.Query(`
		SELECT chat_id, symbol, signal_class, created_at
		FROM signal_subscriptions
		WHERE symbol = $1
	`, symbol)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

func scanSubscriptions(rows *sql.Rows) ([]models.Subscription, error) {
	var subs []models.Subscription
	for rows.Next() {
		var sub models.Subscription
		var class string
		if err := rows.Scan(&sub.ChatID, &sub.Symbol, &class, &sub.CreatedAt); err != nil {
			return nil, err
		}
		sub.SignalClass = models.ParseSignalClass(class)
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
