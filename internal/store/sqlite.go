package store

import (
	"context"
	"database/sql"
	"errors"

	_ "github.com/mattn/go-sqlite3"

	"sparkbridge/internal/logging"
)

var ErrNotFound = errors.New("not found")

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-backed store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := migrate(db); err != nil {
		return nil, err
	}

	logging.Store.WithField("path", dbPath).Debug("database ready")
	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	for _, table := range []string{"incoming_refs", "outgoing_refs"} {
		_, err := db.Exec(`
			CREATE TABLE IF NOT EXISTS ` + table + ` (
				identifier TEXT PRIMARY KEY,
				payment_request TEXT NOT NULL,
				amount_sats INTEGER NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL
			)
		`)
		if err != nil {
			return err
		}
	}
	return nil
}

// Saving is idempotent: re-quoting or re-creating with the same hash
// simply refreshes the row.
func (s *SQLiteStore) saveRef(ctx context.Context, table string, ref *PaymentRef) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO `+table+` (identifier, payment_request, amount_sats, created_at)
		VALUES (?, ?, ?, ?)
	`, ref.Identifier, ref.PaymentRequest, ref.AmountSats, ref.CreatedAt)
	return err
}

func (s *SQLiteStore) getRef(ctx context.Context, table, identifier string) (*PaymentRef, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT identifier, payment_request, amount_sats, created_at
		FROM `+table+` WHERE identifier = ?
	`, identifier)

	var ref PaymentRef
	err := row.Scan(&ref.Identifier, &ref.PaymentRequest, &ref.AmountSats, &ref.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

func (s *SQLiteStore) SaveIncomingRef(ctx context.Context, ref *PaymentRef) error {
	return s.saveRef(ctx, "incoming_refs", ref)
}

func (s *SQLiteStore) GetIncomingRef(ctx context.Context, identifier string) (*PaymentRef, error) {
	return s.getRef(ctx, "incoming_refs", identifier)
}

func (s *SQLiteStore) ListIncomingRefs(ctx context.Context) ([]*PaymentRef, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT identifier, payment_request, amount_sats, created_at
		FROM incoming_refs ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []*PaymentRef
	for rows.Next() {
		var ref PaymentRef
		if err := rows.Scan(&ref.Identifier, &ref.PaymentRequest, &ref.AmountSats, &ref.CreatedAt); err != nil {
			return nil, err
		}
		refs = append(refs, &ref)
	}
	return refs, rows.Err()
}

func (s *SQLiteStore) SaveOutgoingRef(ctx context.Context, ref *PaymentRef) error {
	return s.saveRef(ctx, "outgoing_refs", ref)
}

func (s *SQLiteStore) GetOutgoingRef(ctx context.Context, identifier string) (*PaymentRef, error) {
	return s.getRef(ctx, "outgoing_refs", identifier)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
