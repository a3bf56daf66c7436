package sqlx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"seasonkit/core"
)

// Driver selects the SQL dialect for upsert statements.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
)

// Config holds SQL connection configuration
type Config struct {
	Driver          Driver
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns sensible defaults for the given driver
func DefaultConfig(driver Driver) Config {
	return Config{
		Driver:          driver,
		MaxOpenConns:    20,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// Store implements the engine.Store interface on a relational database.
// Schema:
//   - event_leaderboard (id, idx, title, description, scoring_description)
//   - event_leaderboard_result (leaderboard_id, date, user_id, score, position)
//   - cosmetic (id, winner)
//   - user_cosmetic (user_id, cosmetic_id, equipped_at, donated, purchased)
//   - collection_image (collection, url, username, created_at)
type Store struct {
	db     *sqlx.DB
	driver Driver
}

// New opens a database connection with the provided configuration
func New(config Config) (*Store, error) {
	db, err := sqlx.Connect(string(config.Driver), config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	return &Store{db: db, driver: config.Driver}, nil
}

// NewWithDB creates a Store using an existing connection (useful for testing)
func NewWithDB(db *sqlx.DB, driver Driver) *Store {
	return &Store{db: db, driver: driver}
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) EnsureLeaderboards(ctx context.Context, defs []core.LeaderboardDef) error {
	query := `INSERT INTO event_leaderboard (id, idx, title, description, scoring_description)
		VALUES (?, ?, ?, ?, ?) ON CONFLICT (id) DO NOTHING`
	if s.driver == DriverMySQL {
		query = `INSERT IGNORE INTO event_leaderboard (id, idx, title, description, scoring_description)
			VALUES (?, ?, ?, ?, ?)`
	}
	query = s.db.Rebind(query)
	for _, d := range defs {
		if _, err := s.db.ExecContext(ctx, query, d.ID, d.Index, d.Title, d.Description, d.ScoringDescription); err != nil {
			return fmt.Errorf("failed to ensure leaderboard %s: %w", d.ID, err)
		}
	}
	return nil
}

func (s *Store) ReplaceDayResults(ctx context.Context, leaderboardID string, day time.Time, rows []core.LeaderboardResult) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	del := tx.Rebind(`DELETE FROM event_leaderboard_result WHERE leaderboard_id = ? AND date = ?`)
	if _, err := tx.ExecContext(ctx, del, leaderboardID, day); err != nil {
		return fmt.Errorf("failed to delete results for %s: %w", leaderboardID, err)
	}

	if len(rows) > 0 {
		insert := `INSERT INTO event_leaderboard_result (leaderboard_id, date, user_id, score, position)
			VALUES (:leaderboard_id, :date, :user_id, :score, :position)`
		if _, err := tx.NamedExecContext(ctx, insert, rows); err != nil {
			return fmt.Errorf("failed to insert results for %s: %w", leaderboardID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit results for %s: %w", leaderboardID, err)
	}
	return nil
}

func (s *Store) MarkCosmeticWinner(ctx context.Context, cosmeticID int64) error {
	query := s.db.Rebind(`UPDATE cosmetic SET winner = TRUE WHERE id = ?`)
	if _, err := s.db.ExecContext(ctx, query, cosmeticID); err != nil {
		return fmt.Errorf("failed to mark winner cosmetic %d: %w", cosmeticID, err)
	}
	return nil
}

func (s *Store) UnequipCosmetics(ctx context.Context, cosmeticIDs []int64) error {
	if len(cosmeticIDs) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`UPDATE user_cosmetic SET equipped_at = NULL WHERE cosmetic_id IN (?)`, cosmeticIDs)
	if err != nil {
		return fmt.Errorf("failed to build unequip query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to unequip cosmetics: %w", err)
	}
	return nil
}

func (s *Store) LatestCollectionImage(ctx context.Context, collection string) (string, string, error) {
	var row struct {
		URL      string `db:"url"`
		Username string `db:"username"`
	}
	query := s.db.Rebind(`SELECT url, username FROM collection_image
		WHERE collection = ? ORDER BY created_at DESC LIMIT 1`)
	err := s.db.GetContext(ctx, &row, query, collection)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", nil
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to query collection %s: %w", collection, err)
	}
	return row.URL, row.Username, nil
}

func (s *Store) UserCosmeticData(ctx context.Context, user core.UserID, cosmeticID int64) (core.UserCosmeticData, error) {
	var row struct {
		Donated   int64 `db:"donated"`
		Purchased int64 `db:"purchased"`
	}
	query := s.db.Rebind(`SELECT donated, purchased FROM user_cosmetic
		WHERE user_id = ? AND cosmetic_id = ?`)
	err := s.db.GetContext(ctx, &row, query, user, cosmeticID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.UserCosmeticData{}, nil
	}
	if err != nil {
		return core.UserCosmeticData{}, fmt.Errorf("failed to query cosmetic data: %w", err)
	}
	return core.UserCosmeticData{Donated: row.Donated, Purchased: row.Purchased}, nil
}

func (s *Store) SetCosmeticCounter(ctx context.Context, user core.UserID, cosmeticID int64, counter core.CosmeticCounter, value int64) error {
	// Column names cannot be bound parameters; restrict to the known set.
	var column string
	switch counter {
	case core.CounterDonated:
		column = "donated"
	case core.CounterPurchased:
		column = "purchased"
	default:
		return fmt.Errorf("unknown cosmetic counter %q", counter)
	}

	query := fmt.Sprintf(`INSERT INTO user_cosmetic (user_id, cosmetic_id, %s)
		VALUES (?, ?, ?) ON CONFLICT (user_id, cosmetic_id) DO UPDATE SET %s = EXCLUDED.%s`, column, column, column)
	if s.driver == DriverMySQL {
		query = fmt.Sprintf(`INSERT INTO user_cosmetic (user_id, cosmetic_id, %s)
			VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE %s = VALUES(%s)`, column, column, column)
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(query), user, cosmeticID, value); err != nil {
		return fmt.Errorf("failed to set cosmetic counter: %w", err)
	}
	return nil
}
