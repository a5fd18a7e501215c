package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/XavierBriggs/fortuna/services/game-catalog/pkg/models"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// ErrGameNotFound is returned when no row has the requested id
var ErrGameNotFound = errors.New("game not found")

// GamesDB defines the interface for games table operations
type GamesDB interface {
	ListGames(ctx context.Context, filter Filter) ([]models.Game, error)
	GetGame(ctx context.Context, id int64) (*models.Game, error)
	CreateGame(ctx context.Context, fields models.GameFields) (*models.Game, error)
	UpdateGame(ctx context.Context, id int64, fields models.GameFields) (*models.Game, error)
	DeleteGame(ctx context.Context, id int64) (*models.Game, error)
	BulkCreateGames(ctx context.Context, games []models.GameInput) (int, error)
	CountGames(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
	Close() error
}

const gameColumns = `id, publisher_id, publisher_id_numeric, name, platform, store_id, bundle_id, app_version, is_published, created_at, updated_at`

// GamesStore implements GamesDB over database/sql (PostgreSQL or SQLite)
type GamesStore struct {
	db     *sql.DB
	driver string
}

// NewGamesStore opens the database, configures the pool and creates the schema
func NewGamesStore(driver, dsn string) (*GamesStore, error) {
	if driver == DriverSQLite {
		dsn = sqliteDSN(dsn)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if driver == DriverSQLite {
		// one connection: an in-memory database lives and dies with its connection
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &GamesStore{db: db, driver: driver}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// sqliteDSN turns on case-sensitive LIKE so substring search behaves as on PostgreSQL
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_case_sensitive_like") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_case_sensitive_like=true"
}

// Ping checks database connectivity
func (s *GamesStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *GamesStore) Close() error {
	return s.db.Close()
}

// ListGames returns every game matching filter, ordered by id
func (s *GamesStore) ListGames(ctx context.Context, filter Filter) ([]models.Game, error) {
	args := &queryArgs{}
	where, err := buildWhere(filter, args)
	if err != nil {
		return nil, err
	}

	query := "SELECT " + gameColumns + " FROM games" + where + " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args.values...)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	games := make([]models.Game, 0)
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, *game)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate games: %w", err)
	}

	return games, nil
}

// GetGame retrieves a single game by primary key
func (s *GamesStore) GetGame(ctx context.Context, id int64) (*models.Game, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+gameColumns+" FROM games WHERE id = $1", id)

	game, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query game: %w", err)
	}

	return game, nil
}

// CreateGame inserts a new game and returns the stored row
func (s *GamesStore) CreateGame(ctx context.Context, fields models.GameFields) (*models.Game, error) {
	now := time.Now().UTC()

	query := `
		INSERT INTO games (
			publisher_id, publisher_id_numeric, name, platform, store_id, bundle_id,
			app_version, is_published, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + gameColumns

	publisherID, publisherNumeric := publisherArgs(fields.PublisherID)
	row := s.db.QueryRowContext(ctx, query,
		publisherID,
		publisherNumeric,
		fields.Name,
		fields.Platform,
		fields.StoreID,
		fields.BundleID,
		fields.AppVersion,
		boolArg(fields.IsPublished),
		now,
		now,
	)

	game, err := scanGame(row)
	if err != nil {
		return nil, fmt.Errorf("insert game: %w", err)
	}

	return game, nil
}

// UpdateGame overwrites every writable column of the game with fields.
// Nil fields are written as NULL.
func (s *GamesStore) UpdateGame(ctx context.Context, id int64, fields models.GameFields) (*models.Game, error) {
	query := `
		UPDATE games SET
			publisher_id = $1,
			publisher_id_numeric = $2,
			name = $3,
			platform = $4,
			store_id = $5,
			bundle_id = $6,
			app_version = $7,
			is_published = $8,
			updated_at = $9
		WHERE id = $10
		RETURNING ` + gameColumns

	publisherID, publisherNumeric := publisherArgs(fields.PublisherID)
	row := s.db.QueryRowContext(ctx, query,
		publisherID,
		publisherNumeric,
		fields.Name,
		fields.Platform,
		fields.StoreID,
		fields.BundleID,
		fields.AppVersion,
		boolArg(fields.IsPublished),
		time.Now().UTC(),
		id,
	)

	game, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update game: %w", err)
	}

	return game, nil
}

// DeleteGame permanently removes a game and returns the removed row
func (s *GamesStore) DeleteGame(ctx context.Context, id int64) (*models.Game, error) {
	row := s.db.QueryRowContext(ctx, "DELETE FROM games WHERE id = $1 RETURNING "+gameColumns, id)

	game, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete game: %w", err)
	}

	return game, nil
}

// BulkCreateGames inserts all games in a single transaction.
// Supplied ids and timestamps are kept; missing ones are assigned by the store.
func (s *GamesStore) BulkCreateGames(ctx context.Context, games []models.GameInput) (int, error) {
	if len(games) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	explicitIDs := false

	for i, g := range games {
		createdAt, updatedAt := now, now
		if g.CreatedAt != nil {
			createdAt = g.CreatedAt.UTC()
		}
		if g.UpdatedAt != nil {
			updatedAt = g.UpdatedAt.UTC()
		}

		publisherID, publisherNumeric := publisherArgs(g.PublisherID)

		if g.ID != nil {
			explicitIDs = true
			_, err = tx.ExecContext(ctx, `
				INSERT INTO games (
					id, publisher_id, publisher_id_numeric, name, platform, store_id, bundle_id,
					app_version, is_published, created_at, updated_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
				*g.ID, publisherID, publisherNumeric, g.Name, g.Platform, g.StoreID, g.BundleID,
				g.AppVersion, boolArg(g.IsPublished), createdAt, updatedAt,
			)
		} else {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO games (
					publisher_id, publisher_id_numeric, name, platform, store_id, bundle_id,
					app_version, is_published, created_at, updated_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
				publisherID, publisherNumeric, g.Name, g.Platform, g.StoreID, g.BundleID,
				g.AppVersion, boolArg(g.IsPublished), createdAt, updatedAt,
			)
		}
		if err != nil {
			return 0, fmt.Errorf("insert game %d of %d: %w", i+1, len(games), err)
		}
	}

	// explicit ids bypass the postgres sequence; move it past them
	if explicitIDs && s.driver == DriverPostgres {
		_, err = tx.ExecContext(ctx,
			`SELECT setval(pg_get_serial_sequence('games', 'id'), (SELECT MAX(id) FROM games))`)
		if err != nil {
			return 0, fmt.Errorf("advance id sequence: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	return len(games), nil
}

// CountGames returns the number of rows in the games table
func (s *GamesStore) CountGames(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM games").Scan(&count); err != nil {
		return 0, fmt.Errorf("count games: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanGame(row rowScanner) (*models.Game, error) {
	var (
		game                          models.Game
		publisherID, name, platform   sql.NullString
		storeID, bundleID, appVersion sql.NullString
		publisherNumeric, isPublished sql.NullBool
	)

	err := row.Scan(
		&game.ID,
		&publisherID,
		&publisherNumeric,
		&name,
		&platform,
		&storeID,
		&bundleID,
		&appVersion,
		&isPublished,
		&game.CreatedAt,
		&game.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if publisherID.Valid {
		id := models.FlexString{Value: publisherID.String, Numeric: publisherNumeric.Valid && publisherNumeric.Bool}
		game.PublisherID = &id
	}
	game.Name = nullString(name)
	game.Platform = nullString(platform)
	game.StoreID = nullString(storeID)
	game.BundleID = nullString(bundleID)
	game.AppVersion = nullString(appVersion)
	if isPublished.Valid {
		published := models.FlexBool(isPublished.Bool)
		game.IsPublished = &published
	}

	return &game, nil
}

// publisherArgs splits a publisher id into its text and JSON-kind columns
func publisherArgs(id *models.FlexString) (interface{}, interface{}) {
	if id == nil {
		return nil, nil
	}
	return id.Value, id.Numeric
}

func boolArg(b *models.FlexBool) interface{} {
	if b == nil {
		return nil
	}
	return bool(*b)
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
