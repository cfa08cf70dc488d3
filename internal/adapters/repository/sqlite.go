package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // database/sql driver

	"github.com/okian/gamestore/internal/domain/model"
	"github.com/okian/gamestore/pkg/logger"
	"github.com/okian/gamestore/pkg/metrics"
)

// Column names follow the importer's CSV header; the aliases are what the
// API and the browser page read.
const (
	createGames = `CREATE TABLE IF NOT EXISTS games (
		oyun_adi TEXT,
		steam_fiyati,
		epic_fiyati,
		metascore INTEGER,
		steam_url TEXT,
		epic_url TEXT
	)`

	selectGames = `SELECT
		oyun_adi AS "Game Name",
		steam_fiyati AS "Steam Price",
		epic_fiyati AS "Epic Price",
		metascore AS "Metascore",
		steam_url AS "Steam URL",
		epic_url AS "Epic URL"
	FROM games`

	insertGame = `INSERT INTO games
		(oyun_adi, steam_fiyati, epic_fiyati, metascore, steam_url, epic_url)
		VALUES (?, ?, ?, ?, ?, ?)`
)

// SQLiteStore reads and writes the games table of a SQLite file.
type SQLiteStore struct {
	db  *sql.DB
	log logger.Logger

	busyTimeout           time.Duration
	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopChan chan struct{}
}

// NewSQLiteStore opens path, creates the games table when missing and
// starts the background metrics updater.
func NewSQLiteStore(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	s := &SQLiteStore{
		log:                   logger.Nop(),
		busyTimeout:           5 * time.Second,
		metricsUpdateInterval: 5 * time.Second,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=%d", path, s.busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	s.db = db

	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}

	if s.metricsUpdateInterval > 0 {
		s.startMetricsUpdater(ctx)
	}
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createGames); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// Games implements Store.Games.
func (s *SQLiteStore) Games(ctx context.Context) ([]model.GameRecord, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	rows, err := s.db.QueryContext(ctx, selectGames)
	if err != nil {
		metrics.RecordStoreError()
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}
	defer rows.Close()

	games := make([]model.GameRecord, 0)
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			metrics.RecordStoreError()
			return nil, fmt.Errorf("%w: %w", ErrQuery, err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		metrics.RecordStoreError()
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}
	return games, nil
}

// Count implements Store.Count.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM games`).Scan(&n); err != nil {
		metrics.RecordStoreError()
		return 0, fmt.Errorf("%w: %w", ErrQuery, err)
	}
	return n, nil
}

// ReplaceAll implements Store.ReplaceAll. The table is dropped and
// recreated so schema drift from older imports is discarded too.
func (s *SQLiteStore) ReplaceAll(ctx context.Context, records []model.GameRecord) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReplace, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			metrics.RecordStoreError()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DROP TABLE IF EXISTS games`); err != nil {
		return fmt.Errorf("%w: %w", ErrReplace, err)
	}
	if _, err = tx.ExecContext(ctx, createGames); err != nil {
		return fmt.Errorf("%w: %w", ErrReplace, err)
	}

	stmt, err := tx.PrepareContext(ctx, insertGame)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReplace, err)
	}
	defer stmt.Close()

	for _, g := range records {
		if _, err = stmt.ExecContext(ctx,
			g.Name, g.SteamPrice.Value(), g.EpicPrice.Value(), g.Metascore,
			nullable(g.SteamURL), nullable(g.EpicURL),
		); err != nil {
			return fmt.Errorf("%w: insert %q: %w", ErrReplace, g.Name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrReplace, err)
	}
	s.log.Info(ctx, "games table replaced", logger.Int("records", len(records)))
	metrics.UpdateCatalogRecords(len(records))
	return nil
}

// Close stops the metrics updater and closes the database.
func (s *SQLiteStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return s.db.Close()
}

func (s *SQLiteStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				n, err := s.Count(ctx)
				if err != nil {
					s.log.Warn(ctx, "failed to count games", logger.Error(err))
					continue
				}
				metrics.UpdateCatalogRecords(n)
			}
		}
	}()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGame(row scanner) (model.GameRecord, error) {
	var (
		name               sql.NullString
		steam, epic, score any
		steamURL, epicURL  sql.NullString
	)
	if err := row.Scan(&name, &steam, &epic, &score, &steamURL, &epicURL); err != nil {
		return model.GameRecord{}, err
	}
	return model.GameRecord{
		Name:       name.String,
		SteamPrice: model.PriceFromDB(steam),
		EpicPrice:  model.PriceFromDB(epic),
		Metascore:  metascore(score),
		SteamURL:   stringPtr(steamURL),
		EpicURL:    stringPtr(epicURL),
	}, nil
}

// metascore tolerates scores stored as integers, reals or numeric text.
func metascore(v any) int {
	switch t := v.(type) {
	case int64:
		return int(t)
	case float64:
		return int(math.Round(t))
	case []byte:
		return metascore(string(t))
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0
		}
		return int(math.Round(f))
	default:
		return 0
	}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
