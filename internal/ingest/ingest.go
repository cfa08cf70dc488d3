// Package ingest loads the merged price CSV into the games table.
//
// The CSV carries one row per game with the columns oyun_adi, steam_fiyati,
// epic_fiyati, metascore, steam_url and epic_url. Extra columns are ignored.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/okian/gamestore/internal/domain/model"
	"github.com/okian/gamestore/pkg/logger"
	"github.com/okian/gamestore/pkg/metrics"
)

// CSV column names.
const (
	ColName      = "oyun_adi"
	ColSteam     = "steam_fiyati"
	ColEpic      = "epic_fiyati"
	ColMetascore = "metascore"
	ColSteamURL  = "steam_url"
	ColEpicURL   = "epic_url"
)

var requiredColumns = []string{ColName, ColSteam, ColEpic}

// Store receives the parsed records.
type Store interface {
	ReplaceAll(ctx context.Context, games []model.GameRecord) error
}

// Stats summarizes one import.
type Stats struct {
	Rows     int
	Imported int
	Skipped  int
}

// Importer parses CSV input and replaces the store contents with it.
type Importer struct {
	store Store
	log   logger.Logger
}

// Option configures an Importer.
type Option func(*Importer)

// WithLogger sets the importer logger.
func WithLogger(l logger.Logger) Option {
	return func(i *Importer) {
		if l != nil {
			i.log = l
		}
	}
}

// New returns an importer writing to store.
func New(store Store, opts ...Option) *Importer {
	i := &Importer{store: store, log: logger.Nop()}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// ImportFile opens path and imports it.
func (i *Importer) ImportFile(ctx context.Context, path string) (Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: %w", ErrRead, err)
	}
	defer func() { _ = f.Close() }()
	return i.Import(ctx, f)
}

// Import parses r and replaces every stored game with the result. Nothing
// is written when parsing fails.
func (i *Importer) Import(ctx context.Context, r io.Reader) (Stats, error) {
	games, stats, err := Parse(r)
	if err != nil {
		metrics.RecordErrorByComponent("ingest", "parse")
		return stats, err
	}
	if err := ctx.Err(); err != nil {
		return stats, err
	}
	if err := i.store.ReplaceAll(ctx, games); err != nil {
		metrics.RecordErrorByComponent("ingest", "store")
		return stats, fmt.Errorf("%w: %w", ErrStore, err)
	}

	i.log.Info(ctx, "games imported",
		logger.Int("rows", stats.Rows),
		logger.Int("imported", stats.Imported),
		logger.Int("skipped", stats.Skipped))
	return stats, nil
}

// Parse reads the CSV and returns the rows that have at least one price.
func Parse(r io.Reader) ([]model.GameRecord, Stats, error) {
	var stats Stats

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, stats, fmt.Errorf("%w: empty input", ErrHeader)
	}
	if err != nil {
		return nil, stats, fmt.Errorf("%w: %w", ErrRead, err)
	}
	cols, err := columns(header)
	if err != nil {
		return nil, stats, err
	}

	var games []model.GameRecord
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("%w: %w", ErrRead, err)
		}
		stats.Rows++

		g, ok := parseRow(rec, cols)
		if !ok {
			stats.Skipped++
			continue
		}
		games = append(games, g)
		stats.Imported++
	}
	return games, stats, nil
}

func columns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrHeader, c)
		}
	}
	return cols, nil
}

func parseRow(rec []string, cols map[string]int) (model.GameRecord, bool) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		v := strings.TrimSpace(rec[i])
		if isNull(v) {
			return ""
		}
		return v
	}

	steam, steamOK := price(field(ColSteam))
	epic, epicOK := price(field(ColEpic))
	if !steamOK && !epicOK {
		return model.GameRecord{}, false
	}

	g := model.GameRecord{
		Name:       field(ColName),
		SteamPrice: steam,
		EpicPrice:  epic,
		Metascore:  score(field(ColMetascore)),
	}
	if steamOK {
		g.SteamURL = optional(field(ColSteamURL))
	}
	if epicOK {
		g.EpicURL = optional(field(ColEpicURL))
	}
	return g, true
}

// price reports false for missing and free prices; both are stored as NULL.
func price(v string) (model.Price, bool) {
	if v == "" || strings.EqualFold(v, "free") || strings.EqualFold(v, "ücretsiz") {
		return model.NoPrice(), false
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return model.NumberPrice(f), true
	}
	return model.TextPrice(v), true
}

func score(v string) int {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(math.Round(f))
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func isNull(v string) bool {
	switch strings.ToLower(v) {
	case "", "null", "nan", "none":
		return true
	}
	return false
}
