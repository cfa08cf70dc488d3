package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/gamestore/internal/adapters/repository"
	"github.com/okian/gamestore/internal/ingest"
	"github.com/okian/gamestore/pkg/logger"
)

const defaultTimeout = 5 * time.Minute

func main() {
	var (
		csvPath = flag.String("csv", "merged_game_data.csv", "Merged price CSV to import")
		dbPath  = flag.String("db", "games.db", "SQLite database to write")
		timeout = flag.Duration("timeout", defaultTimeout, "Import timeout")
		format  = flag.String("log-format", "text", "Log format: text or json")
	)
	flag.Parse()

	if err := logger.Init(logger.WithFormat(*format)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	store, err := repository.NewSQLiteStore(ctx, *dbPath,
		repository.WithLogger(log.Named("store")),
		repository.WithMetricsUpdateInterval(0),
	)
	if err != nil {
		log.Error(ctx, "open database failed", logger.String("db", *dbPath), logger.Error(err))
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	stats, err := ingest.New(store, ingest.WithLogger(log.Named("ingest"))).ImportFile(ctx, *csvPath)
	if err != nil {
		log.Error(ctx, "import failed", logger.String("csv", *csvPath), logger.Error(err))
		_ = store.Close()
		os.Exit(1)
	}

	log.Info(ctx, "import finished",
		logger.String("db", *dbPath),
		logger.Int("imported", stats.Imported),
		logger.Int("skipped", stats.Skipped))
}
