// Command seed creates the schema and loads demo fixtures.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"go.uber.org/zap"

	"guardpatrol.com/patrol/core"
	"guardpatrol.com/patrol/patrol/model"
	"guardpatrol.com/patrol/patrol/store"
	"guardpatrol.com/patrol/utils"
)

func main() {
	fixtures := flag.String("fixtures", "patrol/cmd/seed/fixtures.yaml", "YAML fixtures file, empty to only migrate")
	flag.Parse()

	cfg, err := core.LoadConfig(".")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := core.NewLogger(cfg.LogLevel, "console", "patrol-seed")
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	dsn, err := cfg.ResolveDSN(ctx)
	if err != nil {
		logger.Fatal("resolve dsn", zap.Error(err))
	}
	dm, err := core.New(dsn, 2, core.ParseLogLevel(cfg.DBLogLevel))
	if err != nil {
		logger.Fatal("connect", zap.Error(err))
	}
	defer dm.Close()

	if err := dm.Migrate(ctx, model.All()...); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}
	logger.Info("schema ready")

	if *fixtures == "" {
		return
	}
	file, err := os.Open(*fixtures)
	if err != nil {
		logger.Fatal("open fixtures", zap.Error(err))
	}
	defer file.Close()

	f, err := store.ParseFixtures(file, utils.Today(utils.SantiagoNow()))
	if err != nil {
		logger.Fatal("parse fixtures", zap.Error(err))
	}
	if err := store.New(dm).Seed(ctx, f); err != nil {
		logger.Fatal("seed", zap.Error(err))
	}
	logger.Info("fixtures loaded",
		zap.Int("checkpoints", len(f.Checkpoints)),
		zap.Int("guards", len(f.Guards)),
		zap.Int("rounds", len(f.Rounds)),
	)
}
