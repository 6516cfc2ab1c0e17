// Command importcheckpoints loads checkpoints from a CSV file, updating
// existing ones by name.
//
// Expected columns: route_id, name, description, latitude, longitude, tolerance.
// The last three may be empty for checkpoints without a geofence.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"go.uber.org/zap"

	"guardpatrol.com/patrol/core"
	"guardpatrol.com/patrol/patrol/store"
)

func main() {
	path := flag.String("file", "", "CSV file to import")
	dryRun := flag.Bool("dry-run", false, "parse and print without writing")
	flag.Parse()
	if *path == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := core.LoadConfig(".")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := core.NewLogger(cfg.LogLevel, "console", "patrol-import")
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer logger.Sync()

	file, err := os.Open(*path)
	if err != nil {
		logger.Fatal("open csv", zap.Error(err))
	}
	defer file.Close()

	cps, err := parseCheckpoints(file)
	if err != nil {
		logger.Fatal("parse csv", zap.Error(err))
	}
	if *dryRun {
		for _, cp := range cps {
			logger.Info("checkpoint",
				zap.Int32("route_id", cp.RouteID),
				zap.String("name", cp.Name),
				zap.Bool("geofenced", cp.Geofenced()),
			)
		}
		return
	}

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

	if err := store.New(dm).UpsertCheckpoints(ctx, cps); err != nil {
		logger.Fatal("import", zap.Error(err))
	}
	logger.Info("imported checkpoints", zap.Int("count", len(cps)))
}
