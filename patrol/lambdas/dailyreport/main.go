// Command dailyreport exports the day's rounds as a spreadsheet. It runs as
// a scheduled Lambda, or once from the command line with -date.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"guardpatrol.com/patrol/core"
	"guardpatrol.com/patrol/infrastructure/communication"
	"guardpatrol.com/patrol/infrastructure/filesystem"
	"guardpatrol.com/patrol/patrol/store"
	"guardpatrol.com/patrol/utils"
)

func setup(ctx context.Context) (*Exporter, func(), error) {
	cfg, err := core.LoadConfig(".")
	if err != nil {
		return nil, nil, err
	}
	logger, err := core.NewLogger(cfg.LogLevel, cfg.LogFormat, "patrol-daily-report")
	if err != nil {
		return nil, nil, err
	}
	dsn, err := cfg.ResolveDSN(ctx)
	if err != nil {
		return nil, nil, err
	}
	dm, err := core.New(dsn, 2, core.ParseLogLevel(cfg.DBLogLevel))
	if err != nil {
		return nil, nil, err
	}

	var storage filesystem.Storage
	if cfg.PhotoBucket != "" {
		storage, err = filesystem.ConnectS3(ctx, cfg.PhotoBucket)
	} else {
		storage, err = filesystem.NewDiskStorage(cfg.PhotoDir)
	}
	if err != nil {
		dm.Close()
		return nil, nil, err
	}

	var notifier communication.Notifier = communication.NewLogNotifier(logger)
	if cfg.SlackToken != "" && cfg.SlackChannel != "" {
		notifier = communication.NewSlack(cfg.SlackToken, communication.SlackOption{InfoChannelID: cfg.SlackChannel})
	}

	ex := &Exporter{
		Rounds:   store.New(dm),
		Storage:  storage,
		Notifier: notifier,
		Prefix:   cfg.ReportPrefix,
		Log:      logger,
		Now:      utils.SantiagoNow,
	}
	return ex, func() {
		dm.Close()
		logger.Sync()
	}, nil
}

func main() {
	ctx := context.Background()
	ex, cleanup, err := setup(ctx)
	if err != nil {
		log.Fatalf("setup: %v", err)
	}
	defer cleanup()

	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		lambda.Start(ex.Export)
		return
	}

	date := flag.String("date", "", "day to export, yyyy-MM-dd")
	notify := flag.Bool("notify", false, "send a notification when done")
	flag.Parse()

	res, err := ex.Export(ctx, ExportEvent{Date: *date, Notify: *notify})
	if err != nil {
		ex.Log.Fatal("export failed", zap.Error(err))
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	fmt.Println(string(out))
}
