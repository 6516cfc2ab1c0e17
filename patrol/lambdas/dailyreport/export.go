package main

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"go.uber.org/zap"

	"guardpatrol.com/patrol/infrastructure/communication"
	"guardpatrol.com/patrol/infrastructure/filesystem"
	"guardpatrol.com/patrol/patrol/model"
	"guardpatrol.com/patrol/patrol/report"
	"guardpatrol.com/patrol/patrol/store"
	"guardpatrol.com/patrol/utils"
)

const xlsxMime = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ExportEvent struct {
	// Date is yyyy-MM-dd; empty means today in Santiago.
	Date   string `json:"date"`
	Notify bool   `json:"notify"`
}

type ExportResult struct {
	Key       string `json:"key"`
	Rounds    int    `json:"rounds"`
	Completed int    `json:"completed"`
}

type RoundLister interface {
	ListRounds(ctx context.Context, f store.RoundFilter) ([]store.RoundListing, error)
}

type Exporter struct {
	Rounds   RoundLister
	Storage  filesystem.Storage
	Notifier communication.Notifier
	Prefix   string
	Log      *zap.Logger
	Now      func() time.Time
}

// Export writes the day's round report to storage and, when asked, tells
// supervisors where it is.
func (ex *Exporter) Export(ctx context.Context, ev ExportEvent) (*ExportResult, error) {
	date := ev.Date
	if date == "" {
		date = utils.Today(ex.Now())
	} else if _, err := time.Parse(utils.DateLayout, date); err != nil {
		return nil, fmt.Errorf("invalid date %q", date)
	}

	rounds, err := ex.Rounds.ListRounds(ctx, store.RoundFilter{Date: date})
	if err != nil {
		return nil, fmt.Errorf("list rounds: %w", err)
	}
	data, err := report.RoundReport(rounds)
	if err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}

	key := path.Join(ex.Prefix, fmt.Sprintf("rounds-%s.xlsx", date))
	if err := ex.Storage.Save(ctx, key, bytes.NewReader(data), xlsxMime); err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}

	res := &ExportResult{
		Key:       key,
		Rounds:    len(rounds),
		Completed: utils.Count(rounds, func(r store.RoundListing) bool { return r.Status == model.RoundCompleted }),
	}
	ex.Log.Info("round report exported",
		zap.String("date", date),
		zap.String("key", key),
		zap.Int("rounds", res.Rounds),
		zap.Int("completed", res.Completed),
	)

	if ev.Notify && ex.Notifier != nil {
		msg := fmt.Sprintf("Rounds for %s: %d/%d completed. Report: %s", date, res.Completed, res.Rounds, key)
		if err := ex.Notifier.Info(ctx, msg); err != nil {
			ex.Log.Warn("report notification failed", zap.Error(err))
		}
	}
	return res, nil
}
