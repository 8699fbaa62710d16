package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultReportFilename is where RunToFile writes when no path is given.
const DefaultReportFilename = "spam_detection_results.csv"

// SpamDetector crawls a mailbox and scores every message for spam
// probability, producing a CSV report and a run summary. One message's
// failure never prevents the rest of the batch from being scored.
type SpamDetector struct {
	mail         MailClient
	classifier   SpamClassifier
	cache        ScoreCache
	whitelist    SenderWhitelist
	logger       *zap.Logger
	cacheEnabled bool
	cacheTTL     time.Duration
	maxMessages  int
	workers      int
}

// NewSpamDetector creates a new spam detector. cache and whitelist may be
// nil. maxMessages <= 0 means no limit; workers <= 1 means sequential
// classification.
func NewSpamDetector(
	mail MailClient,
	classifier SpamClassifier,
	cache ScoreCache,
	whitelist SenderWhitelist,
	logger *zap.Logger,
	cacheEnabled bool,
	cacheTTL time.Duration,
	maxMessages int,
	workers int,
) *SpamDetector {
	return &SpamDetector{
		mail:         mail,
		classifier:   classifier,
		cache:        cache,
		whitelist:    whitelist,
		logger:       logger,
		cacheEnabled: cacheEnabled && cache != nil,
		cacheTTL:     cacheTTL,
		maxMessages:  maxMessages,
		workers:      workers,
	}
}

// Run pulls messages from the mail source in enumeration order, scores each
// one and writes the report to sink. Rows appear in enumeration order
// regardless of how classification is scheduled. The summary is always
// returned, also when the run is aborted; accumulated rows are flushed before
// a fatal error is surfaced.
func (d *SpamDetector) Run(ctx context.Context, sink io.Writer) (*ReportSummary, error) {
	summary := &ReportSummary{}
	it := d.mail.ListMessages(ctx)

	var (
		rows  []ReportRow
		fatal error
	)
	if d.workers > 1 {
		rows, fatal = d.scoreConcurrently(ctx, it, summary)
	} else {
		rows, fatal = d.scoreSequentially(ctx, it, summary)
	}

	// Accumulated rows are flushed even when the run was aborted.
	if err := WriteReport(sink, rows); err != nil && fatal == nil {
		fatal = err
	}

	d.logger.Info("Spam detection run finished",
		zap.Int("processed", summary.Processed),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed))

	return summary, fatal
}

// RunToFile runs the pipeline and writes the report to path, creating it via
// a temporary file in the same directory and renaming it into place so an
// interrupted run never leaves a half-written report behind. An aborted run
// still finalizes whatever rows were accumulated.
func (d *SpamDetector) RunToFile(ctx context.Context, path string) (*ReportSummary, error) {
	if path == "" {
		path = DefaultReportFilename
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".spam-report-*.csv")
	if err != nil {
		return &ReportSummary{}, fmt.Errorf("failed to create temporary report file: %w", err)
	}

	summary, runErr := d.Run(ctx, tmp)

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		if runErr == nil {
			runErr = fmt.Errorf("failed to close temporary report file: %w", err)
		}
		return summary, runErr
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		if runErr == nil {
			runErr = fmt.Errorf("failed to finalize report file: %w", err)
		}
		return summary, runErr
	}

	return summary, runErr
}

func (d *SpamDetector) scoreSequentially(ctx context.Context, it MessageIterator, summary *ReportSummary) ([]ReportRow, error) {
	rows := make([]ReportRow, 0)

	for d.maxMessages <= 0 || summary.Processed < d.maxMessages {
		if err := ctx.Err(); err != nil {
			d.logger.Warn("Run cancelled, flushing partial results", zap.Error(err))
			return rows, err
		}

		msg, err := it.Next(ctx)
		if errors.Is(err, ErrNoMoreMessages) {
			return rows, nil
		}
		if err != nil {
			return rows, fmt.Errorf("failed to fetch next message: %w", err)
		}

		summary.Processed++
		row, err := d.scoreMessage(ctx, msg)
		if err != nil {
			d.recordFailure(summary, msg.ID, err)
			continue
		}
		summary.Succeeded++
		rows = append(rows, row)
	}

	return rows, nil
}

// scoreConcurrently classifies up to d.workers messages in parallel. Results
// are addressed by enumeration index, never collected by completion order,
// so the report order matches the sequential path exactly.
func (d *SpamDetector) scoreConcurrently(ctx context.Context, it MessageIterator, summary *ReportSummary) ([]ReportRow, error) {
	type slot struct {
		id  string
		row ReportRow
		err error
	}

	var (
		mu    sync.Mutex
		slots []slot
		fatal error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)

	dispatched := 0
	for d.maxMessages <= 0 || dispatched < d.maxMessages {
		if err := gctx.Err(); err != nil {
			d.logger.Warn("Run cancelled, flushing partial results", zap.Error(err))
			fatal = err
			break
		}

		msg, err := it.Next(gctx)
		if errors.Is(err, ErrNoMoreMessages) {
			break
		}
		if err != nil {
			fatal = fmt.Errorf("failed to fetch next message: %w", err)
			break
		}

		idx := dispatched
		dispatched++
		mu.Lock()
		slots = append(slots, slot{id: msg.ID})
		mu.Unlock()

		g.Go(func() error {
			row, err := d.scoreMessage(gctx, msg)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slots[idx].err = err
			} else {
				slots[idx].row = row
			}
			return nil
		})
	}

	// Per-item errors live in their slots; workers never fail the group.
	_ = g.Wait()

	rows := make([]ReportRow, 0, len(slots))
	for _, s := range slots {
		summary.Processed++
		if s.err != nil {
			d.recordFailure(summary, s.id, s.err)
			continue
		}
		summary.Succeeded++
		rows = append(rows, s.row)
	}

	return rows, fatal
}

func (d *SpamDetector) scoreMessage(ctx context.Context, msg *EmailMessage) (ReportRow, error) {
	if d.whitelist != nil && d.whitelist.IsWhitelisted(msg.From) {
		d.logger.Debug("Sender whitelisted, skipping classification",
			zap.String("mail_id", msg.ID),
			zap.String("sender", msg.From))
		return ReportRow{MailID: msg.ID, PctSpam: 0}, nil
	}

	if d.cacheEnabled {
		if entry, err := d.cache.Get(ctx, msg.From); err == nil {
			d.logger.Debug("Cache hit for sender", zap.String("sender", msg.From))
			return ReportRow{MailID: msg.ID, PctSpam: entry.PctSpam}, nil
		}
	}

	raw, err := d.classifier.ClassifyMessage(ctx, msg)
	if err != nil {
		return ReportRow{}, fmt.Errorf("classification failed: %w", err)
	}

	score, err := NormalizeScore(raw)
	if err != nil {
		return ReportRow{}, err
	}

	if d.cacheEnabled {
		entry := &CacheEntry{
			SenderEmail: msg.From,
			PctSpam:     score,
			LastSeen:    time.Now(),
			ExpiresAt:   time.Now().Add(d.cacheTTL),
		}
		if err := d.cache.Set(ctx, entry); err != nil {
			d.logger.Error("Failed to update score cache", zap.Error(err))
		}
	}

	return ReportRow{MailID: msg.ID, PctSpam: score}, nil
}

func (d *SpamDetector) recordFailure(summary *ReportSummary, id string, err error) {
	summary.Failed++
	summary.FailedIDs = append(summary.FailedIDs, id)
	d.logger.Warn("Skipping message after scoring failure",
		zap.String("mail_id", id),
		zap.Error(err))
}

// NormalizeScore coerces a raw classifier reply into a spam percentage and
// clamps it into [0, 100]. The model is asked for a bare number but is not
// contractually bounded, so clamping is applied unconditionally and anything
// unparseable is an error rather than a sentinel value.
func NormalizeScore(raw string) (float64, error) {
	trimmed := strings.TrimSpace(raw)
	score, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("classifier returned a non-numeric response %q: %w", truncateForLog(trimmed), err)
	}
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, fmt.Errorf("classifier returned a non-finite score %q", trimmed)
	}
	return math.Max(0, math.Min(100, score)), nil
}

func truncateForLog(s string) string {
	if len(s) > 80 {
		return s[:80] + "..."
	}
	return s
}
