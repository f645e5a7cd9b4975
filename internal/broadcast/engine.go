// Package broadcast delivers one admin-supplied message to every stored user.
//
// Sends are strictly sequential and paced by a rate limiter, so the
// counters need no locking. A failed delivery is recorded and skipped;
// it never aborts the run and is never retried.
package broadcast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ErrEmptyContent is returned when a broadcast has neither text nor photo.
var ErrEmptyContent = errors.New("broadcast needs text or photo")

// Content is what gets delivered. When PhotoFileID is set the text is
// used as the photo caption.
type Content struct {
	Text        string
	PhotoFileID string
}

func (c Content) Empty() bool {
	return strings.TrimSpace(c.Text) == "" && c.PhotoFileID == ""
}

type Recipients interface {
	ListIDs(ctx context.Context) ([]int64, error)
}

type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendPhoto(ctx context.Context, chatID int64, fileID, caption string) error
}

// Result is the delivery outcome for one recipient.
type Result struct {
	ChatID int64
	Err    error
}

func (r Result) OK() bool { return r.Err == nil }

// Report summarizes a finished broadcast. Sent+Failed always equals Total.
type Report struct {
	Total   int
	Sent    int
	Failed  int
	Results []Result
}

type Engine struct {
	recipients Recipients
	sender     Sender
	delay      time.Duration
	logger     *slog.Logger
}

// NewEngine creates an engine that waits at least delay between two sends.
func NewEngine(recipients Recipients, sender Sender, delay time.Duration, logger *slog.Logger) *Engine {
	return &Engine{
		recipients: recipients,
		sender:     sender,
		delay:      delay,
		logger:     logger.With("component", "broadcast"),
	}
}

// Run sends content to every stored user. Once recipients are listed the
// run ignores cancellation of ctx and always completes.
func (e *Engine) Run(ctx context.Context, content Content) (Report, error) {
	if content.Empty() {
		return Report{}, ErrEmptyContent
	}

	ids, err := e.recipients.ListIDs(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list recipients: %w", err)
	}

	ctx = context.WithoutCancel(ctx)
	limiter := e.newLimiter()

	e.logger.Info("broadcast started", "total", len(ids), "photo", content.PhotoFileID != "")

	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		res := Result{ChatID: id}
		if err := limiter.Wait(ctx); err != nil {
			res.Err = err
		} else {
			res.Err = e.deliver(ctx, id, content)
		}
		if res.Err != nil {
			e.logger.Error("failed to send broadcast", "chat_id", id, "error", res.Err)
		}
		results = append(results, res)
	}

	report := summarize(results)
	e.logger.Info("broadcast finished", "sent", report.Sent, "failed", report.Failed)
	return report, nil
}

func (e *Engine) deliver(ctx context.Context, chatID int64, content Content) error {
	if content.PhotoFileID != "" {
		return e.sender.SendPhoto(ctx, chatID, content.PhotoFileID, content.Text)
	}
	return e.sender.SendText(ctx, chatID, content.Text)
}

func (e *Engine) newLimiter() *rate.Limiter {
	if e.delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(e.delay), 1)
}

func summarize(results []Result) Report {
	report := Report{Total: len(results), Results: results}
	for _, r := range results {
		if r.OK() {
			report.Sent++
		} else {
			report.Failed++
		}
	}
	return report
}
