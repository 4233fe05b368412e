// Package delivery fans a payload out to push subscriptions and classifies each outcome.
package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"

	"github.com/bark-labs/push-relay/internal/model"
	"github.com/bark-labs/push-relay/internal/payload"
)

// Sender performs one push attempt. pushclient.Client implements it.
type Sender interface {
	Send(ctx context.Context, sub model.Subscription, body []byte) error
}

// Status classifies one attempt.
type Status string

const (
	StatusSuccess Status = model.DeliveryStatusSuccess
	StatusGone    Status = model.DeliveryStatusGone
	StatusFailed  Status = model.DeliveryStatusFailed
)

// Outcome is the settled result of one attempt.
type Outcome struct {
	Endpoint string
	Status   Status
	Err      error
	Duration time.Duration
}

// Failure is an attempt that neither succeeded nor was gone.
type Failure struct {
	Endpoint string `json:"endpoint"`
	Error    string `json:"error"`
}

// Report summarizes a broadcast.
type Report struct {
	BatchID       string    `json:"batchId"`
	SuccessCount  int       `json:"successCount"`
	GoneEndpoints []string  `json:"goneEndpoints"`
	OtherFailures []Failure `json:"otherFailures"`
	// Outcomes follow the order of the targets.
	Outcomes []Outcome `json:"-"`
}

// Failed reports whether any attempt ended in a non-gone failure.
func (r *Report) Failed() bool {
	return len(r.OtherFailures) > 0
}

// Engine dispatches payloads. It never touches the registry.
type Engine struct {
	sender  Sender
	timeout time.Duration
	logger  *slog.Logger
}

// NewEngine builds an engine. timeout bounds each attempt; zero disables it.
func NewEngine(sender Sender, timeout time.Duration, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{sender: sender, timeout: timeout, logger: logger}
}

// Deliver attempts every target concurrently and waits for all of them to settle.
// Individual failures never abort the batch; they are reported in the Report.
func (e *Engine) Deliver(ctx context.Context, p model.Payload, targets []model.Subscription) (*Report, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	body, err := payload.Encode(p)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	batchID := uuid.NewString()
	outcomes := make([]Outcome, len(targets))
	var wg conc.WaitGroup
	for i := range targets {
		wg.Go(func() {
			outcomes[i] = e.attempt(ctx, targets[i], body)
		})
	}
	wg.Wait()

	report := &Report{
		BatchID:       batchID,
		GoneEndpoints: []string{},
		OtherFailures: []Failure{},
		Outcomes:      outcomes,
	}
	for _, o := range outcomes {
		switch o.Status {
		case StatusSuccess:
			report.SuccessCount++
		case StatusGone:
			report.GoneEndpoints = append(report.GoneEndpoints, o.Endpoint)
		default:
			report.OtherFailures = append(report.OtherFailures, Failure{Endpoint: o.Endpoint, Error: o.Err.Error()})
		}
	}
	e.logger.Info("broadcast settled",
		slog.String("batch_id", batchID),
		slog.Int("targets", len(targets)),
		slog.Int("success", report.SuccessCount),
		slog.Int("gone", len(report.GoneEndpoints)),
		slog.Int("failed", len(report.OtherFailures)),
	)
	return report, nil
}

// DeliverOne sends to a single subscription and reports failure directly: an error
// matching ErrGone, or a *Error for anything else.
func (e *Engine) DeliverOne(ctx context.Context, p model.Payload, target model.Subscription) error {
	body, err := payload.Encode(p)
	if err != nil {
		return &Error{Endpoint: target.Endpoint, Err: fmt.Errorf("encode payload: %w", err)}
	}
	o := e.attempt(ctx, target, body)
	switch o.Status {
	case StatusSuccess:
		return nil
	case StatusGone:
		return &goneError{endpoint: target.Endpoint, cause: o.Err}
	default:
		return &Error{Endpoint: target.Endpoint, Err: o.Err}
	}
}

// attempt runs one send and always returns a settled outcome, panics included.
func (e *Engine) attempt(ctx context.Context, target model.Subscription, body []byte) (out Outcome) {
	started := time.Now()
	out.Endpoint = target.Endpoint
	defer func() {
		if r := recover(); r != nil {
			out.Status = StatusFailed
			out.Err = fmt.Errorf("panic during delivery: %v", r)
		}
		out.Duration = time.Since(started)
		e.logOutcome(ctx, out)
	}()

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	err := e.sender.Send(ctx, target, body)
	switch {
	case err == nil:
		out.Status = StatusSuccess
	case isGone(err):
		out.Status = StatusGone
		out.Err = err
	default:
		out.Status = StatusFailed
		out.Err = err
	}
	return out
}

func (e *Engine) logOutcome(ctx context.Context, o Outcome) {
	attrs := []slog.Attr{
		slog.String("endpoint", model.RedactEndpoint(o.Endpoint)),
		slog.String("status", string(o.Status)),
		slog.Duration("duration", o.Duration),
	}
	switch o.Status {
	case StatusSuccess:
		e.logger.LogAttrs(ctx, slog.LevelDebug, "push delivered", attrs...)
	case StatusGone:
		e.logger.LogAttrs(ctx, slog.LevelInfo, "subscription has expired or is no longer valid", attrs...)
	default:
		e.logger.LogAttrs(ctx, slog.LevelWarn, "push delivery failed", append(attrs, slog.Any("error", o.Err))...)
	}
}
