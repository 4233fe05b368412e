package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bark-labs/push-relay/internal/delivery"
	"github.com/bark-labs/push-relay/internal/model"
	"github.com/bark-labs/push-relay/internal/payload"
	"github.com/bark-labs/push-relay/internal/pushclient"
	"github.com/bark-labs/push-relay/internal/registry"
)

// LogRecorder stores one entry per delivery attempt. storage.Store implements it.
type LogRecorder interface {
	AppendDeliveryLog(ctx context.Context, log *model.DeliveryLog) error
}

// DispatchService builds payloads, runs the delivery engine over registry targets and
// reconciles the outcome: gone subscriptions are pruned when configured and every
// attempt is logged.
type DispatchService struct {
	registry  *registry.Registry
	engine    *delivery.Engine
	logs      LogRecorder
	pruneGone bool
	logger    *slog.Logger
}

// NewDispatchService builds DispatchService. logs may be nil.
func NewDispatchService(reg *registry.Registry, engine *delivery.Engine, logs LogRecorder, pruneGone bool, logger *slog.Logger) *DispatchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DispatchService{
		registry:  reg,
		engine:    engine,
		logs:      logs,
		pruneGone: pruneGone,
		logger:    logger,
	}
}

// Broadcast sends req to every registered subscription. It fails with
// delivery.ErrNoTargets when the registry is empty.
func (s *DispatchService) Broadcast(ctx context.Context, req model.NotificationRequest) (*delivery.Report, error) {
	targets := s.registry.List()
	if len(targets) == 0 {
		return nil, delivery.ErrNoTargets
	}
	p := payload.Build(req)
	s.logger.Info("sending notification",
		slog.String("title", p.Notification.Title),
		slog.String("tag", p.Notification.Tag),
		slog.Int("subscribers", len(targets)),
	)

	report, err := s.engine.Deliver(ctx, p, targets)
	if err != nil {
		return nil, err
	}
	for _, o := range report.Outcomes {
		s.appendLog(ctx, report.BatchID, p, o.Endpoint, string(o.Status), o.Err)
	}
	s.prune(report.GoneEndpoints)
	return report, nil
}

// SendTo delivers req to the subscription registered for endpoint. It returns
// registry.ErrNotFound, an error matching delivery.ErrGone, or a *delivery.Error.
func (s *DispatchService) SendTo(ctx context.Context, endpoint string, req model.NotificationRequest) error {
	target, err := s.registry.FindByEndpoint(endpoint)
	if err != nil {
		return err
	}
	p := payload.Build(req)
	sendErr := s.engine.DeliverOne(ctx, p, target)

	status := model.DeliveryStatusSuccess
	switch {
	case sendErr == nil:
	case errors.Is(sendErr, delivery.ErrGone):
		status = model.DeliveryStatusGone
		s.prune([]string{endpoint})
	default:
		status = model.DeliveryStatusFailed
	}
	s.appendLog(ctx, "", p, endpoint, status, sendErr)
	return sendErr
}

func (s *DispatchService) prune(endpoints []string) {
	if !s.pruneGone || len(endpoints) == 0 {
		return
	}
	removed := s.registry.RemoveAll(endpoints)
	s.logger.Info("pruned gone subscriptions", slog.Int("removed", removed))
}

func (s *DispatchService) appendLog(ctx context.Context, batchID string, p model.Payload, endpoint, status string, cause error) {
	if s.logs == nil {
		return
	}
	entry := &model.DeliveryLog{
		BatchID:  batchID,
		Endpoint: model.RedactEndpoint(endpoint),
		Title:    p.Notification.Title,
		Tag:      p.Notification.Tag,
		Status:   status,
	}
	if cause != nil {
		entry.Result = cause.Error()
		var statusErr *pushclient.StatusError
		if errors.As(cause, &statusErr) {
			entry.StatusCode = statusErr.StatusCode
		}
	}
	if err := s.logs.AppendDeliveryLog(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Warn("append delivery log failed", slog.Any("error", err))
	}
}
