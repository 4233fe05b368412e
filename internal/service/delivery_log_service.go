package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/bark-labs/push-relay/internal/model"
)

// LogLister reads the delivery log. storage.Store implements it.
type LogLister interface {
	ListDeliveryLogs(ctx context.Context) ([]*model.DeliveryLog, error)
}

// DeliveryLogService provides filtering and statistics over delivery attempts.
type DeliveryLogService struct {
	store LogLister
}

// NewDeliveryLogService builds the delivery log service.
func NewDeliveryLogService(store LogLister) *DeliveryLogService {
	return &DeliveryLogService{store: store}
}

// Query returns paginated logs, newest first.
func (s *DeliveryLogService) Query(ctx context.Context, filter model.DeliveryLogFilter) (*model.DeliveryLogPage, error) {
	logs, err := s.filteredLogs(ctx, filter)
	if err != nil {
		return nil, err
	}

	total := len(logs)
	if filter.PageSize <= 0 {
		filter.PageSize = 10
	}
	if filter.PageSize > 100 {
		filter.PageSize = 100
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}

	start := (filter.Page - 1) * filter.PageSize
	if start > total {
		start = total
	}
	end := start + filter.PageSize
	if end > total {
		end = total
	}

	return &model.DeliveryLogPage{
		Data:     logs[start:end],
		Total:    total,
		Pages:    (total + filter.PageSize - 1) / filter.PageSize,
		PageNum:  filter.Page,
		PageSize: filter.PageSize,
	}, nil
}

// CountByDate aggregates logs per day, month or year.
func (s *DeliveryLogService) CountByDate(ctx context.Context, dateType string, begin, end *time.Time) ([]map[string]any, error) {
	logs, err := s.filteredLogs(ctx, model.DeliveryLogFilter{BeginTime: begin, EndTime: end})
	if err != nil {
		return nil, err
	}

	layout := "2006-01-02"
	switch strings.ToLower(dateType) {
	case "year":
		layout = "2006"
	case "month":
		layout = "2006-01"
	}

	counter := make(map[string]int)
	for _, log := range logs {
		counter[log.CreatedAt.UTC().Format(layout)]++
	}
	return mapToKV(counter, "date"), nil
}

// CountByStatus aggregates by attempt status.
func (s *DeliveryLogService) CountByStatus(ctx context.Context, begin, end *time.Time) ([]map[string]any, error) {
	logs, err := s.filteredLogs(ctx, model.DeliveryLogFilter{BeginTime: begin, EndTime: end})
	if err != nil {
		return nil, err
	}
	counter := make(map[string]int)
	for _, log := range logs {
		status := log.Status
		if status == "" {
			status = "UNKNOWN"
		}
		counter[status]++
	}
	return mapToKV(counter, "status"), nil
}

func (s *DeliveryLogService) filteredLogs(ctx context.Context, filter model.DeliveryLogFilter) ([]*model.DeliveryLog, error) {
	all, err := s.store.ListDeliveryLogs(ctx)
	if err != nil {
		return nil, err
	}
	matches := make([]*model.DeliveryLog, 0, len(all))
	for _, log := range all {
		if filter.Endpoint != "" && !strings.Contains(log.Endpoint, filter.Endpoint) {
			continue
		}
		if filter.BatchID != "" && log.BatchID != filter.BatchID {
			continue
		}
		if filter.Status != "" && !strings.EqualFold(log.Status, filter.Status) {
			continue
		}
		if filter.BeginTime != nil && log.CreatedAt.Before(filter.BeginTime.UTC()) {
			continue
		}
		if filter.EndTime != nil && log.CreatedAt.After(filter.EndTime.UTC()) {
			continue
		}
		matches = append(matches, log)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].ID > matches[j].ID
		}
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

func mapToKV(counter map[string]int, key string) []map[string]any {
	result := make([]map[string]any, 0, len(counter))
	for k, v := range counter {
		result = append(result, map[string]any{
			key:     k,
			"count": v,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i][key].(string) < result[j][key].(string)
	})
	return result
}
