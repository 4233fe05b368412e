package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bark-labs/push-relay/internal/model"
)

func seedLogs(t *testing.T) *memoryLogs {
	t.Helper()
	logs := &memoryLogs{}
	base := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	entries := []model.DeliveryLog{
		{BatchID: "b1", Endpoint: "https://fcm.example.com/a", Status: model.DeliveryStatusSuccess, CreatedAt: base},
		{BatchID: "b1", Endpoint: "https://fcm.example.com/b", Status: model.DeliveryStatusGone, CreatedAt: base},
		{BatchID: "b2", Endpoint: "https://moz.example.com/c", Status: model.DeliveryStatusSuccess, CreatedAt: base.AddDate(0, 0, 1)},
		{BatchID: "b3", Endpoint: "https://moz.example.com/c", Status: model.DeliveryStatusFailed, CreatedAt: base.AddDate(0, 1, 0)},
	}
	for i := range entries {
		require.NoError(t, logs.AppendDeliveryLog(context.Background(), &entries[i]))
	}
	return logs
}

func TestQueryPaginatesNewestFirst(t *testing.T) {
	svc := NewDeliveryLogService(seedLogs(t))

	page, err := svc.Query(context.Background(), model.DeliveryLogFilter{Page: 1, PageSize: 3})
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, 2, page.Pages)
	require.Len(t, page.Data, 3)
	assert.Equal(t, "b3", page.Data[0].BatchID)
	assert.Equal(t, uint64(2), page.Data[2].ID, "same timestamp falls back to newest id")

	page, err = svc.Query(context.Background(), model.DeliveryLogFilter{Page: 5, PageSize: 3})
	require.NoError(t, err)
	assert.Empty(t, page.Data)
}

func TestQueryFilters(t *testing.T) {
	svc := NewDeliveryLogService(seedLogs(t))
	ctx := context.Background()

	page, err := svc.Query(ctx, model.DeliveryLogFilter{Status: "success"})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 10, page.PageSize)

	page, err = svc.Query(ctx, model.DeliveryLogFilter{BatchID: "b1"})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	page, err = svc.Query(ctx, model.DeliveryLogFilter{Endpoint: "moz.example.com"})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	begin := time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC)
	page, err = svc.Query(ctx, model.DeliveryLogFilter{BeginTime: &begin})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
}

func TestCountByStatus(t *testing.T) {
	svc := NewDeliveryLogService(seedLogs(t))

	counts, err := svc.CountByStatus(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{
		{"status": model.DeliveryStatusFailed, "count": 1},
		{"status": model.DeliveryStatusGone, "count": 1},
		{"status": model.DeliveryStatusSuccess, "count": 2},
	}, counts)
}

func TestCountByDate(t *testing.T) {
	svc := NewDeliveryLogService(seedLogs(t))

	daily, err := svc.CountByDate(context.Background(), "day", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{
		{"date": "2026-10-01", "count": 2},
		{"date": "2026-10-02", "count": 1},
		{"date": "2026-11-01", "count": 1},
	}, daily)

	monthly, err := svc.CountByDate(context.Background(), "month", nil, nil)
	require.NoError(t, err)
	assert.Len(t, monthly, 2)
}
