package model

import "time"

// Delivery statuses recorded per attempt.
const (
	DeliveryStatusSuccess = "SUCCESS"
	DeliveryStatusGone    = "GONE"
	DeliveryStatusFailed  = "FAILED"
)

// DeliveryLog tracks each push attempt.
type DeliveryLog struct {
	ID         uint64    `json:"id"`
	BatchID    string    `json:"batchId"`
	Endpoint   string    `json:"endpoint"`
	Title      string    `json:"title"`
	Tag        string    `json:"tag"`
	Status     string    `json:"status"`
	StatusCode int       `json:"statusCode,omitempty"`
	Result     string    `json:"result,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// DeliveryLogFilter describes query parameters for log searching.
type DeliveryLogFilter struct {
	Endpoint  string
	BatchID   string
	Status    string
	BeginTime *time.Time
	EndTime   *time.Time
	Page      int
	PageSize  int
}
