package model

// DeliveryLogPage is a page of delivery logs, newest first.
type DeliveryLogPage struct {
	Data     []*DeliveryLog `json:"data"`
	Total    int            `json:"total"`
	Pages    int            `json:"pages"`
	PageNum  int            `json:"pageNum"`
	PageSize int            `json:"pageSize"`
}
