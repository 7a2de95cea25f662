package models

import "time"

// Requests for reconciliation HTTP endpoints. Defined in domain for consistency and reuse.

type FeedRequest struct {
	Limit  int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=200"`
	Source string `query:"source" json:"source" validate:"omitempty,oneof=alerts notifications compliance audit anomalies"`
}

type HeatmapRequest struct {
	Venue  string `query:"venue" json:"venue"`
	Symbol string `query:"symbol" json:"symbol"`
	Window string `query:"window" json:"window" default:"1h" validate:"oneof=15m 1h 24h"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
}

type MarkReadRequest struct {
	ID string `param:"id" json:"id" validate:"required"`
}

type AcknowledgeRequest struct {
	ID string `param:"id" json:"id" validate:"required"`
}

type RegimeHistoryRequest struct {
	Limit int `query:"limit" json:"limit" default:"20" validate:"gte=1,lte=100"`
}

type RegimeRecordRequest struct {
	Regime     string    `json:"regime" validate:"required"`
	Confidence float64   `json:"confidence" validate:"gte=0,lte=1"`
	From       time.Time `json:"from"`
	To         time.Time `json:"to"`
}
