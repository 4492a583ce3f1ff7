package models

import (
	"fmt"
	"strings"
	"time"
)

// AdjustmentType tags the origin of an adjustment request.
type AdjustmentType string

const (
	AdjustmentManual AdjustmentType = "manual"
	AdjustmentAuto   AdjustmentType = "auto"
	AdjustmentSystem AdjustmentType = "system"
)

// ParseAdjustmentType maps a wire value onto an AdjustmentType. An empty value means manual.
func ParseAdjustmentType(value string) (AdjustmentType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(AdjustmentManual):
		return AdjustmentManual, nil
	case string(AdjustmentAuto):
		return AdjustmentAuto, nil
	case string(AdjustmentSystem):
		return AdjustmentSystem, nil
	default:
		return "", fmt.Errorf("unknown adjustment type %q", value)
	}
}

// Trend is the qualitative direction of recent adjustments.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// AdjustmentRequest is a proposed delta against the meter value.
type AdjustmentRequest struct {
	Delta    float64
	Type     AdjustmentType
	OriginID string
}

// HistoryEvent records one accepted adjustment. Value is the intended value at
// request time, which may differ from the value committed by the next flush.
type HistoryEvent struct {
	ID        string         `json:"id"`
	Value     float64        `json:"value"`
	Timestamp time.Time      `json:"timestamp"`
	OriginID  string         `json:"originId"`
	Type      AdjustmentType `json:"type"`
	Delta     float64        `json:"delta"`
}

// Analytics summarises retained history.
type Analytics struct {
	Average    float64 `json:"average"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Trend      Trend   `json:"trend"`
	ChangeRate float64 `json:"changeRate"`
}

// Snapshot is a consistent read of everything renderers need.
type Snapshot struct {
	Value     float64        `json:"value"`
	History   []HistoryEvent `json:"history"`
	Analytics Analytics      `json:"analytics"`
	Error     string         `json:"error,omitempty"`
	Adjusting bool           `json:"adjusting"`
	Pending   int            `json:"pending"`
}
