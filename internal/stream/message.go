// Package stream pushes recomputed strategy metrics to WebSocket subscribers.
package stream

import (
	"time"

	"strategy-journal/internal/domain"
)

// MessageType identifies server messages.
type MessageType string

const (
	MessageTypeMetrics MessageType = "metrics"
	MessageTypeError   MessageType = "error"
)

// Message is the JSON frame written to subscribers.
type Message struct {
	Type       MessageType           `json:"type"`
	StrategyID string                `json:"strategyId,omitempty"`
	Metrics    *domain.MetricsRecord `json:"metrics,omitempty"`
	Error      string                `json:"error,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
}
