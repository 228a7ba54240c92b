package domain

import (
	"context"
	"time"
)

// Round results reported in RoundEvent.Result.
const (
	ResultSolved = "solved"
	ResultFailed = "failed"
)

// RoundEvent records the outcome of one finished round.
type RoundEvent struct {
	SessionID    string    `json:"session_id"`
	LocationCode string    `json:"location_code"`
	Result       string    `json:"result"`
	Rounds       int       `json:"rounds"`
	Tried        []string  `json:"tried"`
	FinishedAt   time.Time `json:"finished_at"`
}

// NewRoundEvent builds a RoundEvent stamped with the package clock.
func NewRoundEvent(sessionID, code string, success bool, rounds int, tried []string) RoundEvent {
	result := ResultFailed
	if success {
		result = ResultSolved
	}
	if tried == nil {
		tried = []string{}
	}
	return RoundEvent{
		SessionID:    sessionID,
		LocationCode: code,
		Result:       result,
		Rounds:       rounds,
		Tried:        tried,
		FinishedAt:   now(),
	}
}

// EventPublisher delivers round events to a downstream sink.
type EventPublisher interface {
	PublishRound(ctx context.Context, event RoundEvent) error
}

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) PublishRound(context.Context, RoundEvent) error { return nil }
