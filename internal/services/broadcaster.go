package services

import (
	"casino-miniapp-backend/internal/models"

	"github.com/shopspring/decimal"
)

type Broadcaster interface {
	BroadcastGameUpdate(accountID, roundID string, multiplier decimal.Decimal)
	BroadcastGameCrash(accountID, roundID string, crashPoint decimal.Decimal)
	BroadcastRoundSettled(accountID string, view *models.RoundView)
}

type nopBroadcaster struct{}

func (nopBroadcaster) BroadcastGameUpdate(string, string, decimal.Decimal) {}
func (nopBroadcaster) BroadcastGameCrash(string, string, decimal.Decimal)  {}
func (nopBroadcaster) BroadcastRoundSettled(string, *models.RoundView)     {}

// EventSink receives one event per settled round.
type EventSink interface {
	Enqueue(key string, v any) error
}
