package events

import "time"

// Evento emitido pelo settlement-worker para cada aposta liquidada.
// Também é o payload do broadcast Redis consumido pelo notify-service.
type WagerSettled struct {
	WagerID     string    `json:"wager_id"`
	AccountID   string    `json:"account_id"`
	MatchID     string    `json:"match_id"`
	Outcome     string    `json:"outcome"` // resultado real da partida
	Status      string    `json:"status"`  // "won" | "lost"
	PayoutCents int64     `json:"payout_cents,omitempty"`
	Ts          time.Time `json:"ts"`
}
