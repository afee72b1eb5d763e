package events

import "time"

// Evento publicado quando uma partida termina com placar definitivo.
// O settlement-worker consome este tópico para liquidar as apostas pendentes.
type MatchFinalized struct {
	MatchID     string    `json:"match_id"`
	HomeTeam    string    `json:"home_team"`
	AwayTeam    string    `json:"away_team"`
	HomeGoals   int       `json:"home_goals"`
	AwayGoals   int       `json:"away_goals"`
	FinalizedAt time.Time `json:"finalized_at"`
	Source      string    `json:"source"` // "results-simulator"
}
