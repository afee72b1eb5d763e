package dto

import "time"

type WagerResponse struct {
	WagerID     string     `json:"wager_id"`
	AccountID   string     `json:"account_id"`
	MatchID     string     `json:"match_id"`
	Selection   string     `json:"selection"`
	StakeCents  int64      `json:"stake_cents"`
	OddValue    string     `json:"odd_value"`
	PayoutCents int64      `json:"payout_cents"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	SettledAt   *time.Time `json:"settled_at,omitempty"`
}

type MatchResponse struct {
	MatchID      string    `json:"match_id"`
	Sport        string    `json:"sport"`
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
	Kickoff      time.Time `json:"kickoff"`
	OddLocal     string    `json:"odd_local"`
	OddEmpate    string    `json:"odd_empate"`
	OddVisitante string    `json:"odd_visitante"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
