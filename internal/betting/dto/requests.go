package dto

type PlaceBetRequest struct {
	MatchID    string `json:"match_id"`
	Selection  string `json:"selection"` // "local" | "empate" | "visitante"
	StakeCents int64  `json:"stake_cents"`
	// WagerID opcional gerado no dispositivo; replay offline reenvia o mesmo
	// id e o servidor não aplica duas vezes.
	WagerID string `json:"wager_id,omitempty"`
}
