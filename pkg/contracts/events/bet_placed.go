package events

type BetPlaced struct {
	WagerID     string `json:"wager_id"`
	AccountID   string `json:"account_id"`
	MatchID     string `json:"match_id"`
	Selection   string `json:"selection"` // "local" | "empate" | "visitante"
	StakeCents  int64  `json:"stake_cents"`
	OddValue    string `json:"odd_value"`    // decimal como string, ex: "2.50"
	PayoutCents int64  `json:"payout_cents"` // potencial, fixado na colocação
	TsUnixMs    int64  `json:"ts_unix_ms"`
}
