package topics

const (
	// Apostas
	BetPlaced = "bet_placed"

	// Resultados e liquidação
	MatchFinalized = "match_finalized"
	WagerSettled   = "wager_settled"

	// DLQs
	MatchFinalizedDLQ = "match_finalized_dlq"
)
