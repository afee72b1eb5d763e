package clientcache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	bdto "github.com/apuestago/bet-ledger/internal/betting/dto"
	"github.com/apuestago/bet-ledger/internal/ledger"
	ldto "github.com/apuestago/bet-ledger/internal/ledger/dto"
)

// Client fala com ledger-service e bet-service em nome de um dispositivo.
// Timeout curto: estourou, o chamador reenvia depois com a mesma chave.
type Client struct {
	LedgerURL string
	BetURL    string
	Token     string
	AccountID string
	HTTP      *http.Client
}

func NewClient(ledgerURL, betURL, token, accountID string) *Client {
	return &Client{
		LedgerURL: ledgerURL,
		BetURL:    betURL,
		Token:     token,
		AccountID: accountID,
		HTTP:      &http.Client{Timeout: 2 * time.Second},
	}
}

func (c *Client) Recharge(ctx context.Context, amountCents int64, idempotencyKey string) (int64, error) {
	return c.delta(ctx, "recharge", amountCents, idempotencyKey)
}

func (c *Client) Withdraw(ctx context.Context, amountCents int64, idempotencyKey string) (int64, error) {
	return c.delta(ctx, "withdraw", amountCents, idempotencyKey)
}

func (c *Client) delta(ctx context.Context, action string, amountCents int64, key string) (int64, error) {
	body, _ := json.Marshal(ldto.RechargeRequest{AmountCents: amountCents, IdempotencyKey: key})
	url := fmt.Sprintf("%s/accounts/%s/%s", c.LedgerURL, c.AccountID, action)

	res, err := c.post(ctx, url, body)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()

	if err := mapStatus(res.StatusCode); err != nil {
		return 0, err
	}
	var out ldto.DeltaResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, err
	}
	return out.BalanceCents, nil
}

func (c *Client) PlaceBet(ctx context.Context, matchID, selection string, stakeCents int64, wagerID string) error {
	body, _ := json.Marshal(bdto.PlaceBetRequest{
		MatchID:    matchID,
		Selection:  selection,
		StakeCents: stakeCents,
		WagerID:    wagerID,
	})
	res, err := c.post(ctx, c.BetURL+"/bets", body)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return mapStatus(res.StatusCode)
}

func (c *Client) Balance(ctx context.Context) (int64, error) {
	url := fmt.Sprintf("%s/accounts/%s/balance", c.LedgerURL, c.AccountID)
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	req.Header.Set("Authorization", "Bearer "+c.Token)

	res, err := c.HTTP.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()

	if err := mapStatus(res.StatusCode); err != nil {
		return 0, err
	}
	var out ldto.BalanceResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, err
	}
	return out.BalanceCents, nil
}

func (c *Client) post(ctx context.Context, url string, body []byte) (*http.Response, error) {
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.Token)
	return c.HTTP.Do(req)
}

// mapStatus traduz o status HTTP de volta pra taxonomia do ledger.
// 5xx fica como erro genérico (retry com a mesma chave); 4xx é rejeição
// de negócio e não deve ser reenviado.
func mapStatus(code int) error {
	switch {
	case code < 300:
		return nil
	case code == http.StatusUnprocessableEntity:
		return ledger.ErrInsufficientFunds
	case code == http.StatusBadRequest:
		return ledger.ErrInvalidAmount
	case code == http.StatusNotFound:
		return ledger.ErrAccountNotFound
	case code >= 400 && code < 500:
		return fmt.Errorf("%w: http %d", ErrRejected, code)
	default:
		return fmt.Errorf("%w: http %d", ledger.ErrLedgerWriteFailed, code)
	}
}
