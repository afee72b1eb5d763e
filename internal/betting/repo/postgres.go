package repo

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/apuestago/bet-ledger/internal/betting"
	"github.com/apuestago/bet-ledger/internal/matches"
)

// Postgres implementa a persistência de apostas.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// Create insere a aposta já com status pending.
func (p *Postgres) Create(ctx context.Context, w *betting.Wager) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO wagers (id, account_id, match_id, selection, stake_cents, odd_value, payout_cents, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		w.ID, w.AccountID, w.MatchID, string(w.Selection), w.StakeCents,
		w.Odd.String(), w.PayoutCents, string(w.Status), w.CreatedAt)
	return err
}

// Wager carrega uma aposta pelo id.
func (p *Postgres) Wager(ctx context.Context, id string) (*betting.Wager, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT id, account_id, match_id, selection, stake_cents, odd_value, payout_cents, status, created_at, settled_at
		FROM wagers WHERE id=$1`, id)
	w, err := scanWager(row)
	if err == sql.ErrNoRows {
		return nil, betting.ErrNotFound
	}
	return w, err
}

// ListByAccount lista as apostas da conta, mais recente primeiro.
func (p *Postgres) ListByAccount(ctx context.Context, accountID string) ([]betting.Wager, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, account_id, match_id, selection, stake_cents, odd_value, payout_cents, status, created_at, settled_at
		FROM wagers WHERE account_id=$1 ORDER BY created_at DESC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// ListByMatch lista apostas de uma partida com o status dado.
func (p *Postgres) ListByMatch(ctx context.Context, matchID string, status betting.Status) ([]betting.Wager, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, account_id, match_id, selection, stake_cents, odd_value, payout_cents, status, created_at, settled_at
		FROM wagers WHERE match_id=$1 AND status=$2 ORDER BY created_at ASC`, matchID, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// MarkSettled fecha a aposta como won/lost. Só transiciona a partir de pending.
func (p *Postgres) MarkSettled(ctx context.Context, id string, status betting.Status) error {
	_, err := p.db.ExecContext(ctx, `
		UPDATE wagers SET status=$1, settled_at=NOW()
		WHERE id=$2 AND status='pending'`, string(status), id)
	return err
}

type rowScanner interface{ Scan(dest ...any) error }

func scanWager(row rowScanner) (*betting.Wager, error) {
	var w betting.Wager
	var selection, status, odd string
	var settledAt sql.NullTime
	err := row.Scan(&w.ID, &w.AccountID, &w.MatchID, &selection, &w.StakeCents,
		&odd, &w.PayoutCents, &status, &w.CreatedAt, &settledAt)
	if err != nil {
		return nil, err
	}
	w.Selection = matches.Outcome(selection)
	w.Status = betting.Status(status)
	w.Odd, err = decimal.NewFromString(odd)
	if err != nil {
		return nil, err
	}
	if settledAt.Valid {
		t := settledAt.Time
		w.SettledAt = &t
	}
	return &w, nil
}

func collect(rows *sql.Rows) ([]betting.Wager, error) {
	var out []betting.Wager
	for rows.Next() {
		w, err := scanWager(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}
