package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/apuestago/bet-ledger/internal/ledger"
)

// Postgres implementa ledger.Store sobre Postgres.
// Toda mutação roda numa transação com lock pessimista na linha da conta.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// Account carrega a conta pelo id.
func (p *Postgres) Account(ctx context.Context, accountID string) (*ledger.Account, error) {
	var a ledger.Account
	err := p.db.QueryRowContext(ctx, `
		SELECT id, email, balance_cents, status, created_at
		FROM accounts WHERE id=$1`, accountID).
		Scan(&a.ID, &a.Email, &a.BalanceCents, &a.Status, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Apply grava movimento + saldo numa transação só.
// Idempotência por (account_id, idempotency_key); o índice único no banco é
// a última linha de defesa caso duas instâncias disputem a mesma chave.
func (p *Postgres) Apply(ctx context.Context, e *ledger.Entry) (*ledger.Entry, bool, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	var balance int64
	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT balance_cents, status FROM accounts WHERE id=$1 FOR UPDATE`,
		e.AccountID).Scan(&balance, &status)
	if err == sql.ErrNoRows {
		return nil, false, ledger.ErrAccountNotFound
	}
	if err != nil {
		return nil, false, err
	}
	if status != ledger.StatusActive {
		return nil, false, ledger.ErrAccountInactive
	}

	// Idempotência: devolve o movimento original se a chave já foi aplicada
	var prior ledger.Entry
	err = tx.QueryRowContext(ctx, `
		SELECT id, amount_cents, kind, balance_after_cents, reference, created_at
		FROM ledger_entries WHERE account_id=$1 AND idempotency_key=$2`,
		e.AccountID, e.IdempotencyKey).
		Scan(&prior.ID, &prior.AmountCents, &prior.Kind, &prior.BalanceAfterCents, &prior.Reference, &prior.CreatedAt)
	if err == nil {
		prior.AccountID = e.AccountID
		prior.IdempotencyKey = e.IdempotencyKey
		if err = tx.Commit(); err != nil {
			return nil, false, err
		}
		return &prior, true, nil
	}
	if err != sql.ErrNoRows {
		return nil, false, err
	}

	newBalance := balance + e.AmountCents
	if newBalance < 0 {
		return nil, false, ledger.ErrInsufficientFunds
	}
	e.BalanceAfterCents = newBalance

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO ledger_entries (id, account_id, amount_cents, kind, balance_after_cents, idempotency_key, reference, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		e.ID, e.AccountID, e.AmountCents, string(e.Kind), e.BalanceAfterCents, e.IdempotencyKey, e.Reference, e.CreatedAt); err != nil {
		return nil, false, err
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE accounts SET balance_cents=$1, updated_at=NOW() WHERE id=$2`,
		newBalance, e.AccountID); err != nil {
		return nil, false, err
	}

	if err = tx.Commit(); err != nil {
		return nil, false, err
	}
	return e, false, nil
}

// Entries lista movimentos da conta no período, mais recente primeiro.
func (p *Postgres) Entries(ctx context.Context, accountID string, from, to time.Time) ([]ledger.Entry, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, account_id, amount_cents, kind, balance_after_cents, idempotency_key, reference, created_at
		FROM ledger_entries
		WHERE account_id=$1 AND created_at >= $2 AND created_at <= $3
		ORDER BY created_at DESC`, accountID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Entry
	for rows.Next() {
		var e ledger.Entry
		if err := rows.Scan(&e.ID, &e.AccountID, &e.AmountCents, &e.Kind, &e.BalanceAfterCents, &e.IdempotencyKey, &e.Reference, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
