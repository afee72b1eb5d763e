package repo

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/apuestago/bet-ledger/internal/account"
	"github.com/apuestago/bet-ledger/internal/ledger"
)

// Postgres persiste contas na mesma tabela accounts que o ledger lê.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

func (p *Postgres) Create(ctx context.Context, a *ledger.Account, passwordHash []byte) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO accounts (id, email, password_hash, balance_cents, status, created_at)
		VALUES ($1,$2,$3,0,$4,$5)`,
		a.ID, a.Email, passwordHash, a.Status, a.CreatedAt)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return account.ErrEmailTaken
	}
	return err
}

func (p *Postgres) ByEmail(ctx context.Context, email string) (*ledger.Account, []byte, error) {
	var a ledger.Account
	var hash []byte
	err := p.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, balance_cents, status, created_at
		FROM accounts WHERE email=$1`, email).
		Scan(&a.ID, &a.Email, &hash, &a.BalanceCents, &a.Status, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil, ledger.ErrAccountNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	return &a, hash, nil
}

func (p *Postgres) SetStatus(ctx context.Context, accountID, status string) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE accounts SET status=$1, updated_at=NOW() WHERE id=$2`, status, accountID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrAccountNotFound
	}
	return nil
}
