package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/apuestago/bet-ledger/internal/matches"
)

var (
	ErrNotFound         = errors.New("match not found")
	ErrAlreadyFinalized = errors.New("match already finalized")
)

// Postgres persiste partidas e seus resultados.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// Create insere uma partida com cotações fixas.
func (p *Postgres) Create(ctx context.Context, m *matches.Match) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO matches (id, sport, home_team, away_team, kickoff, odd_local, odd_empate, odd_visitante, finalized)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,false)`,
		m.ID, m.Sport, m.HomeTeam, m.AwayTeam, m.Kickoff,
		m.Odds.Local.String(), m.Odds.Empate.String(), m.Odds.Visitante.String())
	return err
}

// Match carrega a partida pelo id.
func (p *Postgres) Match(ctx context.Context, id string) (*matches.Match, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT id, sport, home_team, away_team, kickoff, odd_local, odd_empate, odd_visitante,
		       home_goals, away_goals, finalized, created_at
		FROM matches WHERE id=$1`, id)
	return scanMatch(row)
}

// ListOpen lista partidas que ainda aceitam apostas.
func (p *Postgres) ListOpen(ctx context.Context) ([]matches.Match, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, sport, home_team, away_team, kickoff, odd_local, odd_empate, odd_visitante,
		       home_goals, away_goals, finalized, created_at
		FROM matches
		WHERE finalized=false AND home_goals IS NULL AND kickoff > NOW()
		ORDER BY kickoff ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// ListUnsettled lista partidas com resultado gravado e liquidação pendente.
// É o caminho de retomada do settlement-worker depois de um crash.
func (p *Postgres) ListUnsettled(ctx context.Context) ([]matches.Match, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, sport, home_team, away_team, kickoff, odd_local, odd_empate, odd_visitante,
		       home_goals, away_goals, finalized, created_at
		FROM matches
		WHERE finalized=false AND home_goals IS NOT NULL
		ORDER BY kickoff ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// ListAwaitingResult lista partidas já iniciadas e ainda sem placar.
// O results-simulator usa isto pra decidir quais partidas encerrar.
func (p *Postgres) ListAwaitingResult(ctx context.Context) ([]matches.Match, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, sport, home_team, away_team, kickoff, odd_local, odd_empate, odd_visitante,
		       home_goals, away_goals, finalized, created_at
		FROM matches
		WHERE finalized=false AND home_goals IS NULL AND kickoff <= NOW()
		ORDER BY kickoff ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// RecordResult grava o placar uma única vez; partidas finalizadas são imutáveis.
func (p *Postgres) RecordResult(ctx context.Context, id string, score matches.Score) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE matches SET home_goals=$1, away_goals=$2, updated_at=NOW()
		WHERE id=$3 AND finalized=false AND home_goals IS NULL`,
		score.HomeGoals, score.AwayGoals, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// já tinha resultado ou já foi finalizada; reentrega de evento é normal
		m, gerr := p.Match(ctx, id)
		if gerr != nil {
			return gerr
		}
		if m.Finalized || m.Result != nil {
			return nil
		}
		return ErrNotFound
	}
	return nil
}

// MarkFinalized fecha a partida depois da liquidação.
func (p *Postgres) MarkFinalized(ctx context.Context, id string) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE matches SET finalized=true, updated_at=NOW() WHERE id=$1`, id)
	return err
}

type rowScanner interface{ Scan(dest ...any) error }

func scanMatch(row rowScanner) (*matches.Match, error) {
	var m matches.Match
	var oddL, oddE, oddV string
	var homeGoals, awayGoals sql.NullInt64
	err := row.Scan(&m.ID, &m.Sport, &m.HomeTeam, &m.AwayTeam, &m.Kickoff,
		&oddL, &oddE, &oddV, &homeGoals, &awayGoals, &m.Finalized, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	m.Odds.Local, err = decimal.NewFromString(oddL)
	if err != nil {
		return nil, err
	}
	m.Odds.Empate, err = decimal.NewFromString(oddE)
	if err != nil {
		return nil, err
	}
	m.Odds.Visitante, err = decimal.NewFromString(oddV)
	if err != nil {
		return nil, err
	}

	if homeGoals.Valid && awayGoals.Valid {
		m.Result = &matches.Score{HomeGoals: int(homeGoals.Int64), AwayGoals: int(awayGoals.Int64)}
	}
	return &m, nil
}

func collect(rows *sql.Rows) ([]matches.Match, error) {
	var out []matches.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}
