package matches

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestScoreOutcomeOf(t *testing.T) {
	cases := []struct {
		home, away int
		want       Outcome
	}{
		{2, 0, OutcomeLocal},
		{0, 3, OutcomeVisitante},
		{1, 1, OutcomeEmpate},
		{0, 0, OutcomeEmpate},
	}
	for _, tc := range cases {
		if got := (Score{HomeGoals: tc.home, AwayGoals: tc.away}).OutcomeOf(); got != tc.want {
			t.Errorf("%d-%d: got %s, want %s", tc.home, tc.away, got, tc.want)
		}
	}
}

func TestParseOutcome(t *testing.T) {
	for _, s := range []string{"local", "empate", "visitante"} {
		if _, err := ParseOutcome(s); err != nil {
			t.Errorf("ParseOutcome(%q): %v", s, err)
		}
	}
	for _, s := range []string{"", "gol", "LOCAL", "home"} {
		if _, err := ParseOutcome(s); !errors.Is(err, ErrInvalidOutcome) {
			t.Errorf("ParseOutcome(%q): err = %v, want ErrInvalidOutcome", s, err)
		}
	}
}

func TestOpenForBetting(t *testing.T) {
	now := time.Now()
	m := &Match{Kickoff: now.Add(time.Hour)}
	if !m.OpenForBetting(now) {
		t.Error("future kickoff must be open")
	}

	m.Kickoff = now.Add(-time.Minute)
	if m.OpenForBetting(now) {
		t.Error("past kickoff must be closed")
	}

	m.Kickoff = now.Add(time.Hour)
	m.Result = &Score{}
	if m.OpenForBetting(now) {
		t.Error("match with result must be closed")
	}

	m.Result = nil
	m.Finalized = true
	if m.OpenForBetting(now) {
		t.Error("finalized match must be closed")
	}
}

func TestAssignOdds_WithinSportRange(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, cfg := range DefaultSports() {
		for i := 0; i < 50; i++ {
			odds := AssignOdds(rng, cfg)
			for _, o := range []decimal.Decimal{odds.Local, odds.Empate, odds.Visitante} {
				if o.LessThan(cfg.MinOdd) || o.GreaterThan(cfg.MaxOdd) {
					t.Fatalf("%s: odd %s outside [%s, %s]", cfg.Sport, o, cfg.MinOdd, cfg.MaxOdd)
				}
				if o.Exponent() < -2 {
					t.Fatalf("%s: odd %s has more than two decimal places", cfg.Sport, o)
				}
			}
		}
	}
}

func TestOddsFor(t *testing.T) {
	o := Odds{
		Local:     decimal.NewFromFloat(2.5),
		Empate:    decimal.NewFromFloat(3.1),
		Visitante: decimal.NewFromFloat(2.8),
	}
	if !o.For(OutcomeLocal).Equal(decimal.NewFromFloat(2.5)) {
		t.Error("For(local) mismatch")
	}
	if !o.For(OutcomeEmpate).Equal(decimal.NewFromFloat(3.1)) {
		t.Error("For(empate) mismatch")
	}
	if !o.For(OutcomeVisitante).Equal(decimal.NewFromFloat(2.8)) {
		t.Error("For(visitante) mismatch")
	}
}
