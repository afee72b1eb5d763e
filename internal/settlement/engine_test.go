package settlement_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/apuestago/bet-ledger/internal/betting"
	"github.com/apuestago/bet-ledger/internal/ledger"
	"github.com/apuestago/bet-ledger/internal/ledger/ledgertest"
	"github.com/apuestago/bet-ledger/internal/matches"
	"github.com/apuestago/bet-ledger/internal/settlement"
	"github.com/apuestago/bet-ledger/pkg/contracts/events"
)

// fakeMatchStore implementa settlement.MatchStore em memória.
type fakeMatchStore struct {
	mu sync.Mutex
	ms map[string]*matches.Match
}

func newFakeMatchStore() *fakeMatchStore {
	return &fakeMatchStore{ms: make(map[string]*matches.Match)}
}

func (f *fakeMatchStore) add(m *matches.Match) { f.ms[m.ID] = m }

func (f *fakeMatchStore) Match(_ context.Context, id string) (*matches.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.ms[id]
	if !ok {
		return nil, errors.New("match not found")
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMatchStore) RecordResult(_ context.Context, id string, score matches.Score) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := f.ms[id]
	if m.Result == nil && !m.Finalized {
		m.Result = &score
	}
	return nil
}

func (f *fakeMatchStore) MarkFinalized(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ms[id].Finalized = true
	return nil
}

func (f *fakeMatchStore) ListOpen(_ context.Context) ([]matches.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []matches.Match
	for _, m := range f.ms {
		if m.OpenForBetting(time.Now()) {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMatchStore) ListUnsettled(_ context.Context) ([]matches.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []matches.Match
	for _, m := range f.ms {
		if !m.Finalized && m.Result != nil {
			out = append(out, *m)
		}
	}
	return out, nil
}

// fakeWagerStore implementa settlement.WagerStore em memória.
type fakeWagerStore struct {
	mu         sync.Mutex
	wagers     map[string]*betting.Wager
	settleErrs map[string]error // falha injetada por wagerID
}

func newFakeWagerStore() *fakeWagerStore {
	return &fakeWagerStore{
		wagers:     make(map[string]*betting.Wager),
		settleErrs: make(map[string]error),
	}
}

func (f *fakeWagerStore) add(w *betting.Wager) { f.wagers[w.ID] = w }

func (f *fakeWagerStore) Create(_ context.Context, w *betting.Wager) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *w
	f.wagers[w.ID] = &cp
	return nil
}

func (f *fakeWagerStore) Wager(_ context.Context, id string) (*betting.Wager, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.wagers[id]
	if !ok {
		return nil, betting.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (f *fakeWagerStore) ListByAccount(_ context.Context, accountID string) ([]betting.Wager, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []betting.Wager
	for _, w := range f.wagers {
		if w.AccountID == accountID {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (f *fakeWagerStore) ListByMatch(_ context.Context, matchID string, status betting.Status) ([]betting.Wager, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []betting.Wager
	for _, w := range f.wagers {
		if w.MatchID == matchID && w.Status == status {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (f *fakeWagerStore) MarkSettled(_ context.Context, id string, status betting.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.settleErrs[id]; err != nil {
		delete(f.settleErrs, id)
		return err
	}
	w := f.wagers[id]
	if w.Status == betting.StatusPending {
		w.Status = status
		now := time.Now()
		w.SettledAt = &now
	}
	return nil
}

func (f *fakeWagerStore) status(id string) betting.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.wagers[id].Status
}

type captureNotifier struct {
	mu   sync.Mutex
	sent []events.WagerSettled
}

func (c *captureNotifier) NotifySettled(_ context.Context, e events.WagerSettled) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, e)
	return nil
}

type fixture struct {
	engine  *settlement.Engine
	ledger  *ledger.Service
	store   *ledgertest.Store
	matches *fakeMatchStore
	wagers  *fakeWagerStore
	notify  *captureNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := ledgertest.NewStore()
	lsvc := ledger.New(store, zap.NewNop())
	ms := newFakeMatchStore()
	ws := newFakeWagerStore()
	n := &captureNotifier{}
	return &fixture{
		engine:  settlement.NewEngine(zap.NewNop(), lsvc, ms, ws, n),
		ledger:  lsvc,
		store:   store,
		matches: ms,
		wagers:  ws,
		notify:  n,
	}
}

func pendingWager(id, accountID, matchID string, sel matches.Outcome, stake int64, odd float64) *betting.Wager {
	d := decimal.NewFromFloat(odd)
	return &betting.Wager{
		ID:          id,
		AccountID:   accountID,
		MatchID:     matchID,
		Selection:   sel,
		StakeCents:  stake,
		Odd:         d,
		PayoutCents: betting.PayoutCents(stake, d),
		Status:      betting.StatusPending,
		CreatedAt:   time.Now(),
	}
}

func TestSettleMatch_WinnerPaidLoserNot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// saldo 80000 depois de um débito de aposta de 20000 (cenário B)
	f.store.Seed("winner", 80000)
	f.store.Seed("loser", 50000)
	f.matches.add(&matches.Match{ID: "m1", Kickoff: time.Now().Add(-time.Hour)})
	f.wagers.add(pendingWager("w1", "winner", "m1", matches.OutcomeLocal, 20000, 2.5))
	f.wagers.add(pendingWager("w2", "loser", "m1", matches.OutcomeVisitante, 10000, 1.8))

	outcomes, err := f.engine.SettleMatch(ctx, "m1", matches.Score{HomeGoals: 2, AwayGoals: 0})
	if err != nil {
		t.Fatalf("SettleMatch: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("outcomes = %d, want 2", len(outcomes))
	}

	if got := f.wagers.status("w1"); got != betting.StatusWon {
		t.Errorf("w1 status = %s, want won", got)
	}
	if got := f.wagers.status("w2"); got != betting.StatusLost {
		t.Errorf("w2 status = %s, want lost", got)
	}

	bal, _ := f.ledger.GetBalance(ctx, "winner")
	if bal != 130000 { // 80000 + 20000*2.5
		t.Errorf("winner balance = %d, want 130000", bal)
	}
	// derrota não devolve stake
	bal, _ = f.ledger.GetBalance(ctx, "loser")
	if bal != 50000 {
		t.Errorf("loser balance = %d, want 50000", bal)
	}

	m, _ := f.matches.Match(ctx, "m1")
	if !m.Finalized {
		t.Error("match must be finalized after settlement")
	}
	if len(f.notify.sent) != 2 {
		t.Errorf("notifications = %d, want 2", len(f.notify.sent))
	}
}

func TestPlaceThenSettle_EndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.store.Seed("acc1", 100000)
	f.matches.add(&matches.Match{
		ID:      "m1",
		Kickoff: time.Now().Add(time.Hour),
		Odds: matches.Odds{
			Local:     decimal.NewFromFloat(2.5),
			Empate:    decimal.NewFromFloat(3.1),
			Visitante: decimal.NewFromFloat(2.8),
		},
	})

	bets := betting.NewService(zap.NewNop(), f.ledger, f.matches, f.wagers)
	w, err := bets.PlaceBet(ctx, "acc1", "m1", matches.OutcomeLocal, 20000, "")
	if err != nil {
		t.Fatalf("PlaceBet: %v", err)
	}

	bal, _ := f.ledger.GetBalance(ctx, "acc1")
	if bal != 80000 {
		t.Fatalf("balance after bet = %d, want 80000", bal)
	}

	// a partida começa e termina com vitória do mandante
	f.matches.ms["m1"].Kickoff = time.Now().Add(-time.Hour)
	if _, err := f.engine.SettleMatch(ctx, "m1", matches.Score{HomeGoals: 1, AwayGoals: 0}); err != nil {
		t.Fatalf("SettleMatch: %v", err)
	}

	if got := f.wagers.status(w.ID); got != betting.StatusWon {
		t.Errorf("wager status = %s, want won", got)
	}
	bal, _ = f.ledger.GetBalance(ctx, "acc1")
	if bal != 130000 { // 80000 + 20000×2.5
		t.Errorf("final balance = %d, want 130000", bal)
	}
	if sum := f.store.SumAmounts("acc1"); sum != bal {
		t.Errorf("sum(entries) = %d, balance = %d; ledger inconsistent", sum, bal)
	}
}

func TestSettleMatch_SecondRunIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.store.Seed("acc", 0)
	f.matches.add(&matches.Match{ID: "m1", Kickoff: time.Now().Add(-time.Hour)})
	f.wagers.add(pendingWager("w1", "acc", "m1", matches.OutcomeEmpate, 10000, 2.0))

	score := matches.Score{HomeGoals: 1, AwayGoals: 1}
	if _, err := f.engine.SettleMatch(ctx, "m1", score); err != nil {
		t.Fatalf("first settle: %v", err)
	}
	entriesAfterFirst := f.store.EntryCount("acc")

	outcomes, err := f.engine.SettleMatch(ctx, "m1", score)
	if err != nil {
		t.Fatalf("second settle: %v", err)
	}
	if len(outcomes) != 0 {
		t.Errorf("second run outcomes = %d, want 0", len(outcomes))
	}
	if f.store.EntryCount("acc") != entriesAfterFirst {
		t.Error("second run must not write new ledger entries")
	}
}

func TestSettleMatch_DrawPaysEmpateOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.store.Seed("a1", 0)
	f.store.Seed("a2", 0)
	f.store.Seed("a3", 0)
	f.matches.add(&matches.Match{ID: "m1", Kickoff: time.Now().Add(-time.Hour)})
	f.wagers.add(pendingWager("w1", "a1", "m1", matches.OutcomeLocal, 1000, 2.0))
	f.wagers.add(pendingWager("w2", "a2", "m1", matches.OutcomeEmpate, 1000, 3.1))
	f.wagers.add(pendingWager("w3", "a3", "m1", matches.OutcomeVisitante, 1000, 2.0))

	if _, err := f.engine.SettleMatch(ctx, "m1", matches.Score{HomeGoals: 2, AwayGoals: 2}); err != nil {
		t.Fatalf("SettleMatch: %v", err)
	}

	if got := f.wagers.status("w1"); got != betting.StatusLost {
		t.Errorf("local bet on draw = %s, want lost", got)
	}
	if got := f.wagers.status("w2"); got != betting.StatusWon {
		t.Errorf("empate bet on draw = %s, want won", got)
	}
	if got := f.wagers.status("w3"); got != betting.StatusLost {
		t.Errorf("visitante bet on draw = %s, want lost", got)
	}

	bal, _ := f.ledger.GetBalance(ctx, "a2")
	if bal != 3100 {
		t.Errorf("empate payout = %d, want 3100", bal)
	}
}

func TestSettleMatch_ResumeAfterPartialFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.store.Seed("a1", 0)
	f.store.Seed("a2", 0)
	f.matches.add(&matches.Match{ID: "m1", Kickoff: time.Now().Add(-time.Hour)})
	f.wagers.add(pendingWager("w1", "a1", "m1", matches.OutcomeLocal, 1000, 2.0))
	f.wagers.add(pendingWager("w2", "a2", "m1", matches.OutcomeLocal, 1000, 2.0))

	// w2 falha na transição de status depois do crédito no ledger
	f.wagers.settleErrs["w2"] = errors.New("db hiccup")

	score := matches.Score{HomeGoals: 1, AwayGoals: 0}
	if _, err := f.engine.SettleMatch(ctx, "m1", score); err == nil {
		t.Fatal("first run should report failure")
	}

	m, _ := f.matches.Match(ctx, "m1")
	if m.Finalized {
		t.Fatal("match must not be finalized while wagers are pending")
	}
	if got := f.wagers.status("w2"); got != betting.StatusPending {
		t.Fatalf("w2 status = %s, want pending for resume", got)
	}

	// retomada: o crédito de w2 deduplica no ledger, sem pagar duas vezes
	if _, err := f.engine.SettleMatch(ctx, "m1", score); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if got := f.wagers.status("w2"); got != betting.StatusWon {
		t.Errorf("w2 status after resume = %s, want won", got)
	}
	bal, _ := f.ledger.GetBalance(ctx, "a2")
	if bal != 2000 {
		t.Errorf("a2 balance = %d, want 2000 (paid once)", bal)
	}
	if n := f.store.EntryCount("a2"); n != 1 {
		t.Errorf("a2 entries = %d, want 1", n)
	}

	m, _ = f.matches.Match(ctx, "m1")
	if !m.Finalized {
		t.Error("match must be finalized after successful resume")
	}
}

func TestSettleMatch_FirstRecordedScoreWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.store.Seed("a1", 0)
	m := &matches.Match{ID: "m1", Kickoff: time.Now().Add(-time.Hour)}
	m.Result = &matches.Score{HomeGoals: 3, AwayGoals: 0}
	f.matches.add(m)
	f.wagers.add(pendingWager("w1", "a1", "m1", matches.OutcomeLocal, 1000, 2.0))

	// reentrega com placar divergente: o placar já gravado prevalece
	if _, err := f.engine.SettleMatch(ctx, "m1", matches.Score{HomeGoals: 0, AwayGoals: 3}); err != nil {
		t.Fatalf("SettleMatch: %v", err)
	}
	if got := f.wagers.status("w1"); got != betting.StatusWon {
		t.Errorf("w1 status = %s, want won per recorded score", got)
	}
}
