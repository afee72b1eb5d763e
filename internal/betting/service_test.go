package betting_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/apuestago/bet-ledger/internal/betting"
	"github.com/apuestago/bet-ledger/internal/ledger"
	"github.com/apuestago/bet-ledger/internal/ledger/ledgertest"
	"github.com/apuestago/bet-ledger/internal/matches"
)

type fakeMatchStore struct {
	ms map[string]*matches.Match
}

func (f *fakeMatchStore) Match(_ context.Context, id string) (*matches.Match, error) {
	m, ok := f.ms[id]
	if !ok {
		return nil, errors.New("match not found")
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMatchStore) ListOpen(_ context.Context) ([]matches.Match, error) {
	var out []matches.Match
	for _, m := range f.ms {
		if m.OpenForBetting(time.Now()) {
			out = append(out, *m)
		}
	}
	return out, nil
}

type fakeWagerStore struct {
	wagers map[string]*betting.Wager

	// CreateErr força falha na próxima gravação.
	CreateErr error
}

func newFakeWagerStore() *fakeWagerStore {
	return &fakeWagerStore{wagers: make(map[string]*betting.Wager)}
}

func (f *fakeWagerStore) Create(_ context.Context, w *betting.Wager) error {
	if f.CreateErr != nil {
		err := f.CreateErr
		f.CreateErr = nil
		return err
	}
	cp := *w
	f.wagers[w.ID] = &cp
	return nil
}

func (f *fakeWagerStore) Wager(_ context.Context, id string) (*betting.Wager, error) {
	w, ok := f.wagers[id]
	if !ok {
		return nil, betting.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (f *fakeWagerStore) ListByAccount(_ context.Context, accountID string) ([]betting.Wager, error) {
	var out []betting.Wager
	for _, w := range f.wagers {
		if w.AccountID == accountID {
			out = append(out, *w)
		}
	}
	return out, nil
}

func openMatch(id string) *matches.Match {
	return &matches.Match{
		ID:      id,
		Sport:   "futbol",
		Kickoff: time.Now().Add(time.Hour),
		Odds: matches.Odds{
			Local:     decimal.NewFromFloat(2.5),
			Empate:    decimal.NewFromFloat(3.1),
			Visitante: decimal.NewFromFloat(2.8),
		},
	}
}

func newBetService(t *testing.T) (*betting.Service, *ledger.Service, *ledgertest.Store, *fakeMatchStore, *fakeWagerStore) {
	t.Helper()
	store := ledgertest.NewStore()
	lsvc := ledger.New(store, zap.NewNop())
	ms := &fakeMatchStore{ms: map[string]*matches.Match{"m1": openMatch("m1")}}
	ws := newFakeWagerStore()
	return betting.NewService(zap.NewNop(), lsvc, ms, ws), lsvc, store, ms, ws
}

func TestPlaceBet_DebitsStakeAndFixesPayout(t *testing.T) {
	svc, lsvc, store, _, _ := newBetService(t)
	store.Seed("acc1", 100000)
	ctx := context.Background()

	w, err := svc.PlaceBet(ctx, "acc1", "m1", matches.OutcomeLocal, 20000, "")
	if err != nil {
		t.Fatalf("PlaceBet: %v", err)
	}
	if w.Status != betting.StatusPending {
		t.Errorf("status = %s, want pending", w.Status)
	}
	if w.PayoutCents != 50000 { // 20000 × 2.5, fixado na colocação
		t.Errorf("payout = %d, want 50000", w.PayoutCents)
	}

	bal, _ := lsvc.GetBalance(ctx, "acc1")
	if bal != 80000 {
		t.Errorf("balance = %d, want 80000", bal)
	}
}

func TestPlaceBet_InsufficientFundsLeavesNothing(t *testing.T) {
	svc, lsvc, store, _, ws := newBetService(t)
	store.Seed("acc1", 5000)
	ctx := context.Background()

	_, err := svc.PlaceBet(ctx, "acc1", "m1", matches.OutcomeLocal, 20000, "")
	if !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
	if len(ws.wagers) != 0 {
		t.Error("rejected bet must not create a wager")
	}
	bal, _ := lsvc.GetBalance(ctx, "acc1")
	if bal != 5000 {
		t.Errorf("balance = %d, want 5000 untouched", bal)
	}
}

func TestPlaceBet_WagerInsertFailureRevertsDebit(t *testing.T) {
	svc, lsvc, store, _, ws := newBetService(t)
	store.Seed("acc1", 100000)
	ws.CreateErr = errors.New("insert failed")
	ctx := context.Background()

	_, err := svc.PlaceBet(ctx, "acc1", "m1", matches.OutcomeLocal, 20000, "")
	if !errors.Is(err, ledger.ErrLedgerWriteFailed) {
		t.Fatalf("err = %v, want ErrLedgerWriteFailed", err)
	}
	if len(ws.wagers) != 0 {
		t.Error("failed insert must not leave a wager")
	}
	// débito estornado: sem stake preso
	bal, _ := lsvc.GetBalance(ctx, "acc1")
	if bal != 100000 {
		t.Errorf("balance = %d, want 100000 after revert", bal)
	}
}

func TestPlaceBet_ReplaySameWagerIDReturnsExisting(t *testing.T) {
	svc, lsvc, store, _, _ := newBetService(t)
	store.Seed("acc1", 100000)
	ctx := context.Background()

	first, err := svc.PlaceBet(ctx, "acc1", "m1", matches.OutcomeVisitante, 10000, "w-offline-1")
	if err != nil {
		t.Fatalf("first: %v", err)
	}

	// reenvio offline com o mesmo wagerId: débito deduplica, aposta não duplica
	second, err := svc.PlaceBet(ctx, "acc1", "m1", matches.OutcomeVisitante, 10000, "w-offline-1")
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("replay returned %s, want %s", second.ID, first.ID)
	}

	bal, _ := lsvc.GetBalance(ctx, "acc1")
	if bal != 90000 {
		t.Errorf("balance = %d, want 90000 (single debit)", bal)
	}
	if n := store.EntryCount("acc1"); n != 2 { // seed + um débito
		t.Errorf("entries = %d, want 2", n)
	}
}

func TestPlaceBet_MatchClosed(t *testing.T) {
	svc, _, store, ms, _ := newBetService(t)
	store.Seed("acc1", 100000)
	ms.ms["m1"].Kickoff = time.Now().Add(-time.Minute)

	_, err := svc.PlaceBet(context.Background(), "acc1", "m1", matches.OutcomeLocal, 1000, "")
	if !errors.Is(err, betting.ErrMatchClosed) {
		t.Fatalf("err = %v, want ErrMatchClosed", err)
	}
}

func TestPlaceBet_Validation(t *testing.T) {
	svc, _, store, _, _ := newBetService(t)
	store.Seed("acc1", 100000)
	ctx := context.Background()

	if _, err := svc.PlaceBet(ctx, "acc1", "m1", matches.OutcomeLocal, 0, ""); !errors.Is(err, betting.ErrInvalidStake) {
		t.Errorf("zero stake: err = %v, want ErrInvalidStake", err)
	}
	if _, err := svc.PlaceBet(ctx, "acc1", "m1", matches.OutcomeLocal, -500, ""); !errors.Is(err, betting.ErrInvalidStake) {
		t.Errorf("negative stake: err = %v, want ErrInvalidStake", err)
	}
	if _, err := svc.PlaceBet(ctx, "acc1", "m1", matches.Outcome("gol"), 1000, ""); !errors.Is(err, matches.ErrInvalidOutcome) {
		t.Errorf("bad selection: err = %v, want ErrInvalidOutcome", err)
	}
}
