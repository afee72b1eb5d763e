// Package clientcache é o espelho local de saldo de um dispositivo.
// Nunca é fonte de verdade: serve pra UI otimista e pra continuar operando
// offline; na reconciliação o valor do ledger sempre vence.
package clientcache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/apuestago/bet-ledger/internal/ledger"
)

const (
	OpRecarga = "recarga"
	OpRetiro  = "retiro"
	OpApuesta = "apuesta"
)

var (
	ErrInvalidOp = errors.New("invalid op")

	// ErrRejected cobre recusas de negócio do servidor que não têm sentinela
	// própria (ex: partida fechada). Nunca entra na fila de replay.
	ErrRejected = errors.New("rejected by server")
)

// Op é uma ação enfileirada enquanto o dispositivo está offline.
// ID é gerado no enfileiramento e vira a chave de idempotência do replay
// (e o wagerID, no caso de aposta), então reenviar nunca aplica duas vezes.
type Op struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"` // "recarga" | "retiro" | "apuesta"
	AmountCents int64     `json:"amount_cents"`
	MatchID     string    `json:"match_id,omitempty"`
	Selection   string    `json:"selection,omitempty"`
	QueuedAt    time.Time `json:"queued_at"`
}

// Snapshot é o estado local de um dispositivo.
type Snapshot struct {
	AccountID    string    `json:"account_id"`
	BalanceCents int64     `json:"balance_cents"`
	ReconciledAt time.Time `json:"reconciled_at"`
	Pending      []Op      `json:"pending,omitempty"`
}

// Store persiste o snapshot por dispositivo (Redis em produção, memória em teste).
type Store interface {
	Load(ctx context.Context, deviceID string) (*Snapshot, error)
	Save(ctx context.Context, deviceID string, s *Snapshot) error
}

// API é o contato de rede com o ledger/bet-service. Erros de domínio voltam
// como sentinelas do ledger; qualquer outro erro é tratado como conectividade.
type API interface {
	Recharge(ctx context.Context, amountCents int64, idempotencyKey string) (balanceCents int64, err error)
	Withdraw(ctx context.Context, amountCents int64, idempotencyKey string) (balanceCents int64, err error)
	PlaceBet(ctx context.Context, matchID, selection string, stakeCents int64, wagerID string) error
	Balance(ctx context.Context) (int64, error)
}

// Cache aplica ações otimistas e reconcilia com o ledger.
type Cache struct {
	log      *zap.Logger
	store    Store
	api      API
	deviceID string
}

func New(log *zap.Logger, store Store, api API, deviceID string) *Cache {
	return &Cache{log: log, store: store, api: api, deviceID: deviceID}
}

// Balance devolve o saldo local (possivelmente otimista).
func (c *Cache) Balance(ctx context.Context) (int64, error) {
	snap, err := c.load(ctx)
	if err != nil {
		return 0, err
	}
	return snap.BalanceCents, nil
}

// Pending devolve as ações ainda não confirmadas pelo ledger.
func (c *Cache) Pending(ctx context.Context) ([]Op, error) {
	snap, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	return append([]Op(nil), snap.Pending...), nil
}

// Apply executa uma ação: tenta o ledger na hora; sem conectividade, valida
// localmente, atualiza o saldo otimista e enfileira o replay. Erros de domínio
// (saldo insuficiente, valor inválido) nunca são enfileirados.
func (c *Cache) Apply(ctx context.Context, kind string, amountCents int64, matchID, selection string) (Op, error) {
	if amountCents <= 0 {
		return Op{}, ledger.ErrInvalidAmount
	}

	snap, err := c.load(ctx)
	if err != nil {
		return Op{}, err
	}

	op := Op{
		ID:          uuid.NewString(),
		Kind:        kind,
		AmountCents: amountCents,
		MatchID:     matchID,
		Selection:   selection,
		QueuedAt:    time.Now().UTC(),
	}

	delta, err := opDelta(op)
	if err != nil {
		return Op{}, err
	}

	// espelho da validação do ledger: débito local também não pode negativar
	if snap.BalanceCents+delta < 0 {
		return Op{}, ledger.ErrInsufficientFunds
	}

	balance, err := c.send(ctx, op)
	switch {
	case err == nil:
		if balance >= 0 {
			snap.BalanceCents = balance
			snap.ReconciledAt = time.Now().UTC()
		} else {
			// resposta sem saldo (aposta); aplica o delta e reconcilia depois
			snap.BalanceCents += delta
		}
	case isDomainError(err):
		return Op{}, err
	default:
		// conectividade: segue offline com atualização otimista + fila
		c.log.Info("offline, queueing op",
			zap.String("opId", op.ID), zap.String("kind", op.Kind), zap.Error(err))
		snap.BalanceCents += delta
		snap.Pending = append(snap.Pending, op)
	}

	if err := c.store.Save(ctx, c.deviceID, snap); err != nil {
		return Op{}, err
	}
	return op, nil
}

// Reconcile reenvia a fila na ordem com as chaves originais (o ledger
// deduplica) e depois adota o saldo do ledger, que sempre vence.
func (c *Cache) Reconcile(ctx context.Context) (*Snapshot, error) {
	snap, err := c.load(ctx)
	if err != nil {
		return nil, err
	}

	var remaining []Op
	for i := 0; i < len(snap.Pending); i++ {
		op := snap.Pending[i]
		if _, err := c.send(ctx, op); err != nil {
			if isDomainError(err) {
				// o ledger rejeitou; a ação local é descartada, não reescrita
				c.log.Warn("queued op rejected by ledger",
					zap.String("opId", op.ID), zap.String("kind", op.Kind), zap.Error(err))
				continue
			}
			// ainda sem conectividade: preserva a ordem do resto da fila
			remaining = append(remaining, snap.Pending[i:]...)
			break
		}
	}
	snap.Pending = remaining

	if len(snap.Pending) == 0 {
		balance, err := c.api.Balance(ctx)
		if err == nil {
			snap.BalanceCents = balance
			snap.ReconciledAt = time.Now().UTC()
		}
	}

	if err := c.store.Save(ctx, c.deviceID, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (c *Cache) load(ctx context.Context) (*Snapshot, error) {
	snap, err := c.store.Load(ctx, c.deviceID)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		snap = &Snapshot{}
	}
	return snap, nil
}

// send despacha a op pro endpoint certo. Para recarga/retiro devolve o saldo
// confirmado; para aposta devolve -1 (a resposta não carrega saldo).
func (c *Cache) send(ctx context.Context, op Op) (int64, error) {
	switch op.Kind {
	case OpRecarga:
		return c.api.Recharge(ctx, op.AmountCents, op.ID)
	case OpRetiro:
		return c.api.Withdraw(ctx, op.AmountCents, op.ID)
	case OpApuesta:
		return -1, c.api.PlaceBet(ctx, op.MatchID, op.Selection, op.AmountCents, op.ID)
	}
	return 0, ErrInvalidOp
}

func opDelta(op Op) (int64, error) {
	switch op.Kind {
	case OpRecarga:
		return op.AmountCents, nil
	case OpRetiro, OpApuesta:
		return -op.AmountCents, nil
	}
	return 0, ErrInvalidOp
}

// isDomainError separa rejeição de negócio (não reenviar) de falha de
// conectividade/escrita (reenviar com a mesma chave).
func isDomainError(err error) bool {
	return errors.Is(err, ledger.ErrInsufficientFunds) ||
		errors.Is(err, ledger.ErrInvalidAmount) ||
		errors.Is(err, ledger.ErrMissingIdempotencyKey) ||
		errors.Is(err, ledger.ErrAccountNotFound) ||
		errors.Is(err, ledger.ErrAccountInactive) ||
		errors.Is(err, ErrRejected)
}
