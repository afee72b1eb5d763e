package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/apuestago/bet-ledger/internal/ledger"
	"github.com/apuestago/bet-ledger/internal/ledger/dto"
	"github.com/apuestago/bet-ledger/internal/shared/middleware"
)

// Server expõe a API HTTP do ledger: recarga, retiro, saldo e extrato.
type Server struct {
	log       *zap.Logger
	ledger    *ledger.Service
	jwtSecret []byte
}

func NewServer(log *zap.Logger, l *ledger.Service, jwtSecret []byte) *Server {
	return &Server{log: log, ledger: l, jwtSecret: jwtSecret}
}

// Router monta as rotas com a cadeia cors -> rate limit -> auth.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/accounts/{id}/recharge", s.recharge).Methods(http.MethodPost)
	r.HandleFunc("/accounts/{id}/withdraw", s.withdraw).Methods(http.MethodPost)
	r.HandleFunc("/accounts/{id}/balance", s.balance).Methods(http.MethodGet)
	r.HandleFunc("/accounts/{id}/transactions", s.transactions).Methods(http.MethodGet)

	var h http.Handler = r
	h = middleware.Auth(s.jwtSecret)(h)
	h = middleware.RateLimit(rate.Limit(50), 100)(h)
	h = middleware.CORS()(h)
	return h
}

// ownAccount garante que o token pertence à conta do path.
func (s *Server) ownAccount(w http.ResponseWriter, r *http.Request) (string, bool) {
	accountID := mux.Vars(r)["id"]
	caller, ok := middleware.AccountID(r.Context())
	if !ok || caller != accountID {
		writeError(w, http.StatusForbidden, "account mismatch")
		return "", false
	}
	return accountID, true
}

// recarga credita saldo na conta
func (s *Server) recharge(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.ownAccount(w, r)
	if !ok {
		return
	}
	var req dto.RechargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	s.applyDelta(w, r, accountID, req.AmountCents, ledger.KindRecarga, req.IdempotencyKey, req.Reference)
}

// retiro debita saldo da conta
func (s *Server) withdraw(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.ownAccount(w, r)
	if !ok {
		return
	}
	var req dto.WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	// o cliente manda o valor positivo; o débito é responsabilidade do servidor
	s.applyDelta(w, r, accountID, -req.AmountCents, ledger.KindRetiro, req.IdempotencyKey, req.Reference)
}

func (s *Server) applyDelta(w http.ResponseWriter, r *http.Request, accountID string, amountCents int64, kind ledger.Kind, key, ref string) {
	res, err := s.ledger.ApplyDelta(r.Context(), accountID, amountCents, kind, key, ref)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, dto.DeltaResponse{
		TransactionID: res.Entry.ID,
		AccountID:     accountID,
		BalanceCents:  res.Entry.BalanceAfterCents,
		Duplicate:     res.Duplicate,
	})
}

func (s *Server) balance(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.ownAccount(w, r)
	if !ok {
		return
	}
	bal, err := s.ledger.GetBalance(r.Context(), accountID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, dto.BalanceResponse{AccountID: accountID, BalanceCents: bal})
}

// transactions é o feed de relatórios; aceita ?from=RFC3339&to=RFC3339
func (s *Server) transactions(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.ownAccount(w, r)
	if !ok {
		return
	}

	var from, to time.Time
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from")
			return
		}
		from = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid to")
			return
		}
		to = t
	}

	entries, err := s.ledger.ListTransactions(r.Context(), accountID, from, to)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	out := make([]dto.TransactionResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.TransactionResponse{
			ID:                e.ID,
			AmountCents:       e.AmountCents,
			Kind:              string(e.Kind),
			BalanceAfterCents: e.BalanceAfterCents,
			IdempotencyKey:    e.IdempotencyKey,
			Reference:         e.Reference,
			CreatedAt:         e.CreatedAt,
		})
	}
	writeJSON(w, out)
}

// writeLedgerError mapeia a taxonomia do ledger para status HTTP.
func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		writeError(w, http.StatusUnprocessableEntity, "insufficient_funds")
	case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, ledger.ErrMissingIdempotencyKey):
		writeError(w, http.StatusBadRequest, "invalid_amount")
	case errors.Is(err, ledger.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, "account_not_found")
	case errors.Is(err, ledger.ErrAccountInactive):
		writeError(w, http.StatusForbidden, "account_inactive")
	default:
		writeError(w, http.StatusInternalServerError, "ledger_write_failed")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dto.ErrorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
