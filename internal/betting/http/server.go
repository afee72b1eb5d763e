package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/apuestago/bet-ledger/internal/betting"
	"github.com/apuestago/bet-ledger/internal/betting/dto"
	"github.com/apuestago/bet-ledger/internal/ledger"
	"github.com/apuestago/bet-ledger/internal/matches"
	mrepo "github.com/apuestago/bet-ledger/internal/matches/repo"
	"github.com/apuestago/bet-ledger/internal/shared/middleware"
	"github.com/apuestago/bet-ledger/pkg/contracts/events"
)

// Server expõe a API de apostas e o catálogo de partidas abertas.
type Server struct {
	log       *zap.Logger
	svc       *betting.Service
	jwtSecret []byte
	publ      interface {
		PublishBetPlaced(context.Context, events.BetPlaced) error
	}
}

func NewServer(log *zap.Logger, svc *betting.Service, jwtSecret []byte, p interface {
	PublishBetPlaced(context.Context, events.BetPlaced) error
}) *Server {
	return &Server{log: log, svc: svc, jwtSecret: jwtSecret, publ: p}
}

func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/bets", s.placeBet).Methods(http.MethodPost)
	r.HandleFunc("/bets", s.listBets).Methods(http.MethodGet)
	r.HandleFunc("/bets/{id}", s.getBet).Methods(http.MethodGet)
	r.HandleFunc("/matches", s.listMatches).Methods(http.MethodGet)

	var h http.Handler = r
	h = middleware.Auth(s.jwtSecret)(h)
	h = middleware.RateLimit(rate.Limit(50), 100)(h)
	h = middleware.CORS()(h)
	return h
}

func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req dto.PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.MatchID == "" || req.Selection == "" || req.StakeCents <= 0 {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	wager, err := s.svc.PlaceBet(r.Context(), accountID, req.MatchID, matches.Outcome(req.Selection), req.StakeCents, req.WagerID)
	if err != nil {
		writeBetError(w, err)
		return
	}

	// evento é melhor-esforço; a aposta já está comprometida
	if err := s.publ.PublishBetPlaced(r.Context(), events.BetPlaced{
		WagerID:     wager.ID,
		AccountID:   wager.AccountID,
		MatchID:     wager.MatchID,
		Selection:   string(wager.Selection),
		StakeCents:  wager.StakeCents,
		OddValue:    wager.Odd.String(),
		PayoutCents: wager.PayoutCents,
	}); err != nil {
		s.log.Warn("publish bet_placed", zap.String("wagerId", wager.ID), zap.Error(err))
	}

	writeJSON(w, toWagerResponse(wager))
}

func (s *Server) getBet(w http.ResponseWriter, r *http.Request) {
	accountID, _ := middleware.AccountID(r.Context())
	id := mux.Vars(r)["id"]

	wager, err := s.svc.Wager(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if wager.AccountID != accountID {
		writeError(w, http.StatusForbidden, "account mismatch")
		return
	}
	writeJSON(w, toWagerResponse(wager))
}

func (s *Server) listBets(w http.ResponseWriter, r *http.Request) {
	accountID, _ := middleware.AccountID(r.Context())
	wagers, err := s.svc.ListByAccount(r.Context(), accountID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]dto.WagerResponse, 0, len(wagers))
	for i := range wagers {
		out = append(out, toWagerResponse(&wagers[i]))
	}
	writeJSON(w, out)
}

func (s *Server) listMatches(w http.ResponseWriter, r *http.Request) {
	ms, err := s.svc.OpenMatches(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]dto.MatchResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, dto.MatchResponse{
			MatchID:      m.ID,
			Sport:        m.Sport,
			HomeTeam:     m.HomeTeam,
			AwayTeam:     m.AwayTeam,
			Kickoff:      m.Kickoff,
			OddLocal:     m.Odds.Local.String(),
			OddEmpate:    m.Odds.Empate.String(),
			OddVisitante: m.Odds.Visitante.String(),
		})
	}
	writeJSON(w, out)
}

func toWagerResponse(w *betting.Wager) dto.WagerResponse {
	return dto.WagerResponse{
		WagerID:     w.ID,
		AccountID:   w.AccountID,
		MatchID:     w.MatchID,
		Selection:   string(w.Selection),
		StakeCents:  w.StakeCents,
		OddValue:    w.Odd.String(),
		PayoutCents: w.PayoutCents,
		Status:      string(w.Status),
		CreatedAt:   w.CreatedAt,
		SettledAt:   w.SettledAt,
	}
}

func writeBetError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		writeError(w, http.StatusUnprocessableEntity, "insufficient_funds")
	case errors.Is(err, betting.ErrInvalidStake), errors.Is(err, matches.ErrInvalidOutcome):
		writeError(w, http.StatusBadRequest, "invalid_bet")
	case errors.Is(err, betting.ErrMatchClosed):
		writeError(w, http.StatusConflict, "match_closed")
	case errors.Is(err, mrepo.ErrNotFound):
		writeError(w, http.StatusNotFound, "match_not_found")
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
