package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/apuestago/bet-ledger/internal/account"
	"github.com/apuestago/bet-ledger/internal/account/dto"
	"github.com/apuestago/bet-ledger/internal/ledger"
	"github.com/apuestago/bet-ledger/internal/shared/middleware"
)

// Server expõe registro, login e desativação de contas.
type Server struct {
	log       *zap.Logger
	svc       *account.Service
	jwtSecret []byte
}

func NewServer(log *zap.Logger, svc *account.Service, jwtSecret []byte) *Server {
	return &Server{log: log, svc: svc, jwtSecret: jwtSecret}
}

func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/register", s.register).Methods(http.MethodPost)
	r.HandleFunc("/login", s.login).Methods(http.MethodPost)

	// desativação exige token da própria conta
	priv := r.PathPrefix("/accounts").Subrouter()
	priv.HandleFunc("/{id}/deactivate", s.deactivate).Methods(http.MethodPost)
	priv.Use(mux.MiddlewareFunc(middleware.Auth(s.jwtSecret)))

	var h http.Handler = r
	h = middleware.RateLimit(rate.Limit(20), 40)(h)
	h = middleware.CORS()(h)
	return h
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	a, err := s.svc.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrEmailTaken):
			writeError(w, http.StatusConflict, "email_taken")
		case errors.Is(err, account.ErrInvalidCredentials):
			writeError(w, http.StatusBadRequest, "invalid_credentials")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, dto.AccountResponse{AccountID: a.ID, Email: a.Email, Status: a.Status})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	token, a, err := s.svc.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountInactive) {
			writeError(w, http.StatusForbidden, "account_inactive")
			return
		}
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
		return
	}
	writeJSON(w, dto.LoginResponse{Token: token, AccountID: a.ID})
}

func (s *Server) deactivate(w http.ResponseWriter, r *http.Request) {
	accountID := mux.Vars(r)["id"]
	caller, ok := middleware.AccountID(r.Context())
	if !ok || caller != accountID {
		writeError(w, http.StatusForbidden, "account mismatch")
		return
	}
	if err := s.svc.Deactivate(r.Context(), accountID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"inactive"}`))
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
