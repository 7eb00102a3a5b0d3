package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/2beens/fitwise/internal/telemetry/metrics"
	"github.com/2beens/fitwise/internal/telemetry/tracing"
	"github.com/2beens/fitwise/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=auth_test

type service interface {
	Register(ctx context.Context, credentials Credentials, createdAt time.Time) (*User, error)
	Login(ctx context.Context, credentials Credentials, createdAt time.Time) (string, error)
	Logout(ctx context.Context, token string) (bool, error)
}

type Handler struct {
	service        service
	metricsManager *metrics.Manager
}

func NewHandler(service service, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		service:        service,
		metricsManager: metricsManager,
	}
}

func (h *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/register", h.HandleRegister).Methods("POST", "OPTIONS").Name("auth-register")
	router.HandleFunc("/login", h.HandleLogin).Methods("POST", "OPTIONS").Name("auth-login")
	router.HandleFunc("/logout", h.HandleLogout).Methods("GET", "OPTIONS").Name("auth-logout")
}

type loginResponse struct {
	Token string `json:"token"`
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.register")
	defer span.End()

	var credentials Credentials
	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		log.Errorf("register, unmarshal json params: %s", err)
		http.Error(w, "register failed", http.StatusBadRequest)
		return
	}

	if err := pkg.ValidateStruct(credentials); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.service.Register(ctx, credentials, time.Now())
	if err != nil {
		if errors.Is(err, ErrUserExists) {
			http.Error(w, "user already exists", http.StatusConflict)
			return
		}
		span.SetStatus(codes.Error, err.Error())
		log.Errorf("register: %s", err)
		http.Error(w, "register failed", http.StatusInternalServerError)
		return
	}

	h.metricsManager.CounterRegistrations.Inc()
	log.Infof("new user registered: %d", user.ID)
	pkg.WriteJSON(w, user, http.StatusCreated)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.login")
	defer span.End()

	var credentials Credentials
	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		log.Errorf("login, unmarshal json params: %s", err)
		http.Error(w, "login failed", http.StatusBadRequest)
		return
	}

	if credentials.Email == "" {
		http.Error(w, "error, email empty", http.StatusBadRequest)
		return
	}
	if credentials.Password == "" {
		http.Error(w, "error, password empty", http.StatusBadRequest)
		return
	}

	token, err := h.service.Login(ctx, credentials, time.Now())
	if err != nil {
		if errors.Is(err, ErrWrongCredentials) {
			h.metricsManager.CounterLogins.WithLabelValues("wrong_credentials").Inc()
			log.Tracef("failed login attempt for: %s", credentials.Email)
			http.Error(w, "error, wrong credentials", http.StatusUnauthorized)
			return
		}
		h.metricsManager.CounterLogins.WithLabelValues("error").Inc()
		span.SetStatus(codes.Error, err.Error())
		log.Errorf("login failed: %s", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	h.metricsManager.CounterLogins.WithLabelValues("ok").Inc()
	pkg.WriteJSON(w, loginResponse{Token: token}, http.StatusOK)
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.logout")
	defer span.End()

	authToken := TokenFromRequest(r)
	if authToken == "" {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	loggedOut, err := h.service.Logout(ctx, authToken)
	if err != nil {
		log.Errorf("logout: %s", err)
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}
	if !loggedOut {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	pkg.WriteTextResponseOK(w, "logged-out")
}
