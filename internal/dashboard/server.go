// Package dashboard serves a read-only HTTP view over every user's stored
// positions: an html overview plus JSON endpoints for positions and the
// month report.
package dashboard

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/cssmith8/rustical-bot/internal/models"
	"github.com/cssmith8/rustical-bot/internal/reports"
	"github.com/cssmith8/rustical-bot/internal/storage"
)

//go:embed web/templates/*
var templateFS embed.FS

type Server struct {
	router    *chi.Mux
	server    *http.Server
	stores    *storage.Manager
	logger    *logrus.Logger
	port      int
	authToken string
}

type Config struct {
	Port      int
	AuthToken string
}

// PositionView is the JSON/template shape of one position.
type PositionView struct {
	ID         string    `json:"id"`
	Ticker     string    `json:"ticker"`
	Kind       string    `json:"kind"`
	Status     string    `json:"status"`
	OpenedAt   time.Time `json:"opened_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	Strike     float64   `json:"strike"`
	Premium    float64   `json:"premium"`
	Quantity   int       `json:"quantity"`
	Rolls      int       `json:"rolls"`
	Gain       float64   `json:"gain"`
	Investment float64   `json:"investment"`
	IsClosed   bool      `json:"is_closed"`
}

// UserPositions groups one user's views for the positions endpoint.
type UserPositions struct {
	User      string         `json:"user"`
	Positions []PositionView `json:"positions"`
}

// MonthView is one month bucket of the JSON month report.
type MonthView struct {
	Month      string  `json:"month"`
	Gain       float64 `json:"gain"`
	Investment float64 `json:"investment"`
	DailyRate  float64 `json:"daily_return_rate"`
}

// MonthsResponse carries both attribution policies for one user.
type MonthsResponse struct {
	User        string      `json:"user"`
	Distributed []MonthView `json:"distributed"`
	Taxable     []MonthView `json:"taxable"`
}

type dashboardData struct {
	Users      []UserPositions
	LastUpdate time.Time
}

func NewServer(cfg Config, stores *storage.Manager, logger *logrus.Logger) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		stores:    stores,
		logger:    logger,
		port:      cfg.Port,
		authToken: cfg.AuthToken,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	if s.authToken != "" {
		s.router.Use(s.authMiddleware)
	}

	s.router.Get("/", s.handleDashboard)
	s.router.Get("/api/positions", s.handleGetPositions)
	s.router.Get("/api/months", s.handleGetMonths)
	s.router.Get("/healthz", s.handleHealth)
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}

		token := r.Header.Get("X-Auth-Token")
		if token == "" {
			token = r.URL.Query().Get("token")
		}

		if token != s.authToken {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.router,
	}

	s.logger.Infof("Starting dashboard server on port %d", s.port)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Handler exposes the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	tmpl, err := template.ParseFS(templateFS, "web/templates/dashboard.html")
	if err != nil {
		s.logger.WithError(err).Error("Failed to parse dashboard template")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	users, err := s.collectUsers()
	if err != nil {
		s.logger.WithError(err).Error("Failed to collect positions")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data := dashboardData{Users: users, LastUpdate: time.Now()}
	if err := tmpl.Execute(w, data); err != nil {
		s.logger.WithError(err).Error("Failed to execute dashboard template")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (s *Server) handleGetPositions(w http.ResponseWriter, _ *http.Request) {
	users, err := s.collectUsers()
	if err != nil {
		s.logger.WithError(err).Error("Failed to collect positions")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(users); err != nil {
		s.logger.WithError(err).Error("Failed to encode positions")
	}
}

func (s *Server) handleGetMonths(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	if user == "" {
		http.Error(w, "user query parameter is required", http.StatusBadRequest)
		return
	}

	store, err := s.stores.ForUser(user)
	if err != nil {
		s.logger.WithError(err).Error("Failed to open store")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	positions, err := store.Positions()
	if err != nil {
		s.logger.WithError(err).Error("Failed to read positions")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	report := reports.BuildMonthReport(positions)
	resp := MonthsResponse{
		User:        user,
		Distributed: monthViews(report.Distributed),
		Taxable:     monthViews(report.Taxable),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.WithError(err).Error("Failed to encode month report")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(health); err != nil {
		s.logger.WithError(err).Error("Failed to encode health response")
	}
}

// collectUsers loads every known user's positions into view form.
func (s *Server) collectUsers() ([]UserPositions, error) {
	ids, err := s.stores.UserIDs()
	if err != nil {
		return nil, err
	}

	users := make([]UserPositions, 0, len(ids))
	for _, id := range ids {
		store, err := s.stores.ForUser(id)
		if err != nil {
			return nil, err
		}
		positions, err := store.Positions()
		if err != nil {
			return nil, err
		}
		users = append(users, UserPositions{
			User:      id,
			Positions: positionViews(positions),
		})
	}
	return users, nil
}

func positionViews(positions []models.Position) []PositionView {
	views := make([]PositionView, 0, len(positions))
	for i := range positions {
		views = append(views, positionView(&positions[i]))
	}
	return views
}

func positionView(pos *models.Position) PositionView {
	final := pos.Contracts[len(pos.Contracts)-1]
	return PositionView{
		ID:         pos.ID,
		Ticker:     pos.Ticker(),
		Kind:       string(pos.Kind()),
		Status:     string(pos.Status()),
		OpenedAt:   pos.Contracts[0].Open.OpenedAt,
		ExpiresAt:  final.Open.ExpiresAt,
		Strike:     final.Open.Strike,
		Premium:    pos.AggregatePremium(),
		Quantity:   final.Open.Quantity,
		Rolls:      pos.NumRolls(),
		Gain:       pos.Gain(),
		Investment: pos.Investment(),
		IsClosed:   pos.IsClosed(),
	}
}

func monthViews(months []models.TradingMonth) []MonthView {
	views := make([]MonthView, 0, len(months))
	for i := range months {
		tm := months[i]
		views = append(views, MonthView{
			Month:      tm.ID(),
			Gain:       tm.Gain,
			Investment: tm.Investment,
			DailyRate:  tm.DailyReturnRate(),
		})
	}
	return views
}
