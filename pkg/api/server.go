// Package api exposes the action-protocol HTTP surface: order discovery,
// fill/create transaction building, a REST order listing, and a websocket
// feed of issued actions.
package api

import (
	"context"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/uhyunpark/otc-actions/params"
	"github.com/uhyunpark/otc-actions/pkg/action"
	"github.com/uhyunpark/otc-actions/pkg/otc"
	"github.com/uhyunpark/otc-actions/pkg/storage"
)

// Server wires the action core to HTTP. Each request is handled
// independently; the only shared state (hub, audit log) is append/notify
// only.
type Server struct {
	cfg      params.Config
	sdk      *otc.SDK
	composer *action.Composer
	audit    *storage.AuditLog // nil disables the audit trail
	hub      *Hub
	log      *zap.Logger
	router   *mux.Router
	http     *http.Server
}

// NewServer builds the server. audit may be nil.
func NewServer(cfg params.Config, sdk *otc.SDK, composer *action.Composer, audit *storage.AuditLog, log *zap.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		sdk:      sdk,
		composer: composer,
		audit:    audit,
		hub:      NewHub(log),
		log:      log,
		router:   mux.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestLogger)

	// Action protocol. OPTIONS mirrors GET so discovery preflight always
	// succeeds.
	act := s.router.PathPrefix("/api/actions").Subrouter()
	act.HandleFunc("/orders/{id}", s.handleOrderAction).Methods(http.MethodGet, http.MethodOptions)
	act.HandleFunc("/orders/{id}", s.handleOrderFill).Methods(http.MethodPost)
	act.HandleFunc("/create-order", s.handleCreateAction).Methods(http.MethodGet, http.MethodOptions)
	act.HandleFunc("/create-order", s.handleCreateSubmit).Methods(http.MethodPost)

	// REST views
	rest := s.router.PathPrefix("/api/v1").Subrouter()
	rest.HandleFunc("/orders", s.handleListOrders).Methods(http.MethodGet)
	rest.HandleFunc("/orders/{id}", s.handleGetOrder).Methods(http.MethodGet)

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
}

// Handler returns the fully wrapped handler, CORS included. The action
// protocol requires permissive cross-origin access for third-party
// discovery clients.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "Content-Encoding", "Accept-Encoding"},
	})
	return c.Handler(s.router)
}

// Start runs the hub and serves until the listener fails or Shutdown is
// called.
func (s *Server) Start() error {
	go s.hub.Run()
	s.http = &http.Server{Addr: s.cfg.Server.ListenAddr, Handler: s.Handler()}
	s.log.Info("server_starting", zap.String("addr", s.cfg.Server.ListenAddr))
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, s.log, map[string]string{"status": "ok"})
}

// requestCtx bounds one request end to end, external ledger reads
// included, so a hung upstream cannot hang the request forever.
func (s *Server) requestCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.cfg.Server.RequestTimeout)
}

func respondJSON(w http.ResponseWriter, log *zap.Logger, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warn("response_encode_failed", zap.Error(err))
	}
}
