// Package httpapi is the JSON over HTTP surface of the gearhub server.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gearhub/internal/common"
	"github.com/dmitrijs2005/gearhub/internal/logging"
	"github.com/dmitrijs2005/gearhub/internal/server/metrics"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	address   string
	guard     *Guard
	users     Users
	inventory Inventory
	orders    Orders
	payments  Payments
	db        Pinger
	metrics   *metrics.Metrics
	log       logging.Logger
}

// Deps groups the collaborators of the HTTP server.
type Deps struct {
	Tokens    TokenVerifier
	Users     Users
	Inventory Inventory
	Orders    Orders
	Payments  Payments
	DB        Pinger
	Metrics   *metrics.Metrics
	Logger    logging.Logger
}

func NewServer(address string, d Deps) *Server {
	log := d.Logger
	if log == nil {
		log = logging.Nop{}
	}
	log = log.With("module", "http_server")

	return &Server{
		address:   address,
		guard:     NewGuard(d.Tokens, d.Users, log),
		users:     d.Users,
		inventory: d.Inventory,
		orders:    d.Orders,
		payments:  d.Payments,
		db:        d.DB,
		metrics:   d.Metrics,
		log:       log,
	}
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID, observe(s.log, s.metrics))

	g := s.guard

	r.Get("/", s.handleRoot)
	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/users", func(r chi.Router) {
		r.With(g.Authenticate, g.RequireAdmin).Get("/", s.handleListUsers)
		r.Put("/{email}", s.handleUpsertUser)
		r.With(g.Authenticate, g.RequireOwner("email")).Get("/{email}", s.handleGetUser)
		r.With(g.Authenticate, g.RequireOwner("email")).Patch("/{email}", s.handleUpdateUser)
		r.With(g.Authenticate).Get("/{email}/admin", s.handleIsAdmin)
		r.With(g.Authenticate, g.RequireAdmin).Put("/{email}/admin", s.handlePromote)
	})

	r.Route("/equipment", func(r chi.Router) {
		r.Get("/", s.handleListEquipment)
		r.Get("/{id}", s.handleGetEquipment)

		r.Group(func(r chi.Router) {
			r.Use(g.Authenticate, g.RequireAdmin)
			r.Post("/", s.handleCreateEquipment)
			r.Delete("/{id}", s.handleDeleteEquipment)
			r.Patch("/{id}/quantity", s.handleAdjustQuantity)
			r.Post("/{id}/restock", s.handleRestock)
			r.Post("/{id}/image", s.handleImageUpload)
		})
	})

	r.Route("/orders", func(r chi.Router) {
		r.Use(g.Authenticate)
		r.Post("/", s.handleCreateOrder)
		r.With(g.RequireOwner("email")).Get("/", s.handleListOwnOrders)
		r.With(g.RequireAdmin).Get("/all", s.handleListAllOrders)
		r.Get("/{id}", s.handleGetOrder)
		r.Patch("/{id}", s.handleUpdateOrder)
		r.Delete("/{id}", s.handleCancelOrder)
		r.Post("/{id}/settle", s.handleSettleOrder)
	})

	r.With(g.Authenticate).Post("/payments/intents", s.handleCreateIntent)

	return otelhttp.NewHandler(r, "gearhub.http")
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "gearhub rental service"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.PingContext(r.Context()); err != nil {
			s.log.Warn(r.Context(), "health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: common.ErrUpstream.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.log.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error(shutdownCtx, "HTTP shutdown failed", "error", err)
		}
	}()

	s.log.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
