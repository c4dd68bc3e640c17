// Package rpc serves the finality gadget's JSON HTTP API.
package rpc

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/casper-gadget/runtime"
	"github.com/rs/cors"
)

var _ runtime.Service = (*Service)(nil)

// Config options for the API service.
type Config struct {
	Host    string
	Port    int
	Backend Backend
	Events  EventSource

	// AllowedOrigins are the browser origins allowed to call the API.
	AllowedOrigins []string
}

// Service runs the HTTP API.
type Service struct {
	cfg          *Config
	ctx          context.Context
	cancel       context.CancelFunc
	router       *mux.Router
	server       *http.Server
	failureLock  sync.RWMutex
	startFailure error
}

// NewService builds the router and server of the API.
func NewService(ctx context.Context, cfg *Config) *Service {
	ctx, cancel := context.WithCancel(ctx)
	s := &Service{
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
		router: NewRouter(&Server{Backend: cfg.Backend, Events: cfg.Events}),
	}
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           corsMiddleware(s.router, cfg.AllowedOrigins),
		ReadHeaderTimeout: time.Second,
	}
	return s
}

// NewRouter registers the API routes of srv.
func NewRouter(srv *Server) *mux.Router {
	r := mux.NewRouter()
	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/chains/{chain}", srv.GetChain).Methods(http.MethodGet)
	v1.HandleFunc("/chains/{chain}/head", srv.GetChain).Methods(http.MethodGet)
	v1.HandleFunc("/chains/{chain}/blocks", srv.ReportBlock).Methods(http.MethodPost)
	v1.HandleFunc("/chains/{chain}/blocks/{hash}", srv.GetBlock).Methods(http.MethodGet)
	v1.HandleFunc("/chains/{chain}/checkpoints/{hash}", srv.GetCheckpoint).Methods(http.MethodGet)
	v1.HandleFunc("/chains/{chain}/transition/{hash}", srv.GetTransitionHash).Methods(http.MethodGet)
	v1.HandleFunc("/votes", srv.SubmitVote).Methods(http.MethodPost)
	v1.HandleFunc("/validators/{address}/weight", srv.GetValidatorWeight).Methods(http.MethodGet)
	v1.HandleFunc("/weight", srv.GetTotalWeight).Methods(http.MethodGet)
	v1.HandleFunc("/deposits", srv.SubmitDeposit).Methods(http.MethodPost)
	v1.HandleFunc("/evictions", srv.SubmitEviction).Methods(http.MethodPost)
	v1.HandleFunc("/heights/close", srv.CloseHeight).Methods(http.MethodPost)
	v1.HandleFunc("/events", srv.GetEvents).Methods(http.MethodGet)
	return r
}

// Handler returns the API's HTTP handler.
func (s *Service) Handler() http.Handler {
	return s.server.Handler
}

func corsMiddleware(h http.Handler, allowedOrigins []string) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodPost, http.MethodGet, http.MethodOptions},
		MaxAge:         600,
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(h)
}

// Start listens on the configured address and serves the API.
func (s *Service) Start() {
	lis, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		log.WithError(err).Errorf("Could not listen on %s", s.server.Addr)
		s.setFailure(err)
		return
	}
	go s.serve(lis)
}

func (s *Service) serve(lis net.Listener) {
	log.WithField("address", lis.Addr().String()).Info("Starting HTTP server")
	if err := s.server.Serve(lis); err != http.ErrServerClosed {
		log.WithError(err).Error("Failed to serve HTTP API")
		s.setFailure(err)
	}
}

func (s *Service) setFailure(err error) {
	s.failureLock.Lock()
	defer s.failureLock.Unlock()
	s.startFailure = err
}

// Stop the HTTP server with a graceful shutdown.
func (s *Service) Stop() error {
	defer s.cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(s.ctx, 2*time.Second)
	defer shutdownCancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Warn("Existing connections terminated")
			return nil
		}
		return errors.Wrap(err, "could not shut down HTTP server")
	}
	return nil
}

// Status returns an error if the server failed to start or serve.
func (s *Service) Status() error {
	s.failureLock.RLock()
	defer s.failureLock.RUnlock()
	return s.startFailure
}
