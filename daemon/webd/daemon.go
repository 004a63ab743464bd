// Package webd serves engine stats and a live frame stream over HTTP.
package webd

import (
	"context"
	"errors"
	"github.com/ethereum/go-ethereum/event"
	"github.com/gorilla/mux"
	"github.com/olahol/melody"
	"github.com/rotblauer/globe/app"
	"github.com/rotblauer/globe/common"
	"github.com/rotblauer/globe/metrics"
	"github.com/rotblauer/globe/params"
	"github.com/rotblauer/globe/tiledb"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Source is what the daemon reports on. *app.Engine is one.
type Source interface {
	Metrics() *metrics.Engine
	FrameTimes() *common.FrameTimes
	LastFrame() *app.FrameReport
	SubscribeFrames(ch chan<- app.FrameReport) event.Subscription
	Fingerprint() string

	// Store may return nil.
	Store() *tiledb.Store
}

type WebDaemon struct {
	Config *params.WebDaemonConfig

	source         Source
	logger         *slog.Logger
	melodyInstance *melody.Melody
	frameSub       event.Subscription
	started        time.Time
}

func NewWebDaemon(config *params.WebDaemonConfig, source Source) *WebDaemon {
	if config == nil {
		config = params.DefaultWebDaemonConfig()
	}
	return &WebDaemon{
		Config:  config,
		source:  source,
		logger:  slog.With("d", "web"),
		started: time.Now(),
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *WebDaemon) Run(ctx context.Context) error {
	listener, err := net.Listen(s.Config.Network, s.Config.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listener)
}

// Serve is Run on an existing listener.
func (s *WebDaemon) Serve(ctx context.Context, listener net.Listener) error {
	server := &http.Server{
		Handler:           s.NewRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errs := make(chan error, 1)
	go func() {
		s.logger.Info("Starting web daemon", "address", listener.Addr().String())
		errs <- server.Serve(listener)
	}()

	select {
	case err := <-errs:
		s.closeMelody()
		return err
	case <-ctx.Done():
	}
	s.closeMelody()
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := server.Shutdown(shutdown)
	if serveErr := <-errs; !errors.Is(serveErr, http.ErrServerClosed) {
		err = errors.Join(err, serveErr)
	}
	s.logger.Info("Web daemon stopped")
	return err
}

func (s *WebDaemon) NewRouter() *mux.Router {
	s.initMelody()

	router := mux.NewRouter().StrictSlash(false)
	router.Use(s.loggingMiddleware)

	router.Path("/ws").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = s.melodyInstance.HandleRequest(w, r)
	})

	apiRoutes := router.NewRoute().Subrouter()

	// All API routes use permissive CORS settings.
	apiRoutes.Use(permissiveCorsMiddleware)

	// /ping is a simple server healthcheck endpoint
	apiRoutes.Path("/ping").HandlerFunc(pingPong)

	apiJSONRoutes := apiRoutes.NewRoute().Subrouter()
	apiJSONRoutes.Use(contentTypeMiddlewareFunc("application/json"))

	apiJSONRoutes.Path("/status").HandlerFunc(s.statusReport).Methods(http.MethodGet)
	apiJSONRoutes.Path("/stats").HandlerFunc(s.handleStats).Methods(http.MethodGet)
	apiJSONRoutes.Path("/frame").HandlerFunc(s.handleLastFrame).Methods(http.MethodGet)
	apiJSONRoutes.Path("/store").HandlerFunc(s.handleStore).Methods(http.MethodGet)

	return router
}
