package myhttp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/finere-dem/MaliTrans/internal/config"
	"github.com/finere-dem/MaliTrans/internal/mylogger"
	"github.com/finere-dem/MaliTrans/internal/ride-service/adapters/driven/bm"
	"github.com/finere-dem/MaliTrans/internal/ride-service/adapters/driven/consumer"
	"github.com/finere-dem/MaliTrans/internal/ride-service/adapters/driven/db"
	"github.com/finere-dem/MaliTrans/internal/ride-service/adapters/driver/myhttp/handle"
	"github.com/finere-dem/MaliTrans/internal/ride-service/adapters/driver/myhttp/middleware"
	"github.com/finere-dem/MaliTrans/internal/ride-service/adapters/driver/myhttp/ws"
	"github.com/finere-dem/MaliTrans/internal/ride-service/core/ports"
	"github.com/finere-dem/MaliTrans/internal/ride-service/core/services"
)

var ErrServerClosed = errors.New("server closed")

const WaitTime = 10

type Server struct {
	mux    *http.ServeMux
	cfg    *config.Config
	srv    *http.Server
	mylog  mylogger.Logger
	db     *db.DB
	mb     ports.IRidesBroker
	ctx    context.Context
	appCtx context.Context
	mu     sync.Mutex
	wg     sync.WaitGroup
}

func NewServer(ctx, appCtx context.Context, mylog mylogger.Logger, cfg *config.Config) *Server {
	return &Server{
		ctx:    ctx,
		appCtx: appCtx,
		cfg:    cfg,
		mylog:  mylog,
		mux:    http.NewServeMux(),
	}
}

// Run initializes adapters and routes and starts listening. It returns when
// the server stops.
func (s *Server) Run() error {
	mylog := s.mylog.Action("server_started")

	database, err := db.New(s.ctx, s.cfg.DB, mylog)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	s.db = database
	mylog.Info("successful database connection")

	mb, err := bm.New(s.appCtx, *s.cfg.RabbitMq, s.mylog)
	if err != nil {
		return fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	s.mb = mb
	mylog.Info("successful message broker connection")

	if err := s.Configure(); err != nil {
		return err
	}

	s.mu.Lock()
	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%v", s.cfg.Srv.RideServicePort),
		Handler: s.mux,
	}
	s.mu.Unlock()

	mylog = mylog.WithGroup("details").With("port", s.cfg.Srv.RideServicePort)
	mylog.Info("ride service is running")
	return s.startHTTPServer()
}

// Stop provides a programmatic shutdown. Accepts a context for timeout control.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mylog.Info("shutting down ride service...")

	s.wg.Wait()

	if s.srv != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, WaitTime*time.Second)
		defer cancel()

		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.mylog.Error("failed to shut down HTTP server gracefully", err)
			return fmt.Errorf("http server shutdown: %w", err)
		}
	}

	if s.mb != nil {
		if err := s.mb.Close(); err != nil {
			s.mylog.Error("failed to close message broker", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.mylog.Error("failed to close database", err)
			return fmt.Errorf("db close: %w", err)
		}
		s.mylog.Info("database closed")
	}

	s.mylog.Info("ride service shut down gracefully")
	return nil
}

func (s *Server) startHTTPServer() error {
	errCh := make(chan error, 1)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		} else {
			errCh <- nil
		}
	}()

	select {
	case <-s.ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Configure wires repositories, services and handlers onto the mux.
func (s *Server) Configure() error {
	// repositories
	ridesRepo := db.NewRidesRepo(s.db)
	driversRepo := db.NewDriversRepo(s.db)

	// services
	ridesService := services.NewRidesService(s.appCtx, s.mylog, ridesRepo, driversRepo, s.mb)

	// handlers
	ridesHandler := handle.NewRidesHandler(ridesService, s.mylog)
	authMiddleware := middleware.NewAuthMiddleware(s.cfg.App.JwtSecret)

	// websocket fan-out of broker events
	dispatcher := ws.NewDispatcher(s.mylog)
	notification := consumer.New(s.appCtx, &s.wg, s.mylog, dispatcher, s.mb)
	if err := notification.Run(); err != nil {
		return fmt.Errorf("failed to start notification consumer: %w", err)
	}

	s.mux.Handle("POST /rides", authMiddleware.Wrap(ridesHandler.CreateRide(), services.RoleClient, services.RoleSupplier))
	s.mux.Handle("GET /rides/ready", authMiddleware.Wrap(ridesHandler.ListReady(), services.RoleDriver))
	s.mux.Handle("GET /rides/history", authMiddleware.Wrap(ridesHandler.History()))
	s.mux.Handle("GET /rides/active", authMiddleware.Wrap(ridesHandler.Active(), services.RoleDriver))
	s.mux.Handle("GET /rides/{ride_id}", authMiddleware.Wrap(ridesHandler.GetRide()))
	s.mux.Handle("POST /rides/{ride_id}/validate", authMiddleware.Wrap(ridesHandler.Validate(), services.RoleClient, services.RoleSupplier))
	s.mux.Handle("POST /rides/{ride_id}/assign", authMiddleware.Wrap(ridesHandler.Assign(), services.RoleDriver))
	s.mux.Handle("POST /rides/{ride_id}/pickup", authMiddleware.Wrap(ridesHandler.ConfirmPickup(), services.RoleDriver))
	s.mux.Handle("POST /rides/{ride_id}/delivery", authMiddleware.Wrap(ridesHandler.ConfirmDelivery(), services.RoleDriver))
	s.mux.Handle("POST /rides/{ride_id}/cancel", authMiddleware.Wrap(ridesHandler.Cancel(), services.RoleClient))
	s.mux.Handle("PATCH /rides/{ride_id}/price", authMiddleware.Wrap(ridesHandler.UpdatePrice(), services.RoleClient))

	s.mux.Handle("/ws/notifications", authMiddleware.Wrap(dispatcher.WsHandler()))

	return nil
}
