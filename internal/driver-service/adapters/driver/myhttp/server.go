package myhttp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/finere-dem/MaliTrans/internal/config"
	"github.com/finere-dem/MaliTrans/internal/driver-service/adapters/driven/db"
	"github.com/finere-dem/MaliTrans/internal/driver-service/adapters/driver/myhttp/handle"
	"github.com/finere-dem/MaliTrans/internal/driver-service/adapters/driver/myhttp/middleware"
	"github.com/finere-dem/MaliTrans/internal/driver-service/core/domain/model"
	"github.com/finere-dem/MaliTrans/internal/driver-service/core/services"
	"github.com/finere-dem/MaliTrans/internal/mylogger"
)

var ErrServerClosed = errors.New("server closed")

const WaitTime = 10

type Server struct {
	mux    *http.ServeMux
	cfg    *config.Config
	srv    *http.Server
	mylog  mylogger.Logger
	db     *db.DB
	ctx    context.Context
	appCtx context.Context
	mu     sync.Mutex
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

	s.Configure()

	s.mu.Lock()
	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%v", s.cfg.Srv.DriverServicePort),
		Handler: s.mux,
	}
	s.mu.Unlock()

	mylog = mylog.WithGroup("details").With("port", s.cfg.Srv.DriverServicePort)
	mylog.Info("driver service is running")
	return s.startHTTPServer()
}

// Stop provides a programmatic shutdown. Accepts a context for timeout control.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mylog.Info("shutting down driver service...")

	if s.srv != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, WaitTime*time.Second)
		defer cancel()

		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.mylog.Error("failed to shut down HTTP server gracefully", err)
			return fmt.Errorf("http server shutdown: %w", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.mylog.Error("failed to close database", err)
			return fmt.Errorf("db close: %w", err)
		}
		s.mylog.Info("database closed")
	}

	s.mylog.Info("driver service shut down gracefully")
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

// Configure wires the repository, the onboarding service and the three HTTP
// surfaces (company, admin, driver self-service) onto the mux.
func (s *Server) Configure() {
	driversRepo := db.NewDriversRepo(s.db)
	onboarding := services.NewOnboardingService(s.appCtx, s.mylog, driversRepo)

	driversHandler := handle.NewDriversHandler(onboarding, s.mylog)
	authMiddleware := middleware.NewAuthMiddleware(s.cfg.App.JwtSecret)

	companyRoles := []string{model.RoleCompanyManager, model.RoleSupplier}

	s.mux.Handle("POST /company/drivers/{driver_id}/validate", authMiddleware.Wrap(driversHandler.CompanyVerify(), companyRoles...))
	s.mux.Handle("GET /company/drivers", authMiddleware.Wrap(driversHandler.CompanyDrivers(), companyRoles...))
	s.mux.Handle("GET /company/drivers/pending", authMiddleware.Wrap(driversHandler.CompanyPending(), companyRoles...))
	s.mux.Handle("GET /company/drivers/{driver_id}", authMiddleware.Wrap(driversHandler.CompanyDossier(), companyRoles...))

	s.mux.Handle("GET /admin/drivers/pending", authMiddleware.Wrap(driversHandler.AdminPending(), model.RoleAdmin))
	s.mux.Handle("POST /admin/drivers/{driver_id}/activate", authMiddleware.Wrap(driversHandler.AdminActivate(), model.RoleAdmin))
	s.mux.Handle("POST /admin/drivers/{driver_id}/reject", authMiddleware.Wrap(driversHandler.AdminReject(), model.RoleAdmin))
	s.mux.Handle("POST /admin/drivers/{driver_id}/suspend", authMiddleware.Wrap(driversHandler.AdminSuspend(), model.RoleAdmin))
	s.mux.Handle("POST /admin/drivers/{driver_id}/unsuspend", authMiddleware.Wrap(driversHandler.AdminUnsuspend(), model.RoleAdmin))

	s.mux.Handle("GET /drivers/me", authMiddleware.Wrap(driversHandler.Me(), model.RoleDriver))
	s.mux.Handle("POST /drivers/guarantors", authMiddleware.Wrap(driversHandler.AddGuarantor(), model.RoleDriver))
	s.mux.Handle("GET /drivers/guarantors", authMiddleware.Wrap(driversHandler.MyGuarantors(), model.RoleDriver))
	s.mux.Handle("PUT /drivers/documents", authMiddleware.Wrap(driversHandler.UpdateDocument(), model.RoleDriver))
	s.mux.Handle("POST /drivers/request-activation", authMiddleware.Wrap(driversHandler.RequestActivation(), model.RoleDriver))

	s.mux.Handle("POST /drivers/{driver_id}/notes", authMiddleware.Wrap(driversHandler.RateDriver(), model.RoleClient, model.RoleSupplier))
	s.mux.Handle("GET /drivers/{driver_id}/notes", authMiddleware.Wrap(driversHandler.DriverNotes(), model.RoleAdmin, model.RoleCompanyManager, model.RoleSupplier, model.RoleDriver))
}
