package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/Domenick1991/flightticket/api"
	"github.com/Domenick1991/flightticket/config"
	"github.com/Domenick1991/flightticket/internal/service/auth"
	"github.com/Domenick1991/flightticket/internal/service/booking"
	"github.com/Domenick1991/flightticket/internal/service/cities"
	"github.com/Domenick1991/flightticket/internal/service/flights"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

const shutdownTimeout = 5 * time.Second

// Pinger is a dependency checked by /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Services struct {
	Auth     auth.AuthUseCase
	Flights  flights.FlightUseCase
	Bookings booking.BookingUseCase
	Cities   cities.CityUseCase
	// Checks maps a dependency name to its health probe.
	Checks map[string]Pinger
}

// Run serves the HTTP API and blocks until ctx is canceled or the server fails.
func Run(ctx context.Context, cfg *config.Config, svc Services) error {
	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           NewRouter(cfg.HTTP, svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "address", cfg.HTTP.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		slog.Info("http server stopped")
		return nil
	}
}

func NewRouter(cfg config.HTTPConfig, svc Services) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), api.RequestLogger(), api.Metrics())

	requireAuth := api.RequireAuth(svc.Auth)

	api.NewAuthHandler(svc.Auth).Register(r.Group("/auth"), requireAuth)

	protected := r.Group("", requireAuth)
	api.NewCityHandler(svc.Cities).Register(protected.Group("/cities"))
	api.NewFlightHandler(svc.Flights).Register(protected.Group("/flights"), api.RequireAdmin())
	api.NewTicketHandler(svc.Bookings).Register(protected.Group("/tickets"))

	r.GET("/healthz", healthHandler(svc.Checks))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.SwaggerDir != "" {
		r.StaticFile("/docs/swagger.json", filepath.Join(cfg.SwaggerDir, "swagger.json"))
		r.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/docs/swagger.json"))))
	}

	return r
}

func healthHandler(checks map[string]Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		report := make(map[string]string, len(checks))
		for name, p := range checks {
			if err := p.Ping(ctx); err != nil {
				slog.Warn("health check failed", "dependency", name, "error", err)
				report[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			report[name] = "ok"
		}
		c.JSON(status, gin.H{"status": http.StatusText(status), "checks": report})
	}
}
