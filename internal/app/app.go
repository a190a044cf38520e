// Package app wires configuration, storage, and HTTP routing into a
// runnable server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shariastocks-in/backend/internal/config"
	"github.com/shariastocks-in/backend/internal/db"
	"github.com/shariastocks-in/backend/internal/expiry"
	"github.com/shariastocks-in/backend/internal/http/api/front"
	"github.com/shariastocks-in/backend/internal/mailer"
	"github.com/shariastocks-in/backend/internal/payment"
	"github.com/shariastocks-in/backend/internal/ratelimit"
	log "github.com/sirupsen/logrus"
)

// shutdownTimeout bounds graceful drain on exit.
const shutdownTimeout = 10 * time.Second

// ConfigExists reports whether the config file is present.
func ConfigExists(configPath string) bool {
	info, errStat := os.Stat(configPath)
	return errStat == nil && !info.IsDir()
}

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	return db.Migrate(conn)
}

// RunServer boots the API server with database-backed components.
func RunServer(ctx context.Context, cfg config.AppConfig, port int) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	jwtConfig, _ := config.LoadJWTConfig(configPath)
	if jwtConfig.Secret == "" {
		return errors.New("app: jwt secret is not configured")
	}

	smtpConfig, _ := config.LoadSMTPConfig(configPath)
	mail := mailer.New(smtpConfig, nil)
	if !mail.Enabled() {
		log.Info("smtp not configured, subscription emails disabled")
	}

	rateLimitConfig, _ := config.LoadRateLimitConfig(configPath)
	limiterSettings := ratelimit.FromConfig(rateLimitConfig)
	limiter := ratelimit.NewManager(func() ratelimit.SettingsConfig {
		return limiterSettings
	}, nil, nil)

	engine := gin.New()
	engine.Use(gin.Recovery())
	front.RegisterFrontRoutes(engine, conn, jwtConfig, front.Deps{
		Gateway: payment.NewSimulatedGateway(),
		Mailer:  mail,
		Limiter: limiter,
		Limit:   rateLimitConfig.Limit,
	})

	expiry.NewPoller(conn, mail).Start(ctx)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("starting server on %s with config=%s", server.Addr, configPath)
		if errServe := server.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			errCh <- errServe
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			return errShutdown
		}
		return <-errCh
	case errServe := <-errCh:
		return errServe
	}
}
