// Package main starts the banking portal API server: it loads configuration,
// connects PostgreSQL and the session store, and serves HTTP(S) until
// interrupted.
package main

import (
	"cmp"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/atinyakov/BankPortal/internal/config"
	"github.com/atinyakov/BankPortal/internal/db"
	"github.com/atinyakov/BankPortal/internal/logger"
	"github.com/atinyakov/BankPortal/internal/notify"
	"github.com/atinyakov/BankPortal/internal/repository"
	"github.com/atinyakov/BankPortal/internal/server/handler/http"
	"github.com/atinyakov/BankPortal/internal/service"
	"github.com/atinyakov/BankPortal/internal/session"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	options := config.Parse()

	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	if err := run(options, zapLogger); err != nil {
		zapLogger.Fatal("server stopped", zap.Error(err))
	}
}

func run(options *config.Options, zapLogger *zap.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer func() { err = multierr.Append(err, postgresDB.Close()) }()

	db.StartRetentionCleaner(ctx, postgresDB,
		time.Duration(options.CleanupInterval),
		time.Duration(options.OTPRetention),
		zapLogger,
	)

	var store session.Store = session.NewPostgresStore(postgresDB)
	if options.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: options.RedisAddr})
		defer func() { err = multierr.Append(err, client.Close()) }()
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		store = session.NewRedisStore(client, "bankportal")
		zapLogger.Info("sessions stored in redis", zap.String("addr", options.RedisAddr))
	}

	if options.SessionSecret == "" {
		zapLogger.Warn("no session secret configured, sessions will not survive a restart")
	}
	codec, err := session.NewCookieCodec(options.SessionSecret, options.CookieSecure)
	if err != nil {
		return fmt.Errorf("session cookie: %w", err)
	}
	sessions := session.NewManager(store, codec)

	mailer, err := notify.New(options.SMTP, options.Dev, zapLogger)
	if err != nil {
		return fmt.Errorf("notifier: %w (set an SMTP host or run with -dev)", err)
	}

	userRepo := repository.NewPostgresUserRepository(postgresDB)
	otpRepo := repository.NewPostgresOTPRepository(postgresDB)
	accountRepo := repository.NewPostgresAccountRepository(postgresDB)
	billRepo := repository.NewPostgresBillPaymentRepository(postgresDB)
	chequeRepo := repository.NewPostgresChequeOrderRepository(postgresDB)
	externalRepo := repository.NewPostgresExternalAccountRepository(postgresDB)

	authService := service.NewAuthService(userRepo, otpRepo, mailer, zapLogger)
	accountService := service.NewAccountService(accountRepo)
	billService := service.NewBillPaymentService(billRepo, accountRepo, userRepo, authService, mailer, zapLogger)
	chequeService := service.NewChequeOrderService(chequeRepo, accountRepo, userRepo, authService, mailer, zapLogger)
	externalService := service.NewExternalAccountService(externalRepo, userRepo, mailer, zapLogger)

	router := http.NewRouter(http.Handlers{
		Auth:             &http.AuthHandler{AuthService: authService, Sessions: sessions, Log: zapLogger},
		Accounts:         &http.AccountHandler{AccountService: accountService, Log: zapLogger},
		BillPayments:     &http.BillPaymentHandler{BillPaymentService: billService, Log: zapLogger},
		ChequeOrders:     &http.ChequeOrderHandler{ChequeOrderService: chequeService, Log: zapLogger},
		ExternalAccounts: &http.ExternalAccountHandler{ExternalAccountService: externalService, Log: zapLogger},
		Health:           &http.HealthHandler{DB: postgresDB, Log: zapLogger},
	}, sessions, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	useTLS := options.TLSCert != "" && options.TLSKey != ""
	if useTLS {
		server.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	serveErr := make(chan error, 1)
	go func() {
		zapLogger.Info("starting server", zap.String("addr", options.Port), zap.Bool("tls", useTLS))
		if useTLS {
			serveErr <- server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
		} else {
			serveErr <- server.ListenAndServe()
		}
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, nethttp.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	zapLogger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
