package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	httpctx "github.com/dtroode/adminauth-server/internal/api/http/context"
	"github.com/dtroode/adminauth-server/internal/api/http/router"
	"github.com/dtroode/adminauth-server/internal/config"
	"github.com/dtroode/adminauth-server/internal/logger"
	"github.com/dtroode/adminauth-server/internal/mail"
	"github.com/dtroode/adminauth-server/internal/model"
	"github.com/dtroode/adminauth-server/internal/ratelimit"
	"github.com/dtroode/adminauth-server/internal/repository/postgres"
	"github.com/dtroode/adminauth-server/internal/repository/sqlite"
	"github.com/dtroode/adminauth-server/internal/secret"
	"github.com/dtroode/adminauth-server/internal/server"
	"github.com/dtroode/adminauth-server/internal/service"
	storage "github.com/dtroode/adminauth-server/internal/storage/minio"
	"github.com/dtroode/adminauth-server/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	if cfg.JWT.Secret == "" {
		logger.Warn("JWT_SECRET is not set; token issuing will fail until it is configured")
	}

	userRepo, codeRepo, db, err := openStores(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err, "driver", cfg.Database.Driver)
	}
	defer db.Close()

	mailer, err := newMailer(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize mail transport", "error", err)
	}

	hasher := secret.NewHasher(secret.Params{Time: cfg.KDF.Time, MemKiB: cfg.KDF.MemKiB, Threads: cfg.KDF.Par})
	tokenManager := token.NewJWT(cfg.JWT.Secret, cfg.JWT.TTL)

	credentials := service.NewCredentials(userRepo, hasher, logger)
	codes := service.NewCodes(codeRepo, credentials, hasher, mailer, service.CodePolicy{
		TTL:            cfg.EmailCode.TTL(),
		ResendCooldown: cfg.EmailCode.ResendCooldown(),
		EchoCode:       !cfg.IsProduction(),
		MaxAttempts:    cfg.EmailCode.MaxAttempts,
	}, logger)
	tokenService := service.NewTokenService(tokenManager, logger)
	authService := service.NewAuth(credentials, codes, tokenService, logger)
	ctxMgr := httpctx.NewManager()

	var limiter model.Limiter
	if cfg.RateLimit.RedisAddr != "" {
		redisClient, err := ratelimit.NewClient(ctx, cfg.RateLimit.RedisAddr, cfg.RateLimit.RedisPassword, cfg.RateLimit.RedisDB)
		if err != nil {
			logger.Fatal("failed to initialize rate limiter", "error", err)
		}
		defer redisClient.Close()
		limiter = ratelimit.NewRedisLimiter(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}

	var wg sync.WaitGroup

	if cfg.EmailCode.CleanupInterval > 0 {
		janitor := service.NewCodeJanitor(codeRepo, cfg.EmailCode.CleanupInterval, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			janitor.Run(ctx)
		}()
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := router.New(authService, tokenService, ctxMgr, limiter, logger)
	httpServer := server.NewHTTPServer(r.Register(), fmt.Sprintf(":%s", cfg.HTTP.Port), server.Timeouts{
		Read:  cfg.HTTP.ReadTimeout,
		Write: cfg.HTTP.WriteTimeout,
	})

	var sl model.SecurityLayer

	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address())
		if err := s.Start(sl); err != nil {
			logger.Error("failed to start server", "error", err)
			stop()
		}
	}(httpServer)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", httpServer.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}

func openStores(ctx context.Context, cfg config.Database) (model.UserStore, model.CodeStore, io.Closer, error) {
	switch cfg.Driver {
	case "postgres":
		db, err := postgres.NewConnection(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, nil, err
		}
		return postgres.NewUserRepository(db.DB), postgres.NewEmailCodeRepository(db.DB), db, nil
	case "sqlite":
		db, err := sqlite.NewConnection(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, nil, err
		}
		return sqlite.NewUserRepository(db.DB), sqlite.NewEmailCodeRepository(db.DB), db, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func newMailer(ctx context.Context, cfg *config.Config, logger *logger.Logger) (model.MailDispatcher, error) {
	transport, err := mail.ResolveTransport(cfg.Mail.Transport, cfg.SMTP.Configured(), cfg.SMTP.Mock, cfg.IsProduction())
	if err != nil {
		return nil, err
	}
	logger.Info("mail transport selected", "transport", string(transport))

	var dispatcher model.MailDispatcher
	switch transport {
	case mail.TransportSMTP:
		dispatcher = mail.NewSMTPDispatcher(mail.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Secure:   cfg.SMTP.Secure,
			Username: cfg.SMTP.User,
			Password: cfg.SMTP.Pass,
			From:     cfg.SMTP.From,
		})
	case mail.TransportBucket:
		storageClient, err := storage.New(ctx, storage.Options{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			UseSSL:    cfg.Storage.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage client: %w", err)
		}
		from := cfg.SMTP.From
		if from == "" {
			from = "no-reply@adminauth.local"
		}
		dispatcher = mail.NewBucketDispatcher(storageClient, from)
	case mail.TransportLog:
		dispatcher = mail.NewLogDispatcher(logger)
	default:
		logger.Warn("no mail transport configured; email codes cannot be delivered")
		dispatcher = mail.UnconfiguredDispatcher{}
	}

	return mail.WithTimeout(dispatcher, cfg.Mail.Timeout), nil
}
