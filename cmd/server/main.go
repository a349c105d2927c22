// Command cardvault-server serves the CardVault HTTP API and a gRPC health endpoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/credentials"

	"github.com/and161185/cardvault/internal/config"
	"github.com/and161185/cardvault/internal/limiter"
	"github.com/and161185/cardvault/internal/live"
	"github.com/and161185/cardvault/internal/migrate"
	"github.com/and161185/cardvault/internal/repository"
	"github.com/and161185/cardvault/internal/repository/memory"
	"github.com/and161185/cardvault/internal/repository/postgres"
	grpcserver "github.com/and161185/cardvault/internal/server/grpc"
	"github.com/and161185/cardvault/internal/server/httpapi"
	"github.com/and161185/cardvault/internal/service"
	"github.com/and161185/cardvault/internal/storage"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

const shutdownGrace = 5 * time.Second

// backend is the record store chosen by configuration.
type backend struct {
	accounts repository.AccountRepository
	cards    repository.CardRepository
	profiles repository.ProfileRepository
	lim      limiter.Limiter
	health   httpapi.Pinger
	// listen forwards cross-instance change notifications into the hub; nil for memory.
	listen func(ctx context.Context) error
	close  func()
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	logger, _ := zap.NewProduction()
	if cfg.Dev {
		logger, _ = zap.NewDevelopment()
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
		zap.String("store", cfg.Store),
		zap.String("objects", cfg.Objects),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := live.NewHub()
	be, err := openBackend(ctx, cfg, hub, logger)
	if err != nil {
		logger.Fatal("open store", zap.Error(err))
	}
	defer be.close()

	objects, err := openObjects(ctx, cfg)
	if err != nil {
		logger.Fatal("open object store", zap.Error(err))
	}

	codec, err := cfg.Codec()
	if err != nil {
		logger.Fatal("qr codec", zap.Error(err))
	}

	authSvc := service.NewAuthService(be.accounts, []byte(cfg.JWTKey), cfg.AccessTTL, be.lim, logger)
	cardSvc := service.NewCardService(be.cards, objects, hub, logger)
	shareSvc := service.NewShareService(be.cards, hub, cfg.BaseURL)
	profileSvc := service.NewProfileService(be.profiles, objects)

	deps := httpapi.Deps{
		Auth:      authSvc,
		Cards:     cardSvc,
		Share:     shareSvc,
		Profiles:  profileSvc,
		Codec:     codec,
		Health:    be.health,
		Log:       logger,
		MaxUpload: cfg.MaxUpload,
		Heartbeat: cfg.Heartbeat,
	}
	if cfg.Objects == config.ObjectsLocal {
		deps.ObjectsDir = cfg.ObjectsDir
	}
	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.New(deps).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http listening", zap.String("addr", cfg.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return httpSrv.Shutdown(sctx)
	})

	if cfg.GRPCAddr != "" {
		opts := grpcserver.Options{Reflection: cfg.Dev}
		if cfg.TLSCert != "" {
			creds, err := credentials.NewServerTLSFromFile(cfg.TLSCert, cfg.TLSKey)
			if err != nil {
				logger.Fatal("failed to load TLS cert/key", zap.Error(err))
			}
			opts.Creds = creds
		}
		hs := grpcserver.New(be.health, logger, opts)
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			logger.Fatal("listen", zap.Error(err))
		}
		g.Go(func() error {
			logger.Info("grpc health listening", zap.String("addr", cfg.GRPCAddr))
			return hs.Serve(lis)
		})
		g.Go(func() error {
			hs.Watch(gctx, 10*time.Second)
			hs.Stop(shutdownGrace)
			return nil
		})
	}

	if be.listen != nil {
		g.Go(func() error {
			if err := be.listen(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("listener: %w", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func openBackend(ctx context.Context, cfg config.Config, hub *live.Hub, log *zap.Logger) (backend, error) {
	if cfg.Store == config.StoreMemory {
		st := memory.New()
		log.Warn("in-memory store: data is lost on exit")
		return backend{
			accounts: st.Accounts(),
			cards:    st.Cards(),
			profiles: st.Profiles(),
			lim:      limiter.NewMemory(limiter.DefaultPolicy),
			health:   st,
			close:    func() {},
		}, nil
	}

	if err := migrate.Up(ctx, cfg.DSN, log); err != nil {
		return backend{}, fmt.Errorf("migrate up: %w", err)
	}
	db, pool, err := postgres.New(ctx, cfg.DSN)
	if err != nil {
		return backend{}, fmt.Errorf("pgxpool: %w", err)
	}
	return backend{
		accounts: postgres.NewAccountRepo(db),
		cards:    postgres.NewCardRepo(db),
		profiles: postgres.NewProfileRepo(db),
		lim:      limiter.NewPG(pool, limiter.DefaultPolicy),
		health:   db,
		listen:   live.NewPGListener(pool, hub, log).Run,
		close:    pool.Close,
	}, nil
}

func openObjects(ctx context.Context, cfg config.Config) (storage.ObjectStore, error) {
	if cfg.Objects == config.ObjectsS3 {
		return storage.NewS3(ctx, cfg.S3)
	}
	return storage.NewLocal(cfg.ObjectsDir, cfg.BaseURL)
}
