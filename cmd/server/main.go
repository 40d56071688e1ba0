package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	_ "time/tzdata"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/satnyp/spolek-rodicu/internal/auth"
	"github.com/satnyp/spolek-rodicu/internal/config"
	"github.com/satnyp/spolek-rodicu/internal/imaging"
	"github.com/satnyp/spolek-rodicu/internal/janitor"
	"github.com/satnyp/spolek-rodicu/internal/mail"
	"github.com/satnyp/spolek-rodicu/internal/metrics"
	"github.com/satnyp/spolek-rodicu/internal/middleware"
	"github.com/satnyp/spolek-rodicu/internal/objectstore"
	"github.com/satnyp/spolek-rodicu/internal/pdf"
	"github.com/satnyp/spolek-rodicu/internal/realtime"
	"github.com/satnyp/spolek-rodicu/internal/service"
	"github.com/satnyp/spolek-rodicu/internal/seznam"
	"github.com/satnyp/spolek-rodicu/internal/storage"
	"github.com/satnyp/spolek-rodicu/internal/storage/firestore"
	"github.com/satnyp/spolek-rodicu/internal/storage/redisstate"
	"github.com/satnyp/spolek-rodicu/internal/storage/sqlite"
	"github.com/satnyp/spolek-rodicu/pkg/api/apiconnect"
	"github.com/satnyp/spolek-rodicu/pkg/logging"
)

// maxMessageBytes bounds RPC payloads; uploads arrive base64 encoded.
const maxMessageBytes = 32 << 20

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup()
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Configure(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	m := metrics.New()
	hub := realtime.NewHub()
	var (
		publisher realtime.Publisher = hub
		states    storage.StateStore = store
		bridge    *realtime.RedisBridge
	)
	if cfg.Redis.Addr != "" {
		rs, err := redisstate.New(ctx, redisstate.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rs.Close()
		states = rs
		bridge = realtime.NewRedisBridge(rs.Client(), hub)
		publisher = bridge
		slog.Info("Redis enabled", "addr", cfg.Redis.Addr)
	}

	mux := http.NewServeMux()

	objects, err := openObjects(ctx, cfg, mux)
	if err != nil {
		return err
	}

	exporter, err := pdf.NewExporter(cfg.PDF.TemplatePath)
	if err != nil {
		return err
	}
	slog.Info("PDF export ready", "template", exporter.HasTemplate())

	tokens := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	resolver := auth.NewResolver(store, cfg.Auth.HardAdminEmail)
	authenticator := auth.NewAuthenticator(tokens, resolver)

	requests := service.NewRequestService(service.RequestServiceConfig{
		Store:     store,
		Hub:       hub,
		Publisher: publisher,
		Objects:   objects,
		Exporter:  exporter,
		Imaging: imaging.Options{
			MaxWidth:    cfg.Imaging.MaxWidth,
			TargetBytes: int(cfg.Imaging.TargetBytes),
			MaxBytes:    int(cfg.Imaging.MaxBytes),
		},
		Metrics:  m,
		Location: cfg.Location(),
	})
	relay := mail.NewRelay(cfg.Mail.WebhookURL, cfg.Mail.Secret, cfg.Mail.Timeout)
	if !relay.Configured() {
		slog.Warn("Mail webhook not configured; bulk mail disabled")
	}
	mailer := service.NewMailService(store, resolver, relay, m)

	opts := []connect.HandlerOption{
		connect.WithInterceptors(
			middleware.RequireAuth(authenticator, apiconnect.PublicProcedures),
			middleware.LoggingInterceptor(m),
		),
		connect.WithReadMaxBytes(maxMessageBytes),
	}
	mux.Handle(apiconnect.NewSessionServiceHandler(service.NewSessionService(resolver, tokens, cfg.Features.TestEndpoints), opts...))
	mux.Handle(apiconnect.NewAllowlistServiceHandler(service.NewAllowlistService(store, resolver), opts...))
	mux.Handle(apiconnect.NewRequestServiceHandler(requests, opts...))
	mux.Handle(apiconnect.NewMailServiceHandler(mailer, opts...))

	service.NewEndpoints(service.HTTPConfig{
		Authenticator: authenticator,
		Requests:      requests,
		Mail:          mailer,
		TestEndpoints: cfg.Features.TestEndpoints,
	}).Register(mux)
	if cfg.Features.TestEndpoints {
		slog.Warn("Test endpoints enabled; do not use in production")
	}

	if cfg.Seznam.Enabled() {
		seznam.NewHandler(seznam.HandlerConfig{
			Provider: seznam.NewClient(seznam.Config{
				ClientID:     cfg.Seznam.ClientID,
				ClientSecret: cfg.Seznam.ClientSecret,
				RedirectURI:  cfg.Seznam.RedirectURI,
				AuthURL:      cfg.Seznam.AuthURL,
				TokenURL:     cfg.Seznam.TokenURL,
				UserInfoURL:  cfg.Seznam.UserInfoURL,
			}),
			States:   states,
			Audit:    store,
			Resolver: resolver,
			Tokens:   tokens,
			Metrics:  m,
			StateTTL: cfg.Seznam.StateTTL,
		}).Register(mux)
	} else {
		slog.Warn("Seznam login not configured")
	}

	mux.Handle("GET /metrics", m.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	staticDir, err := filepath.Abs(cfg.Server.StaticPath)
	if err != nil {
		return fmt.Errorf("failed to resolve static path: %w", err)
	}
	slog.Info("Serving static files", "path", staticDir)
	mux.Handle("/", spaHandler(staticDir))

	handler := middleware.HTTPLogging(middleware.CORS(cfg.Server.AllowedOrigins, mux))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr: addr,
		// h2c serves HTTP/2 without TLS, needed for Connect streaming.
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	janitorJob, err := janitor.New(states, cfg.Features.JanitorSchedule)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Connect server starting", "address", addr, "url", cfg.Server.PublicURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		slog.Info("Shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return janitorJob.Run(gctx)
	})
	if bridge != nil {
		g.Go(func() error {
			return bridge.Run(gctx)
		})
	}
	return g.Wait()
}

func openStore(ctx context.Context, cfg config.StoreConfig) (storage.Store, error) {
	switch cfg.Driver {
	case config.DriverFirestore:
		store, err := firestore.New(ctx, cfg.FirestoreProject)
		if err != nil {
			return nil, err
		}
		slog.Info("Storage initialized", "driver", cfg.Driver, "project", cfg.FirestoreProject)
		return store, nil
	default:
		store, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		slog.Info("Storage initialized", "driver", config.DriverSQLite, "database", cfg.SQLitePath)
		return store, nil
	}
}

// openObjects builds the attachment store. Local files are served from /files/.
func openObjects(ctx context.Context, cfg *config.Config, mux *http.ServeMux) (objectstore.Store, error) {
	o := cfg.Objects
	if o.Driver == config.ObjectsS3 {
		s3, err := objectstore.NewS3(ctx, objectstore.S3Config{
			Bucket:       o.S3Bucket,
			Region:       o.S3Region,
			Endpoint:     o.S3Endpoint,
			AccessKey:    o.S3AccessKey,
			SecretKey:    o.S3SecretKey,
			UsePathStyle: o.S3UsePathStyle,
			PublicURL:    o.S3PublicURL,
		})
		if err != nil {
			return nil, err
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		slog.Info("Object storage initialized", "driver", o.Driver, "bucket", s3.Bucket())
		return s3, nil
	}

	local, err := objectstore.NewLocal(o.LocalDir, strings.TrimRight(cfg.Server.PublicURL, "/")+"/files")
	if err != nil {
		return nil, err
	}
	mux.Handle("GET /files/", http.StripPrefix("/files", local.Handler()))
	slog.Info("Object storage initialized", "driver", config.ObjectsLocal, "dir", o.LocalDir)
	return local, nil
}

// spaHandler serves the web client, falling back to index.html for unknown
// paths. RPC paths never fall through to it.
func spaHandler(staticDir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/spolek.v1.") {
			http.NotFound(w, r)
			return
		}

		urlPath := r.URL.Path
		if urlPath == "/" {
			urlPath = "/index.html"
		}
		filePath := filepath.Join(staticDir, filepath.Clean(urlPath))
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
			return
		}
		http.ServeFile(w, r, filePath)
	})
}
