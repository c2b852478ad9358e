// Package main is the entrypoint for the Mithril admin backend. Without
// arguments it serves the admin API; "upload" sends a file through the
// upload flow of a running instance.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GyroZepelix/mithril-admin/admin"
	"github.com/GyroZepelix/mithril-admin/internal/auth"
	"github.com/GyroZepelix/mithril-admin/internal/config"
	"github.com/GyroZepelix/mithril-admin/internal/content"
	"github.com/GyroZepelix/mithril-admin/internal/contenttypes"
	"github.com/GyroZepelix/mithril-admin/internal/database"
	"github.com/GyroZepelix/mithril-admin/internal/media"
	"github.com/GyroZepelix/mithril-admin/internal/metrics"
	"github.com/GyroZepelix/mithril-admin/internal/schema"
	"github.com/GyroZepelix/mithril-admin/internal/server"
)

func main() {
	cfg := config.Load()

	logLevel := slog.LevelInfo
	if cfg.DevMode {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	if len(os.Args) > 1 && os.Args[1] == "upload" {
		if err := runUpload(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "upload: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(cfg); err != nil {
		slog.Error("mithril admin failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	slog.Info("starting Mithril admin",
		"port", cfg.Port,
		"model_dir", cfg.ModelDir,
		"media_dir", cfg.MediaDir,
		"dev_mode", cfg.DevMode,
	)

	if cfg.JWTSecret == "" {
		return errors.New("MITHRIL_JWT_SECRET is required")
	}
	policy, err := content.ParsePublishedAtPolicy(cfg.PublishedAtPolicy)
	if err != nil {
		return err
	}

	// A missing database URL is allowed: storage calls then report
	// NOT_CONFIGURED and /health reports the database as not configured.
	var db *database.DB
	if cfg.DatabaseURL != "" {
		dbCtx, dbCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer dbCancel()

		db, err = database.New(dbCtx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer db.Close()
		slog.Info("database connected")

		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("migrations applied")
	} else {
		slog.Warn("MITHRIL_DATABASE_URL is not set, storage is disabled")
	}

	m, metricsHandler, err := metrics.Setup("mithril-admin")
	if err != nil {
		return err
	}

	// --- Content models ---
	modelService := contenttypes.NewService(contenttypes.NewRepository(db))
	if cfg.ModelDir != "" && db != nil {
		models, err := schema.LoadModels(cfg.ModelDir)
		if err != nil {
			return fmt.Errorf("loading models: %w", err)
		}
		seedCtx, seedCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer seedCancel()

		created, err := modelService.Seed(seedCtx, models)
		if err != nil {
			return fmt.Errorf("seeding models: %w", err)
		}
		slog.Info("models seeded", "loaded", len(models), "created", created)
	}

	// --- Auth and provisioning ---
	authRepo := auth.NewRepository(db)
	authService := auth.NewService(authRepo, authRepo, cfg.JWTSecret)

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" && db != nil {
		adminCtx, adminCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer adminCancel()

		res, err := authService.Provision(adminCtx, auth.ProvisionRequest{Email: cfg.AdminEmail, Password: cfg.AdminPassword})
		if err != nil {
			return fmt.Errorf("provisioning initial admin: %w", err)
		}
		slog.Info("initial admin ensured", "email", res.Email, "created", res.Created)
	}

	// --- Media ---
	presigner, objects, err := newObjectStore(cfg)
	if err != nil {
		return err
	}
	var remover media.ObjectRemover
	if objects != nil {
		remover = objects
	}
	mediaService := media.NewService(media.NewRepository(db), remover)
	grants := media.NewGrantService(presigner, cfg.PublicMediaURL, m)

	// --- Entries ---
	entryService := content.NewService(
		content.NewRepository(db),
		modelService,
		media.NewResolver(mediaService, m),
		policy,
	)

	deps := server.Dependencies{
		DB:                    db,
		DevMode:               cfg.DevMode,
		AdminFS:               admin.DistFS(),
		Metrics:               m,
		MetricsHandler:        metricsHandler,
		UploadRatePerMinute:   cfg.UploadRatePerMinute,
		Models:                contenttypes.NewHandler(modelService),
		Entries:               content.NewHandler(entryService),
		Media:                 media.NewHandler(grants, mediaService),
		Auth:                  auth.NewHandler(authService),
		Provision:             auth.NewHandler(authService),
		AuthMiddleware:        auth.Middleware(cfg.JWTSecret),
		ServiceRoleMiddleware: auth.ServiceRoleMiddleware(cfg.ServiceRoleKey),
	}
	if objects != nil {
		deps.Objects = objects
	}

	srv := server.New(cfg.Port, server.NewRouter(deps))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	slog.Info("shutting down server (30s timeout)...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}

	slog.Info("Mithril admin stopped")
	return nil
}

// newObjectStore selects the upload target: S3 when a bucket is configured,
// otherwise the local signed store, which is also returned so its routes
// can be mounted.
func newObjectStore(cfg *config.Config) (media.Presigner, *media.LocalStore, error) {
	if cfg.S3Bucket != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		p, err := media.NewS3Presigner(ctx, media.S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, nil, err
		}
		slog.Info("uploads go to S3", "bucket", cfg.S3Bucket, "endpoint", cfg.S3Endpoint)
		return p, nil, nil
	}

	u, err := url.Parse(cfg.PublicMediaURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, nil, fmt.Errorf("MITHRIL_PUBLIC_MEDIA_URL must be an absolute URL, got %q", cfg.PublicMediaURL)
	}
	store, err := media.NewLocalStore(cfg.MediaDir, []byte(cfg.JWTSecret), u.Scheme+"://"+u.Host)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("uploads go to the local store", "dir", cfg.MediaDir)
	return store, store, nil
}
