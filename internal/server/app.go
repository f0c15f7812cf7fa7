// Package server initializes and runs the application: it opens the
// database, runs migrations, picks the configured blob and session
// backends, and starts the HTTP server with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/okovalenko/mediadrop/internal/logging"
	"github.com/okovalenko/mediadrop/internal/server/blob"
	"github.com/okovalenko/mediadrop/internal/server/config"
	"github.com/okovalenko/mediadrop/internal/server/repositories/repomanager"
	"github.com/okovalenko/mediadrop/internal/server/services"
	"github.com/okovalenko/mediadrop/internal/server/sessions"
	"github.com/okovalenko/mediadrop/internal/server/web"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// sessionPurgeInterval is how often expired rows are swept from the
// database session backend.
const sessionPurgeInterval = time.Hour

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB

	mediaService *services.MediaService
	sessionStore sessions.Store
	webServer    *web.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	blobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	sessionStore, err := newSessionStore(cfg, rm, db)
	if err != nil {
		return nil, fmt.Errorf("session store init error: %w", err)
	}

	us := services.NewUserService(db, rm)
	ms := services.NewMediaService(db, rm, blobs, logger)

	ws := web.NewServer(cfg, logger, us, ms, sessionStore, blobs)

	return &App{
		config:       cfg,
		logger:       logger,
		db:           db,
		mediaService: ms,
		sessionStore: sessionStore,
		webServer:    ws,
	}, nil
}

func newBlobStore(ctx context.Context, cfg *config.Config) (blob.Store, error) {
	switch cfg.BlobBackend {
	case config.BlobBackendS3:
		return blob.NewS3Store(ctx, cfg)
	case config.BlobBackendLocal:
		return blob.NewLocalStore(cfg.UploadDir)
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}
}

func newSessionStore(cfg *config.Config, rm repomanager.RepositoryManager, db *sql.DB) (sessions.Store, error) {
	switch cfg.SessionBackend {
	case config.SessionBackendDatabase:
		return sessions.NewDatabaseStore(rm.Sessions(db)), nil
	case config.SessionBackendMemory:
		return sessions.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startWebServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.webServer.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// runReconciler periodically removes blobs no catalog row references.
func (app *App) runReconciler(ctx context.Context) {
	ticker := time.NewTicker(app.config.ReconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := app.mediaService.Reconcile(ctx)
			if err != nil {
				app.logger.Error(ctx, "reconcile error", "error", err)
				continue
			}
			if removed > 0 {
				app.logger.Info(ctx, "reconcile removed orphaned blobs", "count", removed)
			}
		}
	}
}

// runSessionPurger sweeps expired sessions from the database backend.
func (app *App) runSessionPurger(ctx context.Context, store *sessions.DatabaseStore) {
	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.PurgeExpired(ctx); err != nil {
				app.logger.Error(ctx, "session purge error", "error", err)
			}
		}
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startWebServer(ctx, cancelFunc)
	}()

	if app.config.ReconcileInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.runReconciler(ctx)
		}()
	}

	if store, ok := app.sessionStore.(*sessions.DatabaseStore); ok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.runSessionPurger(ctx, store)
		}()
	}

	wg.Wait()

	if store, ok := app.sessionStore.(*sessions.MemoryStore); ok {
		store.Close()
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}
