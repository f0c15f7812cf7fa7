// Package web exposes the HTTP surface: registration, login, password
// reset, the dashboard, admin upload/delete, and gated playback.
package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/okovalenko/mediadrop/internal/logging"
	"github.com/okovalenko/mediadrop/internal/server/blob"
	"github.com/okovalenko/mediadrop/internal/server/config"
	"github.com/okovalenko/mediadrop/internal/server/models"
	"github.com/okovalenko/mediadrop/internal/server/sessions"
)

// shutdownTimeout caps how long in-flight requests may run after the root
// context is cancelled.
const shutdownTimeout = 5 * time.Second

// UserService is the slice of the credential service the handlers use.
type UserService interface {
	Register(ctx context.Context, username, password, role string) (*models.User, error)
	Verify(ctx context.Context, username, password string) (*models.User, error)
	ResetPassword(ctx context.Context, username, newPassword string) error
}

// MediaService is the slice of the upload/delete orchestrator the handlers use.
type MediaService interface {
	List(ctx context.Context) ([]*models.MediaFile, error)
	Upload(ctx context.Context, content io.Reader, originalName string) (*models.MediaFile, error)
	Delete(ctx context.Context, id int64) error
}

// Server holds dependencies for handling HTTP requests.
type Server struct {
	address  string
	logger   logging.Logger
	users    UserService
	media    MediaService
	sessions sessions.Store
	blobs    blob.Store

	secretKey      []byte
	sessionTTL     time.Duration
	streamTokenTTL time.Duration
}

// NewServer constructs the web server from its collaborators and config.
func NewServer(cfg *config.Config, l logging.Logger, us UserService, ms MediaService, store sessions.Store, blobs blob.Store) *Server {
	return &Server{
		address:        cfg.EndpointAddr,
		logger:         l.With("module", "web"),
		users:          us,
		media:          ms,
		sessions:       store,
		blobs:          blobs,
		secretKey:      []byte(cfg.SecretKey),
		sessionTTL:     cfg.SessionTTL,
		streamTokenTTL: cfg.StreamTokenTTL,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusFound)
	})

	mux.HandleFunc("GET /register", s.registerPage)
	mux.HandleFunc("POST /register", s.registerSubmit)
	mux.HandleFunc("GET /login", s.loginPage)
	mux.HandleFunc("POST /login", s.loginSubmit)
	mux.HandleFunc("GET /reset", s.resetPage)
	mux.HandleFunc("POST /reset", s.resetSubmit)
	mux.HandleFunc("GET /logout", s.logout)

	mux.HandleFunc("GET /dashboard", s.requireUser(s.dashboard))
	mux.HandleFunc("GET /play/{filename}", s.requireUser(s.play))
	mux.HandleFunc("GET /media/{filename}", s.streamMedia)

	mux.HandleFunc("GET /upload", s.requireAdmin(s.uploadPage))
	mux.HandleFunc("POST /upload", s.requireAdmin(s.uploadSubmit))
	mux.HandleFunc("GET /delete/{id}", s.requireAdmin(s.deleteMedia))

	return mux
}

// Run serves HTTP until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.address,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
