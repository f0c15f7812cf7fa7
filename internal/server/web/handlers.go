package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/okovalenko/mediadrop/internal/common"
	"github.com/okovalenko/mediadrop/internal/server/auth"
	"github.com/okovalenko/mediadrop/internal/server/playback"
)

// presigner is implemented by blob backends that can hand out a direct,
// time-limited download URL instead of proxying bytes.
type presigner interface {
	PresignGet(ctx context.Context, storedName string, validity time.Duration) (string, error)
}

func (s *Server) registerPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "register.html", nil)
}

func (s *Server) registerSubmit(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")
	role := r.FormValue("role")

	_, err := s.users.Register(r.Context(), username, password, role)
	switch {
	case err == nil:
		http.Redirect(w, r, "/login", http.StatusFound)
	case errors.Is(err, common.ErrorAlreadyExists):
		s.renderMessage(w, http.StatusConflict, "Username is already taken.", "/register", "Try again")
	case errors.Is(err, common.ErrorValidation):
		s.renderMessage(w, http.StatusBadRequest, "Username and password are required.", "/register", "Try again")
	default:
		s.logger.Error(r.Context(), "register failed", "error", err)
		s.renderMessage(w, http.StatusInternalServerError, "Something went wrong.", "/register", "Try again")
	}
}

func (s *Server) loginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "login.html", nil)
}

func (s *Server) loginSubmit(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	user, err := s.users.Verify(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			s.renderMessage(w, http.StatusUnauthorized, "Invalid credentials.", "/login", "Try again")
			return
		}
		s.logger.Error(r.Context(), "login failed", "error", err)
		s.renderMessage(w, http.StatusInternalServerError, "Something went wrong.", "/login", "Try again")
		return
	}

	// a fresh login replaces any session the browser still holds
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		_ = s.sessions.Delete(r.Context(), cookie.Value)
	}

	session, err := s.sessions.Create(r.Context(), user, s.sessionTTL)
	if err != nil {
		s.logger.Error(r.Context(), "session create failed", "error", err)
		s.renderMessage(w, http.StatusInternalServerError, "Something went wrong.", "/login", "Try again")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func (s *Server) resetPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "reset.html", nil)
}

func (s *Server) resetSubmit(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	err := s.users.ResetPassword(r.Context(), username, password)
	switch {
	case err == nil, errors.Is(err, common.ErrorNotFound):
		// an unknown username gets the same redirect, so the form does not
		// reveal which accounts exist
		http.Redirect(w, r, "/login", http.StatusFound)
	case errors.Is(err, common.ErrorValidation):
		s.renderMessage(w, http.StatusBadRequest, "Username and password are required.", "/reset", "Try again")
	default:
		s.logger.Error(r.Context(), "password reset failed", "error", err)
		s.renderMessage(w, http.StatusInternalServerError, "Something went wrong.", "/reset", "Try again")
	}
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		_ = s.sessions.Delete(r.Context(), cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())

	files, err := s.media.List(r.Context())
	if err != nil {
		s.logger.Error(r.Context(), "media list failed", "error", err)
		s.renderMessage(w, http.StatusInternalServerError, "Something went wrong.", "/dashboard", "Retry")
		return
	}

	s.render(w, http.StatusOK, "dashboard.html", dashboardData{
		Username: session.Username,
		Admin:    session.IsAdmin(),
		Files:    files,
	})
}

func (s *Server) uploadPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "upload.html", nil)
}

func (s *Server) uploadSubmit(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("media")
	if err != nil {
		s.renderMessage(w, http.StatusBadRequest, "File upload failed.", "/upload", "Try again")
		return
	}
	defer file.Close()

	if _, err := s.media.Upload(r.Context(), file, header.Filename); err != nil {
		if errors.Is(err, common.ErrorValidation) {
			s.renderMessage(w, http.StatusBadRequest, "File upload failed.", "/upload", "Try again")
			return
		}
		s.logger.Error(r.Context(), "upload failed", "error", err)
		s.renderMessage(w, http.StatusInternalServerError, "Something went wrong.", "/upload", "Try again")
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func (s *Server) deleteMedia(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := s.media.Delete(r.Context(), id); err != nil {
		s.logger.Error(r.Context(), "delete failed", "id", id, "error", err)
		s.renderMessage(w, http.StatusInternalServerError, "Something went wrong.", "/dashboard", "Back")
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func (s *Server) play(w http.ResponseWriter, r *http.Request) {
	res, err := playback.Resolve(r.Context(), s.blobs, r.PathValue("filename"))
	if err != nil {
		if errors.Is(err, playback.ErrBadName) {
			http.NotFound(w, r)
			return
		}
		s.logger.Error(r.Context(), "playback resolve failed", "error", err)
		s.renderMessage(w, http.StatusInternalServerError, "Something went wrong.", "/dashboard", "Back")
		return
	}
	if !res.Exists {
		s.renderMessage(w, http.StatusNotFound, "File not found.", "/dashboard", "Back")
		return
	}

	token, err := auth.GenerateStreamToken(res.StoredName, s.secretKey, s.streamTokenTTL)
	if err != nil {
		s.logger.Error(r.Context(), "stream token failed", "error", err)
		s.renderMessage(w, http.StatusInternalServerError, "Something went wrong.", "/dashboard", "Back")
		return
	}

	s.render(w, http.StatusOK, "play.html", playData{
		Name:      res.StoredName,
		Video:     res.Video,
		StreamURL: "/media/" + url.PathEscape(res.StoredName) + "?token=" + url.QueryEscape(token),
	})
}

// streamMedia serves the raw bytes of a blob. The request must carry either
// a live session cookie or a stream token minted for exactly this name.
func (s *Server) streamMedia(w http.ResponseWriter, r *http.Request) {
	name, err := playback.CleanName(r.PathValue("filename"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if !s.streamAuthorized(r, name) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	res, err := playback.Resolve(r.Context(), s.blobs, name)
	if err != nil {
		s.logger.Error(r.Context(), "playback resolve failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if !res.Exists {
		http.NotFound(w, r)
		return
	}

	if p, ok := s.blobs.(presigner); ok {
		location, err := p.PresignGet(r.Context(), res.StoredName, s.streamTokenTTL)
		if err != nil {
			s.logger.Error(r.Context(), "presign failed", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, location, http.StatusFound)
		return
	}

	content, err := s.blobs.Open(r.Context(), res.StoredName)
	if err != nil {
		s.logger.Error(r.Context(), "blob open failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	defer content.Close()

	w.Header().Set("Content-Type", res.ContentType)
	if _, err := io.Copy(w, content); err != nil {
		s.logger.Warn(r.Context(), "stream interrupted", "stored_name", res.StoredName, "error", err)
	}
}

func (s *Server) streamAuthorized(r *http.Request, name string) bool {
	if s.sessionFromRequest(r) != nil {
		return true
	}
	token := r.URL.Query().Get("token")
	if token == "" {
		return false
	}
	storedName, err := auth.VerifyStreamToken(token, s.secretKey)
	return err == nil && storedName == name
}
