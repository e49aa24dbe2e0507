package httpapi

import (
	"context"
	"crypto/sha256"
	"errors"
	"net/http"

	"github.com/BearBump/PickupBox/internal/apperrors"
	"github.com/BearBump/PickupBox/internal/services/scheduler"
	"github.com/gorilla/sessions"
	"golang.org/x/crypto/bcrypt"
)

const sessionName = "pickupbox-session"

const (
	sessionKeyRole     = "role"
	sessionKeyOwnerKey = "owner_key"
)

// NewCookieStore derives a 32-byte signing key from secret.
func NewCookieStore(secret string, secure bool) *sessions.CookieStore {
	key := sha256.Sum256([]byte(secret))
	st := sessions.NewCookieStore(key[:])
	st.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   8 * 3600,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return st
}

type ctxKey struct{}

func sessionFrom(ctx context.Context) scheduler.Session {
	sess, _ := ctx.Value(ctxKey{}).(scheduler.Session)
	return sess
}

func (s *Server) loadSession(r *http.Request) (scheduler.Session, bool) {
	cs, err := s.sessions.Get(r, sessionName)
	if err != nil || cs.IsNew {
		return scheduler.Session{}, false
	}
	role, _ := cs.Values[sessionKeyRole].(string)
	key, _ := cs.Values[sessionKeyOwnerKey].(string)
	switch scheduler.Role(role) {
	case scheduler.RoleOperator:
		return scheduler.OperatorSession(), true
	case scheduler.RoleOwner:
		if key == "" {
			return scheduler.Session{}, false
		}
		return scheduler.OwnerSession(key), true
	default:
		return scheduler.Session{}, false
	}
}

func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.loadSession(r)
		if !ok {
			writeProblem(w, http.StatusUnauthorized, "unauthenticated", "login required")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, sess)))
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decode(w, r, &req) {
		return
	}

	var sess scheduler.Session
	registered := false
	switch scheduler.Role(req.Role) {
	case scheduler.RoleOperator:
		if s.opts.OperatorPasswordHash == "" ||
			bcrypt.CompareHashAndPassword([]byte(s.opts.OperatorPasswordHash), []byte(req.Password)) != nil {
			writeProblem(w, http.StatusUnauthorized, "unauthenticated", "invalid credentials")
			return
		}
		sess = scheduler.OperatorSession()
		registered = true
	default:
		if req.OwnerKey == "" {
			writeError(w, apperrors.Validation("owner_key", "required"))
			return
		}
		sess = scheduler.OwnerSession(req.OwnerKey)
		// Unregistered owners log in to register themselves.
		_, err := s.owners.Get(r.Context(), sess, req.OwnerKey)
		switch {
		case err == nil:
			registered = true
		case errors.Is(err, apperrors.ErrNotFound):
		default:
			writeError(w, err)
			return
		}
	}

	cs, _ := s.sessions.Get(r, sessionName)
	cs.Values[sessionKeyRole] = string(sess.Role)
	cs.Values[sessionKeyOwnerKey] = sess.OwnerKey
	if err := cs.Save(r, w); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Role: string(sess.Role), OwnerKey: sess.OwnerKey, Registered: registered})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	cs, _ := s.sessions.Get(r, sessionName)
	cs.Options.MaxAge = -1
	delete(cs.Values, sessionKeyRole)
	delete(cs.Values, sessionKeyOwnerKey)
	if err := cs.Save(r, w); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
