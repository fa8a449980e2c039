package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"
)

// sessionCookieName carries the consent flow session id, signed with SESSION_SECRET.
const sessionCookieName = "enedis_session"

// sessionFromRequest returns the session id of a correctly signed cookie.
func (s *Server) sessionFromRequest(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return "", false
	}
	id, sig, ok := strings.Cut(cookie.Value, ".")
	if !ok || id == "" {
		return "", false
	}
	expected := s.signSessionID(id)
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return "", false
	}
	return id, true
}

// ensureSession reuses the caller's session or starts a new one and sets its cookie.
func (s *Server) ensureSession(w http.ResponseWriter, r *http.Request) string {
	if id, ok := s.sessionFromRequest(r); ok {
		return id
	}
	id := uuid.NewString()
	s.SetSessionCookie(w, r, id)
	return id
}

func (s *Server) SetSessionCookie(w http.ResponseWriter, r *http.Request, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID + "." + s.signSessionID(sessionID),
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.config.Security.SessionMaxAge.Seconds()),
	})
}

// deriveCookieKey expands SESSION_SECRET into the key used to sign session cookies.
func deriveCookieKey(secret string) []byte {
	key := make([]byte, sha256.Size)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte("enedis-gateway session cookie"))
	if _, err := io.ReadFull(r, key); err != nil {
		panic(err)
	}
	return key
}

func (s *Server) signSessionID(id string) string {
	mac := hmac.New(sha256.New, s.cookieKey)
	mac.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
