// Package auth gates the dashboard API behind a signed session cookie.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// CookieName is the session cookie.
const CookieName = "auth-token"

// Options configures Sessions.
type Options struct {
	Username     string
	Password     string
	PasswordHash string // bcrypt; wins over Password when set
	Secret       string // random when empty, invalidating sessions on restart
	TTL          time.Duration
	CookieSecure bool
}

// Claims is the signed session payload.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Sessions issues and verifies HS256 session tokens.
type Sessions struct {
	opts   Options
	secret []byte
	logger *slog.Logger
	now    func() time.Time
}

func New(opts Options, logger *slog.Logger) *Sessions {
	if opts.TTL <= 0 {
		opts.TTL = 8 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	secret := []byte(opts.Secret)
	if len(secret) == 0 {
		secret = []byte(GenerateSecret())
		logger.Warn("no session secret configured, using a random one")
	}
	return &Sessions{opts: opts, secret: secret, logger: logger, now: time.Now}
}

// GenerateSecret returns 32 random bytes, URL-safe base64 encoded.
func GenerateSecret() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}

// HashPassword returns a bcrypt hash suitable for Options.PasswordHash.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(b), err
}

// CheckCredentials compares in constant time, or via bcrypt when a hash is configured.
func (s *Sessions) CheckCredentials(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.opts.Username)) == 1
	var passOK bool
	if s.opts.PasswordHash != "" {
		passOK = bcrypt.CompareHashAndPassword([]byte(s.opts.PasswordHash), []byte(password)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(s.opts.Password)) == 1
	}
	return userOK && passOK
}

// Issue signs a token for username.
func (s *Sessions) Issue(username string) (string, error) {
	now := s.now()
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.opts.TTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify parses and validates a token.
func (s *Sessions) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Username == "" {
		return nil, errors.New("token has no username")
	}
	return claims, nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST {username,password} and sets the session cookie.
func (s *Sessions) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request"})
		return
	}
	if !s.CheckCredentials(req.Username, req.Password) {
		s.logger.Info("login rejected", "username", req.Username, "remote", r.RemoteAddr)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		return
	}
	token, err := s.Issue(req.Username)
	if err != nil {
		s.logger.Error("sign session", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Server error"})
		return
	}
	s.setCookie(w, token, int(s.opts.TTL.Seconds()))
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Logout clears the session cookie.
func (s *Sessions) Logout(w http.ResponseWriter, r *http.Request) {
	s.setCookie(w, "", -1)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Require rejects requests without a valid session with 401, deleting a
// stale cookie. The username is available downstream via UsernameFrom.
func (s *Sessions) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(CookieName)
		if err != nil || c.Value == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			return
		}
		claims, err := s.Verify(c.Value)
		if err != nil {
			s.setCookie(w, "", -1)
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), usernameKey{}, claims.Username)))
	})
}

type usernameKey struct{}

// UsernameFrom returns the authenticated username set by Require.
func UsernameFrom(ctx context.Context) (string, bool) {
	u, ok := ctx.Value(usernameKey{}).(string)
	return u, ok
}

func (s *Sessions) setCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		MaxAge:   maxAge,
		SameSite: http.SameSiteLaxMode,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
