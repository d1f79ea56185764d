// Package session keeps per-browser state in an HS256-signed cookie.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lshigami/adaptive-survey/config"
	"github.com/rs/zerolog/log"
)

const (
	CookieName = "survey_session"
	contextKey = "session"
	issuer     = "adaptive-survey"
)

// Data is the session payload. Flashes are one-shot notices shown on the
// next rendered page.
type Data struct {
	UserID       uint     `json:"uid,omitempty"`
	Username     string   `json:"usr,omitempty"`
	RespondentID string   `json:"rid,omitempty"`
	Flashes      []string `json:"fl,omitempty"`
}

func (d *Data) LoggedIn() bool {
	return d.UserID != 0
}

func (d *Data) AddFlash(msg string) {
	d.Flashes = append(d.Flashes, msg)
}

// PopFlashes returns pending flashes and clears them.
func (d *Data) PopFlashes() []string {
	out := d.Flashes
	d.Flashes = nil
	return out
}

// EnsureRespondentID returns the anonymous respondent id, generating one on
// first use. The bool reports whether the session changed.
func (d *Data) EnsureRespondentID() (string, bool) {
	if d.RespondentID != "" {
		return d.RespondentID, false
	}
	d.RespondentID = uuid.NewString()
	return d.RespondentID, true
}

// LogIn keeps the respondent id so a user answering surveys before and after
// logging in stays the same respondent.
func (d *Data) LogIn(userID uint, username string) {
	d.UserID = userID
	d.Username = username
}

func (d *Data) LogOut() {
	d.UserID = 0
	d.Username = ""
}

type claims struct {
	Data
	jwt.RegisteredClaims
}

type Manager struct {
	secret []byte
	maxAge time.Duration
	secure bool
	now    func() time.Time
}

func NewManager(cfg *config.Config) *Manager {
	maxAge := cfg.Session.MaxAge
	if maxAge <= 0 {
		maxAge = 30 * 24 * time.Hour
	}
	return &Manager{
		secret: []byte(cfg.Session.Secret),
		maxAge: maxAge,
		secure: cfg.Session.Secure,
		now:    time.Now,
	}
}

// Encode signs d into a cookie value.
func (m *Manager) Encode(d *Data) (string, error) {
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Data: *d,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.maxAge)),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session: %w", err)
	}
	return signed, nil
}

// Decode verifies a cookie value. Expired, tampered or foreign tokens are
// errors.
func (m *Manager) Decode(value string) (*Data, error) {
	var c claims
	token, err := jwt.ParseWithClaims(value, &c, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid session token")
	}
	return &c.Data, nil
}

// Load reads the session from the request cookie. A missing or invalid cookie
// yields an empty session.
func (m *Manager) Load(c *gin.Context) *Data {
	value, err := c.Cookie(CookieName)
	if err != nil || value == "" {
		return &Data{}
	}
	d, err := m.Decode(value)
	if err != nil {
		log.Debug().Err(err).Msg("Session: discarding invalid cookie")
		return &Data{}
	}
	return d
}

// Save writes d back as the session cookie. It must run before the response
// body is written.
func (m *Manager) Save(c *gin.Context, d *Data) error {
	value, err := m.Encode(d)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, value, int(m.maxAge.Seconds()), "/", "", m.secure, true)
	return nil
}

// Attach stores d in the gin context for handlers further down the chain.
func Attach(c *gin.Context, d *Data) {
	c.Set(contextKey, d)
}

// FromContext returns the session attached by the middleware, or an empty one.
func FromContext(c *gin.Context) *Data {
	if v, ok := c.Get(contextKey); ok {
		if d, ok := v.(*Data); ok {
			return d
		}
	}
	d := &Data{}
	Attach(c, d)
	return d
}
