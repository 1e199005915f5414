// Package session checks for the signed-in marker and user record the login
// flow leaves behind. It does not authenticate anyone; a well-formed pair of
// cookies is enough to pass.
package session

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gorilla/securecookie"
	"github.com/jaytnw/sage-insights/internal/utils"
	"go.uber.org/zap"
)

const (
	markerCookie = "isLoggedIn"
	userCookie   = "user"
	localsKey    = "session"
	maxAge       = 7 * 24 * time.Hour
)

var ErrNoSession = errors.New("no valid session")

// User is the stored user record. Only the id is required.
type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Session is handed explicitly to whatever needs the signed-in user.
type Session struct {
	UserID string
	User   User
}

type Gate struct {
	codec     *securecookie.SecureCookie
	loginPath string
	secure    bool
	logger    *zap.Logger
}

// NewGate builds the gate. blockKey may be empty to sign without encrypting.
func NewGate(hashKey, blockKey, loginPath string, secure bool, logger *zap.Logger) (*Gate, error) {
	if hashKey == "" {
		return nil, errors.New("session hash key is empty")
	}
	if len(hashKey) < 32 {
		logger.Warn("session hash key is shorter than 32 bytes", zap.Int("length", len(hashKey)))
	}

	var block []byte
	if blockKey != "" {
		switch len(blockKey) {
		case 16, 24, 32:
			block = []byte(blockKey)
		default:
			return nil, errors.New("session block key must be 16, 24 or 32 bytes")
		}
	}

	codec := securecookie.New([]byte(hashKey), block)
	codec.MaxAge(int(maxAge.Seconds()))

	return &Gate{
		codec:     codec,
		loginPath: loginPath,
		secure:    secure,
		logger:    logger,
	}, nil
}

func (g *Gate) LoginPath() string {
	return g.loginPath
}

// Lookup decodes the raw cookie values. Any missing, tampered or
// unparseable part yields ErrNoSession.
func (g *Gate) Lookup(marker, user string) (*Session, error) {
	if marker == "" || user == "" {
		return nil, ErrNoSession
	}

	var loggedIn string
	if err := g.codec.Decode(markerCookie, marker, &loggedIn); err != nil || loggedIn != "true" {
		return nil, ErrNoSession
	}

	var raw string
	if err := g.codec.Decode(userCookie, user, &raw); err != nil {
		return nil, ErrNoSession
	}

	var record User
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		g.logger.Warn("unparseable user record in session", zap.Error(err))
		return nil, ErrNoSession
	}
	if record.ID == "" {
		return nil, ErrNoSession
	}

	return &Session{UserID: record.ID, User: record}, nil
}

func (g *Gate) lookup(c fiber.Ctx) (*Session, error) {
	return g.Lookup(c.Cookies(markerCookie), c.Cookies(userCookie))
}

// RequirePage sends visitors without a session to the login page.
func (g *Gate) RequirePage(c fiber.Ctx) error {
	sess, err := g.lookup(c)
	if err != nil {
		return c.Redirect().Status(http.StatusSeeOther).To(g.loginPath)
	}
	c.Locals(localsKey, sess)
	return c.Next()
}

// RequireAPI answers 401 instead of redirecting.
func (g *Gate) RequireAPI(c fiber.Ctx) error {
	sess, err := g.lookup(c)
	if err != nil {
		return utils.Error(c, fiber.StatusUnauthorized, "Not signed in", "UNAUTHORIZED")
	}
	c.Locals(localsKey, sess)
	return c.Next()
}

// Establish writes the session cookies for user.
func (g *Gate) Establish(c fiber.Ctx, user User) error {
	if user.ID == "" {
		return errors.New("user id is required")
	}

	record, err := json.Marshal(user)
	if err != nil {
		return err
	}

	marker, err := g.codec.Encode(markerCookie, "true")
	if err != nil {
		return err
	}
	encodedUser, err := g.codec.Encode(userCookie, string(record))
	if err != nil {
		return err
	}

	expires := time.Now().Add(maxAge)
	c.Cookie(g.cookie(markerCookie, marker, expires))
	c.Cookie(g.cookie(userCookie, encodedUser, expires))
	return nil
}

func (g *Gate) Clear(c fiber.Ctx) {
	past := time.Unix(0, 0)
	c.Cookie(g.cookie(markerCookie, "", past))
	c.Cookie(g.cookie(userCookie, "", past))
}

// Peek returns the session if the request carries one, without enforcing it.
func (g *Gate) Peek(c fiber.Ctx) *Session {
	sess, err := g.lookup(c)
	if err != nil {
		return nil
	}
	return sess
}

func (g *Gate) cookie(name, value string, expires time.Time) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		Secure:   g.secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}

// FromCtx returns the session stored by RequirePage or RequireAPI.
func FromCtx(c fiber.Ctx) *Session {
	sess, _ := c.Locals(localsKey).(*Session)
	return sess
}
