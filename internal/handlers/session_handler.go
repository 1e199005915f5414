package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/jaytnw/sage-insights/internal/session"
	"github.com/jaytnw/sage-insights/internal/view"
	"go.uber.org/zap"
)

const homePath = "/ai-insights"

// SessionHandler stands in for the login flow: it records who is signed in
// without checking credentials.
type SessionHandler struct {
	gate   *session.Gate
	pages  *view.Registry
	logger *zap.Logger
}

func NewSessionHandler(gate *session.Gate, pages *view.Registry, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{gate: gate, pages: pages, logger: logger}
}

func (h *SessionHandler) LoginPage(c fiber.Ctx) error {
	return render(c, h.gate.LoginPath(), "Sign in", loginTmpl, nil)
}

func (h *SessionHandler) Login(c fiber.Ctx) error {
	user := session.User{
		ID:   strings.TrimSpace(c.FormValue("userId")),
		Name: strings.TrimSpace(c.FormValue("name")),
	}
	if user.ID == "" {
		return c.Redirect().Status(fiber.StatusSeeOther).To(h.gate.LoginPath())
	}

	if err := h.gate.Establish(c, user); err != nil {
		h.logger.Error("establish session failed", zap.Error(err))
		return c.Redirect().Status(fiber.StatusSeeOther).To(h.gate.LoginPath())
	}
	return c.Redirect().Status(fiber.StatusSeeOther).To(homePath)
}

func (h *SessionHandler) Logout(c fiber.Ctx) error {
	if sess := h.gate.Peek(c); sess != nil {
		h.pages.Forget(sess.UserID)
	}
	h.gate.Clear(c)
	return c.Redirect().Status(fiber.StatusSeeOther).To(h.gate.LoginPath())
}
