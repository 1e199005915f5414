package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/jaytnw/sage-insights/internal/apperr"
	"github.com/jaytnw/sage-insights/internal/services"
	"github.com/jaytnw/sage-insights/internal/session"
	"github.com/jaytnw/sage-insights/internal/utils"
	"github.com/jaytnw/sage-insights/internal/view"
)

type InsightsHandler struct {
	pages     *view.Registry
	labs      services.LabService
	loginPath string
}

func NewInsightsHandler(pages *view.Registry, labs services.LabService, loginPath string) *InsightsHandler {
	return &InsightsHandler{pages: pages, labs: labs, loginPath: loginPath}
}

type selectLabRequest struct {
	LabID string `json:"labId"`
}

// Page renders the insights page. Each load re-mounts the page; ?labId=
// picks the lab when the user has access to it.
func (h *InsightsHandler) Page(c fiber.Ctx) error {
	sess := session.FromCtx(c)
	page := h.pages.Page(sess.UserID)

	snap := page.Mount(c.Context(), sess, strings.TrimSpace(c.Query("labId")))
	return render(c, h.loginPath, "AI Insights", insightsTmpl, snap)
}

func (h *InsightsHandler) GetSnapshot(c fiber.Ctx) error {
	sess := session.FromCtx(c)
	snap := h.pages.Page(sess.UserID).Snapshot()
	return utils.JSON(c, fiber.StatusOK, snap)
}

func (h *InsightsHandler) SelectLab(c fiber.Ctx) error {
	sess := session.FromCtx(c)

	var req selectLabRequest
	if err := c.Bind().Body(&req); err != nil {
		return utils.AppError(c, apperr.New("BAD_REQUEST", "Invalid request body", fiber.StatusBadRequest, err), "BAD_REQUEST")
	}

	snap := h.pages.Page(sess.UserID).SelectLab(c.Context(), strings.TrimSpace(req.LabID))
	return utils.JSON(c, fiber.StatusOK, snap)
}

// GetLabs lists the labs the signed-in user can pick from. Unlike the page,
// an upstream failure surfaces as an error response.
func (h *InsightsHandler) GetLabs(c fiber.Ctx) error {
	sess := session.FromCtx(c)

	labs, err := h.labs.GetLabsForUser(c.Context(), sess.UserID)
	if err != nil {
		return utils.AppError(c, err, "INTERNAL_ERROR")
	}
	return utils.JSON(c, fiber.StatusOK, labs)
}
