package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/jaytnw/sage-insights/internal/services"
	"go.uber.org/zap"
)

// LabInvalidateHandler evicts a user's cached lab list when the backend
// announces a change on <prefix>/<userId>/invalidate.
type LabInvalidateHandler struct {
	labs   services.LabService
	logger *zap.Logger
}

func NewLabInvalidateHandler(labs services.LabService, logger *zap.Logger) *LabInvalidateHandler {
	return &LabInvalidateHandler{labs: labs, logger: logger}
}

func (h *LabInvalidateHandler) Handle(topic string, _ []byte) {
	parts := strings.Split(topic, "/")
	if len(parts) < 3 || parts[len(parts)-1] != "invalidate" || parts[len(parts)-2] == "" {
		h.logger.Warn("invalid lab invalidate topic", zap.String("topic", topic))
		return
	}
	userID := parts[len(parts)-2]

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := h.labs.Invalidate(ctx, userID); err != nil {
		h.logger.Warn("lab cache invalidate failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	h.logger.Debug("lab cache invalidated", zap.String("user_id", userID))
}
