package view

import (
	"sync"

	"github.com/jaytnw/sage-insights/internal/notify"
	"github.com/jaytnw/sage-insights/internal/services"
	"go.uber.org/zap"
)

// Registry keeps one Page per signed-in user for the life of the process.
type Registry struct {
	labs     services.LabService
	stats    services.StatsService
	notifier notify.Notifier
	logger   *zap.Logger

	mu    sync.Mutex
	pages map[string]*Page
}

func NewRegistry(labs services.LabService, stats services.StatsService, notifier notify.Notifier, logger *zap.Logger) *Registry {
	return &Registry{
		labs:     labs,
		stats:    stats,
		notifier: notifier,
		logger:   logger,
		pages:    make(map[string]*Page),
	}
}

func (r *Registry) Page(userID string) *Page {
	r.mu.Lock()
	defer r.mu.Unlock()

	page, ok := r.pages[userID]
	if !ok {
		page = NewPage(r.labs, r.stats, r.notifier, r.logger.With(zap.String("user_id", userID)))
		page.userID = userID
		r.pages[userID] = page
	}
	return page
}

// Forget drops the page of a user who signed out.
func (r *Registry) Forget(userID string) {
	r.mu.Lock()
	delete(r.pages, userID)
	r.mu.Unlock()
}
