package view

import (
	"context"
	"sync"

	"github.com/jaytnw/sage-insights/internal/models"
	"github.com/jaytnw/sage-insights/internal/notify"
	"github.com/jaytnw/sage-insights/internal/services"
	"github.com/jaytnw/sage-insights/internal/session"
	"go.uber.org/zap"
)

type State string

const (
	StateLoading      State = "loading"
	StateReady        State = "ready"
	StateStatsLoading State = "stats_loading"
	StateStatsReady   State = "stats_ready"
)

const (
	msgLabsFailed  = "Failed to load labs"
	msgNoLabs      = "No labs found for this user"
	msgStatsFailed = "Failed to load maintenance statistics"
)

// Snapshot is a copy of the page state safe to render after the lock is
// released.
type Snapshot struct {
	State         State                    `json:"state"`
	Labs          []models.Lab             `json:"labs"`
	SelectedLabID string                   `json:"selectedLabId"`
	SelectedLab   *models.Lab              `json:"selectedLab,omitempty"`
	Machines      []models.Machine         `json:"machines"`
	Stats         *models.MaintenanceStats `json:"stats"`
	Notices       []notify.Notification    `json:"notices"`
}

// Page is the insights page of one signed-in user. Every lab selection
// starts a new generation; a computation only commits its result while its
// generation is still the latest.
type Page struct {
	labs     services.LabService
	stats    services.StatsService
	notifier notify.Notifier
	logger   *zap.Logger

	mu         sync.Mutex
	userID     string
	generation uint64
	state      State
	labList    []models.Lab
	selected   string
	machines   []models.Machine
	current    *models.MaintenanceStats
	notices    []notify.Notification
}

func NewPage(labs services.LabService, stats services.StatsService, notifier notify.Notifier, logger *zap.Logger) *Page {
	return &Page{
		labs:     labs,
		stats:    stats,
		notifier: notifier,
		logger:   logger,
		state:    StateLoading,
	}
}

// Mount loads the user's labs and selects preferredLabID when it is one of
// them, otherwise the first lab.
func (p *Page) Mount(ctx context.Context, sess *session.Session, preferredLabID string) Snapshot {
	p.mu.Lock()
	p.generation++
	gen := p.generation
	p.userID = sess.UserID
	p.state = StateLoading
	p.labList = nil
	p.selected = ""
	p.machines = nil
	p.current = nil
	p.mu.Unlock()

	labs, err := p.labs.GetLabsForUser(ctx, sess.UserID)
	if err != nil {
		p.logger.Error("fetch labs failed", zap.String("user_id", sess.UserID), zap.Error(err))
		snap, _ := p.finishMount(ctx, gen, nil, msgLabsFailed)
		return snap
	}

	if len(labs) == 0 {
		snap, _ := p.finishMount(ctx, gen, labs, msgNoLabs)
		return snap
	}
	if snap, ok := p.finishMount(ctx, gen, labs, ""); !ok {
		return snap
	}

	labID := labs[0].ID
	for _, lab := range labs {
		if preferredLabID != "" && lab.ID == preferredLabID {
			labID = lab.ID
			break
		}
	}
	return p.SelectLab(ctx, labID)
}

// finishMount stores the lab list unless a newer mount or selection has
// started in the meantime. A non-empty notice ends the mount: it is queued
// and handed back inside the returned snapshot. Otherwise the snapshot is
// left empty for the selection that follows.
func (p *Page) finishMount(ctx context.Context, gen uint64, labs []models.Lab, notice string) (Snapshot, bool) {
	p.mu.Lock()
	if gen != p.generation {
		snap := p.snapshotLocked()
		p.mu.Unlock()
		return snap, false
	}
	p.labList = labs
	p.state = StateReady
	if notice == "" {
		p.mu.Unlock()
		return Snapshot{}, true
	}

	n := p.queueNotice(notify.LevelError, notice)
	snap := p.snapshotLocked()
	p.mu.Unlock()

	p.deliver(ctx, n)
	return snap, true
}

// SelectLab recomputes the stats for labID. When another selection starts
// before this one resolves, this result is dropped and the snapshot reflects
// the newer selection.
func (p *Page) SelectLab(ctx context.Context, labID string) Snapshot {
	p.mu.Lock()
	p.generation++
	gen := p.generation
	if labID != p.selected {
		p.machines = nil
	}
	p.selected = labID
	p.current = nil
	lastKnown := len(p.machines)
	if labID == "" {
		p.state = StateReady
		snap := p.snapshotLocked()
		p.mu.Unlock()
		return snap
	}
	p.state = StateStatsLoading
	p.mu.Unlock()

	stats, machines, err := p.stats.ComputeMaintenanceStats(ctx, labID)

	p.mu.Lock()
	if gen != p.generation {
		snap := p.snapshotLocked()
		p.mu.Unlock()
		p.logger.Debug("discarding stale stats", zap.String("lab_id", labID), zap.Uint64("generation", gen))
		return snap
	}

	var n *notify.Notification
	if err != nil {
		p.logger.Error("compute maintenance stats failed", zap.String("lab_id", labID), zap.Error(err))
		stats = models.FallbackStats(lastKnown)
		n = p.queueNotice(notify.LevelError, msgStatsFailed)
	} else {
		p.machines = machines
	}
	p.current = stats
	p.state = StateStatsReady
	snap := p.snapshotLocked()
	p.mu.Unlock()

	p.deliver(ctx, n)
	return snap
}

// queueNotice must be called with p.mu held.
func (p *Page) queueNotice(level notify.Level, message string) *notify.Notification {
	n := notify.New(p.userID, level, message)
	p.notices = append(p.notices, n)
	return &n
}

func (p *Page) deliver(ctx context.Context, n *notify.Notification) {
	if n == nil || p.notifier == nil {
		return
	}
	p.notifier.Notify(ctx, *n)
}

// Snapshot copies the current state and drains pending notices.
func (p *Page) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Page) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:         p.state,
		Labs:          append([]models.Lab{}, p.labList...),
		SelectedLabID: p.selected,
		Machines:      append([]models.Machine{}, p.machines...),
		Notices:       p.notices,
	}
	if snap.Notices == nil {
		snap.Notices = []notify.Notification{}
	}
	p.notices = nil

	for i := range snap.Labs {
		if snap.Labs[i].ID == p.selected {
			lab := snap.Labs[i]
			snap.SelectedLab = &lab
			break
		}
	}
	if p.current != nil {
		stats := *p.current
		stats.MachinesWithMaintenance = append([]string{}, p.current.MachinesWithMaintenance...)
		snap.Stats = &stats
	}
	return snap
}
