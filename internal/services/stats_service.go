package services

import (
	"context"
	"time"

	"github.com/jaytnw/sage-insights/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// telemetryWindowSeconds is the span assumed per machine when no machine in
// the lab reported any downtime telemetry.
const telemetryWindowSeconds = 7 * 24 * 60 * 60

type StatsService interface {
	// ComputeMaintenanceStats always recomputes from the backend. The error
	// is non-nil only when the machine or work-order fetch fails; callers
	// then show models.FallbackStats.
	ComputeMaintenanceStats(ctx context.Context, labID string) (*models.MaintenanceStats, []models.Machine, error)
}

type statsService struct {
	externalAPI       ExternalAPIService
	downtimeTimeRange string
	concurrency       int
	logger            *zap.Logger
	now               func() time.Time
}

// NewStatsService wires the aggregator. concurrency caps the in-flight
// downtime requests; zero or less means no cap.
func NewStatsService(api ExternalAPIService, downtimeTimeRange string, concurrency int, logger *zap.Logger) StatsService {
	if downtimeTimeRange == "" {
		downtimeTimeRange = "-7d"
	}
	return &statsService{
		externalAPI:       api,
		downtimeTimeRange: downtimeTimeRange,
		concurrency:       concurrency,
		logger:            logger,
		now:               time.Now,
	}
}

func (s *statsService) ComputeMaintenanceStats(ctx context.Context, labID string) (*models.MaintenanceStats, []models.Machine, error) {
	start := time.Now()

	// Step 1: machines in the lab
	machines, err := s.externalAPI.FetchMachines(ctx, labID)
	if err != nil {
		return nil, nil, err
	}
	if len(machines) == 0 {
		return models.EmptyLabStats(), machines, nil
	}

	machineIDs := models.MachineIDs(machines)
	inLab := make(map[string]struct{}, len(machineIDs))
	for _, id := range machineIDs {
		inLab[id] = struct{}{}
	}

	// Step 2: work orders from the past calendar month for those machines
	workOrders, err := s.externalAPI.FetchWorkOrders(ctx)
	if err != nil {
		return nil, nil, err
	}

	since := s.now().AddDate(0, -1, 0)
	scheduled := 0
	withMaintenance := []string{}
	seen := make(map[string]struct{})
	for _, wo := range workOrders {
		ts, ok := wo.EffectiveTime()
		if !ok || ts.Before(since) {
			continue
		}
		if _, ok := inLab[wo.MachineID]; !ok {
			continue
		}

		scheduled++
		if _, dup := seen[wo.MachineID]; !dup {
			seen[wo.MachineID] = struct{}{}
			withMaintenance = append(withMaintenance, wo.MachineID)
		}
	}

	// Step 3: downtime per machine, each request isolated
	samples := s.fetchDowntime(ctx, machineIDs)

	var totalDowntime, totalUptime, totalTimePeriod float64
	for _, sample := range samples {
		totalDowntime += sample.TotalDowntime
		totalUptime += sample.TotalUptime
		totalTimePeriod += sample.Total()
	}

	// No telemetry at all counts as fully up.
	if totalTimePeriod == 0 {
		totalTimePeriod = float64(telemetryWindowSeconds * len(machineIDs))
		totalUptime = totalTimePeriod
		totalDowntime = 0
	}

	stats := &models.MaintenanceStats{
		TotalMachines:             len(machines),
		ScheduledMaintenanceCount: scheduled,
		MachinesWithMaintenance:   withMaintenance,
		TotalDowntime:             totalDowntime,
		TotalUptime:               totalUptime,
		UptimePercentage:          100,
	}
	if totalTimePeriod > 0 {
		stats.DowntimePercentage = totalDowntime / totalTimePeriod * 100
		stats.UptimePercentage = totalUptime / totalTimePeriod * 100
	}

	s.logger.Debug("maintenance stats computed",
		zap.String("lab_id", labID),
		zap.Int("machines", len(machines)),
		zap.Int("work_orders", scheduled),
		zap.Duration("took", time.Since(start)),
	)
	return stats, machines, nil
}

// fetchDowntime returns one sample per machine id, in order. Failed or empty
// responses leave a zero sample in that machine's slot.
func (s *statsService) fetchDowntime(ctx context.Context, machineIDs []string) []models.DowntimeSample {
	samples := make([]models.DowntimeSample, len(machineIDs))

	var g errgroup.Group
	if s.concurrency > 0 {
		g.SetLimit(s.concurrency)
	}

	for i, machineID := range machineIDs {
		g.Go(func() error {
			sample, err := s.externalAPI.FetchDowntime(ctx, machineID, s.downtimeTimeRange)
			if err != nil {
				s.logger.Warn("downtime fetch failed",
					zap.String("machine_id", machineID),
					zap.Error(err),
				)
				return nil
			}
			if sample != nil {
				samples[i] = *sample
			}
			return nil
		})
	}

	_ = g.Wait()
	return samples
}
