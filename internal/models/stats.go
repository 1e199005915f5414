package models

// MaintenanceStats is recomputed on every lab selection and never merged
// with a previous value.
type MaintenanceStats struct {
	TotalMachines             int      `json:"totalMachines"`
	ScheduledMaintenanceCount int      `json:"scheduledMaintenanceCount"`
	MachinesWithMaintenance   []string `json:"machinesWithMaintenance"`
	TotalDowntime             float64  `json:"totalDowntime"`
	TotalUptime               float64  `json:"totalUptime"`
	DowntimePercentage        float64  `json:"downtimePercentage"`
	UptimePercentage          float64  `json:"uptimePercentage"`
}

// EmptyLabStats is the result for a lab without machines.
func EmptyLabStats() *MaintenanceStats {
	return FallbackStats(0)
}

// FallbackStats is shown when a computation fails: zero counts and full
// uptime, keeping the last machine count known for the same lab.
func FallbackStats(lastKnownMachines int) *MaintenanceStats {
	return &MaintenanceStats{
		TotalMachines:           lastKnownMachines,
		MachinesWithMaintenance: []string{},
		UptimePercentage:        100,
	}
}
