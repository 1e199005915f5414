package models

type Lab struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

type MachineStatus string

const (
	MachineActive   MachineStatus = "active"
	MachineInactive MachineStatus = "inactive"
)

type Machine struct {
	ID     string        `json:"_id"`
	Name   string        `json:"machineName"`
	LabID  string        `json:"labId"`
	Status MachineStatus `json:"status"`
}

// DowntimeSample is the per-machine telemetry summary, in seconds.
type DowntimeSample struct {
	TotalDowntime float64 `json:"totalDowntime"`
	TotalUptime   float64 `json:"totalUptime"`
}

func (d DowntimeSample) Total() float64 {
	return d.TotalDowntime + d.TotalUptime
}

func MachineIDs(machines []Machine) []string {
	ids := make([]string, 0, len(machines))
	for _, m := range machines {
		ids = append(ids, m.ID)
	}
	return ids
}
