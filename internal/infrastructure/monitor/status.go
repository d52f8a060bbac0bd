package monitor

import "time"

// ProbeStatus is the last result of one probe.
type ProbeStatus struct {
	Healthy  bool   `json:"healthy"`
	Critical bool   `json:"critical"`
	Error    string `json:"error,omitempty"`
}

type Status struct {
	Online     bool                   `json:"online"`
	Probes     map[string]ProbeStatus `json:"probes"`
	Buffer     bool                   `json:"buffer"`
	BufferSize int                    `json:"buffer_size"`
	Pending    map[string]int         `json:"pending,omitempty"`
	LastCheck  time.Time              `json:"last_check"`
}
