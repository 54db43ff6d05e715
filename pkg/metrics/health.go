package metrics

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// HealthStatus is the aggregate health of the judging process, served over
// /healthz for a liveness probe in front of a long-running "judge serve"
// worker.
type HealthStatus struct {
	Status     string                     `json:"status"` // "healthy", "unhealthy"
	Timestamp  time.Time                  `json:"timestamp"`
	Subsystems map[string]SubsystemHealth `json:"subsystems,omitempty"`
	Version    string                     `json:"version,omitempty"`
	Uptime     string                     `json:"uptime,omitempty"`
}

// SubsystemHealth is the most recent observation of one dependency a
// session relies on (the docker daemon, the cgroup filesystem, ...),
// tagged with the session that made the observation. A failing subsystem
// reported by one session doesn't mean every session is failing the same
// way, but an operator watching /healthz needs to know which run to go
// look at.
type SubsystemHealth struct {
	Healthy       bool      `json:"healthy"`
	Message       string    `json:"message,omitempty"`
	LastSessionID string    `json:"last_session_id,omitempty"`
	ObservedAt    time.Time `json:"observed_at"`
}

type healthRegistry struct {
	mu         sync.RWMutex
	subsystems map[string]SubsystemHealth
	startTime  time.Time
	version    string
}

var registry = &healthRegistry{
	subsystems: make(map[string]SubsystemHealth),
	startTime:  time.Now(),
}

// SetVersion sets the version string reported by GetHealth.
func SetVersion(version string) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.version = version
}

// RecordSubsystem records the health of a named dependency (e.g. "docker",
// "cgroupfs") as observed by sessionID, overwriting that subsystem's prior
// observation regardless of which session made it.
func RecordSubsystem(name, sessionID string, healthy bool, message string) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.subsystems[name] = SubsystemHealth{
		Healthy:       healthy,
		Message:       message,
		LastSessionID: sessionID,
		ObservedAt:    time.Now(),
	}
}

// GetHealth returns the current aggregate health status. The process is
// unhealthy if any subsystem's most recent observation, from any session,
// reported one.
func GetHealth() HealthStatus {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	status := "healthy"
	subsystems := make(map[string]SubsystemHealth, len(registry.subsystems))
	for name, s := range registry.subsystems {
		if !s.Healthy {
			status = "unhealthy"
		}
		subsystems[name] = s
	}

	return HealthStatus{
		Status:     status,
		Timestamp:  time.Now(),
		Subsystems: subsystems,
		Version:    registry.version,
		Uptime:     time.Since(registry.startTime).String(),
	}
}

// HealthHandler serves the aggregate health status as JSON, returning
// ServiceUnavailable when any subsystem's last observation was unhealthy.
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := GetHealth()
		w.Header().Set("Content-Type", "application/json")
		if h.Status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(h)
	}
}
