package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHealthHealthyWithNoSubsystems(t *testing.T) {
	registry.mu.Lock()
	registry.subsystems = make(map[string]SubsystemHealth)
	registry.mu.Unlock()

	h := GetHealth()
	assert.Equal(t, "healthy", h.Status)
	assert.Empty(t, h.Subsystems)
}

func TestGetHealthUnhealthyWhenSubsystemFails(t *testing.T) {
	RecordSubsystem("docker", "arbiter-session-1", false, "daemon unreachable")
	defer RecordSubsystem("docker", "arbiter-session-1", true, "")

	h := GetHealth()
	assert.Equal(t, "unhealthy", h.Status)
	assert.False(t, h.Subsystems["docker"].Healthy)
	assert.Contains(t, h.Subsystems["docker"].Message, "daemon unreachable")
}

func TestRecordSubsystemTracksLastSessionID(t *testing.T) {
	RecordSubsystem("docker", "arbiter-session-a", true, "")
	RecordSubsystem("docker", "arbiter-session-b", true, "")
	defer RecordSubsystem("docker", "", true, "")

	h := GetHealth()
	assert.Equal(t, "arbiter-session-b", h.Subsystems["docker"].LastSessionID)
}

func TestSetVersionReflectedInHealth(t *testing.T) {
	SetVersion("test-version")
	defer SetVersion("")

	h := GetHealth()
	assert.Equal(t, "test-version", h.Version)
}
