package auth_test

import (
	"testing"

	"github.com/cvforge/cvforge/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestHealthEndpoints verifies the liveness and readiness probes of a
// freshly started service.
func TestHealthEndpoints(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewClient(baseURL)

	health, err := client.GetLiveness(t.Context())
	require.NoError(t, err)
	require.Equal(t, "ok", health.Status)
	require.NotEmpty(t, health.Version, "Liveness should report the build version")

	health, err = client.GetReadiness(t.Context())
	require.NoError(t, err)
	require.Equal(t, "ok", health.Status)
	require.NotNil(t, health.Checks, "Readiness should report dependency checks")
	require.Equal(t, "ok", health.Checks.Database)
	require.NotEmpty(t, health.Uptime, "Readiness should report uptime")
}
