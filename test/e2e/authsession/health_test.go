//go:build e2e

package authsession_test

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLivezEndpoint(t *testing.T) {
	e := setupService(t)

	health, err := e.client.GetLiveness(t.Context())
	assertHealthy(t, health, err)
}

func TestReadyzEndpoint(t *testing.T) {
	e := setupService(t)

	health, err := e.client.GetReadiness(t.Context())
	assertHealthy(t, health, err)
	require.NotNil(t, health.Checks)
	require.Equal(t, "ok", health.Checks.Database)
	require.Equal(t, "ok", health.Checks.CodeStore)
}
