//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerServiceFailure(t *testing.T) {
	client := newOperatorClient(t)
	svc := firstService(t, client)

	resp, err := client.POST("/api/v1/demo/failures/"+svc.ID, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got serviceView
	decodeData(t, resp, &got)
	assert.Equal(t, "down", got.Status)
	assert.Equal(t, 0, got.Health)

	// A high-severity incident references the failed service.
	resp, err = client.GET("/api/v1/incidents?status=open")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var incidents []struct {
		Severity   string   `json:"severity"`
		ServiceIDs []string `json:"service_ids"`
	}
	decodeData(t, resp, &incidents)

	found := false
	for _, inc := range incidents {
		for _, id := range inc.ServiceIDs {
			if id == svc.ID && inc.Severity == "high" {
				found = true
			}
		}
	}
	assert.True(t, found, "expected an open high-severity incident for %s", svc.ID)
}

func TestTriggerServiceFailure_NotFound(t *testing.T) {
	client := newOperatorClient(t)

	resp, err := client.POST("/api/v1/demo/failures/no-such-service", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestTriggerCascadeFailure(t *testing.T) {
	client := newOperatorClient(t)

	resp, err := client.POST("/api/v1/demo/cascade", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var result struct {
		Primary      serviceView `json:"primary"`
		DependentIDs []string    `json:"dependent_ids"`
		Incident     struct {
			Severity string `json:"severity"`
		} `json:"incident"`
	}
	decodeData(t, resp, &result)

	assert.Equal(t, "internal", result.Primary.Type)
	assert.Equal(t, "critical", result.Incident.Severity)

	// The primary goes down immediately; dependents degrade later.
	svcResp, err := client.GET("/api/v1/services/" + result.Primary.ID)
	require.NoError(t, err)
	var primary serviceView
	decodeData(t, svcResp, &primary)
	assert.Equal(t, "down", primary.Status)
}

func TestResolveAllIncidents(t *testing.T) {
	client := newOperatorClient(t)
	svc := firstService(t, client)

	resp, err := client.POST("/api/v1/demo/failures/"+svc.ID, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()

	resp, err = client.POST("/api/v1/incidents/resolve-all", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = client.GET("/api/v1/incidents?status=open")
	require.NoError(t, err)
	var open []struct{}
	decodeData(t, resp, &open)
	assert.Empty(t, open)

	resp, err = client.GET("/api/v1/services")
	require.NoError(t, err)
	var services []serviceView
	decodeData(t, resp, &services)
	for _, s := range services {
		assert.Equal(t, "healthy", s.Status)
		assert.GreaterOrEqual(t, s.Health, 95)
	}
}

func TestScenarioLifecycle(t *testing.T) {
	client := newOperatorClient(t)

	// No scenario running yet.
	resp, err := client.GET("/api/v1/demo/scenario")
	require.NoError(t, err)
	if resp.StatusCode == http.StatusOK {
		// A previous test may have left one running; stop it first.
		_ = resp.Body.Close()
		stopResp, err := client.DELETE("/api/v1/demo/scenario")
		require.NoError(t, err)
		_ = stopResp.Body.Close()
	} else {
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		_ = resp.Body.Close()
	}

	// Built-in catalog is listable.
	resp, err = client.GET("/api/v1/demo/scenarios")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var catalog []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	decodeData(t, resp, &catalog)
	require.NotEmpty(t, catalog)

	ids := make([]string, 0, len(catalog))
	for _, sc := range catalog {
		ids = append(ids, sc.ID)
	}
	assert.Contains(t, ids, "major-outage")
	assert.Contains(t, ids, "release-night")

	// Start by catalog reference.
	resp, err = client.POST("/api/v1/demo/scenario", map[string]string{"id": "major-outage"})
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = client.GET("/api/v1/demo/scenario")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var active struct {
		ID string `json:"id"`
	}
	decodeData(t, resp, &active)
	assert.Equal(t, "major-outage", active.ID)

	// Starting another scenario replaces the first.
	resp, err = client.POST("/api/v1/demo/scenario", map[string]string{"id": "release-night"})
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = client.GET("/api/v1/demo/scenario")
	require.NoError(t, err)
	decodeData(t, resp, &active)
	assert.Equal(t, "release-night", active.ID)

	// Stop.
	resp, err = client.DELETE("/api/v1/demo/scenario")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = client.GET("/api/v1/demo/scenario")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestStartScenario_CustomDefinition(t *testing.T) {
	client := newOperatorClient(t)
	defer func() {
		resp, _ := client.DELETE("/api/v1/demo/scenario")
		if resp != nil {
			_ = resp.Body.Close()
		}
	}()

	resp, err := client.POST("/api/v1/demo/scenario", map[string]interface{}{
		"id":   "custom-drill",
		"name": "Custom Drill",
		"steps": []map[string]interface{}{
			{"time": 5, "action": "resolve-all"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestStartScenario_UnknownID(t *testing.T) {
	client := newOperatorClient(t)

	resp, err := client.POST("/api/v1/demo/scenario", map[string]string{"id": "no-such-scenario"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestStartScenario_NoSteps(t *testing.T) {
	client := newOperatorClient(t).WithoutValidation()

	resp, err := client.POST("/api/v1/demo/scenario", map[string]interface{}{
		"id":    "empty",
		"name":  "Empty",
		"steps": []map[string]interface{}{},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestPreferences(t *testing.T) {
	client := newOperatorClient(t)

	resp, err := client.PUT("/api/v1/preferences", map[string]bool{
		"demo_mode":        true,
		"realtime_enabled": false,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = client.GET("/api/v1/preferences")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var prefs struct {
		DemoMode        bool `json:"demo_mode"`
		RealtimeEnabled bool `json:"realtime_enabled"`
	}
	decodeData(t, resp, &prefs)
	assert.True(t, prefs.DemoMode)
	assert.False(t, prefs.RealtimeEnabled)

	// Restore defaults for other tests.
	resp, err = client.PUT("/api/v1/preferences", map[string]bool{
		"demo_mode":        false,
		"realtime_enabled": true,
	})
	require.NoError(t, err)
	_ = resp.Body.Close()
}

func TestLeavingDemoModeStopsScenario(t *testing.T) {
	client := newOperatorClient(t)

	resp, err := client.POST("/api/v1/demo/scenario", map[string]string{"id": "major-outage"})
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = client.PUT("/api/v1/preferences", map[string]bool{
		"demo_mode":        false,
		"realtime_enabled": true,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = client.GET("/api/v1/demo/scenario")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}
