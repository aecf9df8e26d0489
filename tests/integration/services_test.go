//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListServices(t *testing.T) {
	client := newTestClient(t)

	resp, err := client.GET("/api/v1/services")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var services []serviceView
	decodeData(t, resp, &services)

	assert.Len(t, services, 40)
	for _, svc := range services {
		assert.NotEmpty(t, svc.ID)
		assert.NotEmpty(t, svc.Name)
		assert.Contains(t, []string{"internal", "external"}, svc.Type)
		assert.Contains(t, []string{"healthy", "degraded", "down"}, svc.Status)
		assert.GreaterOrEqual(t, svc.Health, 0)
		assert.LessOrEqual(t, svc.Health, 100)
		assert.NotContains(t, svc.Dependencies, svc.ID)
	}
}

func TestListServices_StatusFilter(t *testing.T) {
	client := newTestClient(t)

	resp, err := client.GET("/api/v1/services?status=healthy")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var services []serviceView
	decodeData(t, resp, &services)
	for _, svc := range services {
		assert.Equal(t, "healthy", svc.Status)
	}
}

func TestListServices_InvalidStatusFilter(t *testing.T) {
	client := newTestClientWithoutValidation()

	resp, err := client.GET("/api/v1/services?status=exploded")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestGetService(t *testing.T) {
	client := newTestClient(t)
	svc := firstService(t, client)

	resp, err := client.GET("/api/v1/services/" + svc.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got serviceView
	decodeData(t, resp, &got)
	assert.Equal(t, svc.ID, got.ID)
	assert.Equal(t, svc.Name, got.Name)
}

func TestGetService_NotFound(t *testing.T) {
	client := newTestClient(t)

	resp, err := client.GET("/api/v1/services/no-such-service")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "service not found", errorMessage(t, resp))
}

func TestUpdateService(t *testing.T) {
	client := newOperatorClient(t)
	svc := firstService(t, client)

	resp, err := client.PATCH("/api/v1/services/"+svc.ID, map[string]interface{}{
		"status": "degraded",
		"health": 42,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got serviceView
	decodeData(t, resp, &got)
	assert.Equal(t, "degraded", got.Status)
	assert.Equal(t, 42, got.Health)
}

func TestUpdateService_InvalidStatus(t *testing.T) {
	client := newOperatorClient(t).WithoutValidation()
	svc := firstService(t, client)

	resp, err := client.PATCH("/api/v1/services/"+svc.ID, map[string]string{
		"status": "on-fire",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestUpdateService_NotFound(t *testing.T) {
	client := newOperatorClient(t)

	resp, err := client.PATCH("/api/v1/services/no-such-service", map[string]int{
		"health": 10,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestServiceMetrics(t *testing.T) {
	client := newTestClient(t)
	svc := firstService(t, client)

	resp, err := client.GET("/api/v1/services/" + svc.ID + "/metrics?n=5")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var samples []struct {
		ServiceID      string `json:"service_id"`
		ResponseTimeMs int    `json:"response_time_ms"`
	}
	decodeData(t, resp, &samples)

	// Each call generates one fresh sample, so there is at least one.
	require.NotEmpty(t, samples)
	for _, s := range samples {
		assert.Equal(t, svc.ID, s.ServiceID)
		assert.GreaterOrEqual(t, s.ResponseTimeMs, 0)
	}
}

func TestServiceMetrics_NotFound(t *testing.T) {
	client := newTestClient(t)

	resp, err := client.GET("/api/v1/services/no-such-service/metrics")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}
