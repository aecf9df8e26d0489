//go:build integration

package integration

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

// decodeData unwraps the {"data": ...} envelope into v.
func decodeData(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, v))
}

// errorMessage unwraps the {"error": {"message": ...}} envelope.
func errorMessage(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()

	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return envelope.Error.Message
}

// serviceView mirrors the service JSON shape for assertions.
type serviceView struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Type           string   `json:"type"`
	Status         string   `json:"status"`
	Health         int      `json:"health"`
	Category       string   `json:"category"`
	Region         string   `json:"region"`
	Owner          string   `json:"owner"`
	ResponseTimeMs int      `json:"response_time_ms"`
	Dependencies   []string `json:"dependencies"`
}

// firstService fetches the fleet and returns one service for tests that need
// a real ID.
func firstService(t *testing.T, client interface {
	GET(string) (*http.Response, error)
}) serviceView {
	t.Helper()

	resp, err := client.GET("/api/v1/services")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var services []serviceView
	decodeData(t, resp, &services)
	require.NotEmpty(t, services)
	return services[0]
}
