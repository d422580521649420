package internal

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"robot-fleet-backend/config"
	"robot-fleet-backend/internal/api"
	"robot-fleet-backend/internal/db"
	"robot-fleet-backend/internal/fleet"
	"robot-fleet-backend/internal/store"
)

// TestFleetLifecycle drives a robot through registration, task assignment,
// telemetry and maintenance over HTTP, then deletes it and verifies the
// cascade at each step.
func TestFleetLifecycle(t *testing.T) {
	// --- Test Setup ---
	log, _ := test.NewNullLogger()
	gormDB, err := db.Init(&config.DatabaseConfig{
		Driver:   "sqlite",
		DSN:      filepath.Join(t.TempDir(), "fleet.db"),
		LogLevel: "silent",
	}, log)
	require.NoError(t, err)
	sqlDB, _ := gormDB.DB()
	defer sqlDB.Close()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := fleet.NewService(store.NewGormStore(gormDB), log, fleet.WithClock(func() time.Time { return now }))
	server := httptest.NewServer(api.NewRouter(svc, log, api.Options{}))
	defer server.Close()

	call := func(method, path string, body any, out any) int {
		t.Helper()
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		req, err := http.NewRequest(method, server.URL+path, &buf)
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		if out != nil {
			require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
		}
		return resp.StatusCode
	}

	// --- Step 1: register robots from templates ---
	var robots []map[string]any
	status := call(http.MethodPost, "/api/robots/from-templates", map[string]any{
		"templates": []map[string]any{
			{"serial": "RBT-100", "model": "Atlas", "capabilities": []string{"weld", "lift"}},
			{"serial": "RBT-200", "model": "Atlas", "capabilities": []string{"paint"}},
		},
		"locationPrefix": "Plant A",
	}, &robots)
	require.Equal(t, http.StatusCreated, status)
	require.Len(t, robots, 2)
	welderID := robots[0]["id"].(string)
	assert.Equal(t, "IDLE", robots[0]["status"])

	// --- Step 2: create a task and auto-assign it ---
	var task map[string]any
	status = call(http.MethodPost, "/api/tasks", map[string]any{
		"requiredCapabilities": []string{"weld"},
		"priority":             7,
		"deadline":             now.Add(2 * time.Hour).Format(time.RFC3339),
	}, &task)
	require.Equal(t, http.StatusCreated, status)
	taskID := task["id"].(string)

	var results []fleet.AssignmentResult
	status = call(http.MethodPost, "/api/tasks/assign-by-capability", map[string]any{"taskIds": []string{taskID}}, &results)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, results, 1)
	assert.Equal(t, fleet.OutcomeAssigned, results[0].Outcome)

	// --- Step 3: telemetry and maintenance accumulate ---
	for i := 0; i < 3; i++ {
		status = call(http.MethodPost, "/api/telemetry", map[string]any{
			"robotId":     welderID,
			"metricName":  "battery",
			"metricValue": 90 - 10*i,
			"timestamp":   now.Add(-time.Duration(i) * time.Hour).Format(time.RFC3339),
		}, nil)
		require.Equal(t, http.StatusCreated, status)
	}
	status = call(http.MethodPost, "/api/maintenance-events", map[string]any{
		"robotId": welderID,
		"type":    "INSPECTION",
		"notes":   "quarterly check",
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	var details map[string]any
	status = call(http.MethodGet, "/api/robots/"+welderID+"/details", nil, &details)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, details["tasks"], 1)
	assert.Len(t, details["telemetry"], 3)
	assert.Len(t, details["maintenanceEvents"], 1)

	var stats fleet.RobotStatistics
	status = call(http.MethodGet, "/api/robots/statistics", nil, &stats)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(2), stats.TotalRobots)
	assert.Equal(t, int64(0), stats.RobotsWithMaintenance)
	assert.InDelta(t, 0.5, stats.AverageTasksPerRobot, 1e-9)

	// --- Step 4: delete the robot ---
	status = call(http.MethodDelete, "/api/robots/"+welderID, nil, nil)
	require.Equal(t, http.StatusOK, status)

	status = call(http.MethodGet, "/api/tasks/"+taskID, nil, &task)
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, task["assignedRobotId"])
	assert.Equal(t, "PENDING", task["status"])

	var points []map[string]any
	status = call(http.MethodGet, "/api/telemetry?robot_id="+welderID, nil, &points)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, points)

	status = call(http.MethodGet, "/api/robots/statistics", nil, &stats)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(1), stats.TotalRobots)
}
