package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"robot-fleet-backend/config"
	"robot-fleet-backend/internal/db"
	"robot-fleet-backend/internal/fleet"
	"robot-fleet-backend/internal/store"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	log, _ := test.NewNullLogger()
	gdb, err := db.Init(&config.DatabaseConfig{
		Driver:   "sqlite",
		DSN:      filepath.Join(t.TempDir(), "fleet.db"),
		LogLevel: "silent",
	}, log)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	svc := fleet.NewService(store.NewGormStore(gdb), log, fleet.WithClock(func() time.Time { return testNow }))
	return NewRouter(svc, log, Options{})
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func createRobot(t *testing.T, r *gin.Engine, serial string, capabilities ...string) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/robots", gin.H{
		"serial":       serial,
		"model":        "Atlas",
		"capabilities": capabilities,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[map[string]any](t, w)["id"].(string)
}

func TestRobotEndpoints(t *testing.T) {
	r := setupRouter(t)
	id := createRobot(t, r, "RBT-001", "weld")

	testCases := []struct {
		name     string
		method   string
		path     string
		body     any
		expected int
		contains string
	}{
		{"Get robot", http.MethodGet, "/api/robots/" + id, nil, http.StatusOK, `"serial":"RBT-001"`},
		{"Get robot details", http.MethodGet, "/api/robots/" + id + "/details", nil, http.StatusOK, `"tasks":`},
		{"Get missing robot", http.MethodGet, "/api/robots/999", nil, http.StatusNotFound, `"error":"robot 999 not found"`},
		{"Malformed id", http.MethodGet, "/api/robots/abc", nil, http.StatusBadRequest, `invalid id`},
		{"By serial", http.MethodGet, "/api/robots/by-serial/RBT-001", nil, http.StatusOK, `"id":"` + id + `"`},
		{"By capability", http.MethodGet, "/api/robots/by-capability/weld", nil, http.StatusOK, `"RBT-001"`},
		{"Search", http.MethodGet, "/api/robots/search?q=rbt", nil, http.StatusOK, `"RBT-001"`},
		{"Invalid status filter", http.MethodGet, "/api/robots?status=SLEEPING", nil, http.StatusBadRequest, `status`},
		{"Statistics", http.MethodGet, "/api/robots/statistics", nil, http.StatusOK, `"totalRobots":1`},
		{"Bad hours", http.MethodGet, "/api/robots/recent-activity?hours=x", nil, http.StatusBadRequest, `hours`},
		{"Duplicate serial", http.MethodPost, "/api/robots", gin.H{"serial": "RBT-001", "model": "Atlas"}, http.StatusConflict, `already exists`},
		{"Missing model", http.MethodPost, "/api/robots", gin.H{"serial": "RBT-002"}, http.StatusBadRequest, `model`},
		{"Update robot", http.MethodPatch, "/api/robots/" + id, gin.H{"location": "Bay 4"}, http.StatusOK, `"location":"Bay 4"`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, r, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.expected, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), tc.contains)
		})
	}
}

func TestDeleteRobot(t *testing.T) {
	r := setupRouter(t)
	id := createRobot(t, r, "RBT-001")

	w := doJSON(t, r, http.MethodDelete, "/api/robots/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	w = doJSON(t, r, http.MethodDelete, "/api/robots/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBulkUpdateRobotStatuses(t *testing.T) {
	r := setupRouter(t)
	id := createRobot(t, r, "RBT-001")

	w := doJSON(t, r, http.MethodPost, "/api/robots/bulk-status", gin.H{
		"ids":    []string{id, "999"},
		"status": "MAINTENANCE",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	result := decode[fleet.BulkStatusResult](t, w)
	require.Len(t, result.Updated, 1)
	assert.Equal(t, "MAINTENANCE", string(result.Updated[0].Status))
	assert.Equal(t, []fleet.BulkFailure{{ID: "999", Error: "not found"}}, result.Failed)

	w = doJSON(t, r, http.MethodPost, "/api/robots/bulk-status", gin.H{"ids": []string{id}, "status": "ASLEEP"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskEndpoints(t *testing.T) {
	r := setupRouter(t)
	robotID := createRobot(t, r, "RBT-100", "weld", "lift")

	w := doJSON(t, r, http.MethodPost, "/api/tasks", gin.H{
		"requiredCapabilities": []string{"weld"},
		"priority":             8,
		"deadline":             testNow.Add(-time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	taskID := decode[map[string]any](t, w)["id"].(string)

	w = doJSON(t, r, http.MethodPost, "/api/tasks", gin.H{"assignedRobotId": "999"})
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/api/tasks/overdue", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"`+taskID+`"`)

	w = doJSON(t, r, http.MethodGet, "/api/tasks?priority_min=9", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/api/tasks?priority_min=high", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/tasks/by-urgency?min_score=0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"urgencyScore"`)

	w = doJSON(t, r, http.MethodPost, "/api/tasks/assign-by-capability", gin.H{"taskIds": []string{taskID, "999"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	results := decode[[]fleet.AssignmentResult](t, w)
	require.Len(t, results, 2)
	assert.Equal(t, fleet.OutcomeAssigned, results[0].Outcome)
	require.NotNil(t, results[0].Task)
	require.NotNil(t, results[0].Task.AssignedRobotID)
	assert.Equal(t, robotID, strconv.FormatInt(*results[0].Task.AssignedRobotID, 10))
	assert.Equal(t, fleet.OutcomeNotFound, results[1].Outcome)
}

func TestTelemetryEndpoints(t *testing.T) {
	r := setupRouter(t)
	robotID := createRobot(t, r, "RBT-001")

	for i, v := range []float64{10, 20, 30} {
		w := doJSON(t, r, http.MethodPost, "/api/telemetry", gin.H{
			"robotId":     robotID,
			"metricName":  "temperature",
			"metricValue": v,
			"timestamp":   testNow.Add(-time.Duration(i+1) * time.Hour).Format(time.RFC3339),
			"metadata":    gin.H{"sensor": "a"},
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := doJSON(t, r, http.MethodGet, "/api/telemetry?robot_id="+robotID+"&limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 2)

	w = doJSON(t, r, http.MethodGet, "/api/telemetry?metric_names=battery,humidity", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/api/telemetry?start_date=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/telemetry/statistics?metric_name=temperature", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[fleet.TelemetryStatistics](t, w)
	assert.Equal(t, int64(3), stats.Count)
	assert.InDelta(t, 20.0, stats.Average, 1e-9)

	w = doJSON(t, r, http.MethodPost, "/api/telemetry", gin.H{"robotId": robotID, "metricName": "temperature"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/telemetry/cleanup", gin.H{"daysToKeep": 0})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"deleted":3}`, w.Body.String())
}

func TestMaintenanceAndPredictionEndpoints(t *testing.T) {
	r := setupRouter(t)
	robotID := createRobot(t, r, "RBT-001")

	w := doJSON(t, r, http.MethodPost, "/api/maintenance-events", gin.H{
		"robotId": robotID,
		"type":    "PREVENTIVE",
		"cost":    "125.50",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/api/maintenance-events", gin.H{"robotId": robotID, "type": "GUESSWORK"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/maintenance-events?type=PREVENTIVE&robot_id="+robotID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)

	w = doJSON(t, r, http.MethodPost, "/api/predictions", gin.H{
		"robotId":        robotID,
		"predictionType": "RUL",
		"value":          120.5,
		"modelVersion":   "v1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	predictionID := decode[map[string]any](t, w)["id"].(string)

	w = doJSON(t, r, http.MethodPatch, "/api/predictions/"+predictionID, gin.H{"value": 99.0})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"value":99`)

	w = doJSON(t, r, http.MethodGet, "/api/predictions?start_date=2024-06-02&end_date=2024-06-01", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthzAndMetrics(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(t, r, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	doJSON(t, r, http.MethodGet, "/api/robots/42", nil)

	w = doJSON(t, r, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `fleet_http_requests_total{method="GET",route="/api/robots/:id",status="404"} 1`)
	assert.Contains(t, w.Body.String(), `fleet_errors_total{kind="not_found"} 1`)
}
