package fleet

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"robot-fleet-backend/internal/model"
	"robot-fleet-backend/internal/store"
)

func TestCreateRobot_Defaults(t *testing.T) {
	s := newTestService(t)

	seen := time.Date(2024, 6, 1, 14, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	r, err := s.CreateRobot(context.Background(), CreateRobotInput{Serial: "RBT-1", Model: "Arm", LastSeen: &seen})
	require.NoError(t, err)
	assert.NotZero(t, r.ID)
	assert.Equal(t, model.RobotStatusIdle, r.Status)
	assert.NotNil(t, r.Capabilities)
	assert.Empty(t, r.Capabilities)
	require.NotNil(t, r.LastSeen)
	assert.Equal(t, time.UTC, r.LastSeen.Location())
	assert.True(t, seen.Equal(*r.LastSeen))
}

func TestCreateRobot_Validation(t *testing.T) {
	s := newTestService(t)

	testCases := []struct {
		name  string
		in    CreateRobotInput
		field string
	}{
		{name: "Missing serial", in: CreateRobotInput{Model: "M"}, field: "serial"},
		{name: "Blank model", in: CreateRobotInput{Serial: "S", Model: "  "}, field: "model"},
		{name: "Unknown status", in: CreateRobotInput{Serial: "S", Model: "M", Status: "FLYING"}, field: "status"},
		{name: "Blank capability", in: CreateRobotInput{Serial: "S", Model: "M", Capabilities: []string{"weld", ""}}, field: "capabilities[1]"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.CreateRobot(context.Background(), tc.in)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestCreateRobot_DuplicateSerialDoesNotMutate(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	mustRobot(t, s, CreateRobotInput{Serial: "RBT-100", Model: "WeldBot"})
	before, err := s.ListRobots(ctx, store.RobotFilter{})
	require.NoError(t, err)

	_, err = s.CreateRobot(ctx, CreateRobotInput{Serial: "RBT-100", Model: "Other"})
	var uerr *UniquenessError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "serial", uerr.Field)
	assert.Equal(t, "RBT-100", uerr.Value)

	after, err := s.ListRobots(ctx, store.RobotFilter{})
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestUpdateRobot(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	a := mustRobot(t, s, CreateRobotInput{Serial: "A", Capabilities: []string{"x"}})
	mustRobot(t, s, CreateRobotInput{Serial: "B"})

	updated, err := s.UpdateRobot(ctx, a.ID, UpdateRobotInput{
		Status:       ptr(model.RobotStatusActive),
		Capabilities: &[]string{"x", "y"},
		Location:     ptr("Dock 3"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.RobotStatusActive, updated.Status)
	assert.Equal(t, []string{"x", "y"}, []string(updated.Capabilities))
	assert.Equal(t, "Dock 3", updated.Location)
	assert.Equal(t, "A", updated.Serial, "absent fields are unchanged")

	// Keeping its own serial is not a conflict.
	_, err = s.UpdateRobot(ctx, a.ID, UpdateRobotInput{Serial: ptr("A")})
	require.NoError(t, err)

	_, err = s.UpdateRobot(ctx, a.ID, UpdateRobotInput{Serial: ptr("B")})
	var uerr *UniquenessError
	assert.ErrorAs(t, err, &uerr)

	_, err = s.UpdateRobot(ctx, 999, UpdateRobotInput{Model: ptr("M")})
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestDeleteRobot(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	r := mustRobot(t, s, CreateRobotInput{Serial: "A"})
	task := mustTask(t, s, CreateTaskInput{AssignedRobotID: &r.ID, Status: model.TaskStatusAssigned})
	mustTelemetry(t, s, r.ID, "temp", 1, testNow)

	ok, err := s.DeleteRobot(ctx, r.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, got.AssignedRobotID)
	assert.Equal(t, model.TaskStatusPending, got.Status)

	points, err := s.ListTelemetry(ctx, store.TelemetryFilter{})
	require.NoError(t, err)
	assert.Empty(t, points)

	ok, err = s.DeleteRobot(ctx, r.ID)
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
	assert.False(t, ok)
}

func TestTaskMutations(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	r := mustRobot(t, s, CreateRobotInput{Serial: "RBT-1"})

	_, err := s.CreateTask(ctx, CreateTaskInput{AssignedRobotID: ptr(int64(42))})
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "robot", nf.Entity)

	deadline := testNow.Add(time.Hour)
	task := mustTask(t, s, CreateTaskInput{Priority: 3, Deadline: &deadline, RequiredCapabilities: []string{"weld"}})
	assert.Equal(t, model.TaskStatusPending, task.Status)

	task, err = s.UpdateTask(ctx, task.ID, UpdateTaskInput{AssignedRobotID: &r.ID, Status: ptr(model.TaskStatusAssigned)})
	require.NoError(t, err)
	require.NotNil(t, task.AssignedRobot)
	assert.Equal(t, "RBT-1", task.AssignedRobot.Serial)

	task, err = s.UpdateTask(ctx, task.ID, UpdateTaskInput{UnassignRobot: true, ClearDeadline: true})
	require.NoError(t, err)
	assert.Nil(t, task.AssignedRobotID)
	assert.Nil(t, task.Deadline)
	assert.Equal(t, 3, task.Priority)

	_, err = s.UpdateTask(ctx, task.ID, UpdateTaskInput{UnassignRobot: true, AssignedRobotID: &r.ID})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	ok, err := s.DeleteTask(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	_, err = s.DeleteTask(ctx, task.ID)
	assert.ErrorAs(t, err, &nf)
}

func TestTelemetryMutations(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	r := mustRobot(t, s, CreateRobotInput{Serial: "A"})

	_, err := s.CreateTelemetryPoint(ctx, CreateTelemetryInput{RobotID: 404, MetricName: "temp", MetricValue: ptr(1.0)})
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)

	_, err = s.CreateTelemetryPoint(ctx, CreateTelemetryInput{
		RobotID: r.ID, MetricName: "temp", MetricValue: ptr(1.0),
		Metadata: map[string]any{"nested": map[string]any{"a": 1}},
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "metadata", verr.Field)

	p, err := s.CreateTelemetryPoint(ctx, CreateTelemetryInput{
		RobotID: r.ID, MetricName: "temp", MetricValue: ptr(21.5),
		Metadata: map[string]any{"unit": "C", "calibrated": true, "offset": 0.5, "note": nil},
	})
	require.NoError(t, err)
	assert.True(t, testNow.Equal(p.Timestamp), "timestamp defaults to now")

	p, err = s.UpdateTelemetryPoint(ctx, p.ID, UpdateTelemetryInput{MetricValue: ptr(22.0)})
	require.NoError(t, err)
	assert.Equal(t, 22.0, p.MetricValue)
	assert.Equal(t, "C", p.Metadata["unit"])

	ok, err := s.DeleteTelemetryPoint(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMaintenanceAndPredictionMutations(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	r := mustRobot(t, s, CreateRobotInput{Serial: "A"})

	_, err := s.CreateMaintenanceEvent(ctx, CreateMaintenanceInput{RobotID: r.ID, Type: "REPAIR"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "type", verr.Field)

	_, err = s.CreateMaintenanceEvent(ctx, CreateMaintenanceInput{RobotID: r.ID, Type: model.MaintenanceCorrective, Cost: ptr(decimal.NewFromInt(-5))})
	assert.ErrorAs(t, err, &verr)

	e, err := s.CreateMaintenanceEvent(ctx, CreateMaintenanceInput{
		RobotID: r.ID, Type: model.MaintenancePreventive, Notes: "grease", Cost: ptr(decimal.RequireFromString("120.456")),
	})
	require.NoError(t, err)
	require.True(t, e.Cost.Valid)
	assert.Equal(t, "120.46", e.Cost.Decimal.StringFixed(2))

	e, err = s.UpdateMaintenanceEvent(ctx, e.ID, UpdateMaintenanceInput{ClearCost: true, Type: ptr(model.MaintenanceInspection)})
	require.NoError(t, err)
	assert.False(t, e.Cost.Valid)
	assert.Equal(t, model.MaintenanceInspection, e.Type)

	p, err := s.CreatePrediction(ctx, CreatePredictionInput{RobotID: r.ID, PredictionType: model.PredictionAnomalyScore, Value: ptr(0.8), ModelVersion: "v1"})
	require.NoError(t, err)
	p, err = s.UpdatePrediction(ctx, p.ID, UpdatePredictionInput{ModelVersion: ptr("v2")})
	require.NoError(t, err)
	assert.Equal(t, "v2", p.ModelVersion)
	assert.Equal(t, 0.8, p.Value)

	var nf *NotFoundError
	_, err = s.UpdatePrediction(ctx, p.ID, UpdatePredictionInput{RobotID: ptr(int64(77))})
	assert.ErrorAs(t, err, &nf)

	ok, err := s.DeleteMaintenanceEvent(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.DeletePrediction(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	_, err = s.DeletePrediction(ctx, p.ID)
	assert.ErrorAs(t, err, &nf)
}
