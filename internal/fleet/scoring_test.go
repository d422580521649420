package fleet

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"robot-fleet-backend/internal/model"
)

func TestUrgencyScore(t *testing.T) {
	at := func(d time.Duration) *time.Time { v := testNow.Add(d); return &v }

	testCases := []struct {
		name     string
		task     model.Task
		expected float64
	}{
		{name: "No priority, no deadline", task: model.Task{}, expected: 0},
		{name: "Priority only", task: model.Task{Priority: 5}, expected: 0.3},
		{name: "Priority above 10 is capped", task: model.Task{Priority: 25}, expected: 0.6},
		{name: "Negative priority is floored", task: model.Task{Priority: -4}, expected: 0},
		{name: "Deadline within the hour", task: model.Task{Priority: 10, Deadline: at(30 * time.Minute)}, expected: 1.0},
		{name: "Deadline in four hours", task: model.Task{Deadline: at(4 * time.Hour)}, expected: 0.1},
		{name: "Deadline passed", task: model.Task{Priority: 5, Deadline: at(-time.Hour)}, expected: 0.7},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			score := UrgencyScore(&tc.task, testNow)
			assert.InDelta(t, tc.expected, score, 1e-9)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 1.0)
		})
	}
}

func TestTasksByUrgencyScore(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	soon := testNow.Add(30 * time.Minute)
	urgent := mustTask(t, s, CreateTaskInput{Priority: 9, Deadline: &soon})
	mid := mustTask(t, s, CreateTaskInput{Priority: 10})
	tieA := mustTask(t, s, CreateTaskInput{Priority: 9})
	mustTask(t, s, CreateTaskInput{Priority: 2})

	got, err := s.TasksByUrgencyScore(ctx, nil)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, urgent.ID, got[0].ID)
	assert.InDelta(t, 0.94, got[0].UrgencyScore, 1e-9)
	assert.Equal(t, mid.ID, got[1].ID)
	assert.Equal(t, tieA.ID, got[2].ID)

	got, err = s.TasksByUrgencyScore(ctx, ptr(0.0))
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

func TestTelemetryAnomalies(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	r := mustRobot(t, s, CreateRobotInput{Serial: "A"})
	var spike *model.TelemetryPoint
	for i, v := range []float64{10, 10, 10, 10, 50} {
		p := mustTelemetry(t, s, r.ID, "temp", v, testNow.Add(time.Duration(i)*time.Minute))
		if v == 50 {
			spike = p
		}
	}
	// Another metric with a very different scale must not shift the baseline.
	for i, v := range []float64{1000, 1000} {
		mustTelemetry(t, s, r.ID, "pressure", v, testNow.Add(time.Duration(i)*time.Minute))
	}
	// A single point never forms a population.
	mustTelemetry(t, s, r.ID, "voltage", 9999, testNow)

	got, err := s.TelemetryAnomalies(ctx, AnomalyQuery{ThresholdMultiplier: ptr(2.0)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, spike.ID, got[0].ID)

	got, err = s.TelemetryAnomalies(ctx, AnomalyQuery{MetricName: ptr("temp"), ThresholdMultiplier: ptr(2.5)})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.TelemetryAnomalies(ctx, AnomalyQuery{MetricName: ptr("temp"), ThresholdMultiplier: ptr(0.1)})
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, spike.ID, got[0].ID, "newest first")

	_, err = s.TelemetryAnomalies(ctx, AnomalyQuery{ThresholdMultiplier: ptr(0.0)})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestBaselineFlags(t *testing.T) {
	b, err := computeBaseline([]float64{10, 10, 10, 10, 50})
	require.NoError(t, err)
	assert.InDelta(t, 18.0, b.mean, 1e-9)
	assert.InDelta(t, 16.0, b.stddev, 1e-9)
	assert.True(t, b.flags(50, 2.0))
	assert.False(t, b.flags(10, 2.0))

	flat, err := computeBaseline([]float64{3, 3, 3})
	require.NoError(t, err)
	assert.False(t, flat.flags(3, 1))
}
