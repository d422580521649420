package fleet

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"robot-fleet-backend/config"
	"robot-fleet-backend/internal/db"
	"robot-fleet-backend/internal/model"
	"robot-fleet-backend/internal/store"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// newTestService returns a service over a fresh SQLite database whose clock
// is fixed at testNow.
func newTestService(t *testing.T) *Service {
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
	return NewService(store.NewGormStore(gdb), log, WithClock(func() time.Time { return testNow }))
}

func ptr[T any](v T) *T { return &v }

func mustRobot(t *testing.T, s *Service, in CreateRobotInput) *model.Robot {
	t.Helper()
	if in.Model == "" {
		in.Model = "GenericBot"
	}
	r, err := s.CreateRobot(context.Background(), in)
	require.NoError(t, err)
	return r
}

func mustTask(t *testing.T, s *Service, in CreateTaskInput) *model.Task {
	t.Helper()
	task, err := s.CreateTask(context.Background(), in)
	require.NoError(t, err)
	return task
}

func mustTelemetry(t *testing.T, s *Service, robotID int64, metric string, value float64, at time.Time) *model.TelemetryPoint {
	t.Helper()
	p, err := s.CreateTelemetryPoint(context.Background(), CreateTelemetryInput{
		RobotID:     robotID,
		MetricName:  metric,
		MetricValue: &value,
		Timestamp:   &at,
	})
	require.NoError(t, err)
	return p
}

func robotSerials(robots []model.Robot) []string {
	out := make([]string, 0, len(robots))
	for _, r := range robots {
		out = append(out, r.Serial)
	}
	return out
}

func taskIDs(tasks []model.Task) []int64 {
	out := make([]int64, 0, len(tasks))
	for _, tk := range tasks {
		out = append(out, tk.ID)
	}
	return out
}
