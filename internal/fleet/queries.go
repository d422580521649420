package fleet

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"robot-fleet-backend/internal/model"
	"robot-fleet-backend/internal/store"
)

// RobotStatistics is the fleet summary returned by RobotStatistics.
type RobotStatistics struct {
	TotalRobots           int64                       `json:"totalRobots"`
	RobotsByStatus        map[model.RobotStatus]int64 `json:"robotsByStatus"`
	AverageTasksPerRobot  float64                     `json:"averageTasksPerRobot"`
	RobotsWithMaintenance int64                       `json:"robotsWithMaintenance"`
}

// TelemetryStatistics summarizes a telemetry set. All values are zero and
// LatestTimestamp is nil when no point matched.
type TelemetryStatistics struct {
	Count           int64      `json:"count"`
	Average         float64    `json:"average"`
	Min             float64    `json:"min"`
	Max             float64    `json:"max"`
	LatestTimestamp *time.Time `json:"latestTimestamp"`
}

func (s *Service) ListRobots(ctx context.Context, f store.RobotFilter) ([]model.Robot, error) {
	if f.Status != nil && !f.Status.Valid() {
		return nil, invalid("status", "must be one of %s", joinValues(model.RobotStatuses))
	}
	return s.store.ListRobots(ctx, f)
}

func (s *Service) GetRobot(ctx context.Context, id int64) (*model.Robot, error) {
	robot, err := s.store.GetRobot(ctx, id)
	if err != nil {
		return nil, fromStore(err, "robot", id)
	}
	return robot, nil
}

func (s *Service) GetRobotBySerial(ctx context.Context, serial string) (*model.Robot, error) {
	robot, err := s.store.GetRobotBySerial(ctx, serial)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NotFoundError{Entity: "robot", ID: serial}
		}
		return nil, err
	}
	return robot, nil
}

// RobotWithDetails returns the robot with its tasks, telemetry, maintenance
// events and predictions.
func (s *Service) RobotWithDetails(ctx context.Context, id int64) (*store.RobotDetails, error) {
	d, err := s.store.GetRobotDetails(ctx, id)
	if err != nil {
		return nil, fromStore(err, "robot", id)
	}
	return d, nil
}

// SearchRobots matches term case-insensitively against serial, model and
// location.
func (s *Service) SearchRobots(ctx context.Context, term string) ([]model.Robot, error) {
	return s.store.SearchRobots(ctx, term)
}

// RobotsByCapability returns robots whose capability tags include tag
// exactly.
func (s *Service) RobotsByCapability(ctx context.Context, tag string) ([]model.Robot, error) {
	if strings.TrimSpace(tag) == "" {
		return nil, invalid("capability", "is required")
	}
	robots, err := s.store.ListRobots(ctx, store.RobotFilter{})
	if err != nil {
		return nil, err
	}
	return filterRobots(robots, hasCapability(tag)), nil
}

func (s *Service) RobotsWithHighTelemetryCount(ctx context.Context, min *int) ([]model.Robot, error) {
	threshold := DefaultTelemetryThreshold
	if min != nil {
		threshold = *min
	}
	if threshold < 0 {
		return nil, invalid("minCount", "must be at least 0")
	}
	return s.store.RobotsWithTelemetryCount(ctx, int64(threshold))
}

// RobotsSortedByCapabilityCount orders robots by the number of capability
// tags, ascending unless reverse is set. Ties are broken by id ascending in
// both directions.
func (s *Service) RobotsSortedByCapabilityCount(ctx context.Context, reverse bool) ([]model.Robot, error) {
	robots, err := s.store.ListRobots(ctx, store.RobotFilter{})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(robots, byCapabilityCount(robots, reverse))
	return robots, nil
}

// RobotsWithRecentActivity returns robots seen within the last hours.
func (s *Service) RobotsWithRecentActivity(ctx context.Context, hours *int) ([]model.Robot, error) {
	h := DefaultRecentActivityHours
	if hours != nil {
		h = *hours
	}
	if h <= 0 {
		return nil, invalid("hours", "must be greater than 0")
	}
	since := s.clock().Add(-time.Duration(h) * time.Hour)
	return s.store.RobotsSeenSince(ctx, since)
}

// RobotStatistics is recomputed from the store on every call.
func (s *Service) RobotStatistics(ctx context.Context) (*RobotStatistics, error) {
	total, err := s.store.CountRobots(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.store.CountRobotsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	assigned, err := s.store.CountAssignedTasks(ctx)
	if err != nil {
		return nil, err
	}

	stats := &RobotStatistics{
		TotalRobots:           total,
		RobotsByStatus:        make(map[model.RobotStatus]int64, len(model.RobotStatuses)),
		RobotsWithMaintenance: counts[model.RobotStatusMaintenance],
	}
	for _, status := range model.RobotStatuses {
		stats.RobotsByStatus[status] = counts[status]
	}
	if total > 0 {
		stats.AverageTasksPerRobot = float64(assigned) / float64(total)
	}
	return stats, nil
}

func (s *Service) ListTasks(ctx context.Context, f store.TaskFilter) ([]model.Task, error) {
	if f.Status != nil && !f.Status.Valid() {
		return nil, invalid("status", "must be one of %s", joinValues(model.TaskStatuses))
	}
	return s.store.ListTasks(ctx, f)
}

func (s *Service) GetTask(ctx context.Context, id int64) (*model.Task, error) {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, fromStore(err, "task", id)
	}
	return task, nil
}

// HighPriorityTasks returns tasks with priority >= min, highest first.
func (s *Service) HighPriorityTasks(ctx context.Context, min *int) ([]model.Task, error) {
	threshold := DefaultHighPriority
	if min != nil {
		threshold = *min
	}
	return s.store.TasksWithPriorityAtLeast(ctx, threshold)
}

// OverdueTasks returns non-terminal tasks whose deadline has passed.
func (s *Service) OverdueTasks(ctx context.Context) ([]model.Task, error) {
	return s.store.TasksDueBefore(ctx, s.clock(), model.OpenTaskStatuses...)
}

// ListTelemetry applies the default limit when f.Limit is nil. A limit of 0
// returns every matching point.
func (s *Service) ListTelemetry(ctx context.Context, f store.TelemetryFilter) ([]model.TelemetryPoint, error) {
	switch {
	case f.Limit == nil:
		limit := s.telemetryLimit
		f.Limit = &limit
	case *f.Limit < 0:
		return nil, invalid("limit", "must be at least 0")
	case *f.Limit == 0:
		f.Limit = nil
	}
	if err := checkRange(f.StartDate, f.EndDate); err != nil {
		return nil, err
	}
	return s.store.ListTelemetry(ctx, f)
}

func (s *Service) GetTelemetryPoint(ctx context.Context, id int64) (*model.TelemetryPoint, error) {
	p, err := s.store.GetTelemetryPoint(ctx, id)
	if err != nil {
		return nil, fromStore(err, "telemetry point", id)
	}
	return p, nil
}

func (s *Service) TelemetryStatistics(ctx context.Context, q TelemetryStatsQuery) (*TelemetryStatistics, error) {
	if err := checkRange(q.StartDate, q.EndDate); err != nil {
		return nil, err
	}
	agg, err := s.store.AggregateTelemetry(ctx, store.TelemetryFilter{
		RobotID:    q.RobotID,
		MetricName: q.MetricName,
		StartDate:  q.StartDate,
		EndDate:    q.EndDate,
	})
	if err != nil {
		return nil, err
	}

	stats := &TelemetryStatistics{Count: agg.Count}
	if agg.Count == 0 {
		return stats, nil
	}
	stats.Average = deref(agg.Average)
	stats.Min = deref(agg.Min)
	stats.Max = deref(agg.Max)
	stats.LatestTimestamp = utcPtr(agg.LatestTimestamp)
	return stats, nil
}

func (s *Service) ListMaintenanceEvents(ctx context.Context, f store.MaintenanceFilter) ([]model.MaintenanceEvent, error) {
	if f.Type != nil && !f.Type.Valid() {
		return nil, invalid("type", "must be one of %s", joinValues(model.MaintenanceTypes))
	}
	if err := checkRange(f.StartDate, f.EndDate); err != nil {
		return nil, err
	}
	return s.store.ListMaintenanceEvents(ctx, f)
}

func (s *Service) GetMaintenanceEvent(ctx context.Context, id int64) (*model.MaintenanceEvent, error) {
	e, err := s.store.GetMaintenanceEvent(ctx, id)
	if err != nil {
		return nil, fromStore(err, "maintenance event", id)
	}
	return e, nil
}

func (s *Service) ListPredictions(ctx context.Context, f store.PredictionFilter) ([]model.Prediction, error) {
	if f.PredictionType != nil && !f.PredictionType.Valid() {
		return nil, invalid("predictionType", "must be one of %s", joinValues(model.PredictionTypes))
	}
	if err := checkRange(f.StartDate, f.EndDate); err != nil {
		return nil, err
	}
	return s.store.ListPredictions(ctx, f)
}

func (s *Service) GetPrediction(ctx context.Context, id int64) (*model.Prediction, error) {
	p, err := s.store.GetPrediction(ctx, id)
	if err != nil {
		return nil, fromStore(err, "prediction", id)
	}
	return p, nil
}

// Robot predicates and comparators.

type robotPredicate func(r *model.Robot) bool

func hasCapability(tag string) robotPredicate {
	return func(r *model.Robot) bool { return r.HasCapability(tag) }
}

func hasCapabilities(required []string) robotPredicate {
	return func(r *model.Robot) bool { return r.HasCapabilities(required) }
}

func isAssignable(r *model.Robot) bool {
	return r.Status == model.RobotStatusIdle || r.Status == model.RobotStatusActive
}

func filterRobots(robots []model.Robot, keep robotPredicate) []model.Robot {
	out := make([]model.Robot, 0, len(robots))
	for i := range robots {
		if keep(&robots[i]) {
			out = append(out, robots[i])
		}
	}
	return out
}

func byCapabilityCount(robots []model.Robot, reverse bool) func(i, j int) bool {
	return func(i, j int) bool {
		ci, cj := len(robots[i].Capabilities), len(robots[j].Capabilities)
		if ci != cj {
			if reverse {
				return ci > cj
			}
			return ci < cj
		}
		return robots[i].ID < robots[j].ID
	}
}

func checkRange(start, end *time.Time) error {
	if start != nil && end != nil && start.After(*end) {
		return invalid("startDate", "must not be after endDate")
	}
	return nil
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
