package fleet

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"robot-fleet-backend/internal/model"
	"robot-fleet-backend/internal/store"
)

const (
	priorityWeight = 0.6
	deadlineWeight = 0.4
	maxPriority    = 10.0
)

// ScoredTask is a task paired with its urgency score.
type ScoredTask struct {
	model.Task
	UrgencyScore float64 `json:"urgencyScore"`
}

// UrgencyScore rates a task in [0, 1]. Priority contributes up to 0.6,
// scaled against a priority of 10. The deadline contributes up to 0.4: the
// full weight once the deadline has passed or is within the hour, decaying
// as 0.4/hours beyond that, and nothing when there is no deadline.
func UrgencyScore(task *model.Task, now time.Time) float64 {
	p := float64(task.Priority) / maxPriority
	score := math.Max(0, math.Min(1, p)) * priorityWeight

	if task.Deadline == nil {
		return score
	}
	hoursLeft := task.Deadline.Sub(now).Hours()
	if hoursLeft <= 0 {
		return score + deadlineWeight
	}
	return score + math.Min(deadlineWeight, deadlineWeight/math.Max(1, hoursLeft))
}

// TasksByUrgencyScore returns tasks scoring at least minScore, most urgent
// first. Equal scores are ordered by id.
func (s *Service) TasksByUrgencyScore(ctx context.Context, minScore *float64) ([]ScoredTask, error) {
	threshold := DefaultMinUrgencyScore
	if minScore != nil {
		threshold = *minScore
	}
	if math.IsNaN(threshold) {
		return nil, invalid("minScore", "must be a number")
	}

	tasks, err := s.store.ListTasks(ctx, store.TaskFilter{})
	if err != nil {
		return nil, err
	}

	now := s.clock()
	scored := make([]ScoredTask, 0, len(tasks))
	for i := range tasks {
		score := UrgencyScore(&tasks[i], now)
		if score >= threshold {
			scored = append(scored, ScoredTask{Task: tasks[i], UrgencyScore: score})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].UrgencyScore != scored[j].UrgencyScore {
			return scored[i].UrgencyScore > scored[j].UrgencyScore
		}
		return scored[i].ID < scored[j].ID
	})
	return scored, nil
}

// baseline is the mean and population standard deviation of one metric.
type baseline struct {
	mean, stddev float64
}

// relTolerance absorbs rounding when a deviation lands exactly on the
// threshold.
const relTolerance = 1e-12

func (b baseline) flags(v, multiplier float64) bool {
	if b.stddev == 0 {
		return false
	}
	threshold := multiplier * b.stddev
	return math.Abs(v-b.mean) >= threshold*(1-relTolerance)
}

// TelemetryAnomalies flags points deviating from their metric's mean by at
// least multiplier standard deviations. Each metric name is its own
// population; populations with fewer than two points or no spread produce
// no anomalies.
func (s *Service) TelemetryAnomalies(ctx context.Context, q AnomalyQuery) ([]model.TelemetryPoint, error) {
	multiplier := DefaultAnomalyMultiplier
	if q.ThresholdMultiplier != nil {
		multiplier = *q.ThresholdMultiplier
	}
	if !(multiplier > 0) || math.IsInf(multiplier, 0) {
		return nil, invalid("thresholdMultiplier", "must be greater than 0")
	}

	points, err := s.store.ListTelemetry(ctx, store.TelemetryFilter{
		RobotID:    q.RobotID,
		MetricName: q.MetricName,
	})
	if err != nil {
		return nil, err
	}

	values := make(map[string][]float64)
	for _, p := range points {
		values[p.MetricName] = append(values[p.MetricName], p.MetricValue)
	}

	baselines := make(map[string]baseline, len(values))
	for name, vs := range values {
		if len(vs) < 2 {
			continue
		}
		b, err := computeBaseline(vs)
		if err != nil {
			return nil, fmt.Errorf("failed to compute baseline for %q: %w", name, err)
		}
		baselines[name] = b
	}

	// points are already newest first.
	anomalies := make([]model.TelemetryPoint, 0)
	for _, p := range points {
		b, ok := baselines[p.MetricName]
		if ok && b.flags(p.MetricValue, multiplier) {
			anomalies = append(anomalies, p)
		}
	}
	return anomalies, nil
}

func computeBaseline(values []float64) (baseline, error) {
	mean, err := stats.Mean(values)
	if err != nil {
		return baseline{}, err
	}
	sd, err := stats.StandardDeviationPopulation(values)
	if err != nil {
		return baseline{}, err
	}
	return baseline{mean: mean, stddev: sd}, nil
}
