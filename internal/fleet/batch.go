package fleet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"robot-fleet-backend/internal/model"
	"robot-fleet-backend/internal/parse"
	"robot-fleet-backend/internal/store"
)

// BulkStatusResult reports which robots were updated and which ids were
// rejected.
type BulkStatusResult struct {
	Updated []model.Robot `json:"updated"`
	Failed  []BulkFailure `json:"failed"`
}

type BulkFailure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// Assignment outcomes.
const (
	OutcomeAssigned   = "assigned"
	OutcomeUnassigned = "unassigned"
	OutcomeSkipped    = "skipped"
	OutcomeNotFound   = "not_found"
)

// AssignmentResult is the outcome for one requested task id.
type AssignmentResult struct {
	TaskID  string      `json:"taskId"`
	Outcome string      `json:"outcome"`
	Reason  string      `json:"reason,omitempty"`
	Task    *model.Task `json:"task,omitempty"`
}

// BulkUpdateRobotStatuses sets status on every listed robot that exists.
// Unknown or malformed ids are reported in Failed and do not stop the others;
// the found robots are updated in a single transaction.
func (s *Service) BulkUpdateRobotStatuses(ctx context.Context, ids []string, status model.RobotStatus) (*BulkStatusResult, error) {
	if !status.Valid() {
		return nil, invalid("status", "must be one of %s", joinValues(model.RobotStatuses))
	}

	result := &BulkStatusResult{Updated: []model.Robot{}, Failed: []BulkFailure{}}
	var order []int64
	seen := make(map[int64]bool, len(ids))
	for _, raw := range ids {
		id, err := parse.ID(raw)
		if err != nil || seen[id] {
			continue
		}
		seen[id] = true
		order = append(order, id)
	}
	missing := make(map[int64]bool)

	err := s.store.Transaction(ctx, func(tx store.Store) error {
		found, err := tx.FindRobots(ctx, order)
		if err != nil {
			return err
		}
		exists := make(map[int64]bool, len(found))
		for _, r := range found {
			exists[r.ID] = true
		}

		var targets []int64
		for _, id := range order {
			if exists[id] {
				targets = append(targets, id)
			} else {
				missing[id] = true
			}
		}
		if err := tx.SetRobotStatus(ctx, targets, status); err != nil {
			return err
		}

		updated, err := tx.FindRobots(ctx, targets)
		if err != nil {
			return err
		}
		byID := make(map[int64]model.Robot, len(updated))
		for _, r := range updated {
			byID[r.ID] = r
		}
		for _, id := range targets {
			result.Updated = append(result.Updated, byID[id])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Failures follow request order; a repeated unknown id is reported once.
	for _, raw := range ids {
		id, err := parse.ID(raw)
		switch {
		case err != nil:
			result.Failed = append(result.Failed, BulkFailure{ID: raw, Error: "invalid id"})
		case missing[id]:
			result.Failed = append(result.Failed, BulkFailure{ID: fmt.Sprint(id), Error: "not found"})
			delete(missing, id)
		}
	}

	s.log.WithFields(logrus.Fields{
		"status":  status,
		"updated": len(result.Updated),
		"failed":  len(result.Failed),
	}).Info("bulk robot status update")
	return result, nil
}

// CreateRobotsFromTemplates creates one robot per template, all or nothing.
// A non-empty locationPrefix is prepended to each location as
// "<prefix> - <location>", or replaces an empty location.
func (s *Service) CreateRobotsFromTemplates(ctx context.Context, templates []RobotTemplate, locationPrefix string) ([]model.Robot, error) {
	if len(templates) == 0 {
		return nil, invalid("templates", "is required")
	}

	robots := make([]*model.Robot, len(templates))
	batchSerials := make(map[string]int, len(templates))
	for i, tpl := range templates {
		field := fmt.Sprintf("templates[%d]", i)
		if err := check(tpl); err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				verr.Field = field + "." + verr.Field
			}
			return nil, err
		}
		if first, dup := batchSerials[tpl.Serial]; dup {
			return nil, &UniquenessError{
				Entity: "robot",
				Field:  field + ".serial",
				Value:  fmt.Sprintf("%s (also templates[%d])", tpl.Serial, first),
			}
		}
		batchSerials[tpl.Serial] = i

		tpl.Location = prefixLocation(locationPrefix, tpl.Location)
		robots[i] = newRobot(tpl)
	}

	err := s.store.Transaction(ctx, func(tx store.Store) error {
		for i, robot := range robots {
			if err := insertRobot(ctx, tx, robot); err != nil {
				var uerr *UniquenessError
				if errors.As(err, &uerr) {
					uerr.Field = fmt.Sprintf("templates[%d].%s", i, uerr.Field)
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	created := make([]model.Robot, len(robots))
	for i, r := range robots {
		created[i] = *r
	}
	s.log.WithFields(logrus.Fields{"count": len(created), "prefix": locationPrefix}).Info("robots created from templates")
	return created, nil
}

func prefixLocation(prefix, location string) string {
	if prefix == "" {
		return location
	}
	if strings.TrimSpace(location) == "" {
		return prefix
	}
	return prefix + " - " + location
}

// AssignTasksToRobotsByCapability assigns each PENDING task to an IDLE or
// ACTIVE robot whose capabilities cover the task's requirements. Among
// eligible robots the one with the fewest open tasks wins, then the lowest
// id. Loads are updated as the batch assigns. Results follow request order.
func (s *Service) AssignTasksToRobotsByCapability(ctx context.Context, taskIDs []string) ([]AssignmentResult, error) {
	results := make([]AssignmentResult, len(taskIDs))
	parsed := make([]int64, len(taskIDs))
	var lookup []int64
	for i, raw := range taskIDs {
		id, err := parse.ID(raw)
		if err != nil {
			results[i] = AssignmentResult{TaskID: raw, Outcome: OutcomeNotFound, Reason: "invalid id"}
			continue
		}
		parsed[i] = id
		lookup = append(lookup, id)
	}

	var assigned int
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		tasks, err := tx.FindTasks(ctx, lookup)
		if err != nil {
			return err
		}
		byID := make(map[int64]*model.Task, len(tasks))
		for i := range tasks {
			byID[tasks[i].ID] = &tasks[i]
		}

		robots, err := tx.RobotsByStatus(ctx, model.RobotStatusIdle, model.RobotStatusActive)
		if err != nil {
			return err
		}
		robots = filterRobots(robots, isAssignable)
		loads, err := tx.RobotLoads(ctx)
		if err != nil {
			return err
		}

		for i, id := range parsed {
			if id == 0 {
				continue
			}
			res := AssignmentResult{TaskID: fmt.Sprint(id)}
			task, ok := byID[id]
			switch {
			case !ok:
				res.Outcome = OutcomeNotFound
			case task.Status != model.TaskStatusPending:
				res.Outcome = OutcomeSkipped
				res.Reason = "status " + string(task.Status)
				res.Task = task
			default:
				robot := leastLoaded(filterRobots(robots, hasCapabilities(task.RequiredCapabilities)), loads)
				if robot == nil {
					res.Outcome = OutcomeUnassigned
					res.Reason = "no eligible robot"
					res.Task = task
					break
				}
				updated, err := tx.UpdateTask(ctx, id, map[string]any{
					"assigned_robot_id": robot.ID,
					"status":            model.TaskStatusAssigned,
				})
				if err != nil {
					return fromStore(err, "task", id)
				}
				if task.AssignedRobotID != nil {
					loads[*task.AssignedRobotID]--
				}
				loads[robot.ID]++
				*task = *updated
				res.Outcome = OutcomeAssigned
				res.Task = updated
				assigned++
			}
			results[i] = res
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"requested": len(taskIDs), "assigned": assigned}).Info("tasks assigned by capability")
	return results, nil
}

// leastLoaded picks the robot with the fewest open tasks, then the lowest id.
func leastLoaded(candidates []model.Robot, loads map[int64]int64) *model.Robot {
	var best *model.Robot
	for i := range candidates {
		r := &candidates[i]
		if best == nil || loads[r.ID] < loads[best.ID] || (loads[r.ID] == loads[best.ID] && r.ID < best.ID) {
			best = r
		}
	}
	return best
}

// CleanupOldTelemetry deletes telemetry older than daysToKeep days,
// optionally only for the given metric names, and returns the number of
// points removed. A nil daysToKeep uses the configured retention.
func (s *Service) CleanupOldTelemetry(ctx context.Context, daysToKeep *int, metricNames []string) (int64, error) {
	days := s.retentionDays
	if daysToKeep != nil {
		days = *daysToKeep
	}
	if days < 0 {
		return 0, invalid("daysToKeep", "must be at least 0")
	}

	var names []string
	for _, n := range metricNames {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}

	cutoff := s.clock().Add(-time.Duration(days) * 24 * time.Hour)
	deleted, err := s.store.DeleteTelemetryBefore(ctx, cutoff, names)
	if err != nil {
		return 0, err
	}

	s.log.WithFields(logrus.Fields{
		"cutoff":  cutoff.Format(time.RFC3339),
		"metrics": names,
		"deleted": deleted,
	}).Info("old telemetry cleaned up")
	return deleted, nil
}
