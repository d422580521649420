package fleet

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"robot-fleet-backend/internal/model"
	"robot-fleet-backend/internal/store"
)

// maxCost is the first value that no longer fits a decimal(10,2) column.
var maxCost = decimal.New(1, 8)

func (s *Service) CreateRobot(ctx context.Context, in CreateRobotInput) (*model.Robot, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	robot := newRobot(in)

	err := s.store.Transaction(ctx, func(tx store.Store) error {
		return insertRobot(ctx, tx, robot)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"robot_id": robot.ID, "serial": robot.Serial}).Info("robot created")
	return robot, nil
}

func newRobot(in CreateRobotInput) *model.Robot {
	status := in.Status
	if status == "" {
		status = model.RobotStatusIdle
	}
	return &model.Robot{
		Serial:          in.Serial,
		Model:           in.Model,
		Capabilities:    tags(in.Capabilities),
		Status:          status,
		Location:        in.Location,
		LastSeen:        utcPtr(in.LastSeen),
		FirmwareVersion: in.FirmwareVersion,
	}
}

// insertRobot rejects a taken serial before writing. The unique index still
// catches a concurrent insert.
func insertRobot(ctx context.Context, tx store.Store, robot *model.Robot) error {
	taken, err := tx.SerialTaken(ctx, robot.Serial, 0)
	if err != nil {
		return err
	}
	if taken {
		return &UniquenessError{Entity: "robot", Field: "serial", Value: robot.Serial}
	}
	if err := tx.CreateRobot(ctx, robot); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return &UniquenessError{Entity: "robot", Field: "serial", Value: robot.Serial}
		}
		return err
	}
	return nil
}

func (s *Service) UpdateRobot(ctx context.Context, id int64, in UpdateRobotInput) (*model.Robot, error) {
	if err := check(in); err != nil {
		return nil, err
	}

	changes := map[string]any{}
	if in.Serial != nil {
		changes["serial"] = *in.Serial
	}
	if in.Model != nil {
		changes["model"] = *in.Model
	}
	if in.Capabilities != nil {
		changes["capabilities"] = datatypes.JSONSlice[string](tags(*in.Capabilities))
	}
	if in.Status != nil {
		changes["status"] = *in.Status
	}
	if in.Location != nil {
		changes["location"] = *in.Location
	}
	if in.LastSeen != nil {
		changes["last_seen"] = in.LastSeen.UTC()
	}
	if in.FirmwareVersion != nil {
		changes["firmware_version"] = *in.FirmwareVersion
	}

	var robot *model.Robot
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		if _, err := tx.GetRobot(ctx, id); err != nil {
			return fromStore(err, "robot", id)
		}
		if in.Serial != nil {
			taken, err := tx.SerialTaken(ctx, *in.Serial, id)
			if err != nil {
				return err
			}
			if taken {
				return &UniquenessError{Entity: "robot", Field: "serial", Value: *in.Serial}
			}
		}
		updated, err := tx.UpdateRobot(ctx, id, changes)
		if err != nil {
			if errors.Is(err, store.ErrDuplicate) && in.Serial != nil {
				return &UniquenessError{Entity: "robot", Field: "serial", Value: *in.Serial}
			}
			return fromStore(err, "robot", id)
		}
		robot = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"robot_id": id, "fields": len(changes)}).Info("robot updated")
	return robot, nil
}

// DeleteRobot removes the robot with its telemetry, maintenance events and
// predictions. Tasks assigned to it are kept but unassigned.
func (s *Service) DeleteRobot(ctx context.Context, id int64) (bool, error) {
	if err := s.store.DeleteRobot(ctx, id); err != nil {
		return false, fromStore(err, "robot", id)
	}
	s.log.WithField("robot_id", id).Info("robot deleted")
	return true, nil
}

func (s *Service) CreateTask(ctx context.Context, in CreateTaskInput) (*model.Task, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = model.TaskStatusPending
	}
	task := &model.Task{
		RequiredCapabilities: tags(in.RequiredCapabilities),
		Status:               status,
		Priority:             in.Priority,
		Deadline:             utcPtr(in.Deadline),
		AssignedRobotID:      in.AssignedRobotID,
	}

	var created *model.Task
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		if in.AssignedRobotID != nil {
			if err := s.requireRobot(ctx, tx, *in.AssignedRobotID); err != nil {
				return err
			}
		}
		if err := tx.CreateTask(ctx, task); err != nil {
			return fromStore(err, "task", 0)
		}
		var err error
		created, err = tx.GetTask(ctx, task.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"task_id": created.ID, "priority": created.Priority}).Info("task created")
	return created, nil
}

func (s *Service) UpdateTask(ctx context.Context, id int64, in UpdateTaskInput) (*model.Task, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	if in.UnassignRobot && in.AssignedRobotID != nil {
		return nil, invalid("unassignRobot", "cannot be combined with assignedRobotId")
	}
	if in.ClearDeadline && in.Deadline != nil {
		return nil, invalid("clearDeadline", "cannot be combined with deadline")
	}

	changes := map[string]any{}
	if in.RequiredCapabilities != nil {
		changes["required_capabilities"] = datatypes.JSONSlice[string](tags(*in.RequiredCapabilities))
	}
	if in.Status != nil {
		changes["status"] = *in.Status
	}
	if in.Priority != nil {
		changes["priority"] = *in.Priority
	}
	if in.Deadline != nil {
		changes["deadline"] = in.Deadline.UTC()
	}
	if in.ClearDeadline {
		changes["deadline"] = nil
	}
	if in.AssignedRobotID != nil {
		changes["assigned_robot_id"] = *in.AssignedRobotID
	}
	if in.UnassignRobot {
		changes["assigned_robot_id"] = nil
	}

	var task *model.Task
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		if _, err := tx.GetTask(ctx, id); err != nil {
			return fromStore(err, "task", id)
		}
		if in.AssignedRobotID != nil {
			if err := s.requireRobot(ctx, tx, *in.AssignedRobotID); err != nil {
				return err
			}
		}
		updated, err := tx.UpdateTask(ctx, id, changes)
		if err != nil {
			return fromStore(err, "task", id)
		}
		task = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"task_id": id, "fields": len(changes)}).Info("task updated")
	return task, nil
}

func (s *Service) DeleteTask(ctx context.Context, id int64) (bool, error) {
	if err := s.store.DeleteTask(ctx, id); err != nil {
		return false, fromStore(err, "task", id)
	}
	s.log.WithField("task_id", id).Info("task deleted")
	return true, nil
}

func (s *Service) CreateTelemetryPoint(ctx context.Context, in CreateTelemetryInput) (*model.TelemetryPoint, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	point := &model.TelemetryPoint{
		RobotID:     in.RobotID,
		Timestamp:   s.timestampOrNow(in.Timestamp),
		MetricName:  in.MetricName,
		MetricValue: *in.MetricValue,
		Metadata:    metadata(in.Metadata),
	}

	err := s.store.Transaction(ctx, func(tx store.Store) error {
		if err := s.requireRobot(ctx, tx, in.RobotID); err != nil {
			return err
		}
		return fromStore(tx.CreateTelemetryPoint(ctx, point), "telemetry point", 0)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"robot_id": point.RobotID, "metric": point.MetricName}).Debug("telemetry recorded")
	return point, nil
}

func (s *Service) UpdateTelemetryPoint(ctx context.Context, id int64, in UpdateTelemetryInput) (*model.TelemetryPoint, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	changes := map[string]any{}
	if in.RobotID != nil {
		changes["robot_id"] = *in.RobotID
	}
	if in.Timestamp != nil {
		changes["timestamp"] = in.Timestamp.UTC()
	}
	if in.MetricName != nil {
		changes["metric_name"] = *in.MetricName
	}
	if in.MetricValue != nil {
		changes["metric_value"] = *in.MetricValue
	}
	if in.Metadata != nil {
		changes["metadata"] = metadata(*in.Metadata)
	}

	var point *model.TelemetryPoint
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		if _, err := tx.GetTelemetryPoint(ctx, id); err != nil {
			return fromStore(err, "telemetry point", id)
		}
		if in.RobotID != nil {
			if err := s.requireRobot(ctx, tx, *in.RobotID); err != nil {
				return err
			}
		}
		updated, err := tx.UpdateTelemetryPoint(ctx, id, changes)
		if err != nil {
			return fromStore(err, "telemetry point", id)
		}
		point = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return point, nil
}

func (s *Service) DeleteTelemetryPoint(ctx context.Context, id int64) (bool, error) {
	if err := s.store.DeleteTelemetryPoint(ctx, id); err != nil {
		return false, fromStore(err, "telemetry point", id)
	}
	s.log.WithField("telemetry_id", id).Info("telemetry point deleted")
	return true, nil
}

func (s *Service) CreateMaintenanceEvent(ctx context.Context, in CreateMaintenanceInput) (*model.MaintenanceEvent, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	cost, err := costValue(in.Cost)
	if err != nil {
		return nil, err
	}
	event := &model.MaintenanceEvent{
		RobotID:   in.RobotID,
		Type:      in.Type,
		Timestamp: s.timestampOrNow(in.Timestamp),
		Notes:     in.Notes,
		Cost:      cost,
	}

	err = s.store.Transaction(ctx, func(tx store.Store) error {
		if err := s.requireRobot(ctx, tx, in.RobotID); err != nil {
			return err
		}
		return fromStore(tx.CreateMaintenanceEvent(ctx, event), "maintenance event", 0)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"robot_id": event.RobotID, "type": event.Type}).Info("maintenance event recorded")
	return event, nil
}

func (s *Service) UpdateMaintenanceEvent(ctx context.Context, id int64, in UpdateMaintenanceInput) (*model.MaintenanceEvent, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	if in.ClearCost && in.Cost != nil {
		return nil, invalid("clearCost", "cannot be combined with cost")
	}

	changes := map[string]any{}
	if in.RobotID != nil {
		changes["robot_id"] = *in.RobotID
	}
	if in.Type != nil {
		changes["type"] = *in.Type
	}
	if in.Timestamp != nil {
		changes["timestamp"] = in.Timestamp.UTC()
	}
	if in.Notes != nil {
		changes["notes"] = *in.Notes
	}
	if in.Cost != nil {
		cost, err := costValue(in.Cost)
		if err != nil {
			return nil, err
		}
		changes["cost"] = cost
	}
	if in.ClearCost {
		changes["cost"] = decimal.NullDecimal{}
	}

	var event *model.MaintenanceEvent
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		if _, err := tx.GetMaintenanceEvent(ctx, id); err != nil {
			return fromStore(err, "maintenance event", id)
		}
		if in.RobotID != nil {
			if err := s.requireRobot(ctx, tx, *in.RobotID); err != nil {
				return err
			}
		}
		updated, err := tx.UpdateMaintenanceEvent(ctx, id, changes)
		if err != nil {
			return fromStore(err, "maintenance event", id)
		}
		event = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (s *Service) DeleteMaintenanceEvent(ctx context.Context, id int64) (bool, error) {
	if err := s.store.DeleteMaintenanceEvent(ctx, id); err != nil {
		return false, fromStore(err, "maintenance event", id)
	}
	s.log.WithField("maintenance_event_id", id).Info("maintenance event deleted")
	return true, nil
}

func (s *Service) CreatePrediction(ctx context.Context, in CreatePredictionInput) (*model.Prediction, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	prediction := &model.Prediction{
		RobotID:        in.RobotID,
		PredictionType: in.PredictionType,
		Value:          *in.Value,
		ModelVersion:   in.ModelVersion,
		Timestamp:      s.timestampOrNow(in.Timestamp),
	}

	err := s.store.Transaction(ctx, func(tx store.Store) error {
		if err := s.requireRobot(ctx, tx, in.RobotID); err != nil {
			return err
		}
		return fromStore(tx.CreatePrediction(ctx, prediction), "prediction", 0)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"robot_id": prediction.RobotID, "type": prediction.PredictionType}).Info("prediction recorded")
	return prediction, nil
}

func (s *Service) UpdatePrediction(ctx context.Context, id int64, in UpdatePredictionInput) (*model.Prediction, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	changes := map[string]any{}
	if in.RobotID != nil {
		changes["robot_id"] = *in.RobotID
	}
	if in.PredictionType != nil {
		changes["prediction_type"] = *in.PredictionType
	}
	if in.Value != nil {
		changes["value"] = *in.Value
	}
	if in.ModelVersion != nil {
		changes["model_version"] = *in.ModelVersion
	}
	if in.Timestamp != nil {
		changes["timestamp"] = in.Timestamp.UTC()
	}

	var prediction *model.Prediction
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		if _, err := tx.GetPrediction(ctx, id); err != nil {
			return fromStore(err, "prediction", id)
		}
		if in.RobotID != nil {
			if err := s.requireRobot(ctx, tx, *in.RobotID); err != nil {
				return err
			}
		}
		updated, err := tx.UpdatePrediction(ctx, id, changes)
		if err != nil {
			return fromStore(err, "prediction", id)
		}
		prediction = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return prediction, nil
}

func (s *Service) DeletePrediction(ctx context.Context, id int64) (bool, error) {
	if err := s.store.DeletePrediction(ctx, id); err != nil {
		return false, fromStore(err, "prediction", id)
	}
	s.log.WithField("prediction_id", id).Info("prediction deleted")
	return true, nil
}

// requireRobot returns a NotFoundError naming the robot when it is missing.
func (s *Service) requireRobot(ctx context.Context, tx store.Store, id int64) error {
	if _, err := tx.GetRobot(ctx, id); err != nil {
		return fromStore(err, "robot", id)
	}
	return nil
}

func (s *Service) timestampOrNow(t *time.Time) time.Time {
	if t == nil {
		return s.clock()
	}
	return t.UTC()
}

func metadata(m map[string]any) datatypes.JSONMap {
	if m == nil {
		return datatypes.JSONMap{}
	}
	return datatypes.JSONMap(m)
}

func costValue(cost *decimal.Decimal) (decimal.NullDecimal, error) {
	if cost == nil {
		return decimal.NullDecimal{}, nil
	}
	if cost.IsNegative() {
		return decimal.NullDecimal{}, invalid("cost", "must not be negative")
	}
	rounded := cost.Round(2)
	if rounded.GreaterThanOrEqual(maxCost) {
		return decimal.NullDecimal{}, invalid("cost", "must be less than %s", maxCost.String())
	}
	return decimal.NewNullDecimal(rounded), nil
}
