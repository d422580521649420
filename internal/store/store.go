package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"robot-fleet-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	// Transaction runs fn against a Store bound to a single database
	// transaction. The transaction is rolled back when fn returns an error.
	Transaction(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error

	ListRobots(ctx context.Context, f RobotFilter) ([]model.Robot, error)
	SearchRobots(ctx context.Context, term string) ([]model.Robot, error)
	GetRobot(ctx context.Context, id int64) (*model.Robot, error)
	GetRobotBySerial(ctx context.Context, serial string) (*model.Robot, error)
	GetRobotDetails(ctx context.Context, id int64) (*RobotDetails, error)
	FindRobots(ctx context.Context, ids []int64) ([]model.Robot, error)
	SerialTaken(ctx context.Context, serial string, exceptID int64) (bool, error)
	CreateRobot(ctx context.Context, robot *model.Robot) error
	UpdateRobot(ctx context.Context, id int64, changes map[string]any) (*model.Robot, error)
	SetRobotStatus(ctx context.Context, ids []int64, status model.RobotStatus) error
	DeleteRobot(ctx context.Context, id int64) error
	CountRobots(ctx context.Context) (int64, error)
	CountRobotsByStatus(ctx context.Context) (map[model.RobotStatus]int64, error)
	RobotsSeenSince(ctx context.Context, since time.Time) ([]model.Robot, error)
	RobotsWithTelemetryCount(ctx context.Context, min int64) ([]model.Robot, error)
	RobotsByStatus(ctx context.Context, statuses ...model.RobotStatus) ([]model.Robot, error)

	ListTasks(ctx context.Context, f TaskFilter) ([]model.Task, error)
	GetTask(ctx context.Context, id int64) (*model.Task, error)
	FindTasks(ctx context.Context, ids []int64) ([]model.Task, error)
	CreateTask(ctx context.Context, task *model.Task) error
	UpdateTask(ctx context.Context, id int64, changes map[string]any) (*model.Task, error)
	DeleteTask(ctx context.Context, id int64) error
	TasksWithPriorityAtLeast(ctx context.Context, min int) ([]model.Task, error)
	TasksDueBefore(ctx context.Context, t time.Time, statuses ...model.TaskStatus) ([]model.Task, error)
	OpenTasks(ctx context.Context) ([]model.Task, error)
	CountAssignedTasks(ctx context.Context) (int64, error)
	RobotLoads(ctx context.Context) (map[int64]int64, error)

	ListTelemetry(ctx context.Context, f TelemetryFilter) ([]model.TelemetryPoint, error)
	GetTelemetryPoint(ctx context.Context, id int64) (*model.TelemetryPoint, error)
	CreateTelemetryPoint(ctx context.Context, p *model.TelemetryPoint) error
	UpdateTelemetryPoint(ctx context.Context, id int64, changes map[string]any) (*model.TelemetryPoint, error)
	DeleteTelemetryPoint(ctx context.Context, id int64) error
	AggregateTelemetry(ctx context.Context, f TelemetryFilter) (*TelemetryAggregate, error)
	DeleteTelemetryBefore(ctx context.Context, cutoff time.Time, metricNames []string) (int64, error)

	ListMaintenanceEvents(ctx context.Context, f MaintenanceFilter) ([]model.MaintenanceEvent, error)
	GetMaintenanceEvent(ctx context.Context, id int64) (*model.MaintenanceEvent, error)
	CreateMaintenanceEvent(ctx context.Context, e *model.MaintenanceEvent) error
	UpdateMaintenanceEvent(ctx context.Context, id int64, changes map[string]any) (*model.MaintenanceEvent, error)
	DeleteMaintenanceEvent(ctx context.Context, id int64) error

	ListPredictions(ctx context.Context, f PredictionFilter) ([]model.Prediction, error)
	GetPrediction(ctx context.Context, id int64) (*model.Prediction, error)
	CreatePrediction(ctx context.Context, p *model.Prediction) error
	UpdatePrediction(ctx context.Context, id int64, changes map[string]any) (*model.Prediction, error)
	DeletePrediction(ctx context.Context, id int64) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

func (s *gormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func bySerial(db *gorm.DB) *gorm.DB {
	return db.Order("serial ASC").Order("id ASC")
}

func (s *gormStore) ListRobots(ctx context.Context, f RobotFilter) ([]model.Robot, error) {
	var robots []model.Robot
	err := s.db.WithContext(ctx).Scopes(f.scope, bySerial).Find(&robots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list robots: %w", err)
	}
	return robots, nil
}

// SearchRobots matches term as a case-insensitive substring of the serial,
// model or location. The empty term matches every robot.
func (s *gormStore) SearchRobots(ctx context.Context, term string) ([]model.Robot, error) {
	q := s.db.WithContext(ctx).Scopes(bySerial)
	if term != "" {
		p := containsPattern(term)
		q = q.Where("LOWER(serial) LIKE ? ESCAPE '!' OR LOWER(model) LIKE ? ESCAPE '!' OR LOWER(location) LIKE ? ESCAPE '!'", p, p, p)
	}
	var robots []model.Robot
	if err := q.Find(&robots).Error; err != nil {
		return nil, fmt.Errorf("failed to search robots: %w", err)
	}
	return robots, nil
}

func (s *gormStore) GetRobot(ctx context.Context, id int64) (*model.Robot, error) {
	var robot model.Robot
	if err := s.db.WithContext(ctx).First(&robot, id).Error; err != nil {
		return nil, translate(err, "failed to get robot %d", id)
	}
	return &robot, nil
}

func (s *gormStore) GetRobotBySerial(ctx context.Context, serial string) (*model.Robot, error) {
	var robot model.Robot
	if err := s.db.WithContext(ctx).Where("serial = ?", serial).First(&robot).Error; err != nil {
		return nil, translate(err, "failed to get robot %q", serial)
	}
	return &robot, nil
}

func (s *gormStore) GetRobotDetails(ctx context.Context, id int64) (*RobotDetails, error) {
	robot, err := s.GetRobot(ctx, id)
	if err != nil {
		return nil, err
	}
	d := &RobotDetails{Robot: *robot}

	db := s.db.WithContext(ctx)
	if err := db.Scopes(taskOrder).Where("assigned_robot_id = ?", id).Find(&d.Tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to load tasks for robot %d: %w", id, err)
	}
	if err := db.Scopes(newestFirst).Where("robot_id = ?", id).Find(&d.Telemetry).Error; err != nil {
		return nil, fmt.Errorf("failed to load telemetry for robot %d: %w", id, err)
	}
	if err := db.Scopes(newestFirst).Where("robot_id = ?", id).Find(&d.MaintenanceEvents).Error; err != nil {
		return nil, fmt.Errorf("failed to load maintenance events for robot %d: %w", id, err)
	}
	if err := db.Scopes(newestFirst).Where("robot_id = ?", id).Find(&d.Predictions).Error; err != nil {
		return nil, fmt.Errorf("failed to load predictions for robot %d: %w", id, err)
	}
	return d, nil
}

func (s *gormStore) FindRobots(ctx context.Context, ids []int64) ([]model.Robot, error) {
	var robots []model.Robot
	if len(ids) == 0 {
		return robots, nil
	}
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&robots).Error; err != nil {
		return nil, fmt.Errorf("failed to find robots: %w", err)
	}
	return robots, nil
}

// SerialTaken reports whether another robot already uses serial. exceptID
// excludes the robot being updated; pass 0 on create.
func (s *gormStore) SerialTaken(ctx context.Context, serial string, exceptID int64) (bool, error) {
	var count int64
	q := s.db.WithContext(ctx).Model(&model.Robot{}).Where("serial = ?", serial)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check serial %q: %w", serial, err)
	}
	return count > 0, nil
}

func (s *gormStore) CreateRobot(ctx context.Context, robot *model.Robot) error {
	if err := s.db.WithContext(ctx).Create(robot).Error; err != nil {
		return translate(err, "failed to create robot %q", robot.Serial)
	}
	return nil
}

func (s *gormStore) UpdateRobot(ctx context.Context, id int64, changes map[string]any) (*model.Robot, error) {
	if len(changes) > 0 {
		err := s.db.WithContext(ctx).Model(&model.Robot{ID: id}).Updates(changes).Error
		if err != nil {
			return nil, translate(err, "failed to update robot %d", id)
		}
	}
	return s.GetRobot(ctx, id)
}

func (s *gormStore) SetRobotStatus(ctx context.Context, ids []int64, status model.RobotStatus) error {
	if len(ids) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Model(&model.Robot{}).Where("id IN ?", ids).
		Updates(map[string]any{"status": status}).Error
	if err != nil {
		return fmt.Errorf("failed to set status on %d robots: %w", len(ids), err)
	}
	return nil
}

// DeleteRobot removes a robot and everything it owns. Tasks assigned to it
// are detached, and those still waiting to start go back to PENDING.
func (s *gormStore) DeleteRobot(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var robot model.Robot
		if err := tx.Select("id").First(&robot, id).Error; err != nil {
			return translate(err, "failed to delete robot %d", id)
		}

		if err := tx.Model(&model.Task{}).
			Where("assigned_robot_id = ? AND status = ?", id, model.TaskStatusAssigned).
			Updates(map[string]any{"assigned_robot_id": nil, "status": model.TaskStatusPending}).Error; err != nil {
			return fmt.Errorf("failed to requeue tasks of robot %d: %w", id, err)
		}
		if err := tx.Model(&model.Task{}).
			Where("assigned_robot_id = ?", id).
			Update("assigned_robot_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach tasks of robot %d: %w", id, err)
		}

		for _, owned := range []any{&model.TelemetryPoint{}, &model.MaintenanceEvent{}, &model.Prediction{}} {
			if err := tx.Where("robot_id = ?", id).Delete(owned).Error; err != nil {
				return fmt.Errorf("failed to delete %T rows of robot %d: %w", owned, id, err)
			}
		}

		if err := tx.Delete(&model.Robot{}, id).Error; err != nil {
			return translate(err, "failed to delete robot %d", id)
		}
		return nil
	})
}

func (s *gormStore) CountRobots(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Robot{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count robots: %w", err)
	}
	return count, nil
}

// CountRobotsByStatus returns the number of robots per status. Statuses with
// no robots are absent from the map.
func (s *gormStore) CountRobotsByStatus(ctx context.Context) (map[model.RobotStatus]int64, error) {
	var rows []statusCount
	err := s.db.WithContext(ctx).Model(&model.Robot{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count robots by status: %w", err)
	}

	counts := make(map[model.RobotStatus]int64, len(rows))
	for _, row := range rows {
		counts[model.RobotStatus(row.Status)] = row.Total
	}
	return counts, nil
}

func (s *gormStore) RobotsSeenSince(ctx context.Context, since time.Time) ([]model.Robot, error) {
	var robots []model.Robot
	err := s.db.WithContext(ctx).Scopes(bySerial).
		Where("last_seen IS NOT NULL AND last_seen >= ?", since.UTC()).
		Find(&robots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list robots seen since %s: %w", since.Format(time.RFC3339), err)
	}
	return robots, nil
}

// RobotsWithTelemetryCount returns robots with at least min telemetry points.
func (s *gormStore) RobotsWithTelemetryCount(ctx context.Context, min int64) ([]model.Robot, error) {
	if min <= 0 {
		return s.ListRobots(ctx, RobotFilter{})
	}

	db := s.db.WithContext(ctx)
	counted := db.Model(&model.TelemetryPoint{}).
		Select("robot_id").
		Group("robot_id").
		Having("COUNT(*) >= ?", min)

	var robots []model.Robot
	if err := db.Scopes(bySerial).Where("id IN (?)", counted).Find(&robots).Error; err != nil {
		return nil, fmt.Errorf("failed to list robots with %d telemetry points: %w", min, err)
	}
	return robots, nil
}

// RobotsByStatus returns the robots in any of the given statuses, lowest id
// first.
func (s *gormStore) RobotsByStatus(ctx context.Context, statuses ...model.RobotStatus) ([]model.Robot, error) {
	var robots []model.Robot
	err := s.db.WithContext(ctx).Where("status IN ?", statuses).Order("id ASC").Find(&robots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list robots by status: %w", err)
	}
	return robots, nil
}

// omitAssociations keeps writes from upserting preloaded associations.
func omitAssociations(db *gorm.DB) *gorm.DB {
	return db.Omit(clause.Associations)
}
