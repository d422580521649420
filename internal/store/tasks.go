package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"robot-fleet-backend/internal/model"
)

// taskOrder sorts by priority DESC, then deadline ASC with missing deadlines
// last, then creation time and id.
func taskOrder(db *gorm.DB) *gorm.DB {
	return db.Order("priority DESC").
		Order("CASE WHEN deadline IS NULL THEN 1 ELSE 0 END").
		Order("deadline ASC").
		Order("created_at ASC").
		Order("id ASC")
}

func withAssignedRobot(db *gorm.DB) *gorm.DB {
	return db.Preload("AssignedRobot")
}

func (s *gormStore) ListTasks(ctx context.Context, f TaskFilter) ([]model.Task, error) {
	var tasks []model.Task
	err := s.db.WithContext(ctx).Scopes(f.scope, taskOrder, withAssignedRobot).Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

func (s *gormStore) GetTask(ctx context.Context, id int64) (*model.Task, error) {
	var task model.Task
	if err := s.db.WithContext(ctx).Scopes(withAssignedRobot).First(&task, id).Error; err != nil {
		return nil, translate(err, "failed to get task %d", id)
	}
	return &task, nil
}

func (s *gormStore) FindTasks(ctx context.Context, ids []int64) ([]model.Task, error) {
	var tasks []model.Task
	if len(ids) == 0 {
		return tasks, nil
	}
	err := s.db.WithContext(ctx).Scopes(withAssignedRobot).Where("id IN ?", ids).Order("id ASC").Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find tasks: %w", err)
	}
	return tasks, nil
}

func (s *gormStore) CreateTask(ctx context.Context, task *model.Task) error {
	if err := s.db.WithContext(ctx).Scopes(omitAssociations).Create(task).Error; err != nil {
		return translate(err, "failed to create task")
	}
	return nil
}

func (s *gormStore) UpdateTask(ctx context.Context, id int64, changes map[string]any) (*model.Task, error) {
	if len(changes) > 0 {
		err := s.db.WithContext(ctx).Model(&model.Task{ID: id}).Updates(changes).Error
		if err != nil {
			return nil, translate(err, "failed to update task %d", id)
		}
	}
	return s.GetTask(ctx, id)
}

func (s *gormStore) DeleteTask(ctx context.Context, id int64) error {
	return deleteByID(s.db.WithContext(ctx), &model.Task{}, "task", id)
}

func (s *gormStore) TasksWithPriorityAtLeast(ctx context.Context, min int) ([]model.Task, error) {
	var tasks []model.Task
	err := s.db.WithContext(ctx).Scopes(withAssignedRobot).
		Where("priority >= ?", min).
		Order("priority DESC").Order("id ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks with priority >= %d: %w", min, err)
	}
	return tasks, nil
}

// TasksDueBefore returns tasks in one of statuses whose deadline is strictly
// before t, earliest deadline first. Tasks without a deadline never match.
func (s *gormStore) TasksDueBefore(ctx context.Context, t time.Time, statuses ...model.TaskStatus) ([]model.Task, error) {
	var tasks []model.Task
	err := s.db.WithContext(ctx).Scopes(withAssignedRobot).
		Where("deadline IS NOT NULL AND deadline < ?", t.UTC()).
		Where("status IN ?", statuses).
		Order("deadline ASC").Order("id ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks due before %s: %w", t.Format(time.RFC3339), err)
	}
	return tasks, nil
}

// OpenTasks returns every task that has not reached a terminal status.
func (s *gormStore) OpenTasks(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	err := s.db.WithContext(ctx).Scopes(withAssignedRobot).
		Where("status IN ?", model.OpenTaskStatuses).
		Order("id ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list open tasks: %w", err)
	}
	return tasks, nil
}

func (s *gormStore) CountAssignedTasks(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Task{}).Where("assigned_robot_id IS NOT NULL").Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count assigned tasks: %w", err)
	}
	return count, nil
}

// RobotLoads returns, per robot, the number of open tasks assigned to it.
// Robots without open tasks are absent from the map.
func (s *gormStore) RobotLoads(ctx context.Context) (map[int64]int64, error) {
	var rows []robotLoad
	err := s.db.WithContext(ctx).Model(&model.Task{}).
		Select("assigned_robot_id AS robot_id, COUNT(*) AS total").
		Where("assigned_robot_id IS NOT NULL").
		Where("status IN ?", model.OpenTaskStatuses).
		Group("assigned_robot_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute robot loads: %w", err)
	}

	loads := make(map[int64]int64, len(rows))
	for _, row := range rows {
		loads[row.RobotID] = row.Total
	}
	return loads, nil
}

// deleteByID deletes a single row, reporting ErrNotFound when nothing matched.
func deleteByID(db *gorm.DB, value any, entity string, id int64) error {
	res := db.Delete(value, id)
	if res.Error != nil {
		return translate(res.Error, "failed to delete %s %d", entity, id)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("failed to delete %s %d: %w", entity, id, ErrNotFound)
	}
	return nil
}
