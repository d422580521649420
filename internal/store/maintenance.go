package store

import (
	"context"
	"fmt"

	"robot-fleet-backend/internal/model"
)

func (s *gormStore) ListMaintenanceEvents(ctx context.Context, f MaintenanceFilter) ([]model.MaintenanceEvent, error) {
	var events []model.MaintenanceEvent
	if err := s.db.WithContext(ctx).Scopes(f.scope, newestFirst).Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list maintenance events: %w", err)
	}
	return events, nil
}

func (s *gormStore) GetMaintenanceEvent(ctx context.Context, id int64) (*model.MaintenanceEvent, error) {
	var e model.MaintenanceEvent
	if err := s.db.WithContext(ctx).First(&e, id).Error; err != nil {
		return nil, translate(err, "failed to get maintenance event %d", id)
	}
	return &e, nil
}

func (s *gormStore) CreateMaintenanceEvent(ctx context.Context, e *model.MaintenanceEvent) error {
	if err := s.db.WithContext(ctx).Scopes(omitAssociations).Create(e).Error; err != nil {
		return translate(err, "failed to create maintenance event for robot %d", e.RobotID)
	}
	return nil
}

func (s *gormStore) UpdateMaintenanceEvent(ctx context.Context, id int64, changes map[string]any) (*model.MaintenanceEvent, error) {
	if len(changes) > 0 {
		err := s.db.WithContext(ctx).Model(&model.MaintenanceEvent{ID: id}).Updates(changes).Error
		if err != nil {
			return nil, translate(err, "failed to update maintenance event %d", id)
		}
	}
	return s.GetMaintenanceEvent(ctx, id)
}

func (s *gormStore) DeleteMaintenanceEvent(ctx context.Context, id int64) error {
	return deleteByID(s.db.WithContext(ctx), &model.MaintenanceEvent{}, "maintenance event", id)
}

func (s *gormStore) ListPredictions(ctx context.Context, f PredictionFilter) ([]model.Prediction, error) {
	var predictions []model.Prediction
	if err := s.db.WithContext(ctx).Scopes(f.scope, newestFirst).Find(&predictions).Error; err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}
	return predictions, nil
}

func (s *gormStore) GetPrediction(ctx context.Context, id int64) (*model.Prediction, error) {
	var p model.Prediction
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, translate(err, "failed to get prediction %d", id)
	}
	return &p, nil
}

func (s *gormStore) CreatePrediction(ctx context.Context, p *model.Prediction) error {
	if err := s.db.WithContext(ctx).Scopes(omitAssociations).Create(p).Error; err != nil {
		return translate(err, "failed to create prediction for robot %d", p.RobotID)
	}
	return nil
}

func (s *gormStore) UpdatePrediction(ctx context.Context, id int64, changes map[string]any) (*model.Prediction, error) {
	if len(changes) > 0 {
		err := s.db.WithContext(ctx).Model(&model.Prediction{ID: id}).Updates(changes).Error
		if err != nil {
			return nil, translate(err, "failed to update prediction %d", id)
		}
	}
	return s.GetPrediction(ctx, id)
}

func (s *gormStore) DeletePrediction(ctx context.Context, id int64) error {
	return deleteByID(s.db.WithContext(ctx), &model.Prediction{}, "prediction", id)
}
