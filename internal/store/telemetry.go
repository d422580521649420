package store

import (
	"context"
	"fmt"
	"time"

	"robot-fleet-backend/internal/model"
)

// ListTelemetry returns matching points newest first, truncated to f.Limit.
func (s *gormStore) ListTelemetry(ctx context.Context, f TelemetryFilter) ([]model.TelemetryPoint, error) {
	q := s.db.WithContext(ctx).Scopes(f.scope, newestFirst)
	if f.Limit != nil && *f.Limit > 0 {
		q = q.Limit(*f.Limit)
	}
	var points []model.TelemetryPoint
	if err := q.Find(&points).Error; err != nil {
		return nil, fmt.Errorf("failed to list telemetry: %w", err)
	}
	return points, nil
}

func (s *gormStore) GetTelemetryPoint(ctx context.Context, id int64) (*model.TelemetryPoint, error) {
	var p model.TelemetryPoint
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, translate(err, "failed to get telemetry point %d", id)
	}
	return &p, nil
}

func (s *gormStore) CreateTelemetryPoint(ctx context.Context, p *model.TelemetryPoint) error {
	if err := s.db.WithContext(ctx).Scopes(omitAssociations).Create(p).Error; err != nil {
		return translate(err, "failed to create telemetry point for robot %d", p.RobotID)
	}
	return nil
}

func (s *gormStore) UpdateTelemetryPoint(ctx context.Context, id int64, changes map[string]any) (*model.TelemetryPoint, error) {
	if len(changes) > 0 {
		err := s.db.WithContext(ctx).Model(&model.TelemetryPoint{ID: id}).Updates(changes).Error
		if err != nil {
			return nil, translate(err, "failed to update telemetry point %d", id)
		}
	}
	return s.GetTelemetryPoint(ctx, id)
}

func (s *gormStore) DeleteTelemetryPoint(ctx context.Context, id int64) error {
	return deleteByID(s.db.WithContext(ctx), &model.TelemetryPoint{}, "telemetry point", id)
}

// AggregateTelemetry computes count, average, min, max and the latest
// timestamp over the filtered points. f.Limit is ignored.
func (s *gormStore) AggregateTelemetry(ctx context.Context, f TelemetryFilter) (*TelemetryAggregate, error) {
	f.Limit = nil
	db := s.db.WithContext(ctx)

	var row telemetryAggregateRow
	err := db.Model(&model.TelemetryPoint{}).Scopes(f.scope).
		Select("COUNT(*) AS point_count, AVG(metric_value) AS avg_value, MIN(metric_value) AS min_value, MAX(metric_value) AS max_value").
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate telemetry: %w", err)
	}

	agg := &TelemetryAggregate{
		Count:   row.PointCount,
		Average: row.AvgValue,
		Min:     row.MinValue,
		Max:     row.MaxValue,
	}
	if agg.Count == 0 {
		return agg, nil
	}

	// MAX(timestamp) comes back as text on SQLite, so read the newest row
	// instead.
	var latest []model.TelemetryPoint
	if err := db.Scopes(f.scope, newestFirst).Limit(1).Find(&latest).Error; err != nil {
		return nil, fmt.Errorf("failed to find latest telemetry: %w", err)
	}
	if len(latest) > 0 {
		ts := latest[0].Timestamp
		agg.LatestTimestamp = &ts
	}
	return agg, nil
}

// DeleteTelemetryBefore removes points older than cutoff, optionally only for
// the given metric names, and returns how many were deleted.
func (s *gormStore) DeleteTelemetryBefore(ctx context.Context, cutoff time.Time, metricNames []string) (int64, error) {
	q := s.db.WithContext(ctx).Where(lessThanTimestamp(cutoff))
	if len(metricNames) > 0 {
		q = q.Where("metric_name IN ?", metricNames)
	}
	res := q.Delete(&model.TelemetryPoint{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete telemetry before %s: %w", cutoff.Format(time.RFC3339), res.Error)
	}
	return res.RowsAffected, nil
}
