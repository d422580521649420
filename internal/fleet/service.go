// Package fleet implements the robot fleet operations: filtered listing,
// specialized queries and mutations over the entity store.
package fleet

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"robot-fleet-backend/internal/store"
)

const (
	DefaultTelemetryLimit      = 100
	DefaultRetentionDays       = 30
	DefaultHighPriority        = 5
	DefaultTelemetryThreshold  = 10
	DefaultRecentActivityHours = 24
	DefaultAnomalyMultiplier   = 2.0
	DefaultMinUrgencyScore     = 0.5
)

// Service is the entry point for every fleet operation. It is safe for
// concurrent use; all state lives in the store.
type Service struct {
	store          store.Store
	log            logrus.FieldLogger
	now            func() time.Time
	telemetryLimit int
	retentionDays  int
}

type Option func(*Service)

// WithClock replaces the wall clock used for overdue, urgency, recent
// activity and cleanup calculations.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithTelemetryLimit sets the number of telemetry points returned when a
// listing does not ask for a limit.
func WithTelemetryLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.telemetryLimit = n
		}
	}
}

// WithRetentionDays sets the default age, in days, past which telemetry is
// removed by CleanupOldTelemetry.
func WithRetentionDays(days int) Option {
	return func(s *Service) {
		if days >= 0 {
			s.retentionDays = days
		}
	}
}

func NewService(st store.Store, log logrus.FieldLogger, opts ...Option) *Service {
	s := &Service{
		store:          st,
		log:            log,
		now:            time.Now,
		telemetryLimit: DefaultTelemetryLimit,
		retentionDays:  DefaultRetentionDays,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping checks that the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// tags copies a capability list, never returning nil.
func tags(in []string) []string {
	out := make([]string, 0, len(in))
	return append(out, in...)
}
