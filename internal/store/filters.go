package store

import (
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"robot-fleet-backend/internal/model"
)

// Filters are optional: a nil field places no constraint, and every set
// field narrows the result (AND composition).

type RobotFilter struct {
	Model    *string
	Status   *model.RobotStatus
	Location *string
	Serial   *string
}

func (f RobotFilter) scope(db *gorm.DB) *gorm.DB {
	if f.Model != nil {
		db = db.Where("LOWER(model) LIKE ? ESCAPE '!'", containsPattern(*f.Model))
	}
	if f.Status != nil {
		db = db.Where("status = ?", *f.Status)
	}
	if f.Location != nil {
		db = db.Where("LOWER(location) LIKE ? ESCAPE '!'", containsPattern(*f.Location))
	}
	if f.Serial != nil {
		db = db.Where("LOWER(serial) LIKE ? ESCAPE '!'", containsPattern(*f.Serial))
	}
	return db
}

type TaskFilter struct {
	Status      *model.TaskStatus
	PriorityMin *int
	PriorityMax *int
	RobotID     *int64
	HasDeadline *bool
}

func (f TaskFilter) scope(db *gorm.DB) *gorm.DB {
	if f.Status != nil {
		db = db.Where("status = ?", *f.Status)
	}
	if f.PriorityMin != nil {
		db = db.Where("priority >= ?", *f.PriorityMin)
	}
	if f.PriorityMax != nil {
		db = db.Where("priority <= ?", *f.PriorityMax)
	}
	if f.RobotID != nil {
		// Unassigned tasks have a NULL reference and never compare equal.
		db = db.Where("assigned_robot_id = ?", *f.RobotID)
	}
	if f.HasDeadline != nil {
		if *f.HasDeadline {
			db = db.Where("deadline IS NOT NULL")
		} else {
			db = db.Where("deadline IS NULL")
		}
	}
	return db
}

type TelemetryFilter struct {
	RobotID     *int64
	MetricName  *string
	MetricNames []string
	StartDate   *time.Time
	EndDate     *time.Time
	// Limit caps the number of rows returned by list queries; nil is uncapped.
	// Aggregates ignore it.
	Limit *int
}

func (f TelemetryFilter) scope(db *gorm.DB) *gorm.DB {
	if f.RobotID != nil {
		db = db.Where("robot_id = ?", *f.RobotID)
	}
	if f.MetricName != nil {
		db = db.Where("metric_name = ?", *f.MetricName)
	}
	if len(f.MetricNames) > 0 {
		db = db.Where("metric_name IN ?", f.MetricNames)
	}
	return timeRange(db, f.StartDate, f.EndDate)
}

type MaintenanceFilter struct {
	RobotID   *int64
	Type      *model.MaintenanceType
	StartDate *time.Time
	EndDate   *time.Time
}

func (f MaintenanceFilter) scope(db *gorm.DB) *gorm.DB {
	if f.RobotID != nil {
		db = db.Where("robot_id = ?", *f.RobotID)
	}
	if f.Type != nil {
		db = db.Where(clause.Eq{Column: clause.Column{Name: "type"}, Value: *f.Type})
	}
	return timeRange(db, f.StartDate, f.EndDate)
}

type PredictionFilter struct {
	RobotID        *int64
	PredictionType *model.PredictionType
	StartDate      *time.Time
	EndDate        *time.Time
}

func (f PredictionFilter) scope(db *gorm.DB) *gorm.DB {
	if f.RobotID != nil {
		db = db.Where("robot_id = ?", *f.RobotID)
	}
	if f.PredictionType != nil {
		db = db.Where("prediction_type = ?", *f.PredictionType)
	}
	return timeRange(db, f.StartDate, f.EndDate)
}

// timestampColumn is quoted by the dialect; TIMESTAMP is a keyword in every
// supported database.
var timestampColumn = clause.Column{Name: "timestamp"}

// timeRange bounds the timestamp column inclusively on both ends.
func timeRange(db *gorm.DB, start, end *time.Time) *gorm.DB {
	if start != nil {
		db = db.Where(clause.Gte{Column: timestampColumn, Value: start.UTC()})
	}
	if end != nil {
		db = db.Where(clause.Lte{Column: timestampColumn, Value: end.UTC()})
	}
	return db
}

// newestFirst orders timestamped rows by timestamp DESC, id DESC.
func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order(clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: timestampColumn, Desc: true},
		{Column: clause.Column{Name: "id"}, Desc: true},
	}})
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// containsPattern builds a case-insensitive LIKE pattern matching term as a
// literal substring. Use with ESCAPE '!' against LOWER(col); on SQLite,
// LOWER is the Unicode-aware version registered by the db package.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

func lessThanTimestamp(t time.Time) clause.Lt {
	return clause.Lt{Column: timestampColumn, Value: t.UTC()}
}
