package model

// RobotStatus is the operational state of a robot.
type RobotStatus string

const (
	RobotStatusIdle        RobotStatus = "IDLE"
	RobotStatusActive      RobotStatus = "ACTIVE"
	RobotStatusOffline     RobotStatus = "OFFLINE"
	RobotStatusError       RobotStatus = "ERROR"
	RobotStatusMaintenance RobotStatus = "MAINTENANCE"
)

// RobotStatuses lists every robot status in declaration order.
var RobotStatuses = []RobotStatus{
	RobotStatusIdle,
	RobotStatusActive,
	RobotStatusOffline,
	RobotStatusError,
	RobotStatusMaintenance,
}

func (s RobotStatus) Valid() bool {
	for _, v := range RobotStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "PENDING"
	TaskStatusAssigned  TaskStatus = "ASSIGNED"
	TaskStatusRunning   TaskStatus = "RUNNING"
	TaskStatusCompleted TaskStatus = "COMPLETED"
	TaskStatusFailed    TaskStatus = "FAILED"
	TaskStatusCancelled TaskStatus = "CANCELLED"
)

var TaskStatuses = []TaskStatus{
	TaskStatusPending,
	TaskStatusAssigned,
	TaskStatusRunning,
	TaskStatusCompleted,
	TaskStatusFailed,
	TaskStatusCancelled,
}

// OpenTaskStatuses are the non-terminal states. Tasks in these states count
// towards a robot's load and can become overdue.
var OpenTaskStatuses = []TaskStatus{
	TaskStatusPending,
	TaskStatusAssigned,
	TaskStatusRunning,
}

func (s TaskStatus) Valid() bool {
	for _, v := range TaskStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether the task has finished, successfully or not.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed || s == TaskStatusCancelled
}

type MaintenanceType string

const (
	MaintenancePreventive  MaintenanceType = "PREVENTIVE"
	MaintenanceCorrective  MaintenanceType = "CORRECTIVE"
	MaintenanceInspection  MaintenanceType = "INSPECTION"
	MaintenanceCalibration MaintenanceType = "CALIBRATION"
)

var MaintenanceTypes = []MaintenanceType{
	MaintenancePreventive,
	MaintenanceCorrective,
	MaintenanceInspection,
	MaintenanceCalibration,
}

func (t MaintenanceType) Valid() bool {
	for _, v := range MaintenanceTypes {
		if t == v {
			return true
		}
	}
	return false
}

type PredictionType string

const (
	PredictionAnomalyScore PredictionType = "ANOMALY_SCORE"
	PredictionRUL          PredictionType = "RUL" // remaining useful life
)

var PredictionTypes = []PredictionType{
	PredictionAnomalyScore,
	PredictionRUL,
}

func (t PredictionType) Valid() bool {
	for _, v := range PredictionTypes {
		if t == v {
			return true
		}
	}
	return false
}
