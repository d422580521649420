package fleet

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"robot-fleet-backend/internal/model"
)

// validate is shared by every service input. Initialized in init() with the
// fleet's custom rules.
var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	_ = validate.RegisterValidation("notblank", validateNotBlank)
	_ = validate.RegisterValidation("robot_status", func(fl validator.FieldLevel) bool {
		return model.RobotStatus(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation("task_status", func(fl validator.FieldLevel) bool {
		return model.TaskStatus(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation("maintenance_type", func(fl validator.FieldLevel) bool {
		return model.MaintenanceType(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation("prediction_type", func(fl validator.FieldLevel) bool {
		return model.PredictionType(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation("scalar_map", validateScalarMap)
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// validateScalarMap accepts maps whose values are strings, numbers, booleans
// or null. Nested objects and arrays are rejected.
func validateScalarMap(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.Map {
		return false
	}
	iter := field.MapRange()
	for iter.Next() {
		if !isScalar(iter.Value().Interface()) {
			return false
		}
	}
	return true
}

func isScalar(v any) bool {
	if v == nil {
		return true
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// check runs struct validation and converts the first failure into a
// ValidationError.
func check(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Message: err.Error(), Err: err}
	}
	fe := verrs[0]
	return &ValidationError{Field: fieldPath(fe), Message: describe(fe), Err: err}
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "robot_status":
		return "must be one of " + joinValues(model.RobotStatuses)
	case "task_status":
		return "must be one of " + joinValues(model.TaskStatuses)
	case "maintenance_type":
		return "must be one of " + joinValues(model.MaintenanceTypes)
	case "prediction_type":
		return "must be one of " + joinValues(model.PredictionTypes)
	case "scalar_map":
		return "values must be strings, numbers, booleans or null"
	default:
		return fmt.Sprintf("failed the %q rule", fe.Tag())
	}
}

func joinValues[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
