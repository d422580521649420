package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"robot-fleet-backend/internal/parse"
)

// queryParams reads optional query values, keeping the first parse error.
type queryParams struct {
	c   *gin.Context
	err error
}

func newQuery(c *gin.Context) *queryParams {
	return &queryParams{c: c}
}

func (q *queryParams) fail(key string, err error) {
	if q.err == nil {
		q.err = fmt.Errorf("%s: %w", key, err)
	}
}

func (q *queryParams) str(key string) *string {
	return parse.OptionalString(q.c.Query(key))
}

func (q *queryParams) list(key string) []string {
	return parse.List(q.c.QueryArray(key)...)
}

func (q *queryParams) id(key string) *int64 {
	v, err := parse.OptionalID(q.c.Query(key))
	if err != nil {
		q.fail(key, err)
	}
	return v
}

func (q *queryParams) int(key string) *int {
	v, err := parse.OptionalInt(q.c.Query(key))
	if err != nil {
		q.fail(key, err)
	}
	return v
}

func (q *queryParams) float(key string) *float64 {
	v, err := parse.OptionalFloat(q.c.Query(key))
	if err != nil {
		q.fail(key, err)
	}
	return v
}

func (q *queryParams) bool(key string) *bool {
	v, err := parse.OptionalBool(q.c.Query(key))
	if err != nil {
		q.fail(key, err)
	}
	return v
}

func (q *queryParams) time(key string) *time.Time {
	v, err := parse.OptionalTime(q.c.Query(key))
	if err != nil {
		q.fail(key, err)
	}
	return v
}

// enum converts an optional string into a typed enum value.
func enum[T ~string](v *string) *T {
	if v == nil {
		return nil
	}
	t := T(*v)
	return &t
}
