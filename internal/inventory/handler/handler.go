// Package handler exposes the inventory services over HTTP.
package handler

import (
	"time"

	"github.com/cbsistema/cbsistema-backend/pkg/errors"
)

// parseDate reads an optional YYYY-MM-DD value in loc. An empty string is nil.
func parseDate(field, value string, loc *time.Location) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, value, loc)
	if err != nil {
		return nil, errors.Validation(map[string]string{field: "must be a date (YYYY-MM-DD)"})
	}
	return &t, nil
}
