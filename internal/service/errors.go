package service

import (
	"errors"
	"fmt"

	apperrors "agency-hub/pkg/errors"

	"gorm.io/gorm"
)

// notFound turns a missing row into a typed not found error and wraps anything else.
func notFound(err error, resource, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &apperrors.ErrNotFound{Resource: resource, ID: id}
	}
	return fmt.Errorf("get %s %s: %w", resource, id, err)
}
