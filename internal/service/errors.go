package service

import (
	"errors"
	"fmt"
)

var (
	ErrForbidden       = errors.New("you do not have permission to do that")
	ErrStorageDisabled = errors.New("exports are not configured on this server")
)

// ValidationError marks input the caller must fix before retrying.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Err: err}
}

// InsufficientPointsError is returned when a redemption costs more than the balance.
type InsufficientPointsError struct {
	PointsNeeded int
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("not enough points: %d more needed", e.PointsNeeded)
}
