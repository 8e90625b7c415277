package domain

import (
	"context"
	"errors"
)

var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrInvalidRequest   = errors.New("invalid_booking_request")
	ErrBookingNotFound  = errors.New("booking_not_found")
	ErrAlreadyConfirmed = errors.New("booking_already_confirmed")
)

type ConfirmRequest struct {
	Kind      string `json:"kind"`
	BookingID string `json:"booking_id"`
}

type ConfirmResponse struct {
	Stage  Stage  `json:"stage"`
	Status Status `json:"status"`
}

type Service interface {
	Confirm(ctx context.Context, req ConfirmRequest) (ConfirmResponse, error)
}
