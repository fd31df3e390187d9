package commands

import (
	"context"

	"github.com/doeshing/macdiet-go/internal/app"
)

// ContainerFunc returns the application container, building it on first call.
type ContainerFunc func(ctx context.Context) (*app.Container, error)

// Error messages
const (
	ErrConfigLoaderUnavailable  = "config loader unavailable"
	ErrDoctorServiceUnavailable = "doctor service unavailable"
	ErrHistoryStoreUnavailable  = "history store unavailable (audit disabled or history db could not be opened)"
	ErrInvalidHistoryLimit      = "--limit must be >= 1"
)

// Messages
const (
	MsgNoHistoryRecorded = "No history recorded yet."
	MsgHistoryCleared    = "History cleared."
)
