package domain

import "errors"

// ErrMalformedMessage is returned when an inbound message of a known type lacks required fields.
var ErrMalformedMessage = errors.New("malformed message")

// ErrWidgetNotFound is returned when a widget ID is not mounted.
var ErrWidgetNotFound = errors.New("widget not found")

// ErrSnapshotNotFound is returned when a widget ID cannot be found in the snapshot store.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// ErrInvalidPath is returned when a patch path cannot be resolved against the model.
var ErrInvalidPath = errors.New("invalid update path")
