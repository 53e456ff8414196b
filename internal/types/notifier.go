package types

import (
	ierr "github.com/flexprice/payment-notifier/internal/errors"
)

// NotifierMode controls whether chat delivery happens before or after the
// webhook response is written
type NotifierMode string

const (
	// NotifierModeSync delivers the chat message before responding
	NotifierModeSync NotifierMode = "sync"
	// NotifierModeAsync hands the chat message to the in-memory pubsub and
	// responds immediately
	NotifierModeAsync NotifierMode = "async"
)

func (m NotifierMode) Validate() error {
	switch m {
	case NotifierModeSync, NotifierModeAsync:
		return nil
	}
	return ierr.NewError("invalid notifier mode").
		WithHintf("Notifier mode must be one of %q or %q, got %q", NotifierModeSync, NotifierModeAsync, m).
		Mark(ierr.ErrValidation)
}
