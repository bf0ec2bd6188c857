// Package notifier provides notification channel implementations.
package notifier

import (
	"context"

	"github.com/adsentry-team/adsentry/internal/model"
)

// Notifier is the interface for dispatching alerts to external channels.
type Notifier interface {
	// Send delivers the alerts to the notification channel.
	Send(ctx context.Context, alerts []model.Alert) error

	// Name returns the name of the notifier.
	Name() string
}
