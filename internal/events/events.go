// Package events delivers list change notifications to interested parties.
// Delivery is best effort: a failed notification never fails the mutation
// that produced it.
package events

import (
	"context"

	"github.com/PepaPanda/uu-backend-project/internal/models"
)

type Notifier interface {
	Notify(ctx context.Context, n models.Notification)
}

// Multi fans a notification out to every non-nil notifier in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n models.Notification) {
	for _, target := range m {
		if target != nil {
			target.Notify(ctx, n)
		}
	}
}

type Nop struct{}

func (Nop) Notify(context.Context, models.Notification) {}
