package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/advocate-booking/internal/queue"
)

const publishTimeout = 3 * time.Second

// publish sends ev on a context detached from the request so a client
// hanging up does not drop the event.  Failures are logged only; the
// change they describe is already committed.
func publish(ctx context.Context, log *zap.Logger, pub EventPublisher, ev queue.Event) {
	if pub == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := pub.Publish(ctx, ev); err != nil {
		log.Warn("event publish failed", zap.String("type", ev.Type), zap.Uint64("booking_id", ev.BookingID), zap.Error(err))
	}
}
