package worker

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"

	"user-registry/internal/domain/entity"
)

// Action is what the consumer loop should do with a delivery after the
// notifier has processed it.
type Action int

const (
	// Ack removes the message from the queue permanently.
	Ack Action = iota
	// Requeue rejects the message and returns it to the queue for redelivery.
	Requeue
	// DeadLetter moves the message to the dead-letter queue and removes it
	// from the active queue.
	DeadLetter
)

// Sender performs the welcome side effect for a created user.
type Sender interface {
	SendWelcome(ctx context.Context, email, name string) error
}

// Tracker records which logical events were already handled and how many
// times a given message failed. Both are needed because delivery is
// at-least-once: dedup keeps the side effect idempotent, the attempt counter
// bounds the redelivery loop for poison messages.
type Tracker interface {
	AlreadySent(ctx context.Context, email string) (bool, error)
	MarkSent(ctx context.Context, email string) error
	IncrAttempts(ctx context.Context, messageID string) (int, error)
	ClearAttempts(ctx context.Context, messageID string) error
}

// WelcomeNotifier consumes user_created events. Per message the flow is
// Received -> Processing -> Ack | Requeue | DeadLetter.
type WelcomeNotifier struct {
	Sender      Sender
	Tracker     Tracker
	Logger      *logrus.Logger
	MaxAttempts int
}

func NewWelcomeNotifier(sender Sender, tracker Tracker, logger *logrus.Logger, maxAttempts int) *WelcomeNotifier {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &WelcomeNotifier{Sender: sender, Tracker: tracker, Logger: logger, MaxAttempts: maxAttempts}
}

// Handle processes one delivery and decides its fate. It never panics the
// consumer loop; malformed payloads are dead-lettered immediately since
// redelivery cannot fix them.
func (n *WelcomeNotifier) Handle(ctx context.Context, messageID string, body []byte) Action {
	var evt entity.UserCreated
	if err := json.Unmarshal(body, &evt); err != nil || evt.Email == "" {
		n.Logger.WithError(err).Warn("malformed user_created payload, dead-lettering")
		return DeadLetter
	}
	if messageID == "" {
		// Fall back to the logical event identity so retries of the same
		// event share one attempt counter.
		messageID = evt.Email
	}

	log := n.Logger.WithFields(logrus.Fields{"email": evt.Email, "message_id": messageID})

	if sent, err := n.Tracker.AlreadySent(ctx, evt.Email); err == nil && sent {
		log.Debug("duplicate delivery, already welcomed")
		_ = n.Tracker.ClearAttempts(ctx, messageID)
		return Ack
	}

	if err := n.Sender.SendWelcome(ctx, evt.Email, evt.Name); err != nil {
		attempts, terr := n.Tracker.IncrAttempts(ctx, messageID)
		if terr != nil {
			// Cannot bound retries without the counter; keep the message
			// alive and let the broker redeliver.
			log.WithError(err).Warn("welcome send failed, attempt count unavailable, requeueing")
			return Requeue
		}
		if attempts >= n.MaxAttempts {
			log.WithError(err).WithField("attempts", attempts).Error("welcome send failed permanently, dead-lettering")
			return DeadLetter
		}
		log.WithError(err).WithField("attempts", attempts).Warn("welcome send failed, requeueing")
		return Requeue
	}

	if err := n.Tracker.MarkSent(ctx, evt.Email); err != nil {
		// Best effort: a lost marker only risks one extra (idempotent) send.
		log.WithError(err).Warn("failed to record welcome marker")
	}
	_ = n.Tracker.ClearAttempts(ctx, messageID)
	log.Info("welcome message sent")
	return Ack
}
