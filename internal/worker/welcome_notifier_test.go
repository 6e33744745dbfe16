package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	calls []string
	err   error
}

func (s *fakeSender) SendWelcome(_ context.Context, email, _ string) error {
	s.calls = append(s.calls, email)
	return s.err
}

type fakeTracker struct {
	sent     map[string]bool
	attempts map[string]int
	err      error
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{sent: map[string]bool{}, attempts: map[string]int{}}
}

func (t *fakeTracker) AlreadySent(_ context.Context, email string) (bool, error) {
	return t.sent[email], t.err
}

func (t *fakeTracker) MarkSent(_ context.Context, email string) error {
	t.sent[email] = true
	return t.err
}

func (t *fakeTracker) IncrAttempts(_ context.Context, messageID string) (int, error) {
	if t.err != nil {
		return 0, t.err
	}
	t.attempts[messageID]++
	return t.attempts[messageID], nil
}

func (t *fakeTracker) ClearAttempts(_ context.Context, messageID string) error {
	delete(t.attempts, messageID)
	return nil
}

func newNotifier(sender *fakeSender, tracker *fakeTracker, maxAttempts int) *WelcomeNotifier {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewWelcomeNotifier(sender, tracker, logger, maxAttempts)
}

const eventBody = `{"email":"a@x.com","name":"A"}`

func TestWelcomeNotifier_AcksOnSuccess(t *testing.T) {
	req := require.New(t)
	sender := &fakeSender{}
	tracker := newFakeTracker()
	n := newNotifier(sender, tracker, 5)

	action := n.Handle(context.Background(), "msg-1", []byte(eventBody))

	req.Equal(Ack, action)
	req.Equal([]string{"a@x.com"}, sender.calls)
	req.True(tracker.sent["a@x.com"])
	req.Empty(tracker.attempts)
}

func TestWelcomeNotifier_DuplicateDeliveryIsIdempotent(t *testing.T) {
	req := require.New(t)
	sender := &fakeSender{}
	tracker := newFakeTracker()
	n := newNotifier(sender, tracker, 5)

	first := n.Handle(context.Background(), "msg-1", []byte(eventBody))
	// Redelivery of the same logical event, different broker message id.
	second := n.Handle(context.Background(), "msg-2", []byte(eventBody))

	req.Equal(Ack, first)
	req.Equal(Ack, second)
	req.Len(sender.calls, 1) // the side effect ran exactly once
}

func TestWelcomeNotifier_RequeuesThenDeadLetters(t *testing.T) {
	req := require.New(t)
	sender := &fakeSender{err: errors.New("smtp down")}
	tracker := newFakeTracker()
	n := newNotifier(sender, tracker, 3)

	req.Equal(Requeue, n.Handle(context.Background(), "msg-1", []byte(eventBody)))
	req.Equal(Requeue, n.Handle(context.Background(), "msg-1", []byte(eventBody)))
	// Third consecutive failure exhausts the bound.
	req.Equal(DeadLetter, n.Handle(context.Background(), "msg-1", []byte(eventBody)))
	req.Len(sender.calls, 3)
}

func TestWelcomeNotifier_RecoveryClearsAttempts(t *testing.T) {
	req := require.New(t)
	sender := &fakeSender{err: errors.New("smtp down")}
	tracker := newFakeTracker()
	n := newNotifier(sender, tracker, 3)

	req.Equal(Requeue, n.Handle(context.Background(), "msg-1", []byte(eventBody)))
	req.Len(sender.calls, 1)

	sender.err = nil
	req.Equal(Ack, n.Handle(context.Background(), "msg-1", []byte(eventBody)))
	req.Empty(tracker.attempts)
}

func TestWelcomeNotifier_MalformedPayloadDeadLetters(t *testing.T) {
	req := require.New(t)
	sender := &fakeSender{}
	tracker := newFakeTracker()
	n := newNotifier(sender, tracker, 5)

	req.Equal(DeadLetter, n.Handle(context.Background(), "msg-1", []byte("not json")))
	req.Equal(DeadLetter, n.Handle(context.Background(), "msg-2", []byte(`{"name":"no email"}`)))
	req.Empty(sender.calls)
}

func TestWelcomeNotifier_MissingMessageIDFallsBackToEmail(t *testing.T) {
	req := require.New(t)
	sender := &fakeSender{err: errors.New("smtp down")}
	tracker := newFakeTracker()
	n := newNotifier(sender, tracker, 5)

	req.Equal(Requeue, n.Handle(context.Background(), "", []byte(eventBody)))
	req.Equal(1, tracker.attempts["a@x.com"])
}

func TestWelcomeNotifier_RequeuesWhenTrackerUnavailable(t *testing.T) {
	req := require.New(t)
	sender := &fakeSender{err: errors.New("smtp down")}
	tracker := newFakeTracker()
	tracker.err = errors.New("redis down")
	n := newNotifier(sender, tracker, 3)

	// Without the counter the bound cannot be enforced; the message must
	// stay alive rather than being dropped or dead-lettered early.
	req.Equal(Requeue, n.Handle(context.Background(), "msg-1", []byte(eventBody)))
}
