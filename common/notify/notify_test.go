package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/plct-archrv/pkgstatus/common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureSender records delivered messages and can fail on demand
type captureSender struct {
	mu       sync.Mutex
	messages []string
	failNext bool
}

func (s *captureSender) SendMessage(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failNext {
		s.failNext = false
		return errors.New("api unavailable")
	}
	s.messages = append(s.messages, text)
	return nil
}

func (s *captureSender) delivered() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.messages...)
}

func testLogger() *logger.Logger {
	return logger.New("error", "json")
}

func TestNotifier_MergesBurstIntoOneMessage(t *testing.T) {
	sender := &captureSender{}
	n := New(sender, 20*time.Millisecond, time.Second, testLogger())

	n.Notify("first")
	n.Notify("second")
	n.Notify("third")
	n.Close()

	delivered := sender.delivered()
	require.Len(t, delivered, 1, "one burst becomes one merged message")
	assert.Equal(t, "first\nsecond\nthird", delivered[0])
}

func TestNotifier_EmptyTicksSendNothing(t *testing.T) {
	sender := &captureSender{}
	n := New(sender, 5*time.Millisecond, time.Second, testLogger())

	time.Sleep(30 * time.Millisecond)
	n.Close()

	assert.Empty(t, sender.delivered())
}

func TestNotifier_CloseFlushesPending(t *testing.T) {
	sender := &captureSender{}
	// Long interval: only the shutdown flush can deliver this
	n := New(sender, time.Hour, time.Second, testLogger())

	n.Notify("late notice")
	n.Close()

	delivered := sender.delivered()
	require.Len(t, delivered, 1)
	assert.Equal(t, "late notice", delivered[0])
}

func TestNotifier_DeliveryFailureDoesNotStopPipeline(t *testing.T) {
	sender := &captureSender{failNext: true}
	n := New(sender, 10*time.Millisecond, time.Second, testLogger())

	n.Notify("dropped by the failure")
	time.Sleep(50 * time.Millisecond)
	n.Notify("survives")
	n.Close()

	delivered := sender.delivered()
	require.Len(t, delivered, 1, "the failed batch is skipped, not retried")
	assert.Equal(t, "survives", delivered[0])
}

func TestNotifier_NotifyAfterCloseIsDropped(t *testing.T) {
	sender := &captureSender{}
	n := New(sender, 10*time.Millisecond, time.Second, testLogger())

	n.Close()
	n.Notify("too late")

	// A second Close must also be safe
	n.Close()

	assert.Empty(t, sender.delivered())
}
