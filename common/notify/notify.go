// Package notify decouples notice production from delivery. Producers
// enqueue free text without blocking; a batcher merges bursts on a fixed
// tick and a deliverer pushes merged messages to the chat one at a time.
package notify

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/plct-archrv/pkgstatus/common/logger"
	"github.com/plct-archrv/pkgstatus/common/metrics"
)

// Sender performs the external delivery call
type Sender interface {
	SendMessage(ctx context.Context, text string) error
}

// Notifier accepts notices and forwards them through the two-stage
// batcher/deliverer pipeline. The producer side never blocks and never
// fails; once Close has returned, further notices are dropped.
type Notifier struct {
	sender      Sender
	interval    time.Duration
	sendTimeout time.Duration
	log         *logger.Logger

	mu      sync.Mutex
	pending []string
	closed  bool

	batches chan string
	stop    chan struct{}
	done    chan struct{}
}

// New starts the pipeline. interval is the batcher tick; sendTimeout
// bounds each delivery attempt.
func New(sender Sender, interval, sendTimeout time.Duration, log *logger.Logger) *Notifier {
	n := &Notifier{
		sender:      sender,
		interval:    interval,
		sendTimeout: sendTimeout,
		log:         log,
		batches:     make(chan string, 16),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}

	go n.runBatcher()
	go n.runDeliverer()

	return n
}

// Notify enqueues a notice. Texts enqueued by one caller keep their
// relative order inside the merged message.
func (n *Notifier) Notify(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		n.log.Warn("notice dropped after shutdown", "text", text)
		return
	}

	n.pending = append(n.pending, text)
	metrics.NoticesEnqueued.Inc()
}

// Close flushes the final batch, waits for the deliverer to finish its
// queue and returns. Safe to call more than once.
func (n *Notifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		<-n.done
		return
	}
	n.closed = true
	n.mu.Unlock()

	close(n.stop)
	<-n.done
	n.log.Info("notifier drained")
}

func (n *Notifier) takePending() []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	batch := n.pending
	n.pending = nil
	return batch
}

// runBatcher merges pending texts into one message per non-empty tick.
// There is no size-based early flush.
func (n *Notifier) runBatcher() {
	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n.flush()
		case <-n.stop:
			n.flush()
			close(n.batches)
			return
		}
	}
}

func (n *Notifier) flush() {
	batch := n.takePending()
	if len(batch) == 0 {
		return
	}
	n.batches <- strings.Join(batch, "\n")
}

// runDeliverer sends merged messages strictly one at a time, in order.
// Failures are logged and skipped, never retried.
func (n *Notifier) runDeliverer() {
	defer close(n.done)

	for msg := range n.batches {
		ctx, cancel := context.WithTimeout(context.Background(), n.sendTimeout)
		err := n.sender.SendMessage(ctx, msg)
		cancel()

		if err != nil {
			metrics.DeliveryFailures.Inc()
			n.log.Error("notice delivery failed", "error", err)
			continue
		}

		metrics.BatchesDelivered.Inc()
	}
}
