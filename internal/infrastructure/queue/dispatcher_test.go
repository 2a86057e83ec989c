package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/authentiscan/identity-service/internal/core/ports"
)

type fakeNotifier struct {
	mu   sync.Mutex
	sent []ports.OutboundMail
	fail int // fail the first n sends
}

func (n *fakeNotifier) Send(_ context.Context, m ports.OutboundMail) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail > 0 {
		n.fail--
		return errors.New("relay unavailable")
	}
	n.sent = append(n.sent, m)
	return nil
}

func (n *fakeNotifier) delivered() []ports.OutboundMail {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]ports.OutboundMail, len(n.sent))
	copy(out, n.sent)
	return out
}

type fakeDeduper struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newFakeDeduper() *fakeDeduper {
	return &fakeDeduper{seen: make(map[string]bool)}
}

func (d *fakeDeduper) key(m ports.OutboundMail) string {
	return m.Kind + "|" + m.To + "|" + m.Code
}

func (d *fakeDeduper) AlreadySent(_ context.Context, m ports.OutboundMail) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seen[d.key(m)], nil
}

func (d *fakeDeduper) MarkSent(_ context.Context, m ports.OutboundMail) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen[d.key(m)] = true
	return nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func TestDispatcher_DeliversEnqueuedMail(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifier := &fakeNotifier{}
	d := NewDispatcher(2, notifier, nil, zerolog.Nop())
	d.Start(ctx)

	d.Enqueue(ports.OutboundMail{To: "ann@x.com", Kind: ports.MailWelcome})
	d.Enqueue(ports.OutboundMail{To: "bob@x.com", Kind: ports.MailVerifyOTP, Code: "123456"})

	waitFor(t, func() bool { return len(notifier.delivered()) == 2 })
}

func TestDispatcher_RetriesTransientFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifier := &fakeNotifier{fail: 1}
	d := NewDispatcher(1, notifier, nil, zerolog.Nop())
	d.Start(ctx)

	d.Enqueue(ports.OutboundMail{To: "ann@x.com", Kind: ports.MailResetOTP, Code: "123456"})

	waitFor(t, func() bool { return len(notifier.delivered()) == 1 })
}

func TestDispatcher_DedupSuppressesDuplicates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifier := &fakeNotifier{}
	dedup := newFakeDeduper()
	d := NewDispatcher(1, notifier, dedup, zerolog.Nop())
	d.Start(ctx)

	m := ports.OutboundMail{To: "ann@x.com", Kind: ports.MailVerifyOTP, Code: "123456"}
	d.Enqueue(m)
	d.Enqueue(m)

	// A superseding OTP carries a new code, so a different key is not suppressed.
	d.Enqueue(ports.OutboundMail{To: "ann@x.com", Kind: ports.MailVerifyOTP, Code: "654321"})

	waitFor(t, func() bool { return len(notifier.delivered()) == 2 })
	time.Sleep(50 * time.Millisecond)
	if got := len(notifier.delivered()); got != 2 {
		t.Fatalf("expected duplicate to be suppressed, got %d deliveries", got)
	}
}

func TestDispatcher_ShardIsStablePerRecipient(t *testing.T) {
	d := NewDispatcher(4, &fakeNotifier{}, nil, zerolog.Nop())

	first := d.shardIndex("ann@x.com")
	for i := 0; i < 10; i++ {
		if d.shardIndex("ann@x.com") != first {
			t.Fatalf("expected stable shard for the same recipient")
		}
	}
}
