package notification

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
	block  chan struct{}
	err    error
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Deliver(ctx context.Context, e Event) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return s.err
}

func (s *recordingSink) kinds() []Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Kind{}
	for _, e := range s.events {
		out = append(out, e.Kind)
	}
	return out
}

func TestDispatcher_DeliversInOrder(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(8, sink)
	d.Start(context.Background())

	d.Notify(Event{Kind: KindApplicationSubmitted, CardNumber: "1234567890123456"})
	d.Notify(Event{Kind: KindStatusChanged, CardNumber: "1234567890123456", Status: "selected"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))

	assert.Equal(t, []Kind{KindApplicationSubmitted, KindStatusChanged}, sink.kinds())
	assert.False(t, sink.events[0].OccurredAt.IsZero())
}

func TestDispatcher_NeverBlocksWhenFull(t *testing.T) {
	sink := &recordingSink{block: make(chan struct{})}
	d := NewDispatcher(1, sink)
	d.Start(context.Background())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			d.Notify(Event{Kind: KindDocumentUploaded, CardNumber: "1234567890123456"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a full queue")
	}

	close(sink.block)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))
	assert.Less(t, len(sink.kinds()), 50)
}

func TestDispatcher_SinkFailureDoesNotStopOthers(t *testing.T) {
	failing := &recordingSink{err: errors.New("smtp down")}
	ok := &recordingSink{}
	d := NewDispatcher(4, failing, ok)
	d.Start(context.Background())

	d.Notify(Event{Kind: KindStatusChanged})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))

	assert.Len(t, ok.kinds(), 1)
}

func TestDispatcher_NotifyAfterClose(t *testing.T) {
	d := NewDispatcher(1)
	require.NoError(t, d.Close(context.Background()))
	assert.NotPanics(t, func() { d.Notify(Event{Kind: KindStatusChanged}) })
	require.NoError(t, d.Close(context.Background()))
}

type fakePublisher struct {
	subject string
	data    []byte
}

func (p *fakePublisher) Publish(subject string, data []byte) error {
	p.subject = subject
	p.data = data
	return nil
}

func TestNATSSink_Publishes(t *testing.T) {
	pub := &fakePublisher{}
	sink := &NATSSink{Conn: pub, Prefix: "jobcard.notify"}

	require.NoError(t, sink.Deliver(context.Background(), Event{
		Kind:       KindStatusChanged,
		CardNumber: "1234567890123456",
		JobTitle:   "Warehouse Associate",
		Status:     "shortlisted",
	}))

	assert.Equal(t, "jobcard.notify.status_changed", pub.subject)
	var got Event
	require.NoError(t, json.Unmarshal(pub.data, &got))
	assert.Equal(t, "shortlisted", got.Status)
	assert.Equal(t, "status_changed", (&NATSSink{}).Subject(KindStatusChanged))
}
