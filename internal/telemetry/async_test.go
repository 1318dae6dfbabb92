package telemetry

import (
	"context"
	"sync"
	"testing"
	"time"

	"agrimarket/backend/internal/telemetry/domain"
)

type mockEventEmitter struct {
	mu      sync.Mutex
	events  []*domain.Event
	emitErr error
}

func (m *mockEventEmitter) Emit(ctx context.Context, event *domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return m.emitErr
}

func (m *mockEventEmitter) getEvents() []*domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events
}

func TestEmitAsyncNilEmitter(t *testing.T) {
	EmitAsync(nil, context.Background(), &domain.Event{OrgID: "org-1", EventType: "test"})
}

func TestEmitAsyncNilEvent(t *testing.T) {
	emitter := &mockEventEmitter{}
	EmitAsync(emitter, context.Background(), nil)
	time.Sleep(10 * time.Millisecond)
	if got := emitter.getEvents(); len(got) != 0 {
		t.Errorf("expected 0 events, got %d", len(got))
	}
}

func TestEmitAsyncEmits(t *testing.T) {
	emitter := &mockEventEmitter{}
	event := &domain.Event{OrgID: "org-1", UserID: "user-1", EventType: "order_placed", Source: "api"}

	EmitAsync(emitter, context.Background(), event)
	time.Sleep(100 * time.Millisecond)

	got := emitter.getEvents()
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if got[0].OrgID != "org-1" || got[0].EventType != "order_placed" {
		t.Errorf("unexpected event: %+v", got[0])
	}
}

func TestEmitAsyncUsesBackgroundContext(t *testing.T) {
	emitter := &mockEventEmitter{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	EmitAsync(emitter, ctx, &domain.Event{OrgID: "org-1", EventType: "test"})
	time.Sleep(100 * time.Millisecond)

	if got := emitter.getEvents(); len(got) != 1 {
		t.Errorf("expected 1 event despite cancelled request context, got %d", len(got))
	}
}

func TestEmitAsyncErrorDoesNotAffectCaller(t *testing.T) {
	emitter := &mockEventEmitter{emitErr: context.DeadlineExceeded}
	EmitAsync(emitter, context.Background(), &domain.Event{OrgID: "org-1", EventType: "test"})
	time.Sleep(100 * time.Millisecond)
}

func TestEmitAsyncConcurrent(t *testing.T) {
	emitter := &mockEventEmitter{}
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			EmitAsync(emitter, context.Background(), &domain.Event{OrgID: "org-1", EventType: "test"})
		}()
	}
	wg.Wait()
	time.Sleep(200 * time.Millisecond)

	if got := emitter.getEvents(); len(got) != 10 {
		t.Errorf("expected 10 events, got %d", len(got))
	}
}
