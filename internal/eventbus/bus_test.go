package eventbus

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Fullex26/failsafe-relay/pkg/models"
)

func TestNew(t *testing.T) {
	bus := New()
	if bus == nil {
		t.Fatal("New() returned nil")
	}
}

func TestSubscribe_And_Publish(t *testing.T) {
	bus := New()
	var got []models.InboundEvent

	bus.Subscribe(func(e models.InboundEvent) {
		got = append(got, e)
	})

	want := models.InboundEvent{
		Origin:  models.PluginIdentifier,
		Payload: models.MessagePayload{Kind: "popup", Text: "hello"},
	}
	bus.Publish(want)

	// Publish is synchronous, no waiting needed
	if len(got) != 1 {
		t.Fatalf("received %d events, want 1", len(got))
	}
	if got[0] != want {
		t.Errorf("received event = %+v, want %+v", got[0], want)
	}
}

func TestPublish_MultipleSubscribersInOrder(t *testing.T) {
	bus := New()
	var order []int

	for i := range 3 {
		bus.Subscribe(func(e models.InboundEvent) {
			order = append(order, i)
		})
	}

	bus.Publish(models.InboundEvent{Origin: "multi"})

	if len(order) != 3 {
		t.Fatalf("only %d/3 subscribers received the event", len(order))
	}
	for i, v := range order {
		if v != i {
			t.Errorf("order = %v, want subscribe order", order)
			break
		}
	}
}

func TestPublish_PreservesEventOrder(t *testing.T) {
	bus := New()
	var texts []string

	bus.Subscribe(func(e models.InboundEvent) {
		texts = append(texts, e.Payload.Text)
	})

	for _, text := range []string{"A", "B", "C"} {
		bus.Publish(models.InboundEvent{Payload: models.MessagePayload{Text: text}})
	}

	if len(texts) != 3 || texts[0] != "A" || texts[1] != "B" || texts[2] != "C" {
		t.Errorf("texts = %v, want [A B C]", texts)
	}
}

func TestPublish_NoSubscribers(t *testing.T) {
	bus := New()
	// Should not panic
	bus.Publish(models.InboundEvent{Origin: "no-subs"})
}

func TestPublish_HandlersNeverOverlap(t *testing.T) {
	bus := New()
	var active, maxActive atomic.Int32

	bus.Subscribe(func(e models.InboundEvent) {
		n := active.Add(1)
		if n > maxActive.Load() {
			maxActive.Store(n)
		}
		active.Add(-1)
	})

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Publish(models.InboundEvent{Origin: "concurrent"})
		}()
	}
	wg.Wait()

	if maxActive.Load() > 1 {
		t.Errorf("handlers ran concurrently: max active = %d", maxActive.Load())
	}
}

func TestSubscribe_ConcurrentSafety(t *testing.T) {
	bus := New()
	var wg sync.WaitGroup

	// Concurrent subscribes and publishes
	for i := range 10 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			bus.Subscribe(func(e models.InboundEvent) {})
			bus.Publish(models.InboundEvent{Origin: "concurrent"})
		}(i)
	}

	wg.Wait()
}
