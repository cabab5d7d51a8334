package events

import (
	"context"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
)

type pingEvent struct{ n int }

func (pingEvent) EventName() string { return "ping" }

func TestPublish_RegistrationOrderAndSynchronous(t *testing.T) {
	b := NewBus(zerolog.Nop())
	var calls []string
	b.Subscribe("ping", func(_ context.Context, e Event) { calls = append(calls, "first") })
	b.Subscribe("ping", func(_ context.Context, e Event) { calls = append(calls, "second") })
	b.Subscribe("other", func(_ context.Context, e Event) { calls = append(calls, "other") })

	b.Publish(context.Background(), pingEvent{n: 1})

	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Fatalf("unexpected call order: %v", calls)
	}
}

func TestPublish_NoSubscribersIsNoop(t *testing.T) {
	b := NewBus(zerolog.Nop())
	b.Publish(context.Background(), pingEvent{})
	b.Publish(context.Background(), nil)
	if b.HasSubscribers("ping") {
		t.Fatal("expected no subscribers")
	}
	b.Subscribe("ping", nil)
	if b.HasSubscribers("ping") {
		t.Fatal("nil handler must not register")
	}
}

func TestPublish_PanicAbortsRemainingHandlers(t *testing.T) {
	b := NewBus(zerolog.Nop())
	reached := false
	b.Subscribe("ping", func(context.Context, Event) { panic("boom") })
	b.Subscribe("ping", func(context.Context, Event) { reached = true })

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic to propagate to publisher")
		}
		if reached {
			t.Fatal("second handler must not run after a panic")
		}
	}()
	b.Publish(context.Background(), pingEvent{})
}

func TestPublish_HandlerMaySubscribe(t *testing.T) {
	b := NewBus(zerolog.Nop())
	b.Subscribe("ping", func(context.Context, Event) {
		b.Subscribe("ping", func(context.Context, Event) {})
	})
	b.Publish(context.Background(), pingEvent{})
	if !b.HasSubscribers("ping") {
		t.Fatal("expected subscribers")
	}
}

func TestNewSubmissionCreated_CopiesData(t *testing.T) {
	data := map[string]string{"name": "Ada"}
	e := NewSubmissionCreated(1, 2, data)
	data["name"] = "changed"

	if e.Data["name"] != "Ada" {
		t.Fatalf("event data aliased caller map: %v", e.Data)
	}
	if e.EventName() != SubmissionCreated || e.FormID != 1 || e.SubmissionID != 2 {
		t.Fatalf("unexpected event: %+v", e)
	}

	var got SubmissionCreatedEvent
	b := NewBus(zerolog.Nop())
	b.Subscribe(SubmissionCreated, func(_ context.Context, ev Event) {
		got = ev.(SubmissionCreatedEvent)
	})
	b.Publish(context.Background(), e)
	if got.SubmissionID != 2 {
		t.Fatalf("subscriber did not receive event: %+v", got)
	}
}

func TestSubmissionCreated_KeysFollowFormOrder(t *testing.T) {
	order := []string{"name", "email", "message", "missing"}
	e := NewSubmissionCreated(1, 2, map[string]string{
		"message": "hi", "zip": "1000", "email": "a@b.com", "name": "Ada", "extra": "x",
	}).WithFields(order)
	order[0] = "changed"

	want := []string{"name", "email", "message", "extra", "zip"}
	if got := e.Keys(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Keys() = %v; want %v", got, want)
	}
	if got := NewSubmissionCreated(1, 2, map[string]string{"b": "", "a": ""}).Keys(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("Keys() without fields = %v", got)
	}
}
