package onebot

import (
	"context"
	"testing"
)

func TestDispatchRoutesByPostType(t *testing.T) {
	var got []string
	record := func(kind string) func(context.Context, Event) {
		return func(_ context.Context, _ Event) { got = append(got, kind) }
	}
	d := NewDispatcher(Handlers{
		Message: record("message"),
		Notice:  record("notice"),
		Request: record("request"),
		Meta:    record("meta"),
	})

	ctx := context.Background()
	d.Dispatch(ctx, Event{PostType: PostTypeMessage})
	d.Dispatch(ctx, Event{PostType: PostTypeNotice})
	d.Dispatch(ctx, Event{PostType: PostTypeRequest})
	d.Dispatch(ctx, Event{PostType: PostTypeMeta})

	want := []string{"message", "notice", "request", "meta"}
	if len(got) != len(want) {
		t.Fatalf("dispatched %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("dispatched %v, want %v", got, want)
		}
	}
}

func TestDispatchDropsUnknownPostType(t *testing.T) {
	called := false
	d := NewDispatcher(Handlers{
		Message: func(_ context.Context, _ Event) { called = true },
	})
	d.Dispatch(context.Background(), Event{PostType: "lifecycle"})
	if called {
		t.Fatalf("unknown post type must not reach the message handler")
	}
}

func TestNilHandlersAreSafe(t *testing.T) {
	d := NewDispatcher(Handlers{})
	ctx := context.Background()
	// Default handlers only log; none of these may panic.
	d.Dispatch(ctx, Event{PostType: PostTypeMessage, MessageType: MessageTypePrivate})
	d.Dispatch(ctx, Event{PostType: PostTypeNotice})
	d.Dispatch(ctx, Event{PostType: PostTypeRequest, RequestType: "friend"})
	d.Dispatch(ctx, Event{PostType: PostTypeMeta, MetaEventType: "heartbeat"})
}
