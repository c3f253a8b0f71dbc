package onebot

import (
	"context"
	"log"
)

// Handlers routes inbound events by post type. Nil handlers fall back to
// logging the event subtype, which is all the bridge does for notice, request
// and meta events.
type Handlers struct {
	Message func(ctx context.Context, ev Event)
	Notice  func(ctx context.Context, ev Event)
	Request func(ctx context.Context, ev Event)
	Meta    func(ctx context.Context, ev Event)
}

type Dispatcher struct {
	handlers Handlers
}

func NewDispatcher(h Handlers) *Dispatcher {
	if h.Message == nil {
		h.Message = func(_ context.Context, ev Event) {
			log.Printf("message event: %s", orUnknown(ev.MessageType))
		}
	}
	if h.Notice == nil {
		h.Notice = func(_ context.Context, ev Event) {
			log.Printf("notice event: %s", orUnknown(ev.NoticeType))
		}
	}
	if h.Request == nil {
		h.Request = func(_ context.Context, ev Event) {
			log.Printf("request event: %s", orUnknown(ev.RequestType))
		}
	}
	if h.Meta == nil {
		h.Meta = func(_ context.Context, ev Event) {
			log.Printf("meta event: %s", orUnknown(ev.MetaEventType))
		}
	}
	return &Dispatcher{handlers: h}
}

// Dispatch routes one event. Unknown post types are logged and dropped.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) {
	switch ev.PostType {
	case PostTypeMessage:
		d.handlers.Message(ctx, ev)
	case PostTypeNotice:
		d.handlers.Notice(ctx, ev)
	case PostTypeRequest:
		d.handlers.Request(ctx, ev)
	case PostTypeMeta:
		d.handlers.Meta(ctx, ev)
	default:
		log.Printf("⚠️ unrecognized event type %q, dropping", ev.PostType)
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
