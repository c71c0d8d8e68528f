package pubsub

import "context"

// Broker hands out named topics. Asking for the same name twice returns
// the same topic.
type Broker interface {
	Topic(ctx context.Context, id string) Topic
}

// Topic is one named event stream.
type Topic interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(ctx context.Context, hook Hook) (Subscription, error)
}

// Subscription is a handle on an active subscription. Unsubscribe is
// idempotent.
type Subscription interface {
	ID() string
	Unsubscribe()
}

// Hook receives the events of one subscription. Callbacks run on the
// subscription's forwarding goroutine, one event at a time, in publish
// order. A subscriber may still see an in-flight event for an aborted run.
type Hook interface {
	OnDelta(ctx context.Context, event Delta)
	OnFinal(ctx context.Context, event Final)
	OnError(ctx context.Context, event Error)
}

func dispatch(ctx context.Context, event Event, hook Hook) {
	switch event := event.(type) {
	case Delta:
		hook.OnDelta(ctx, event)
	case Final:
		hook.OnFinal(ctx, event)
	case Error:
		hook.OnError(ctx, event)
	}
}

func forwardToHook(ctx context.Context, done <-chan struct{}, events <-chan Event, hook Hook) {
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			dispatch(ctx, event, hook)
		case <-done:
			return
		case <-ctx.Done():
			return
		}
	}
}
