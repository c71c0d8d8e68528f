package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fogfish/opts"
	"github.com/go-openapi/strfmt"
	"github.com/strixlab/strix/pkg/slogx"
	"github.com/strixlab/strix/pkg/uuidx"
	"github.com/strixlab/strix/provider"
	"github.com/strixlab/strix/pubsub"
)

const defaultTopic = "chat"

// WithTopic overrides the broadcast topic run events are published to.
func WithTopic(name string) opts.Option[Service] {
	return opts.Type[Service](func(s *Service) error {
		if name == "" {
			return fmt.Errorf("topic cannot be empty")
		}
		s.topic = name
		return nil
	})
}

// WithRunTimeout bounds the wall-clock time of each run. The transport
// enforces no deadline of its own, so a stalled upstream relies on this.
// A run that hits the bound broadcasts an error event as its terminal.
// Zero disables the bound.
func WithRunTimeout(d time.Duration) opts.Option[Service] {
	return opts.Type[Service](func(s *Service) error {
		if d < 0 {
			return fmt.Errorf("run timeout cannot be negative")
		}
		s.runTimeout = d
		return nil
	})
}

// Service tracks in-flight runs. The active-run map is the only mutable
// shared state: reads go through the read lock, insertion and removal
// through the write lock.
type Service struct {
	providers  *provider.Registry
	broker     pubsub.Broker
	topic      string
	runTimeout time.Duration

	mu     sync.RWMutex
	active map[string]context.CancelFunc
}

// New builds a run manager over the given registry and broadcast broker.
func New(providers *provider.Registry, broker pubsub.Broker, options ...opts.Option[Service]) (*Service, error) {
	if providers == nil {
		return nil, fmt.Errorf("providers cannot be nil")
	}
	if broker == nil {
		return nil, fmt.Errorf("broker cannot be nil")
	}

	s := &Service{
		providers: providers,
		broker:    broker,
		topic:     defaultTopic,
		active:    make(map[string]context.CancelFunc),
	}
	if err := opts.Apply(s, options); err != nil {
		return nil, err
	}
	return s, nil
}

// SendRequest is a completion request from a front-end. Model is optional;
// when empty the first discovered provider serves the request.
type SendRequest struct {
	Text  string `json:"text"`
	Model string `json:"model,omitempty"`
}

// Send validates and resolves the request synchronously, then launches the
// run and returns its id without waiting for stream completion. A rejected
// request never allocates a run id.
func (s *Service) Send(ctx context.Context, req SendRequest) (string, error) {
	if strings.TrimSpace(req.Text) == "" {
		return "", ErrMissingText
	}

	prov, err := s.resolve(req.Model)
	if err != nil {
		return "", err
	}

	runID := uuidx.NewString()

	// The run outlives the request context: only Abort or the run timeout
	// cancel it.
	base := context.WithoutCancel(ctx)
	var runCtx context.Context
	var cancel context.CancelFunc
	if s.runTimeout > 0 {
		runCtx, cancel = context.WithTimeout(base, s.runTimeout)
	} else {
		runCtx, cancel = context.WithCancel(base)
	}

	s.mu.Lock()
	s.active[runID] = cancel
	s.mu.Unlock()

	go s.run(runCtx, prov, runID, req.Text)

	return runID, nil
}

func (s *Service) resolve(modelID string) (provider.Provider, error) {
	if modelID != "" {
		prov, ok := s.providers.Get(modelID)
		if !ok {
			models := s.providers.ListModels()
			available := make([]string, 0, len(models))
			for _, m := range models {
				available = append(available, m.ID)
			}
			return nil, &ModelNotFoundError{Model: modelID, Available: available}
		}
		return prov, nil
	}

	prov, ok := s.providers.First()
	if !ok {
		return nil, ErrNoProviders
	}
	return prov, nil
}

func (s *Service) run(ctx context.Context, prov provider.Provider, runID, text string) {
	defer s.remove(runID)

	topic := s.broker.Topic(ctx, s.topic)
	messages := []provider.Message{{Role: "user", Content: text}}

	var accumulated strings.Builder
	for event := range prov.Stream(ctx, messages) {
		switch event := event.(type) {
		case provider.Delta:
			accumulated.WriteString(event.Text)
			if err := topic.Publish(ctx, pubsub.Delta{
				RunID:     runID,
				Text:      event.Text,
				Timestamp: strfmt.DateTime(time.Now()),
			}); err != nil {
				slog.ErrorContext(ctx, "failed to publish delta event", slogx.Error(err))
			}

		case provider.Done:
			slog.DebugContext(ctx, "chat stream done",
				slog.String("run_id", runID),
				slog.Uint64("input_tokens", uint64(event.Usage.InputTokens)),
				slog.Uint64("output_tokens", uint64(event.Usage.OutputTokens)),
			)
			if err := topic.Publish(ctx, pubsub.Final{
				RunID:     runID,
				Text:      accumulated.String(),
				Usage:     event.Usage,
				Timestamp: strfmt.DateTime(time.Now()),
			}); err != nil {
				slog.ErrorContext(ctx, "failed to publish final event", slogx.Error(err))
			}
			return

		case provider.Error:
			slog.WarnContext(ctx, "chat stream error",
				slog.String("run_id", runID),
				slogx.Error(event.Err),
			)
			if err := topic.Publish(ctx, pubsub.Error{
				RunID:     runID,
				Message:   event.Err.Error(),
				Timestamp: strfmt.DateTime(time.Now()),
			}); err != nil {
				slog.ErrorContext(ctx, "failed to publish error event", slogx.Error(err))
			}
			return
		}
	}

	// The stream closed without a terminal event. When the run timeout is
	// the cause, subscribers still get their terminal event; an abort stays
	// silent because the caller initiated it.
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		pubCtx := context.WithoutCancel(ctx)
		slog.WarnContext(pubCtx, "chat run timed out", slog.String("run_id", runID))
		if err := topic.Publish(pubCtx, pubsub.Error{
			RunID:     runID,
			Message:   "run timed out",
			Timestamp: strfmt.DateTime(time.Now()),
		}); err != nil {
			slog.ErrorContext(pubCtx, "failed to publish error event", slogx.Error(err))
		}
	}
}

// remove takes the run out of the active set and releases its context.
// It never re-inserts, so a publish racing an abort stays a stale event.
func (s *Service) remove(runID string) {
	s.mu.Lock()
	cancel, ok := s.active[runID]
	delete(s.active, runID)
	s.mu.Unlock()

	if ok {
		cancel()
	}
}

// Abort cancels an in-flight run. Aborting an unknown or already-finished
// run id is a silent no-op.
func (s *Service) Abort(runID string) {
	s.remove(runID)
}

// Active returns the ids of the runs currently in flight.
func (s *Service) Active() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.active))
	for id := range s.active {
		ids = append(ids, id)
	}
	return ids
}

// ListModels exposes the registry's models in priority order.
func (s *Service) ListModels() []provider.ModelInfo {
	return s.providers.ListModels()
}

// History returns the stored conversation of past runs. Runs are not
// persisted, so it is always empty.
func (s *Service) History(ctx context.Context) ([]provider.Message, error) {
	return nil, nil
}

// Inject adds messages to a conversation out of band.
func (s *Service) Inject(ctx context.Context, messages ...provider.Message) error {
	return fmt.Errorf("inject: %w", ErrNotImplemented)
}
