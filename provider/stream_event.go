package provider

// StreamEvent is one element of an incremental completion sequence.
// The unexported marker keeps the union closed: Delta, Done and Error are
// the only variants a stream may produce.
type StreamEvent interface {
	streamEvent()
}

// Delta carries one incremental text fragment.
type Delta struct {
	Text string
}

func (Delta) streamEvent() {}

// Done terminates a successful stream with the final usage counters.
type Done struct {
	Usage Usage
}

func (Done) streamEvent() {}

// Error terminates a failed stream. No events follow it.
type Error struct {
	Err error
}

func (Error) streamEvent() {}

func (e Error) Error() string {
	return e.Err.Error()
}

var (
	_ StreamEvent = Delta{}
	_ StreamEvent = Done{}
	_ StreamEvent = Error{}
)
