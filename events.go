package impact

const (
	POSITIONS_PROJECTED EventType = iota
	IMPACT_RESOLVED
)

type EventType uint8

// Event interface - all events implement this
type Event interface {
	Type() EventType
}

// PositionsProjectedEvent reports that interpenetration was removed, with
// the 2-norm of the applied coordinate change.
type PositionsProjectedEvent struct {
	Distance float64
}

func (e PositionsProjectedEvent) Type() EventType { return POSITIONS_PROJECTED }

// ImpactResolvedEvent reports that all inward normal velocities were
// resolved within one simulation step.
type ImpactResolvedEvent struct {
	Episodes    int
	NumProximal int
}

func (e ImpactResolvedEvent) Type() EventType { return IMPACT_RESOLVED }

// EventListener - callback for events
type EventListener func(event Event)

// Events manager
type Events struct {
	// Listeners by event type
	listeners map[EventType][]EventListener

	// Event buffer to send at flush
	buffer []Event
}

func NewEvents() Events {
	return Events{
		listeners: make(map[EventType][]EventListener),
		buffer:    make([]Event, 0, 16),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// emit buffers an event until the end of the step
func (e *Events) emit(event Event) {
	e.buffer = append(e.buffer, event)
}

// flush sends all buffered events and clears the buffer
func (e *Events) flush() {
	for _, event := range e.buffer {
		if listeners, ok := e.listeners[event.Type()]; ok {
			for _, listener := range listeners {
				listener(event)
			}
		}
	}
	e.buffer = e.buffer[:0]
}
