package playback

const eventBufferSize = 16

// Subscription provides event channels for an observer. Observers never
// slow the bus down: events are dropped when a buffer is full.
type Subscription struct {
	Transitions <-chan Transition
	Error       <-chan ErrorEvent
	Done        <-chan struct{}

	// Internal write channels
	transitionCh chan Transition
	errorCh      chan ErrorEvent
	doneCh       chan struct{}
}

// newSubscription creates a new subscription with buffered channels.
func newSubscription() *Subscription {
	s := &Subscription{
		transitionCh: make(chan Transition, eventBufferSize),
		errorCh:      make(chan ErrorEvent, eventBufferSize),
		doneCh:       make(chan struct{}),
	}
	s.Transitions = s.transitionCh
	s.Error = s.errorCh
	s.Done = s.doneCh
	return s
}

// close signals subscribers to stop by closing doneCh.
func (s *Subscription) close() {
	close(s.doneCh)
}

// sendTransition sends a transition (non-blocking).
func (s *Subscription) sendTransition(t Transition) {
	select {
	case s.transitionCh <- t:
	default:
		// Drop if buffer full
	}
}

// sendError sends an error event (non-blocking).
func (s *Subscription) sendError(e ErrorEvent) {
	select {
	case s.errorCh <- e:
	default:
	}
}
