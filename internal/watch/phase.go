package watch

import "portolan/internal/check"

// ObserverPhase tracks one observer's lifecycle on the hub.
type ObserverPhase uint8

const (
	ObserverConnecting ObserverPhase = iota + 1
	ObserverSubscribed
	ObserverClosed
	ObserverFailed
)

func (p ObserverPhase) String() string {
	switch p {
	case ObserverConnecting:
		return "connecting"
	case ObserverSubscribed:
		return "subscribed"
	case ObserverClosed:
		return "closed"
	case ObserverFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (p ObserverPhase) Transition(to ObserverPhase) ObserverPhase {
	ok := false
	switch p {
	case ObserverConnecting:
		ok = to == ObserverSubscribed
	case ObserverSubscribed:
		ok = to == ObserverClosed || to == ObserverFailed
	case ObserverClosed, ObserverFailed:
		ok = false
	}
	check.Assertf(ok, "observer phase transition: %s -> %s", p, to)
	if !ok {
		return p
	}
	return to
}
