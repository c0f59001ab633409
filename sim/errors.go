package sim

import (
	"errors"
	"fmt"
)

// Sentinel errors for configuration and lifecycle failures. All of them are
// fatal: a harness whose Build failed refuses to run.
var (
	// ErrGraphCycle indicates the connection set admits no topological order.
	ErrGraphCycle = errors.New("component graph contains a cycle")

	// ErrUnknownComponent indicates a connection or binding references a
	// component ID that was never added.
	ErrUnknownComponent = errors.New("unknown component reference")

	// ErrDuplicateID indicates two components or two agents were registered
	// under the same ID.
	ErrDuplicateID = errors.New("duplicate ID")

	// ErrActionTopicConflict indicates two control agents publish actions to
	// the same topic. Actions are single-writer per tick; the conflict is
	// rejected at Build rather than silently resolved last-writer-wins.
	ErrActionTopicConflict = errors.New("action topic has more than one publisher")

	// ErrNotBuilt is returned by run methods invoked before a successful Build.
	ErrNotBuilt = errors.New("harness is not built")

	// ErrAlreadyRan is returned when a run method is invoked on a harness that
	// already completed a run without an intervening Reset.
	ErrAlreadyRan = errors.New("harness already ran; call Reset first")
)

// BusDeliveryError wraps a subscriber callback failure. It propagates
// synchronously to the publisher and aborts the current tick: a silently
// dropped control action is worse than a loud failure.
type BusDeliveryError struct {
	Topic string
	Err   error
}

func (e *BusDeliveryError) Error() string {
	return fmt.Sprintf("bus delivery on topic %q: %v", e.Topic, e.Err)
}

func (e *BusDeliveryError) Unwrap() error { return e.Err }

// ComponentUpdateError wraps a physical update that produced an invalid
// state (for example a negative storage volume). It aborts the run:
// continuing would record physically meaningless history.
type ComponentUpdateError struct {
	ComponentID string
	Err         error
}

func (e *ComponentUpdateError) Error() string {
	return fmt.Sprintf("component %q update: %v", e.ComponentID, e.Err)
}

func (e *ComponentUpdateError) Unwrap() error { return e.Err }
