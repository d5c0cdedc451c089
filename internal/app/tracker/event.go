package tracker

import (
	"github.com/slok/duely/internal/liststate"
)

// Mutation is the kind of change applied to the task list.
type Mutation string

const (
	MutationAdd    Mutation = "add"
	MutationUpdate Mutation = "update"
	MutationDelete Mutation = "delete"
	MutationDone   Mutation = "done"
	MutationReset  Mutation = "reset"
	MutationMove   Mutation = "move"
	MutationImport Mutation = "import"
)

// Event describes a successful mutation and the derived fields it changed.
type Event struct {
	Mutation Mutation
	// TaskID is the task the mutation targeted, empty on batch mutations.
	TaskID string
	// Changes has an entry per derived field rewritten by the recompute pass.
	Changes  []liststate.Change
	Progress liststate.Progress
}

// Listener is notified once per successful mutation, after the service lock has
// been released.
type Listener interface {
	OnChange(ev Event)
}

// ListenerFunc is a helper to use functions as Listener.
type ListenerFunc func(ev Event)

// OnChange satisfies Listener interface.
func (f ListenerFunc) OnChange(ev Event) { f(ev) }
