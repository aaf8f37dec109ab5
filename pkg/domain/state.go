package domain

import (
	"time"

	"github.com/google/uuid"
)

// StateInstance is a live or parked occurrence of a StateNode.
//
// An instance is created when its node is entered and replaced wholesale on re-entry.
// Locals belong exclusively to the instance until it is discarded.
type StateInstance struct {
	// ID identifies this occurrence; re-entering a node yields a new ID.
	ID string

	Node *StateNode

	// Params is the parameter map in effect when the node was entered.
	Params Params

	// Locals is the opaque resolved data of the state.
	Locals any

	EnteredAt time.Time
}

// NewInstance creates a fresh occurrence of node entered with params.
func NewInstance(node *StateNode, params Params, locals any) *StateInstance {
	return &StateInstance{
		ID:        uuid.NewString(),
		Node:      node,
		Params:    params.Clone(),
		Locals:    locals,
		EnteredAt: time.Now(),
	}
}

// Name returns the name of the instance's node.
func (i *StateInstance) Name() string {
	if i == nil || i.Node == nil {
		return ""
	}
	return i.Node.Name
}

// Record converts the instance into its serializable form.
func (i *StateInstance) Record() InstanceRecord {
	return InstanceRecord{
		ID:        i.ID,
		Name:      i.Name(),
		Params:    i.Params.Clone(),
		Locals:    i.Locals,
		EnteredAt: i.EnteredAt,
	}
}
