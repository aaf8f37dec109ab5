package domain

import (
	"strconv"
	"strings"
)

// EnterAction is the decision taken for a node on the entering side of a transition.
type EnterAction string

const (
	// EnterFresh performs a full entry: resolve locals, run OnEnter.
	EnterFresh EnterAction = "enter"
	// EnterReactivate resumes the parked instance with its saved locals.
	EnterReactivate EnterAction = "reactivate"
	// EnterUpdateParams discards a stale parked instance and enters the node again.
	EnterUpdateParams EnterAction = "updateParams"
)

// ExitAction is the decision taken for a node on the exiting side of a transition.
type ExitAction string

const (
	// ExitDiscard fully exits the node, dropping its locals.
	ExitDiscard ExitAction = "exit"
	// ExitInactivate parks the node in the inactive registry.
	ExitInactivate ExitAction = "inactivate"
)

// StickyTransition reports whether the nodes at the pivot are sticky.
type StickyTransition struct {
	From bool `json:"from"`
	To   bool `json:"to"`
}

// TransitionPlan is the outcome of planning a move between two state paths.
type TransitionPlan struct {
	// Keep is the number of leading nodes shared by both paths (identity and params).
	Keep int `json:"keep"`

	// Enter holds one action per node of toPath[Keep:].
	Enter []EnterAction `json:"enter"`

	// Exit holds one action per node of fromPath[Keep:].
	Exit []ExitAction `json:"exit"`

	// Inactive lists every instance that is parked once the transition completes.
	Inactive []*StateInstance `json:"-"`

	Sticky StickyTransition `json:"sticky"`
}

// EnterAt returns the enter action for the node at depth in toPath.
// Depths inside the kept prefix report ok=false.
func (p *TransitionPlan) EnterAt(depth int) (EnterAction, bool) {
	i := depth - p.Keep
	if i < 0 || i >= len(p.Enter) {
		return "", false
	}
	return p.Enter[i], true
}

// ExitAt returns the exit action for the node at depth in fromPath.
func (p *TransitionPlan) ExitAt(depth int) (ExitAction, bool) {
	i := depth - p.Keep
	if i < 0 || i >= len(p.Exit) {
		return "", false
	}
	return p.Exit[i], true
}

// InactiveNames returns the names of the instances in the inactive set.
func (p *TransitionPlan) InactiveNames() []string {
	names := make([]string, 0, len(p.Inactive))
	for _, inst := range p.Inactive {
		names = append(names, inst.Name())
	}
	return names
}

// String renders the plan in a compact single-line form, used in logs.
func (p *TransitionPlan) String() string {
	var sb strings.Builder
	sb.WriteString("keep=")
	sb.WriteString(strconv.Itoa(p.Keep))
	sb.WriteString(" exit=[")
	for i, a := range p.Exit {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(string(a))
	}
	sb.WriteString("] enter=[")
	for i, a := range p.Enter {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(string(a))
	}
	sb.WriteString("] inactive=[")
	sb.WriteString(strings.Join(p.InactiveNames(), " "))
	sb.WriteString("]")
	return sb.String()
}
