package domain

import "time"

// InstanceRecord is the serializable form of a StateInstance.
// Locals survive a round trip only if they are JSON-encodable.
type InstanceRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Params    Params    `json:"params,omitempty"`
	Locals    any       `json:"locals,omitempty"`
	EnteredAt time.Time `json:"entered_at"`
}

// Snapshot captures the router position and the parked instances of a session.
type Snapshot struct {
	// Current is the name of the deepest active state.
	Current string `json:"current"`

	Params Params `json:"params,omitempty"`

	// Active holds the live instances from the root to Current.
	Active []InstanceRecord `json:"active"`

	// Inactive holds the parked instances, sorted by name.
	Inactive []InstanceRecord `json:"inactive"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewSnapshot returns an empty snapshot positioned at the root.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Current:   RootName,
		Params:    Params{},
		Active:    []InstanceRecord{},
		Inactive:  []InstanceRecord{},
		UpdatedAt: time.Now(),
	}
}

// Clone returns a copy that shares no maps or slices with s. Locals are copied by reference.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := *s
	c.Params = s.Params.Clone()
	c.Active = cloneRecords(s.Active)
	c.Inactive = cloneRecords(s.Inactive)
	return &c
}

func cloneRecords(recs []InstanceRecord) []InstanceRecord {
	out := make([]InstanceRecord, len(recs))
	for i, r := range recs {
		r.Params = r.Params.Clone()
		out[i] = r
	}
	return out
}
