package runtime

import (
	"fmt"
	"time"

	"github.com/aretw0/sticky/pkg/domain"
)

// Snapshot captures the active path and the parked instances.
func (e *Engine) Snapshot() *domain.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := &domain.Snapshot{
		Current:   e.active[len(e.active)-1].Name(),
		Params:    e.params.Clone(),
		Active:    make([]domain.InstanceRecord, 0, len(e.active)),
		Inactive:  []domain.InstanceRecord{},
		UpdatedAt: time.Now(),
	}
	for _, inst := range e.active {
		snap.Active = append(snap.Active, inst.Record())
	}
	for _, inst := range e.registry.List() {
		snap.Inactive = append(snap.Inactive, inst.Record())
	}
	return snap
}

// Restore repositions the engine from a snapshot without running any hook.
// Every state named by the snapshot must exist in the tree.
func (e *Engine) Restore(snap *domain.Snapshot) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	active := make([]*domain.StateInstance, 0, len(snap.Active))
	for _, rec := range snap.Active {
		inst, err := e.instanceFromRecord(rec)
		if err != nil {
			return err
		}
		active = append(active, inst)
	}
	path, err := e.tree.Path(snap.Current)
	if err != nil {
		return err
	}
	if len(active) == 0 && len(path) == 1 {
		active = append(active, domain.NewInstance(path[0], snap.Params, nil))
	}
	if len(active) != len(path) {
		return fmt.Errorf("snapshot active path has %d states, %q needs %d", len(active), snap.Current, len(path))
	}
	for i, n := range path {
		if active[i].Node != n {
			return fmt.Errorf("snapshot active path diverges at %q (expected %q)", active[i].Name(), n.Name)
		}
	}

	inactive := make([]*domain.StateInstance, 0, len(snap.Inactive))
	for _, rec := range snap.Inactive {
		inst, err := e.instanceFromRecord(rec)
		if err != nil {
			return err
		}
		inactive = append(inactive, inst)
	}

	e.active = active
	e.params = snap.Params.Clone()
	e.registry.Load(inactive...)
	e.logger.Debug("engine restored", "current", snap.Current, "inactive", len(inactive))
	return nil
}

func (e *Engine) instanceFromRecord(rec domain.InstanceRecord) (*domain.StateInstance, error) {
	node, err := e.tree.Get(rec.Name)
	if err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}
	return &domain.StateInstance{
		ID:        rec.ID,
		Node:      node,
		Params:    rec.Params.Clone(),
		Locals:    rec.Locals,
		EnteredAt: rec.EnteredAt,
	}, nil
}
