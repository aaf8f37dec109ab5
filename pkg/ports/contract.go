package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/sticky/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// contractSnapshot builds a snapshot parked under "inbox", positioned at "settings".
func contractSnapshot() *domain.Snapshot {
	now := time.Now().UTC().Truncate(time.Second)
	snap := domain.NewSnapshot()
	snap.Current = "settings"
	snap.Active = []domain.InstanceRecord{
		{ID: "root", Name: domain.RootName, Params: domain.Params{}, EnteredAt: now},
		{ID: "settings-1", Name: "settings", Params: domain.Params{}, EnteredAt: now},
	}
	snap.Inactive = []domain.InstanceRecord{
		{ID: "inbox-1", Name: "inbox", Params: domain.Params{"thread_id": "t1"}, EnteredAt: now},
		{ID: "thread-1", Name: "inbox.thread", Params: domain.Params{"thread_id": "t1"}, Locals: map[string]any{"unread": 3}, EnteredAt: now},
	}
	return snap
}

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore implementation
// adheres to the defined interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		snap := contractSnapshot()

		err := store.Save(ctx, sessionID, snap)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, "settings", loaded.Current)
		require.Len(t, loaded.Active, 2)
		require.Len(t, loaded.Inactive, 2)
		assert.Equal(t, "inbox.thread", loaded.Inactive[1].Name)
		assert.Equal(t, "thread-1", loaded.Inactive[1].ID)
		assert.Equal(t, "t1", loaded.Inactive[1].Params["thread_id"])
		// JSON-backed stores turn numbers into float64; only presence is part of the contract.
		assert.NotNil(t, loaded.Inactive[1].Locals)
	})

	t.Run("Load Returns A Copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.Current = "mutated"

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "settings", again.Current)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, contractSnapshot())
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "Delete of a missing session is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, id1, contractSnapshot()))
		require.NoError(t, store.Save(ctx, id2, contractSnapshot()))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
