package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/sticky/pkg/adapters/memory"
	"github.com/aretw0/sticky/pkg/domain"
	"github.com/aretw0/sticky/pkg/persistence/middleware"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	underlyingStore := memory.NewStore()
	// Mask keys containing "token" or "email"
	secureStore := middleware.NewPIIMiddleware([]string{"token", "email"})(underlyingStore)

	ctx := context.Background()
	sessionID := "pii-session"

	snap := domain.NewSnapshot()
	snap.Params = domain.Params{"thread_id": "t1", "access_token": "abc"}
	snap.Inactive = []domain.InstanceRecord{{
		ID:     "1",
		Name:   "inbox.thread",
		Params: domain.Params{"thread_id": "t1", "access_token": "abc"},
		Locals: map[string]any{
			"subject": "hello",
			"from":    map[string]any{"email": "jdoe@example.com", "name": "J"},
		},
	}}

	if err := secureStore.Save(ctx, sessionID, snap); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// The caller's snapshot is untouched.
	if snap.Params["access_token"] != "abc" || snap.Inactive[0].Params["access_token"] != "abc" {
		t.Error("Middleware modified original snapshot in memory!")
	}
	if snap.Inactive[0].Locals.(map[string]any)["from"].(map[string]any)["email"] != "jdoe@example.com" {
		t.Error("Middleware modified original locals in memory!")
	}

	stored, _ := underlyingStore.Load(ctx, sessionID)
	if stored.Params["access_token"] != "***" {
		t.Errorf("Expected top-level token masked, got %v", stored.Params["access_token"])
	}
	if stored.Params["thread_id"] != "t1" {
		t.Errorf("Expected thread_id kept, got %v", stored.Params["thread_id"])
	}
	rec := stored.Inactive[0]
	if rec.Params["access_token"] != "***" {
		t.Errorf("Expected parked token masked, got %v", rec.Params["access_token"])
	}
	locals := rec.Locals.(map[string]any)
	if locals["subject"] != "hello" {
		t.Errorf("Expected subject kept, got %v", locals["subject"])
	}
	if locals["from"].(map[string]any)["email"] != "***" {
		t.Errorf("Expected nested email masked, got %v", locals["from"])
	}
}

func TestPIIMiddleware_PassThrough(t *testing.T) {
	underlyingStore := memory.NewStore()
	store := middleware.NewPIIMiddleware([]string{"secret"})(underlyingStore)
	ctx := context.Background()

	if err := store.Save(ctx, "s", domain.NewSnapshot()); err != nil {
		t.Fatal(err)
	}
	ids, _ := store.List(ctx)
	if len(ids) != 1 {
		t.Errorf("Expected 1 session, got %v", ids)
	}
	if err := store.Delete(ctx, "s"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Load(ctx, "s"); err != domain.ErrSessionNotFound {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}
