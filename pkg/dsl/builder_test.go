package dsl

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/sticky/pkg/domain"
)

func TestBuilder_StickyTree(t *testing.T) {
	entered := 0
	b := New()

	// Children first: Build orders registration by depth.
	b.Add("inbox.thread.message").
		Params("message_id").
		OnEnter(func(ctx context.Context, inst *domain.StateInstance) error {
			entered++
			return nil
		})
	b.Add("inbox.thread").Sticky().Params("thread_id")
	b.Add("inbox").Sticky()
	b.Add("settings").CompareAllParams()

	tr, err := b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	if tr.Len() != 4 {
		t.Fatalf("Expected 4 states, got %d", tr.Len())
	}

	thread, err := tr.Get("inbox.thread")
	if err != nil {
		t.Fatalf("Get('inbox.thread') failed: %v", err)
	}
	if !thread.Sticky {
		t.Error("Expected inbox.thread to be sticky")
	}
	if len(thread.OwnParams) != 1 || thread.OwnParams[0] != "thread_id" {
		t.Errorf("Expected own params [thread_id], got %v", thread.OwnParams)
	}
	if thread.Parent != "inbox" {
		t.Errorf("Expected parent 'inbox', got %q", thread.Parent)
	}

	inbox, _ := tr.Get("inbox")
	if inbox.OwnParams == nil || len(inbox.OwnParams) != 0 {
		t.Errorf("Expected inbox to own no params, got %#v", inbox.OwnParams)
	}

	settings, _ := tr.Get("settings")
	if settings.OwnParams != nil {
		t.Errorf("Expected settings to compare all params, got %v", settings.OwnParams)
	}

	msg, _ := tr.Get("inbox.thread.message")
	if msg.Hooks.OnEnter == nil {
		t.Fatal("Expected OnEnter hook on message")
	}
	_ = msg.Hooks.OnEnter(context.Background(), domain.NewInstance(msg, nil, nil))
	if entered != 1 {
		t.Errorf("Expected hook to run once, ran %d times", entered)
	}
}

func TestBuilder_AddReturnsExisting(t *testing.T) {
	b := New()
	first := b.Add("a")
	first.Sticky()

	if b.Add("a") != first {
		t.Fatal("Expected Add to return the existing builder")
	}

	built, err := b.Add("a").Params("id").Add("b").Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	a, _ := built.Get("a")
	if !a.Sticky || len(a.OwnParams) != 1 {
		t.Errorf("Expected sticky 'a' owning [id], got sticky=%v params=%v", a.Sticky, a.OwnParams)
	}
	if _, err := built.Get("b"); err != nil {
		t.Errorf("Expected 'b' to be registered: %v", err)
	}
}

func TestBuilder_MissingParent(t *testing.T) {
	b := New()
	b.Add("a.b")

	_, err := b.Build()
	if err == nil {
		t.Fatal("Expected error for undeclared parent")
	}
	if !errors.Is(err, domain.ErrParentNotFound) {
		t.Errorf("Expected ErrParentNotFound, got %v", err)
	}
}

func TestBuilder_MustBuildPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected MustBuild to panic")
		}
	}()
	b := New()
	b.Add("x.y")
	b.MustBuild()
}
