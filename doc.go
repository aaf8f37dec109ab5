/*
Package sticky plans and applies transitions between states of a hierarchical
router whose states may be sticky.

A sticky state is not destroyed when the user navigates away from it: it is parked
in an inactive registry together with its resolved data, and reactivated as-is
when the user comes back with the same parameters. Every transition is decided
by a pure planner that reports, per state, whether it is entered, reactivated,
re-entered with new params, parked or exited.

# Concept

States form a tree addressed by dot-delimited names ("inbox.thread"). The Router
keeps the active path from the implicit root to the current state; the planner
compares it with the target path, and the registry applies the outcome while
invoking the per-state hooks (OnEnter, OnExit, OnInactivate, OnReactivate).

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/sticky"
		"github.com/aretw0/sticky/pkg/domain"
		"github.com/aretw0/sticky/pkg/dsl"
	)

	func main() {
		b := dsl.New()
		b.Add("inbox").Sticky()
		b.Add("inbox.thread").Sticky().Params("thread_id")
		b.Add("settings")

		ctx := context.Background()
		router, err := sticky.New(ctx, "", sticky.WithTree(b.MustBuild()))
		if err != nil {
			log.Fatal(err)
		}

		router.TransitionTo(ctx, "inbox.thread", domain.Params{"thread_id": 42})
		router.TransitionTo(ctx, "settings", nil)     // inbox and the thread are parked
		router.TransitionTo(ctx, "inbox.thread", domain.Params{"thread_id": 42}) // both reactivate
	}

Trees can also be loaded from a YAML/JSON file or a directory of markdown
documents (one state per document) by passing its path as the source.

# Observability

Use WithLogger for structured logs and WithLifecycleHooks for events; the
observability package turns the hooks into Prometheus metrics and audit logs.
*/
package sticky
