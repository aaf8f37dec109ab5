/*
Package dsl provides a fluent builder for declaring sticky state trees in Go code.

It is the programmatic counterpart of the YAML/JSON tree files: useful for
embedding a router in an application, for tests, and for trees whose hooks need
to close over application values.

Example usage:

	package main

	import (
		"github.com/aretw0/sticky/pkg/dsl"
	)

	func main() {
		b := dsl.New()

		b.Add("inbox").Sticky()
		b.Add("inbox.thread").Sticky().Params("thread_id")
		b.Add("inbox.thread.message").
			Params("message_id").
			OnEnter(loadMessage).
			OnExit(closeMessage)
		b.Add("settings")

		// The resulting tree is ready for sticky.New(...)
		t, err := b.Build()
		// ...
	}

Parents must be declared for every state; Build registers them before their
children regardless of declaration order.
*/
package dsl
