/*
Package domain contains the core domain models for the sticky-state router core.

It defines the state tree vocabulary (StateNode), the live or parked occurrences
of those nodes (StateInstance), and the output of the transition planner
(TransitionPlan). This package is kept pure and free of I/O or persistence,
following Hexagonal Architecture principles.

# Key Entities

  - StateNode: An immutable definition in the state tree (name, parent, sticky flag, own params).
  - StateInstance: An occurrence of a StateNode holding the params it was entered with and its resolved locals.
  - TransitionPlan: The per-node decisions (enter, reactivate, updateParams, exit, inactivate) for one transition.
  - Snapshot: A serializable record of the active path and the parked instances.
*/
package domain
