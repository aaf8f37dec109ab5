/*
Package session implements session management and persistence orchestration.

A session is a router position saved as a snapshot: the active path plus the
parked sticky instances. The Manager serializes access per session, optionally
across replicas through a distributed locker, and restores/persists snapshots
around each transition.
*/
package session
