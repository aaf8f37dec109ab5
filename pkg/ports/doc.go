/*
Package ports defines the driven ports (interfaces) for the sticky router.

These interfaces decouple the core logic from external implementations, allowing
the router to work with various tree sources, snapshot backends and lock services.

# Key Interfaces

  - TreeLoader: Builds a state tree from a source (YAML/JSON file, markdown directory).
  - SnapshotStore: Persists and loads the router position of a session.
  - DistributedLocker: Provides distributed locking for handling concurrent session access.
  - Router: The surface diagnostics adapters (HTTP, MCP) drive and inspect.
*/
package ports
