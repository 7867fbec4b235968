/*
Package ports defines the driven ports (interfaces) for the relkit engine.

These interfaces decouple the release state machine from external
implementations, allowing the engine to work with the real git tooling in
production and deterministic in-memory fakes in tests.

# Key Interfaces

  - Repository: The version-control capabilities the engine requires.
  - AttemptStore: Persists and loads the release attempt record.
  - Locker: Cross-process exclusive lock for state-mutating invocations.
*/
package ports
