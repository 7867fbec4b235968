/*
Package domain contains the core domain model for the relkit release engine.

It defines the fundamental entities of the release workflow: the persisted
ReleaseAttempt record, the Phase enumeration it moves through, the requested
bump kind, and the error taxonomy shared across the tool. This package is kept
pure and free of external dependencies like I/O or persistence, following
Hexagonal Architecture principles.

# Key Entities

  - ReleaseAttempt: The single persisted record tracking one release run.
  - Phase: The current step of the release state machine.
  - BumpKind: The category of version increment requested at attempt start.
  - UndoStep: A reversible repository action recorded as forward steps complete.
*/
package domain
