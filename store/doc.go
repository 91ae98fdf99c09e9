// Package store defines checkpoint persistence for conversation threads.
//
// A Checkpoint is a snapshot of conversation state taken after a node
// transition, keyed by thread ID. CheckpointStore is the pluggable backend
// contract; the subpackages provide implementations:
//
//   - store/memory: in-process map, for development and tests (lost on restart)
//   - store/sqlite: durable embedded database, for single-host production
//   - store/redis: shared cache with optional TTL-based expiry
//   - store/postgres: relational backend for deployments already on Postgres
//
// All backends support independent read/write per thread key; no cross-thread
// transactions are required or used. Checkpoint state is stored as raw JSON so
// that replaying a checkpoint restores exactly the bytes that were saved.
package store
