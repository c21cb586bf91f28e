// Package fetchcache implements a keyed async-result cache that coordinates fetches
// against a remote node. Each key carries a fetch status and its last known result;
// the whole store is scoped to one cluster endpoint and is cleared when the endpoint changes.
//
// Components:
//   - State/Reduce: immutable snapshot of entries plus a pure transition function
//     over Clear and Update actions.
//   - Fetch coordinator: at most one in-flight fetch per key (unless forced), results
//     fed back as Update actions stamped with the endpoint the fetch started on.
//   - Surface: Get/GetMany/Snapshot for readers, Subscribe for per-key change listeners.
//   - Cluster binding: SetCluster rebinds and clears atomically.
//   - Optional second tier: Provider + Codec[V] + GenStore, shared across scopes or replicas.
//
// Fencing:
//
//	fetch starts on endpoint A -> cluster switches to B -> result for A arrives -> dropped
//
// Not found:
//
//	fetcher returns ErrNotFound -> Entry{Status: Fetched, Found: false}
package fetchcache
