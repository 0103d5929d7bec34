// Package manager owns the process-wide model handle and the inference path
// built on it. It is structured into small files by concern:
//
//   - manager.go: core Manager type, constructor, simple getters.
//   - config.go: ManagerConfig and package defaults.
//   - types.go: State, ModelHandle and Snapshot.
//   - errors.go: error types and helpers (IsInitFailed, IsInferenceFailed).
//   - ensure.go: GetModel, the exactly-once lazy construction of the handle.
//   - admission.go: optional single-slot gate for pipelines that are not
//     safe for concurrent calls.
//   - predict.go: Predict, the request path (load, classify, time, record).
//   - status_report.go: Ready/Snapshot/Status reporting.
//   - events.go, eventpub_memory.go: lifecycle event publishing.
//
// The handle is built on first use and lives for the rest of the process.
// A failed construction is remembered; later callers receive the same error.
package manager
