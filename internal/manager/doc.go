// Package manager owns the lifecycle of the single resident depth-estimation
// model. It is structured into small files by concern:
//
//   - manager.go: core Manager type, constructor, resident snapshot.
//   - config.go: Config and package defaults.
//   - backend.go: Backend/BackendFactory interfaces injected at construction.
//   - backend_tool.go: subprocess-backed factory for an external estimator CLI.
//   - errors.go: error types and predicate helpers (IsVariantNotFound, ...).
//   - load.go: Load/Switch/Unload transitions.
//   - predict.go: Predict with lazy load and switch-on-mismatch.
//   - status.go: Status reporting including cache probes.
//   - idle.go: background idle-eviction monitor.
//   - download.go: weight download/delete bookkeeping.
//   - metrics.go: prometheus counters.
//
// The manager holds at most one resident model. A single mutex covers the
// whole load/switch/predict/unload critical section, including the idle
// monitor's check-and-unload, so an eviction tick can never free a model
// while a prediction is running against it. Explicit mutations attempted
// while the manager is busy fail fast with a busy error instead of queueing.
package manager
