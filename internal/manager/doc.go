// Package manager owns the lifecycle of the voice-clone model: loading it on
// demand, serializing every access, and unloading it after a period of
// inactivity. It is structured into small files by concern:
//
//   - manager.go: core Manager type, constructor, simple getters.
//   - config.go: ManagerConfig and package defaults; NewWithConfig applies defaults.
//   - types.go: lifecycle State values and the observability view.
//   - errors.go: error types and helpers (IsTooBusy, IsNotLoaded, ...).
//   - admission.go: the exclusive lock with bounded queueing.
//   - load.go: Load and EnsureReady.
//   - generate.go: Generate, the synthesis entry point.
//   - unload.go: Unload and Close.
//   - idle.go: the idle timer that unloads an unused model.
//   - status_report.go: Status, MemoryInfo and UtilizationStats.
//   - events.go, eventpub_*.go: lifecycle events and publishers.
//   - metrics.go: Prometheus collectors.
//   - ops.go: background warmup.
//
// The model itself lives behind engine.Engine. Every engine call is made while
// the manager's lock is held, so at most one construction, synthesis or
// release is in flight at any time. Status reads never take the lock.
package manager
