// Package api contains the building blocks shared by the flowtree runtime
// and its engine: node identities, lazy snapshots and the tree snapshot
// codec, the untyped workflow contract (Definition, RenderContext, Action,
// Task), interceptors for logging, metrics and history, error types, and
// runtime configuration.
//
// Most users interact with the typed flowtree package, which builds on
// these types. The api package is intended for custom integrations,
// interceptors, and tooling that inspects snapshots.
//
// # Snapshots
//
// A TreeSnapshot pairs a node's own Snapshot with one TreeSnapshot per
// child, keyed by NodeID. Own snapshots are lazy: serializers run when the
// tree is encoded, not when it is captured. Nodes whose identity is
// unsnapshottable are left out of the encoded form.
//
// # Observability
//
// Interceptors wrap the calls the engine makes into workflows. Ready-made
// implementations log with log/slog (LoggingInterceptor), count
// (BasicMetrics) and keep a history (EventRecorder). ChainInterceptors
// combines them.
package api
