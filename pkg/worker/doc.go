// Package worker provides typed asynchronous work for flowtree workflows.
//
// A Worker runs on the runtime's scheduler while its workflow keeps
// declaring it, and reports values back through Emit. Each emitted value is
// turned into an action by the handler given to flowtree.RunningWorker, and
// Emit returns once that action was applied, so a worker never runs ahead
// of the workflow consuming it.
//
// Ready-made workers cover one-shot calls (Once), channels (FromChannel),
// timers (Timer, Ticker), and retries (WithRetry with a RetryPolicy built
// by Retry). Timeouts are ordinary workers: race the work against a Timer
// in the workflow, or use context.WithTimeout inside the worker.
package worker
