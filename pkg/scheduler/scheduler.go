package scheduler

// Scheduler runs units of work on behalf of the workflow runtime.
//
// Implementations decide where and when a task runs: in place, on a new
// goroutine, or on a serial worker. Dispatch must not block waiting for the
// task itself to finish.
type Scheduler interface {
	Dispatch(task func())
}

// Func adapts an ordinary function to the Scheduler interface.
type Func func(task func())

func (f Func) Dispatch(task func()) { f(task) }

// Immediate runs every task in place, on the dispatching goroutine. Task
// bodies of the runtime hold it only until they call Detach.
var Immediate Scheduler = immediate{}

// Goroutines runs every task on its own goroutine. It is the default
// scheduler of the runtime.
var Goroutines Scheduler = goroutines{}

type immediate struct{}

func (immediate) Dispatch(task func()) { task() }

type goroutines struct{}

func (goroutines) Dispatch(task func()) { go task() }

// Advancer is implemented by schedulers that can synchronously drain the
// work queued on them, such as WorkStealing.
type Advancer interface {
	AdvanceUntilIdle()
}
