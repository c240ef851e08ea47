package engine

import (
	"context"
	"fmt"
	"reflect"
	"runtime/debug"

	"github.com/petrijr/flowtree/pkg/api"
	"github.com/petrijr/flowtree/pkg/scheduler"
)

// taskNode is a declared task. It is started once, after the pass that
// first declared it is frozen, and cancelled when a pass omits it.
type taskNode struct {
	key    string
	task   api.Task
	cancel context.CancelCauseFunc
}

func sameWork(running, declared api.Task) bool {
	if sw, ok := running.(api.SameWorker); ok {
		return sw.SameWork(declared)
	}
	return reflect.TypeOf(running) == reflect.TypeOf(declared)
}

func (n *Node) declareTask(key string, task api.Task) {
	sameKey := func(t *taskNode) bool { return t.key == key }
	if _, dup := n.tasks.findStaging(sameKey); dup {
		panic(api.Usagef(api.ErrDuplicateTask,
			"task %q declared more than once by %s in one pass", key, n.id))
	}

	t, created := n.tasks.retainOrCreate(
		func(t *taskNode) bool { return t.key == key && sameWork(t.task, task) },
		func() *taskNode { return &taskNode{key: key, task: task} },
	)
	if !created {
		if u, ok := t.task.(api.TaskUpdater); ok {
			u.UpdateFrom(task)
		}
	}
}

// startTasks dispatches every staged task that has not been started yet.
// Called after the render context is frozen and tasks are committed.
func (n *Node) startTask(t *taskNode) {
	ctx, cancel := context.WithCancelCause(n.ctx)
	t.cancel = cancel
	where := fmt.Sprintf("%s task %q", n.session.Path(), t.key)
	task := t.task

	n.env.scheduler.Dispatch(func() {
		scheduler.RunDetachable(ctx, func(ctx context.Context) {
			defer func() {
				if r := recover(); r != nil {
					n.env.fail(&api.RuntimeError{Node: where, Err: &api.PanicError{Value: r, Stack: debug.Stack()}})
				}
			}()
			if ctx.Err() != nil {
				return
			}
			sink := nodeSink{queue: n.queue, taskCtx: ctx}
			if err := task.Run(ctx, sink); err != nil && !api.IsCancellation(ctx, err) {
				n.env.fail(&api.RuntimeError{Node: where, Err: err})
			}
		})
	})
}

func (n *Node) cancelTask(t *taskNode, cause error) {
	if hook, ok := t.task.(api.CancelHook); ok {
		hook.OnCancel()
	}
	if t.cancel != nil {
		t.cancel(cause)
	}
}
