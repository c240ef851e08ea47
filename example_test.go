package flowtree_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/petrijr/flowtree"
)

type greeting struct {
	Text  string
	Greet func(name string)
}

// Example_builder defines a stateful workflow with the fluent builder and
// drives it with a LocalRunner.
func Example_builder() {
	greeter := flowtree.New[string, []string, string, greeting]("Greeter").
		InitialFromProps(func(string) []string { return nil }).
		Render(func(ctx *flowtree.RenderContext[string, []string, string], salutation string, seen []string) greeting {
			sink := ctx.Sink()
			return greeting{
				Text: fmt.Sprintf("%s, %d greeted", salutation, len(seen)),
				Greet: func(name string) {
					sink.Send(flowtree.NewAction("greet", func(u *flowtree.Updater[string, []string, string]) {
						u.State = append(append([]string(nil), u.State...), name)
						u.SetOutput(salutation + ", " + name)
					}))
				},
			}
		}).
		Build()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	runner, err := flowtree.NewLocalRunner(ctx, greeter, "hello", flowtree.Options{})
	if err != nil {
		log.Fatal(err)
	}
	defer runner.Stop()

	fmt.Println(runner.Rendering().Text)
	runner.Rendering().Greet("gopher")

	out, err := runner.AwaitOutputs(ctx, 1)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(out[0])

	r, err := runner.AwaitRendering(ctx, func(g greeting) bool { return g.Text == "hello, 1 greeted" })
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(r.Text)

	// Output:
	// hello, 0 greeted
	// hello, gopher
	// hello, 1 greeted
}

// Example_mapRendering shows a parent rendering a child through
// MapRendering.
func Example_mapRendering() {
	counter := flowtree.New[int, int, string, int]("Counter").
		InitialFromProps(func(start int) int { return start }).
		Render(func(_ *flowtree.RenderContext[int, int, string], _ int, n int) int { return n }).
		Build()
	label := flowtree.MapRendering(counter, func(n int) string { return fmt.Sprintf("count is %d", n) })

	rt, err := flowtree.RenderWorkflow(context.Background(), label, 41, nil, nil, flowtree.Options{})
	if err != nil {
		log.Fatal(err)
	}
	defer rt.Cancel()

	fmt.Println(rt.Current().Rendering)
	fmt.Println(label.Identity())

	// Output:
	// count is 41
	// Identity(flowtree.MapRendering, Counter)
}
