package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/delaneyj/flowdom/cmd/flowbench/internal/logging"
	"github.com/delaneyj/flowdom/pkg/component"
	"github.com/delaneyj/flowdom/pkg/dom"
	"github.com/delaneyj/flowdom/pkg/dom/memdom"
	"github.com/delaneyj/flowdom/pkg/promise"
	"github.com/delaneyj/flowdom/pkg/reactive"
	"github.com/delaneyj/flowdom/pkg/render"
)

type todo struct {
	ID   int
	Text string
	Done bool
}

type todoApp struct {
	rt     *render.Runtime
	items  *reactive.Writable[[]todo]
	filter *reactive.Writable[string]
	draft  *reactive.Writable[string]
	remote *reactive.Writable[*promise.Promise[[]string]]
	nextID int
}

func newTodoApp(rt *render.Runtime) *todoApp {
	return &todoApp{
		rt:     rt,
		items:  reactive.NewWritable([]todo{}),
		filter: reactive.NewWritable("all"),
		draft:  reactive.NewWritable(""),
		remote: reactive.NewWritable(promise.Resolved[[]string](rt.Queue, nil)),
	}
}

func (a *todoApp) component() component.Component[string] {
	rt := a.rt
	return component.Define(rt, "todos", func(title string) any {
		added := component.Emitter[todo](rt, "added")

		visible := reactive.DerivedAll(rt.Queue,
			[]reactive.Cell[any]{
				reactive.Map[[]todo, any](a.items, func(v []todo) any { return v }),
				reactive.Map[string, any](a.filter, func(v string) any { return v }),
			},
			func(vals []any) []todo {
				items, filter := vals[0].([]todo), vals[1].(string)
				if filter == "all" {
					return items
				}
				out := []todo{}
				for _, t := range items {
					if t.Done == (filter == "done") {
						out = append(out, t)
					}
				}
				return out
			})
		empty := reactive.Map(visible, func(ts []todo) bool { return len(ts) == 0 })

		return render.El(rt, "section").Attr("id", "todos").Children(
			render.El(rt, "h1").Children(title),
			render.El(rt, "input").Attr("placeholder", "what next?").Bind(a.draft).
				On("submit", func(dom.Event) {
					a.nextID++
					t := todo{ID: a.nextID, Text: a.draft.Get()}
					a.items.Update(func(ts []todo) []todo { return append(append([]todo{}, ts...), t) })
					a.draft.Set("")
					added(t)
				}).
				Element(),
			render.Switch[string](rt, a.filter).
				Case("all", func(string) dom.Node { return render.El(rt, "h2").Children("Everything") }).
				Case("done", func(string) dom.Node { return render.El(rt, "h2").Children("Finished") }).
				Default(func(f string) dom.Node { return render.El(rt, "h2").Children("Filter: " + f) }),
			render.If(rt, empty, func() dom.Node {
				return render.El(rt, "p").Class("empty", true).Children("nothing to do")
			}).Else(func() dom.Node {
				return render.El(rt, "ul").Children(
					render.For(rt, visible, func(t todo, _ int, _ []todo) dom.Node {
						return render.El(rt, "li").Class("done", t.Done).Children(t.Text)
					}).Key(func(t todo, _ int) any { return t.ID }),
				)
			}),
			render.Await[[]string](rt, a.remote).
				Pending(func() dom.Node { return render.El(rt, "p").Children("syncing...") }).
				Then(func(names []string) dom.Node {
					return render.El(rt, "footer").Children(fmt.Sprintf("synced %d remote items", len(names)))
				}).
				Catch(func(err error) dom.Node {
					return render.El(rt, "footer").Class("error", true).Children("sync failed: " + err.Error())
				}),
		)
	})
}

func (a *todoApp) add(input *memdom.Element, text string) {
	input.Input(text)
	input.Dispatch("submit", nil)
}

func (a *todoApp) toggle(id int) {
	a.items.Update(func(ts []todo) []todo {
		out := make([]todo, len(ts))
		for i, t := range ts {
			if t.ID == id {
				t.Done = !t.Done
			}
			out[i] = t
		}
		return out
	})
}

func (a *todoApp) sync(ctx context.Context, fail bool) error {
	p := promise.Go(ctx, a.rt.Queue, func(ctx context.Context) ([]string, error) {
		select {
		case <-time.After(10 * time.Millisecond):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if fail {
			return nil, errors.New("remote unavailable")
		}
		return []string{"milk", "eggs", "bread"}, nil
	})
	a.remote.Set(p)
	return a.rt.Queue.RunUntil(ctx, func() bool { return p.State() != promise.StatePending })
}

func demo(ctx context.Context, cmd *cli.Command) error {
	logger := logging.New(os.Stderr, logging.DefaultConfig(), cmd.String(logLevelKey))
	showHTML := cmd.Bool(htmlKey)

	reg := prometheus.NewRegistry()
	doc := memdom.NewDocument()
	rt := render.New(doc,
		render.WithLogger(logger),
		render.WithMetrics(render.NewMetrics(reg)),
	)

	log.Printf("Demo started")
	app := newTodoApp(rt)
	body := doc.Element("body")
	h := app.component()("flowdom todos", component.Options{Target: body})
	h.On("added", func(detail any) {
		t := detail.(todo)
		logger.Info().Int("id", t.ID).Str("text", t.Text).Msg("todo added")
	})

	input := findTag(h.Node(), "input")
	if input == nil {
		return errors.New("demo: input not rendered")
	}

	step := func(name string, fn func() error) error {
		if err := fn(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		rt.Flush()
		logger.Info().
			Str("step", name).
			Str("fingerprint", fmt.Sprintf("%016x", memdom.Fingerprint(body))).
			Int("structural_ops", doc.Stats().Structural()).
			Msg("step done")
		if showHTML {
			fmt.Println(memdom.HTML(body))
		}
		doc.ResetStats()
		return nil
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"initial", func() error { return nil }},
		{"add items", func() error {
			for _, text := range []string{"write docs", "ship release", "celebrate"} {
				app.add(input, text)
			}
			return nil
		}},
		{"toggle", func() error { app.toggle(2); return nil }},
		{"filter done", func() error { app.filter.Set("done"); return nil }},
		{"filter open", func() error { app.filter.Set("open"); return nil }},
		{"filter all", func() error { app.filter.Set("all"); return nil }},
		{"reverse", func() error {
			app.items.Update(func(ts []todo) []todo {
				out := make([]todo, len(ts))
				for i, t := range ts {
					out[len(ts)-1-i] = t
				}
				return out
			})
			return nil
		}},
		{"sync", func() error { return app.sync(ctx, false) }},
		{"sync failure", func() error { return app.sync(ctx, true) }},
	}
	for _, s := range steps {
		if err := step(s.name, s.fn); err != nil {
			return err
		}
	}

	h.Destroy()
	log.Printf("Demo finished, body now %q", memdom.HTML(body))
	return printMetrics(reg, logger)
}

func findTag(n dom.Node, tag string) *memdom.Element {
	el, ok := n.(*memdom.Element)
	if !ok {
		return nil
	}
	if el.Tag() == tag {
		return el
	}
	for _, c := range el.ChildNodes() {
		if found := findTag(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func printMetrics(reg *prometheus.Registry, logger zerolog.Logger) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"metric", "labels", "value"})
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			table.Append([]string{
				strings.TrimPrefix(mf.GetName(), "flowdom_"),
				strings.Join(labels, ","),
				humanize.Comma(int64(metricValue(m))),
			})
		}
	}
	table.Render()
	logger.Debug().Int("families", len(families)).Msg("metrics printed")
	return nil
}

func metricValue(m *dto.Metric) float64 {
	switch {
	case m.GetCounter() != nil:
		return m.GetCounter().GetValue()
	case m.GetGauge() != nil:
		return m.GetGauge().GetValue()
	case m.GetUntyped() != nil:
		return m.GetUntyped().GetValue()
	default:
		return 0
	}
}
