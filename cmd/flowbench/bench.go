package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"slices"
	"time"

	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"

	"github.com/delaneyj/flowdom/cmd/flowbench/internal/config"
	"github.com/delaneyj/flowdom/pkg/dom"
	"github.com/delaneyj/flowdom/pkg/dom/memdom"
	"github.com/delaneyj/flowdom/pkg/reactive"
	"github.com/delaneyj/flowdom/pkg/reconcile"
	"github.com/delaneyj/flowdom/pkg/render"
)

// permute derives the next run of children from the current one.
type permute func(r *rand.Rand, old []dom.Node, create func() dom.Node) []dom.Node

var permutations = map[string]permute{
	"append": func(_ *rand.Rand, old []dom.Node, create func() dom.Node) []dom.Node {
		return append(slices.Clone(old), create())
	},
	"prepend": func(_ *rand.Rand, old []dom.Node, create func() dom.Node) []dom.Node {
		return append([]dom.Node{create()}, old...)
	},
	"remove": func(_ *rand.Rand, old []dom.Node, _ func() dom.Node) []dom.Node {
		mid := len(old) / 2
		return slices.Delete(slices.Clone(old), mid, mid+1)
	},
	"swap": func(_ *rand.Rand, old []dom.Node, _ func() dom.Node) []dom.Node {
		next := slices.Clone(old)
		if len(next) > 2 {
			next[1], next[len(next)-2] = next[len(next)-2], next[1]
		}
		return next
	},
	"reverse": func(_ *rand.Rand, old []dom.Node, _ func() dom.Node) []dom.Node {
		next := slices.Clone(old)
		slices.Reverse(next)
		return next
	},
	"shuffle": func(r *rand.Rand, old []dom.Node, _ func() dom.Node) []dom.Node {
		next := slices.Clone(old)
		r.Shuffle(len(next), func(i, j int) { next[i], next[j] = next[j], next[i] })
		return next
	},
}

func bench(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.LoadOptional(cmd.String(configKey))
	if err != nil {
		return err
	}
	if n := cmd.Uint(iterationsKey); n > 0 {
		cfg.Iterations = int(n)
	}

	start := time.Now()
	log.Printf("Running %d workloads, %d iterations each", len(cfg.Workloads), cfg.Iterations)
	defer func() {
		log.Printf("Benchmarks finished in %v", time.Since(start))
	}()

	r := rand.New(rand.NewSource(cfg.Seed))

	tbl := table.NewWriter()
	tbl.SetTitle("flowdom reconcile")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "size", "ops", "avg", "min", "p75", "p99", "max"})

	for _, name := range cfg.Workloads {
		for _, size := range cfg.Sizes {
			if err := ctx.Err(); err != nil {
				return err
			}

			var (
				calc *tachymeter.Metrics
				ops  float64
			)
			if name == "keyed-list" {
				calc, ops = benchKeyedList(r, size, cfg.Iterations)
			} else {
				calc, ops = benchPatch(r, permutations[name], size, cfg.Iterations)
			}

			tbl.AppendRows([]table.Row{
				{
					name,
					size,
					fmt.Sprintf("%.1f", ops),
					calc.Time.Avg,
					calc.Time.Min,
					calc.Time.P75,
					calc.Time.P99,
					calc.Time.Max,
				},
			})
		}
	}

	tbl.Render()
	return nil
}

func benchPatch(r *rand.Rand, p permute, size, iters int) (*tachymeter.Metrics, float64) {
	tach := tachymeter.New(&tachymeter.Config{Size: iters})
	doc := memdom.NewDocument()

	ops := 0
	for i := 0; i < iters; i++ {
		parent := doc.Element("ul")
		old := make([]dom.Node, size)
		for k := range old {
			old[k] = doc.CreateText("x")
			parent.AppendChild(old[k])
		}
		next := p(r, old, func() dom.Node { return doc.CreateText("y") })

		start := time.Now()
		stats := reconcile.Patch(parent, old, next)
		tach.AddTime(time.Since(start))
		ops += stats.Total()
	}

	return tach.Calc(), float64(ops) / float64(iters)
}

func benchKeyedList(r *rand.Rand, size, iters int) (*tachymeter.Metrics, float64) {
	tach := tachymeter.New(&tachymeter.Config{Size: iters})
	doc := memdom.NewDocument()
	rt := render.New(doc)

	ids := make([]int, size)
	for i := range ids {
		ids[i] = i
	}
	list := reactive.NewWritable(slices.Clone(ids))

	root := render.Mount(rt, doc.Element("body"), func() dom.Node {
		return render.El(rt, "ul").Children(
			render.For(rt, list, func(id int, _ int, _ []int) dom.Node {
				return render.El(rt, "li").Children(id)
			}).Key(func(id int, _ int) any { return id }),
		)
	})
	defer root.Destroy()

	doc.ResetStats()
	for i := 0; i < iters; i++ {
		r.Shuffle(len(ids), func(a, b int) { ids[a], ids[b] = ids[b], ids[a] })
		next := slices.Clone(ids)

		start := time.Now()
		list.Set(next)
		rt.Flush()
		tach.AddTime(time.Since(start))
	}

	return tach.Calc(), float64(doc.Stats().Structural()) / float64(iters)
}
