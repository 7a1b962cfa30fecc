package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/delaneyj/relay/dispatch"
	"github.com/delaneyj/relay/signals"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
)

const (
	itersKey   = "iters"
	profileKey = "profile"
	syncKey    = "queue"
)

var (
	ww = []int{1, 10, 100, 1_000}
	hh = []int{1, 10, 100}
)

func main() {
	cmd := &cli.Command{
		Name:  "benchmark",
		Usage: "Measure signal fan-out latency",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:  itersKey,
				Usage: "Fires per configuration",
				Value: 100,
			},
			&cli.StringFlag{
				Name:  profileKey,
				Usage: "Write a CPU profile to this file",
			},
			&cli.BoolFlag{
				Name:  syncKey,
				Usage: "Also measure delivery onto a serial queue",
				Value: true,
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	if path := cmd.String(profileKey); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("start profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	iters := int(cmd.Uint(itersKey))
	log.Printf("warming up")
	benchmarkFanOut("warmup", iters, nil, false)

	benchmarkFanOut("Immediate", iters, nil, true)
	if cmd.Bool(syncKey) {
		q := dispatch.NewQueue("benchmark")
		defer q.Close()
		benchmarkFanOut("Queue", iters, q, true)
	}
	return nil
}

// benchmarkFanOut builds w chains of h Map stages on one signal and times
// how long a fire takes to reach every subscriber.
func benchmarkFanOut(title string, iters int, q *dispatch.Queue, shouldRender bool) {
	tbl := table.NewWriter()
	tbl.SetTitle(title)
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	for _, w := range ww {
		for _, h := range hh {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			opts := []signals.Option{signals.WithName(fmt.Sprintf("fanout-%dx%d", w, h))}
			if q != nil {
				opts = append(opts, signals.WithContext(dispatch.DeferTo(q)))
			}
			src := signals.New[int](opts...)

			for i := 0; i < w; i++ {
				chain := src.Fired()
				for j := 0; j < h; j++ {
					chain = signals.Map(chain, addOne)
				}
				chain.Subscribe(pass)
			}

			for i := 0; i < iters; i++ {
				start := time.Now()
				src.Fire(i)
				if q != nil {
					q.Flush()
				}
				tach.AddTime(time.Since(start))
			}
			src.Close()

			calc := tach.Calc()
			tbl.AppendRows([]table.Row{
				{
					fmt.Sprintf("propagate: %d * %d", w, h),
					calc.Time.Avg,
					calc.Time.Min,
					calc.Time.P75,
					calc.Time.P99,
					calc.Time.Max,
				},
			})
		}
	}

	if shouldRender {
		tbl.Render()
	}
}

func addOne(v int) int {
	return v + 1
}

func pass(int) {}
