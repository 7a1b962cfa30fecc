package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"os"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/delaneyj/relay/signals"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

const repeatsKey = "repeats"

func main() {
	cmd := &cli.Command{
		Name:  "benchmark_pipeline",
		Usage: "Measure chain throughput with concurrent producers",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:  repeatsKey,
				Usage: "Runs per configuration, best is reported",
				Value: 5,
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

type pipelineConfig struct {
	name      string
	depth     int  // Map stages between the signal and the subscriber
	evens     bool // keep only even values at the end of the chain
	producers int  // goroutines firing concurrently
	messages  int  // fires per producer
}

var configs = []pipelineConfig{
	{name: "shallow", depth: 1, producers: 1, messages: 200_000},
	{name: "deep", depth: 50, producers: 1, messages: 20_000},
	{name: "filtered", depth: 10, evens: true, producers: 1, messages: 100_000},
	{name: "contended", depth: 10, producers: 8, messages: 20_000},
	{name: "contended filtered", depth: 10, evens: true, producers: 8, messages: 20_000},
}

type result struct {
	delivered int64
	checksum  uint64
	duration  time.Duration
}

func run(ctx context.Context, cmd *cli.Command) error {
	log.Print("Starting pipeline benchmark, please wait...")
	defer log.Print("Finished pipeline benchmark")

	repeats := int(cmd.Uint(repeatsKey))
	if repeats < 1 {
		repeats = 1
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{
		"test", "depth", "producers", "nTimes",
		"delivered", "time", "updateRate", "checksum",
	})

	for _, cfg := range configs {
		log.Printf("Running '%s' config", cfg.name)
		wantCount, wantSum := expected(cfg)

		// warm up
		if _, err := runOnce(ctx, cfg); err != nil {
			return err
		}

		best := result{duration: time.Hour}
		for i := 0; i < repeats; i++ {
			res, err := runOnce(ctx, cfg)
			if err != nil {
				return err
			}
			if res.delivered != wantCount || res.checksum != wantSum {
				return fmt.Errorf("%s: delivered %d (checksum %x), want %d (checksum %x)",
					cfg.name, res.delivered, res.checksum, wantCount, wantSum)
			}
			if res.duration < best.duration {
				best = res
			}
		}

		updateRate := float64(best.delivered) / (float64(best.duration) / float64(time.Millisecond))
		table.Append([]string{
			cfg.name,
			fmt.Sprint(cfg.depth),
			fmt.Sprint(cfg.producers),
			humanize.Comma(int64(cfg.producers * cfg.messages)),
			humanize.Comma(best.delivered),
			fmt.Sprint(best.duration),
			humanize.Comma(int64(updateRate)),
			fmt.Sprintf("%016x", best.checksum),
		})
	}
	table.Render()
	return nil
}

func runOnce(ctx context.Context, cfg pipelineConfig) (result, error) {
	src := signals.New[int](signals.WithName(cfg.name))
	defer src.Close()

	chain := src.Fired()
	for i := 0; i < cfg.depth; i++ {
		chain = signals.Map(chain, addOne)
	}
	if cfg.evens {
		chain = chain.Filter(isEven)
	}

	var (
		delivered atomic.Int64
		checksum  atomic.Uint64
	)
	chain.Subscribe(func(v int) {
		delivered.Add(1)
		checksum.Add(hash(v))
	})

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for p := 0; p < cfg.producers; p++ {
		base := p * cfg.messages
		g.Go(func() error {
			for i := 0; i < cfg.messages; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				src.Fire(base + i)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result{}, fmt.Errorf("%s: %w", cfg.name, err)
	}

	return result{
		delivered: delivered.Load(),
		checksum:  checksum.Load(),
		duration:  time.Since(start),
	}, nil
}

// expected replays the pipeline without signals. The checksum is a sum of
// per-value hashes so it does not depend on producer interleaving.
func expected(cfg pipelineConfig) (count int64, sum uint64) {
	for v := 0; v < cfg.producers*cfg.messages; v++ {
		out := v + cfg.depth
		if cfg.evens && !isEven(out) {
			continue
		}
		count++
		sum += hash(out)
	}
	return count, sum
}

func hash(v int) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	return xxhash.Sum64(buf[:])
}

func addOne(v int) int {
	return v + 1
}

func isEven(v int) bool {
	return v%2 == 0
}
