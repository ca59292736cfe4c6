package main

import (
	"context"
	"fmt"
	"time"

	"github.com/filecoin-project/go-powersim"
	"github.com/filecoin-project/go-powersim/big"
	"github.com/filecoin-project/go-powersim/ledger"
	"github.com/filecoin-project/go-powersim/lottery"
	"github.com/filecoin-project/go-powersim/sim"
	"github.com/filecoin-project/go-powersim/validation"
	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"
)

var log = logging.Logger("powersim/cmd")

func setLogLevel(c *cli.Context) error {
	if err := logging.SetLogLevelRegex("powersim.*", c.String("log-level")); err != nil {
		return xerrors.Errorf("setting log level: %w", err)
	}
	return nil
}

var runCmd = cli.Command{
	Name:  "run",
	Usage: "runs a simulation and prints a summary",
	Flags: []cli.Flag{
		entityFlag,
		&cli.Uint64Flag{
			Name:  "rounds",
			Value: 100,
		},
		&cli.Int64Flag{
			Name:        "seed",
			Usage:       "seed of the run; defaults to the current time",
			DefaultText: "now",
		},
		&cli.StringFlag{
			Name:  "mode",
			Value: sim.Parallel.String(),
			Usage: "parallel or sequential",
		},
		&cli.IntFlag{
			Name:  "parallelism",
			Usage: "max attempts running at once in parallel mode; defaults to GOMAXPROCS",
		},
		&cli.StringFlag{
			Name:  "election",
			Value: "weighted",
			Usage: "how winners are elected among hits: weighted or ticket",
		},
		&cli.Float64Flag{
			Name:  "probability",
			Value: 1,
			Usage: "probability that an attempt finds an award",
		},
		&cli.DurationFlag{
			Name:  "target-interval",
			Usage: "expected time between awards of one entity; overrides probability when set",
		},
		&cli.DurationFlag{
			Name:  "deadline",
			Usage: "wall clock deadline of the run; zero for none",
		},
		&cli.StringFlag{
			Name:  "latency",
			Value: defaultLatency,
			Usage: "attempt latency model: none, uniform:<min>:<max>, lognormal:<mean> or zipf:<s>:<v>:<max>",
		},
		&cli.IntFlag{
			Name:  "difficulty",
			Value: sim.DefaultDifficultySchedule.Initial,
			Usage: "leading zeros of award identifiers at the start of the run",
		},
		&cli.Uint64Flag{
			Name:  "retarget-interval",
			Usage: "awards between difficulty retargets; zero keeps the difficulty fixed",
		},
		&cli.DurationFlag{
			Name:  "target-spacing",
			Value: sim.DefaultDifficultySchedule.TargetSpacing,
			Usage: "logical time between awards that retargeting aims for",
		},
		&cli.IntFlag{
			Name:  "min-difficulty",
			Value: 1,
			Usage: "lowest difficulty retargeting may reach",
		},
		&cli.IntFlag{
			Name:  "max-difficulty",
			Value: 6,
			Usage: "highest difficulty retargeting may reach",
		},
		&cli.Float64Flag{
			Name:  "time-scale",
			Usage: "wall clock seconds waited per simulated second of attempt time",
		},
		&cli.StringFlag{
			Name:  "policy",
			Value: validation.Reject.String(),
			Usage: "what happens to invalid awards: reject or accept",
		},
		&cli.BoolFlag{
			Name:  "compress-journal",
			Usage: "compress ledger journal entries with zstd",
		},
		&cli.IntFlag{
			Name:  "top",
			Value: 5,
			Usage: "number of top entities to print",
		},
	},
	Action: func(c *cli.Context) error {
		entities, err := populationFromFlags(c)
		if err != nil {
			return err
		}
		simOpts, err := simOptionsFromFlags(c)
		if err != nil {
			return err
		}
		policy, err := validation.ParsePolicy(c.String("policy"))
		if err != nil {
			return err
		}
		simulation, err := powersim.NewSimulation(entities,
			powersim.WithSimOptions(simOpts...),
			powersim.WithValidationOptions(
				validation.WithPolicy(policy),
				validation.WithProofMarkerLength(minDifficulty(c)),
			),
			powersim.WithLedgerOptions(ledger.WithCompression(c.Bool("compress-journal"))),
			powersim.WithTopK(c.Int("top")),
		)
		if err != nil {
			return xerrors.Errorf("creating simulation: %w", err)
		}

		ctx := c.Context
		if deadline := c.Duration("deadline"); deadline > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, deadline)
			defer cancel()
		}

		start := time.Now()
		report, err := simulation.Run(ctx, c.Uint64("rounds"))
		if err != nil {
			return xerrors.Errorf("running simulation: %w", err)
		}
		log.Infow("Simulation finished", "took", time.Since(start))
		printReport(c, report)
		return nil
	},
}

func simOptionsFromFlags(c *cli.Context) ([]sim.Option, error) {
	seed := c.Int64("seed")
	if !c.IsSet("seed") {
		seed = time.Now().UnixNano()
	}
	opts := []sim.Option{
		sim.WithSeed(seed),
		sim.WithTimeScale(c.Float64("time-scale")),
	}

	switch mode := c.String("mode"); mode {
	case sim.Parallel.String():
		opts = append(opts, sim.WithMode(sim.Parallel))
	case sim.Sequential.String():
		opts = append(opts, sim.WithMode(sim.Sequential))
	default:
		return nil, fmt.Errorf("unknown mode: %s", mode)
	}
	if c.IsSet("parallelism") {
		opts = append(opts, sim.WithMaxParallelism(c.Int("parallelism")))
	}

	switch election := c.String("election"); election {
	case "weighted":
		opts = append(opts, sim.WithElection(sim.WeightedElection))
	case "ticket":
		opts = append(opts, sim.WithElection(sim.TicketElection))
	default:
		return nil, fmt.Errorf("unknown election: %s", election)
	}

	model, err := parseLatency(c.String("latency"))
	if err != nil {
		return nil, err
	}
	opts = append(opts, sim.WithLatencyModel(model))

	if c.Uint64("retarget-interval") > 0 {
		opts = append(opts, sim.WithDifficultySchedule(sim.DifficultySchedule{
			Initial:       c.Int("difficulty"),
			Min:           c.Int("min-difficulty"),
			Max:           c.Int("max-difficulty"),
			Interval:      c.Uint64("retarget-interval"),
			TargetSpacing: c.Duration("target-spacing"),
		}))
	} else {
		opts = append(opts, sim.WithDifficulty(c.Int("difficulty")))
	}

	if target := c.Duration("target-interval"); target > 0 {
		opts = append(opts, sim.WithFoundStrategy(sim.TargetInterval(target)))
	} else {
		p := c.Float64("probability")
		if p < 0 || p > 1 {
			return nil, fmt.Errorf("probability must be within [0, 1]: %g", p)
		}
		opts = append(opts, sim.WithFoundStrategy(sim.FixedProbability(p)))
	}
	log.Debugw("Simulation options", "seed", seed, "mode", c.String("mode"), "election", c.String("election"),
		"latency", c.String("latency"), "difficulty", c.Int("difficulty"), "retargetInterval", c.Uint64("retarget-interval"))
	return opts, nil
}

// minDifficulty is the lowest difficulty any award of the run can carry, and
// so the longest proof marker every award satisfies.
func minDifficulty(c *cli.Context) int {
	if c.Uint64("retarget-interval") > 0 {
		return min(c.Int("min-difficulty"), c.Int("difficulty"))
	}
	return c.Int("difficulty")
}

func printReport(c *cli.Context, report *powersim.Report) {
	w := c.App.Writer
	stats := report.Stats
	fmt.Fprintf(w, "rounds:    %d\n", stats.TotalRounds)
	fmt.Fprintf(w, "attempts:  %d\n", stats.TotalAttempts)
	fmt.Fprintf(w, "awards:    %d\n", stats.TotalAwards)
	fmt.Fprintf(w, "rejected:  %d\n", stats.Rejected)
	fmt.Fprintf(w, "timed out: %d\n", stats.TimedOut)
	fmt.Fprintf(w, "hashes:    %s\n", stats.TotalHashes)
	fmt.Fprintf(w, "payout:    %s\n", stats.TotalPayout)
	fmt.Fprintf(w, "credits:   %d\n", len(report.Journal))
	var verified int
	for _, award := range report.Awards {
		if award.SampleVerified {
			verified++
		}
	}
	fmt.Fprintf(w, "proofs:    %d/%d verified\n", verified, len(report.Awards))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-28s %8s %18s %8s\n", "entity", "awards", "payout", "hashes")
	for _, s := range report.Top {
		share := 100 * big.Ratio(s.HashesContributed, stats.TotalHashes)
		fmt.Fprintf(w, "%-28s %8d %18s %7.2f%%\n", s.ID, s.AwardsWon, s.PayoutEarned, share)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-10s %8s %8s %18s\n", "kind", "entities", "awards", "payout")
	printed := make(map[lottery.Kind]bool, len(stats.Kinds))
	for _, id := range stats.Order {
		kind := stats.Entities[id].Kind
		if printed[kind] {
			continue
		}
		printed[kind] = true
		ks := stats.Kinds[kind]
		fmt.Fprintf(w, "%-10s %8d %8d %18s\n", kind, ks.Entities, ks.AwardsWon, ks.PayoutEarned)
	}
}
