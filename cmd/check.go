package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"pdrcheck/internal/block"
	"pdrcheck/internal/pdr"
	"pdrcheck/internal/predicate"
	"pdrcheck/internal/program"
	"pdrcheck/internal/property"
	"pdrcheck/internal/reached"
	"pdrcheck/internal/report"
	"pdrcheck/internal/smt"
	"pdrcheck/internal/strategy"

	yices2 "github.com/ianamason/yices2_go_bindings/yices_api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	exitError  = 1
	exitUnsafe = 2
)

type checkConfig struct {
	File         string
	MaxLevel     int
	Order        string
	NoGeneralize bool
	Timeout      time.Duration
	Targets      []string
	NoColour     bool
}

var checkCfg checkConfig

var checkCommand = &cobra.Command{
	Use:   "check",
	Short: "check that no error location of a program is reachable",
	Long:  ``,
	Run: func(*cobra.Command, []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		colour := !checkCfg.NoColour && report.IsTerminal(os.Stdout)
		verdict, err := runCheck(ctx, checkCfg, os.Stdout, colour)
		if err != nil {
			fmt.Fprintf(os.Stderr, "check failed: %v\n", err)
			os.Exit(exitError)
		}
		if verdict == pdr.VerdictUnsafe {
			os.Exit(exitUnsafe)
		}
	},
}

func init() {
	checkCommand.Flags().StringVar(&checkCfg.File, "file", "", "program file (yaml)")
	checkCommand.Flags().IntVar(&checkCfg.MaxLevel, "max-level", 0, "give up after this many frames (0 for no bound)")
	checkCommand.Flags().StringVar(&checkCfg.Order, "order", strategy.OrderLevel, "proof obligation order: level or dfs")
	checkCommand.Flags().BoolVar(&checkCfg.NoGeneralize, "no-generalize", false, "block states without generalizing them")
	checkCommand.Flags().DurationVar(&checkCfg.Timeout, "timeout", 0, "abort the analysis after this long (0 for none)")
	checkCommand.Flags().StringSliceVar(&checkCfg.Targets, "target", nil, "additional locations that must be unreachable")
	checkCommand.Flags().BoolVar(&checkCfg.NoColour, "no-colour", false, "disable coloured output")
}

// runCheck loads the program, runs the analysis and prints the verdict.
func runCheck(ctx context.Context, cfg checkConfig, w io.Writer, colour bool) (pdr.Verdict, error) {
	if cfg.File == "" {
		return pdr.VerdictUnknown, errors.New("no program file given, use --file")
	}
	c, err := program.Load(cfg.File)
	if err != nil {
		return pdr.VerdictUnknown, err
	}
	pm := property.NewDefaultManager()
	if len(cfg.Targets) > 0 {
		pm.AddProperty(property.NewUnreachLocation(cfg.Targets...))
	}
	targets, err := pm.Targets(c)
	if err != nil {
		return pdr.VerdictUnknown, err
	}
	log.Infof("checking %s: %d locations, %d targets", c.Name(), len(c.Locations()), len(targets))

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	yices2.Init()
	defer yices2.Exit()

	blocks := block.FromCFA(c)
	opts := pdr.DefaultOptions()
	opts.MaxLevel = cfg.MaxLevel
	opts.SearchOrder = cfg.Order
	opts.Generalize = !cfg.NoGeneralize
	alg, err := pdr.NewAlgorithm(smt.NewYices(), c, blocks, predicate.FromCFA(c, blocks), reached.NewSet(c, targets), opts)
	if err != nil {
		return pdr.VerdictUnknown, err
	}
	result, err := alg.Run(ctx)
	if err != nil {
		if errors.Cause(err) == pdr.ErrCancelled {
			log.Warnf("analysis of %s interrupted", c.Name())
		}
		return pdr.VerdictUnknown, err
	}
	if err := report.NewPrinter(w, colour).Print(c, pm, result); err != nil {
		return pdr.VerdictUnknown, err
	}
	return result.Verdict, nil
}
