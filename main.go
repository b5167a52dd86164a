package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/qtraderlab/qtrader/agent/deepq"
	"github.com/qtraderlab/qtrader/environment/trading"
	"github.com/qtraderlab/qtrader/experiment"
	"github.com/qtraderlab/qtrader/experiment/checkpointer"
	"github.com/qtraderlab/qtrader/experiment/trackers"
	"github.com/qtraderlab/qtrader/journal"
	"github.com/qtraderlab/qtrader/report"
)

func main() {
	rootCmd := newRootCmd()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// flags of the root command
type options struct {
	episodes     int
	maxSteps     int
	initialCash  float64
	capacity     int
	batchSize    int
	gamma        float64
	epsilon      float64
	epsilonMin   float64
	epsilonDecay float64
	learningRate float64
	seed         uint64
	outDir       string
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "qtrader",
		Short: "Train a DQN agent on a simulated single-asset market",
		Long: "qtrader trains a deep Q-learning agent against a " +
			"simulated single-asset market whose price follows a " +
			"Gaussian random walk, then reports per-episode " +
			"profitability and the final episode's trading decisions.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.episodes, "episodes", 5, "number of training episodes")
	flags.IntVar(&opts.maxSteps, "max-steps", trading.DefaultMaxSteps,
		"steps per episode")
	flags.Float64Var(&opts.initialCash, "initial-cash",
		trading.DefaultInitialCash, "cash in hand at episode start")
	flags.IntVar(&opts.capacity, "capacity", deepq.DefaultReplayCapacity,
		"replay buffer capacity")
	flags.IntVar(&opts.batchSize, "batch-size", deepq.DefaultBatchSize,
		"training batch size")
	flags.Float64Var(&opts.gamma, "gamma", deepq.DefaultGamma,
		"discount factor")
	flags.Float64Var(&opts.epsilon, "epsilon", deepq.DefaultEpsilon,
		"initial exploration rate")
	flags.Float64Var(&opts.epsilonMin, "epsilon-min",
		deepq.DefaultEpsilonMin, "exploration rate floor")
	flags.Float64Var(&opts.epsilonDecay, "epsilon-decay",
		deepq.DefaultEpsilonDecay, "per-round exploration decay factor")
	flags.Float64Var(&opts.learningRate, "learning-rate",
		deepq.DefaultLearningRate, "solver learning rate")
	flags.Uint64Var(&opts.seed, "seed", 0,
		"random seed (0 seeds from the clock)")
	flags.StringVar(&opts.outDir, "out", "out",
		"directory for tracked data, checkpoints, and the report")

	return cmd
}

func run(opts options) error {
	seed := opts.seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return fmt.Errorf("could not create output directory: %v", err)
	}

	// Create the environment
	envConfig := trading.NewConfig()
	envConfig.InitialCash = opts.initialCash
	envConfig.MaxSteps = opts.maxSteps

	sim, _, err := trading.New(envConfig, seed)
	if err != nil {
		return err
	}

	// Journal every fill the simulator executes
	fills := journal.New()
	sim.Register(fills)

	// Create the learning algorithm
	agentConfig := deepq.NewConfig()
	agentConfig.Gamma = opts.gamma
	agentConfig.Epsilon = opts.epsilon
	agentConfig.EpsilonMin = opts.epsilonMin
	agentConfig.EpsilonDecay = opts.epsilonDecay
	agentConfig.LearningRate = opts.learningRate
	agentConfig.ExpReplay.MaxReplayCapacity = opts.capacity
	agentConfig.ExpReplay.SampleSize = opts.batchSize

	agent, err := deepq.New(sim, agentConfig, int64(seed))
	if err != nil {
		return err
	}

	// Track per-episode profitability and the final episode's
	// trading decisions
	returns := trackers.NewReturn(filepath.Join(opts.outDir, "returns.bin"))
	trace := trackers.NewTrace(filepath.Join(opts.outDir, "trace.bin"))

	// Checkpoint the online network after every training round
	serializableNet, ok := agent.OnlineNetwork().(checkpointer.Serializable)
	if !ok {
		return fmt.Errorf("online network is not serializable")
	}
	check := checkpointer.NewTrainingRound(1, serializableNet,
		checkpointer.FilenameEnumerator(0,
			filepath.Join(opts.outDir, "weights"), ".bin"))

	exp := experiment.NewOnline(sim, agent, opts.episodes,
		[]trackers.Tracker{returns, trace},
		[]checkpointer.Checkpointer{check})

	if err := exp.Run(); err != nil {
		return err
	}
	exp.Save()

	for i, r := range returns.EpisodeReturns() {
		fmt.Printf("episode %v/%v: total reward %.2f\n", i+1,
			opts.episodes, r)
	}
	fmt.Printf("fills: %v buys, %v sells, net flow %v\n", fills.Bought(),
		fills.Sold(), fills.NetFlow().StringFixed(2))
	fmt.Printf("final exploration rate: %.4f\n", agent.Epsilon())

	reportPath := filepath.Join(opts.outDir, "report.html")
	if err := report.Render(reportPath, returns.EpisodeReturns(),
		trace.Prices(), trace.Actions()); err != nil {
		return err
	}
	fmt.Printf("report written to %v\n", reportPath)

	return nil
}
