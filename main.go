package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"rent-estimator/config"
	"rent-estimator/location"
	"rent-estimator/recorder"
	"rent-estimator/scheduler"
	"rent-estimator/utils"
)

func main() {
	cfg := config.Load()
	logger := utils.NewLogger().WithLevel(utils.ParseLevel(cfg.LogLevel))

	rootCmd := &cobra.Command{
		Use:   "rent-estimator",
		Short: "Comparable-property rent estimation",
		Long:  `Estimates monthly rent and gross yield for properties for sale from a corpus of rental listings`,
	}

	rootCmd.AddCommand(estimateCmd(cfg, logger))
	rootCmd.AddCommand(importCmd(cfg, logger))
	rootCmd.AddCommand(normalizeCmd(cfg, logger))
	rootCmd.AddCommand(similarityCmd(cfg, logger))
	rootCmd.AddCommand(historyCmd(cfg, logger))
	rootCmd.AddCommand(daemonCmd(cfg, logger))

	if err := rootCmd.Execute(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func mustPipeline(cfg *config.Config, logger *utils.Logger) *pipeline {
	p, err := newPipeline(cfg, logger)
	if err != nil {
		logger.Error("Failed to build pipeline: %v", err)
		os.Exit(1)
	}
	return p
}

func estimateCmd(cfg *config.Config, logger *utils.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "estimate",
		Short: "Run one batch estimation and write the reports",
		Run: func(cmd *cobra.Command, args []string) {
			if err := mustPipeline(cfg, logger).runBatch(); err != nil {
				logger.Error("Estimation failed: %v", err)
				os.Exit(1)
			}
		},
	}
}

func importCmd(cfg *config.Config, logger *utils.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Clean the CSV listings and load them into PostgreSQL",
		Run: func(cmd *cobra.Command, args []string) {
			if err := mustPipeline(cfg, logger).importCSV(); err != nil {
				logger.Error("Import failed: %v", err)
				logger.Error("Make sure Docker is running: docker compose up -d")
				os.Exit(1)
			}
		},
	}
}

func normalizeCmd(cfg *config.Config, logger *utils.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize [address]",
		Short: "Show the normalized form and neighborhood of an address",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			p := mustPipeline(cfg, logger)
			hood, ok := p.normalizer.ExtractNeighborhood(args[0])
			if !ok {
				hood = "(none)"
			}
			fmt.Printf("normalized:   %s\n", p.normalizer.Normalize(args[0]))
			fmt.Printf("neighborhood: %s\n", hood)
		},
	}
}

func similarityCmd(cfg *config.Config, logger *utils.Logger) *cobra.Command {
	var algorithm string
	cmd := &cobra.Command{
		Use:   "similarity [address-a] [address-b]",
		Short: "Score the location similarity of two addresses (0-100)",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			p := mustPipeline(cfg, logger)
			scorer := p.scorer
			if algorithm != "" {
				sim, err := location.NewStringSimilarity(algorithm)
				if err != nil {
					logger.Error("%v", err)
					os.Exit(1)
				}
				scorer = location.NewScorer(p.normalizer, sim)
			}
			fmt.Printf("%d\n", scorer.Score(args[0], args[1]))
		},
	}
	cmd.Flags().StringVar(&algorithm, "algorithm", "",
		"override the profile algorithm ("+location.AlgorithmLevenshtein+" or "+location.AlgorithmJaroWinkler+")")
	return cmd
}

func historyCmd(cfg *config.Config, logger *utils.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "history [limit]",
		Short: "List recent estimation runs from the history database",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if cfg.HistoryDBPath == "" {
				logger.Error("HISTORY_DB_PATH is not set")
				os.Exit(1)
			}
			limit := 10
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					logger.Error("Invalid limit %q", args[0])
					os.Exit(1)
				}
				limit = n
			}

			rec, err := recorder.NewSQLiteRecorder(cfg.HistoryDBPath, logger)
			if err != nil {
				logger.Error("Failed to open history: %v", err)
				os.Exit(1)
			}
			defer rec.Close()

			runs, err := rec.RecentRuns(limit)
			if err != nil {
				logger.Error("Failed to read history: %v", err)
				os.Exit(1)
			}
			if len(runs) == 0 {
				fmt.Println("No runs recorded")
				return
			}
			for _, r := range runs {
				fmt.Printf("%s  %s  %-8s targets=%-5d rentals=%-5d valid=%d (%.1f%%) rent=€%.2f yield=%.2f%% clamped=%d\n",
					r.StartedAt.Format("2006-01-02 15:04"), r.ID, r.Source, r.TargetCount, r.CorpusSize,
					r.ValidEstimates, r.ValidPercent, r.AverageRent, r.AverageYield, r.ClampedCount)
			}
		},
	}
}

func daemonCmd(cfg *config.Config, logger *utils.Logger) *cobra.Command {
	var runNow bool
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Re-run the estimation on the ANALYSIS_CRON schedule",
		Run: func(cmd *cobra.Command, args []string) {
			p := mustPipeline(cfg, logger)
			s, err := scheduler.New(cfg.AnalysisCron, p.runBatch, logger)
			if err != nil {
				logger.Error("Failed to schedule analysis: %v", err)
				os.Exit(1)
			}
			if runNow {
				s.RunNow()
			}
			s.Start()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			<-sig
			logger.Info("Shutting down scheduler...")
			s.Stop()
		},
	}
	cmd.Flags().BoolVar(&runNow, "now", false, "run once immediately before waiting for the schedule")
	return cmd
}
