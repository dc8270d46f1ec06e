// main.go
//
// Entry point for the woodoku environment.
// Commands:
//   - serve:   HTTP/WebSocket environment service.
//   - rollout: random-policy evaluation, average return and per-episode CSV.
//   - play:    text game on stdin for checking the engine by hand.

package main

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/woodoku-env/internal/config"
	"github.com/robalobadob/woodoku-env/internal/database"
	"github.com/robalobadob/woodoku-env/internal/env"
	"github.com/robalobadob/woodoku-env/internal/httpserver"
	"github.com/robalobadob/woodoku-env/internal/results"
	"github.com/robalobadob/woodoku-env/internal/rollout"
	"github.com/robalobadob/woodoku-env/internal/store"
	"github.com/robalobadob/woodoku-env/internal/woodoku"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	rootCmd := &cobra.Command{
		Use:           "woodoku-env",
		Short:         "Woodoku puzzle exposed as a reinforcement-learning environment",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(serveCmd(cfg), rolloutCmd(cfg), playCmd(cfg))

	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

// signalContext is cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func serveCmd(cfg config.Config) *cobra.Command {
	var noDB bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP/WebSocket environment service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := woodoku.LoadCatalogue(cfg.ShapesFile)
			if err != nil {
				return err
			}

			var db *sql.DB
			if !noDB {
				if db, err = database.OpenMigrated(cfg.DBPath); err != nil {
					return fmt.Errorf("open database: %w", err)
				}
				defer db.Close()
			}

			ctx, cancel := signalContext()
			defer cancel()

			srv := httpserver.New(cfg, cat, store.NewMemoryStore(), db)
			log.Info().Str("port", cfg.Port).Int("shapes", cat.Len()).Bool("persistence", db != nil).Msg("starting woodoku-env")
			return srv.Start(ctx, ":"+cfg.Port)
		},
	}
	cmd.Flags().BoolVar(&noDB, "no-db", false, "serve without recording episodes")
	return cmd
}

func rolloutCmd(cfg config.Config) *cobra.Command {
	var (
		episodes int
		maxSteps int
		seed     uint64
		csvPath  string
		record   bool
		envCfg   env.Config
	)
	cmd := &cobra.Command{
		Use:   "rollout",
		Short: "Play episodes with a uniform-random policy and report the average return",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := woodoku.LoadCatalogue(cfg.ShapesFile)
			if err != nil {
				return err
			}
			opts, err := envCfg.Merge(cfg.Env).Options()
			if err != nil {
				return err
			}
			a, err := env.New(woodoku.NewEngine(cat, seed), opts...)
			if err != nil {
				return err
			}

			run := rollout.Config{Episodes: episodes, MaxSteps: maxSteps, Seed: seed}
			if record {
				db, err := database.OpenMigrated(cfg.DBPath)
				if err != nil {
					return fmt.Errorf("open database: %w", err)
				}
				defer db.Close()
				run.Recorder = results.NewStore(db)
			}

			ctx, cancel := signalContext()
			defer cancel()

			names := a.Config()
			log.Info().Int("episodes", episodes).Str("actionCodec", names.ActionCodec).
				Str("stateCodec", names.StateCodec).Str("policy", names.Policy).Msg("rollout started")

			sum, runErr := rollout.Run(ctx, a, run)
			if csvPath != "" {
				if err := writeCSV(csvPath, sum.Episodes); err != nil {
					return err
				}
			}
			if runErr != nil {
				return runErr
			}

			st := sum.Stats
			log.Info().Int("episodes", st.Count).Float64("avgReturn", sum.AverageReturn()).
				Float64("stdDev", st.StdDev).Float64("min", st.Min).Float64("max", st.Max).Msg("rollout finished")
			fmt.Fprintf(cmd.OutOrStdout(), "Average Return = %g over %d episodes\n", sum.AverageReturn(), st.Count)
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&episodes, "episodes", 10, "number of episodes")
	f.IntVar(&maxSteps, "max-steps", 1000, "step cap per episode (0 = none)")
	f.Uint64Var(&seed, "seed", 1, "seed for the engine and the policy")
	f.StringVar(&csvPath, "csv", "", "write per-episode rows to this CSV file")
	f.BoolVar(&record, "record", false, "record episodes in DB_PATH")
	f.StringVar(&envCfg.ActionCodec, "action-codec", "", "mixed-radix | cross-product (default ENV_ACTION_CODEC)")
	f.StringVar(&envCfg.StateCodec, "state-codec", "", "unpacked | bit-packed (default ENV_STATE_CODEC)")
	f.StringVar(&envCfg.Policy, "policy", "", "all-or-nothing | best-effort | fail-fast (default ENV_COMMIT_POLICY)")
	return cmd
}

func writeCSV(path string, eps []rollout.Episode) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := rollout.WriteCSV(f, eps); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func playCmd(cfg config.Config) *cobra.Command {
	var seed uint64
	cmd := &cobra.Command{
		Use:   "play",
		Short: `Play in the terminal; moves are "<shape> <cell>", e.g. "0 40"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := woodoku.LoadCatalogue(cfg.ShapesFile)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			g := woodoku.New(cat, seed)
			in := bufio.NewScanner(cmd.InOrStdin())
			for !g.GameOver() {
				fmt.Fprintln(out, g)
				fmt.Fprint(out, "move> ")
				if !in.Scan() {
					return in.Err()
				}
				line := strings.TrimSpace(in.Text())
				if line == "q" || line == "quit" {
					break
				}
				next, err := g.PlayMoveString(line)
				if err != nil {
					fmt.Fprintln(out, "illegal:", err)
					continue
				}
				g = next
			}
			fmt.Fprintf(out, "%v\nscore %d\n", g, g.Score())
			return nil
		},
	}
	cmd.Flags().Uint64Var(&seed, "seed", 1, "game seed")
	return cmd
}
