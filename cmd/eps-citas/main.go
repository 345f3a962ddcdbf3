package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"eps-citas/internal/config"

	"github.com/spf13/cobra"
)

type configLoader func(envFile string) (*config.Config, error)

func newRootCmd(a *app, load configLoader) *cobra.Command {
	var (
		envFile string
		verbose bool
	)
	root := &cobra.Command{
		Use:           "eps-citas",
		Short:         "Cliente de citas médicas EPS",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(envFile)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return a.init(cmd.Context(), cfg, verbose)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "archivo .env opcional")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "muestra logs")

	root.AddCommand(
		loginCmd(a),
		logoutCmd(a),
		whoamiCmd(a),
		menuCmd(a),
		registerCmd(a),
		citasCmd(a),
		watchCmd(a),
		statsCmd(a),
		reportesCmd(a),
		perfilCmd(a),
	)
	root.AddCommand(entityCmds(a)...)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{}
	root := newRootCmd(a, config.LoadFile)
	err := root.ExecuteContext(ctx)
	a.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, userMessage(err))
		os.Exit(1)
	}
}
