package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zeu5/mdp-rl/util"
)

func RootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "mdp-rl",
		Short:         "Value iteration and Q-learning on Markov decision processes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := UpdateFlags(cmd); err != nil {
				return err
			}
			if hash, err := util.JsonHash(flags); err != nil {
				logger.Warn("error hashing config", "error", err)
			} else {
				logger.Debug("resolved flags", "config_hash", hash)
			}
			if err := flags.Record(); err != nil {
				logger.Warn("error recording config", "error", err)
			}
			return nil
		},
	}
	AddFlags(cmd)

	cmd.AddCommand(
		GridWorldCommand(),
	)

	return cmd
}
