package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/petasbytes/ellie/memory"
)

func newAskCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <message...>",
		Short: "Ask Ellie one question and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" {
				return fmt.Errorf("ask: empty message")
			}
			rt, err := loadRuntime(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer func() { _ = rt.logger.Sync() }()

			reply := rt.newAgent(nil).HandleDirectInvocation(cmd.Context(), memory.Key("cli"), text)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), reply)
			return err
		},
	}
}
