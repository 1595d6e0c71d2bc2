package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/petasbytes/ellie/internal/config"
)

func newRootCmd() *cobra.Command {
	v := viper.New()
	config.SetDefaults(v)

	var cfgFile string
	cmd := &cobra.Command{
		Use:           "ellie",
		Short:         "Ellie, a conversational overlay agent for group chat",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.BindEnv(v)
			return config.ReadFile(v, cfgFile)
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file path (optional).")
	cmd.PersistentFlags().String("provider", "", "Generation provider: anthropic|gemini|mock.")
	cmd.PersistentFlags().String("model", "", "Model name (defaults per provider).")
	cmd.PersistentFlags().String("log-level", "", "Logging level: debug|info|warn|error.")
	cmd.PersistentFlags().String("log-format", "", "Logging format: console|json.")
	cmd.PersistentFlags().String("persona", "", "Persona YAML file, relative to --persona-root.")
	cmd.PersistentFlags().String("persona-root", "", "Directory persona files are read from.")

	_ = v.BindPFlag("llm.provider", cmd.PersistentFlags().Lookup("provider"))
	_ = v.BindPFlag("llm.model", cmd.PersistentFlags().Lookup("model"))
	_ = v.BindPFlag("logging.level", cmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("logging.format", cmd.PersistentFlags().Lookup("log-format"))
	_ = v.BindPFlag("persona.file", cmd.PersistentFlags().Lookup("persona"))
	_ = v.BindPFlag("persona.root", cmd.PersistentFlags().Lookup("persona-root"))

	cmd.AddCommand(newServeCmd(v))
	cmd.AddCommand(newAskCmd(v))
	return cmd
}
