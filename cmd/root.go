// -- cmd/root.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/ghost/internal/config"
	"github.com/xkilldash9x/ghost/internal/observability"
	"github.com/xkilldash9x/ghost/internal/service"
)

// app carries what a command invocation shares: its own viper instance, the
// resolved configuration and the component factory.
type app struct {
	cfgFile string
	v       *viper.Viper
	cfg     *config.Config

	// newFactory is swapped in tests to run the engine on a manual clock.
	newFactory func(service.Options) service.ComponentFactory
	options    service.Options
}

func newApp() *app {
	return &app{v: viper.New(), newFactory: service.NewComponentFactory}
}

// NewRootCommand builds a fresh command tree. Each call is independent, so
// flags from one execution never leak into the next.
func NewRootCommand() *cobra.Command {
	return newRootCommand(newApp())
}

func newRootCommand(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "ghost",
		Short:   "Ghost drives a simulated operator across a shared canvas.",
		Version: Version,
		// Errors are logged by Execute; usage is noise for runtime failures.
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.initializeConfig(); err != nil {
				// Initialize a fallback logger so the failure is still reported.
				observability.InitializeLogger(config.NewDefaultConfig().Logger())
				return err
			}
			observability.InitializeLogger(a.cfg.Logger())
			observability.GetLogger().Debug("Starting Ghost", zap.String("version", Version))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "ghost version %s\n" .Version}}`)

	rootCmd.AddCommand(
		newRunCmd(a),
		newReplayCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

// initializeConfig reads the config file and GHOST_ environment variables.
func (a *app) initializeConfig() error {
	v := a.v
	config.SetDefaults(v)
	if a.cfgFile != "" {
		v.SetConfigFile(a.cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("GHOST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults/env vars
	}

	cfg, err := config.NewConfigFromViper(v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

// Execute runs the command tree against os.Args.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		if logger := observability.GetLogger(); logger != nil {
			logger.Error("Command execution failed", zap.Error(err))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		return err
	}
	return nil
}
