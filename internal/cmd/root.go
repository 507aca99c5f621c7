package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/taskgraph/internal/cmd/config"
	"github.com/Iron-Ham/taskgraph/internal/cmd/observability"
	"github.com/Iron-Ham/taskgraph/internal/cmd/tasks"
	appconfig "github.com/Iron-Ham/taskgraph/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "taskgraph",
	Short: "Dependency-aware task tracker",
	Long: `taskgraph tracks tasks with dependencies, subtasks and priorities, and
tells you which one to work on next.

The graph lives in a single snapshot file (JSON or YAML) that every command
reads and, when something changed, writes back. Cycles are rejected when
they are introduced, and a parent's status follows its subtasks.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context so long-running views can exit cleanly.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/taskgraph/config.yaml)")
	rootCmd.PersistentFlags().String("snapshot", "", "snapshot file (overrides snapshot.path)")

	tasks.Register(rootCmd)
	config.Register(rootCmd)
	observability.Register(rootCmd)
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	appconfig.SetDefaults()

	flags := rootCmd.PersistentFlags()
	_ = viper.BindPFlag("config", flags.Lookup("config"))
	_ = viper.BindPFlag("snapshot.path", flags.Lookup("snapshot"))

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(appconfig.ConfigDir())
		viper.AddConfigPath("$HOME/.config/taskgraph")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix(appconfig.EnvPrefix)
	// Replace dots with underscores for nested keys in env vars
	// e.g., TASKGRAPH_LOGGING_LEVEL for logging.level
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
