// internal/cli/root.go
package refusalbench

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/mwiater/refusalbench/internal/appconfig"
	"github.com/mwiater/refusalbench/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	cfgFile       string
	currentConfig *appconfig.Config
	appVersion    = "dev"
	appCommit     = "none"
	appDate       = "unknown"
)

// commandFlagKeys maps command-local flags onto configuration keys. They are bound to
// viper for the command being executed, so a flag only overrides the configuration
// when the running command defines it.
var commandFlagKeys = map[string]string{
	"model":            "model",
	"prompts":          "promptsPath",
	"limit":            "limit",
	"timeout":          "timeout",
	"metrics-textfile": "metricsTextfile",
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:          "refusalbench",
	Short:        "Measure how often language models refuse a prompt set",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureConfigLoaded(); err != nil {
			return err
		}

		bindCommandFlags(cmd.Flags())
		if !cmd.Flags().Changed("debug") {
			_ = cmd.Flags().Set("debug", strconv.FormatBool(viper.GetBool("debug")))
		}

		var cfg appconfig.Config
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("unmarshal config: %w", err)
		}
		cfg.ConfigPath = cfgFile
		if err := cfg.Validate(); err != nil {
			return err
		}
		currentConfig = &cfg

		if err := logging.Init(currentConfig.LogFilePath(), currentConfig.Debug); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logging.Logger().Debug().Str("command", cmd.CommandPath()).Str("config", cfgFile).Msg("configuration loaded")
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", appVersion, appCommit, appDate)

	defer logging.Close()
	if err := rootCmd.Execute(); err != nil {
		logging.Close()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", appconfig.DefaultConfigPath, "config file (JSON or YAML)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("logFile", "", "path to the log file")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("logFile", rootCmd.PersistentFlags().Lookup("logFile"))

	setDefaults()
	viper.SetEnvPrefix(appconfig.EnvPrefix)
	viper.AutomaticEnv()
}

// initConfig loads a .env file when present and points viper at the config file.
func initConfig() {
	_ = godotenv.Load()
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

func setDefaults() {
	d := appconfig.Defaults()
	viper.SetDefault("promptsPath", d.PromptsPath)
	viper.SetDefault("resultsRoot", d.ResultsRoot)
	viper.SetDefault("logsRoot", d.LogsRoot)
	viper.SetDefault("chartsRoot", d.ChartsRoot)
	viper.SetDefault("reportPath", d.ReportPath)
	viper.SetDefault("model", d.Model)
	viper.SetDefault("executable", d.Executable)
	viper.SetDefault("executableArgs", d.ExecutableArgs)
	viper.SetDefault("timeout", d.TimeoutSeconds)
	viper.SetDefault("limit", d.Limit)
	viper.SetDefault("minResponseLength", d.MinResponseLength)
	viper.SetDefault("logFile", d.LogFile)
	viper.SetDefault("debug", d.Debug)
	viper.SetDefault("metricsTextfile", d.MetricsTextfile)
}

// bindCommandFlags binds the executing command's flags to their configuration keys.
func bindCommandFlags(flags *pflag.FlagSet) {
	for name, key := range commandFlagKeys {
		if f := flags.Lookup(name); f != nil {
			_ = viper.BindPFlag(key, f)
		}
	}
}

// ensureConfigLoaded reads the config file. A missing file leaves defaults, the
// environment and flags in charge.
func ensureConfigLoaded() error {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}

// commandContext returns the command's context, falling back to Background when the
// command is run outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// GetConfig returns the loaded application configuration for other packages.
func GetConfig() *appconfig.Config {
	return currentConfig
}

// SetVersionInfo allows the main package to inject build-time variables.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}
