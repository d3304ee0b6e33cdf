// internal/cli/root.go
package foodbench

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/foodbench/internal/appconfig"
	"github.com/mwiater/foodbench/internal/logging"
)

// legacyConfigFile is the pre-layout config location still honored when the
// default path is absent.
const legacyConfigFile = "config.json"

var (
	cfgFile       string
	currentConfig *appconfig.Config
	appVersion    = "dev"
	appCommit     = "none"
	appDate       = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "foodbench",
	Short: "foodbench — evaluation harness for the pizza/steak/sushi classifier",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureConfigLoaded(); err != nil {
			return err
		}

		// If the user did NOT set a flag, copy the config value into the
		// flag so both pflags and viper reflect the same, final value.
		for _, name := range []string{"debug", "no-color"} {
			if !cmd.Flags().Changed(name) {
				val := viper.GetBool(viperKeyForFlag(name))
				_ = cmd.Flags().Set(name, strconv.FormatBool(val))
			}
		}
		if !cmd.Flags().Changed("threshold") {
			_ = cmd.Flags().Set("threshold", strconv.FormatFloat(viper.GetFloat64("threshold"), 'f', -1, 64))
		}
		if !cmd.Flags().Changed("bins") {
			_ = cmd.Flags().Set("bins", strconv.Itoa(viper.GetInt("bins")))
		}
		for _, name := range []string{"profile", "logFile"} {
			if !cmd.Flags().Changed(name) {
				_ = cmd.Flags().Set(name, viper.GetString(name))
			}
		}

		// Materialize the fully merged configuration (flags > config >
		// defaults) so other packages get a stable snapshot.
		var cfg appconfig.Config
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("unmarshal config: %w", err)
		}
		cfg.ConfigPath = viper.ConfigFileUsed()

		if err := appconfig.ApplyEvalProfile(&cfg); err != nil {
			return err
		}
		if err := cfg.EvalSettings().Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		currentConfig = &cfg

		if cfg.NoColor {
			color.NoColor = true
		}

		if err := logging.Init(cfg.LogFilePath()); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", appVersion, appCommit, appDate)

	defer logging.Close()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", appconfig.DefaultConfigPath, "config file (e.g., config/config.json)")

	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored terminal output")
	rootCmd.PersistentFlags().Float64("threshold", 0, "confidence threshold below which predictions become \"unknown\" (0 = configured)")
	rootCmd.PersistentFlags().Int("bins", 0, "number of equal-width calibration bins (0 = configured)")
	rootCmd.PersistentFlags().String("profile", "", "evaluation profile preset (standard, strict, lenient, smoke)")
	rootCmd.PersistentFlags().String("logFile", "", "path to the log file")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("noColor", rootCmd.PersistentFlags().Lookup("no-color"))
	_ = viper.BindPFlag("threshold", rootCmd.PersistentFlags().Lookup("threshold"))
	_ = viper.BindPFlag("bins", rootCmd.PersistentFlags().Lookup("bins"))
	_ = viper.BindPFlag("profile", rootCmd.PersistentFlags().Lookup("profile"))
	_ = viper.BindPFlag("logFile", rootCmd.PersistentFlags().Lookup("logFile"))
}

// initConfig points viper at the selected config file.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// viperKeyForFlag maps kebab-case flag names onto the camelCase config keys.
func viperKeyForFlag(name string) string {
	if name == "no-color" {
		return "noColor"
	}
	return name
}

// ensureConfigLoaded reads the config file. A missing default path falls
// back to the legacy location and finally to built-in defaults; an explicit
// --config pointing at a missing file is an error.
func ensureConfigLoaded() error {
	viper.SetDefault("debug", false)
	viper.SetDefault("noColor", false)

	err := viper.ReadInConfig()
	if err == nil {
		return nil
	}
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		return nil
	}
	if errors.Is(err, os.ErrNotExist) {
		if cfgFile != appconfig.DefaultConfigPath {
			return fmt.Errorf("failed to load config %s: %w", cfgFile, err)
		}
		viper.SetConfigFile(legacyConfigFile)
		if legacyErr := viper.ReadInConfig(); legacyErr != nil {
			if errors.Is(legacyErr, os.ErrNotExist) {
				return nil
			}
			return fmt.Errorf("failed to load config: %w", legacyErr)
		}
		return nil
	}
	return fmt.Errorf("failed to load config: %w", err)
}

// GetConfig returns the loaded application configuration for other packages.
func GetConfig() *appconfig.Config {
	return currentConfig
}

// DebugEnabled returns true if debug mode is enabled.
func DebugEnabled() bool { return viper.GetBool("debug") }

// ColorDisabled returns true if colored output is disabled.
func ColorDisabled() bool { return viper.GetBool("noColor") }

// SetVersionInfo allows the main package to inject build-time variables.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}
