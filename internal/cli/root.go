package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ppiankov/zkloci/internal/log"
	"github.com/ppiankov/zkloci/internal/model"
)

// Version is set at build time
var Version = "v0.1.0"

const envPrefix = "ZKLOCI"

var (
	cfgFile string
	envFile string
	verbose bool

	// appConfig is resolved once per invocation before any subcommand runs
	appConfig *model.Config
	logger    *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "zkloci",
	Short: "zk-loci - natural-language analytics over zero-knowledge verification campaigns",
	Long: `zk-loci answers plain-English questions about verification campaigns.

Each question is classified, analytics questions are turned into a structured
intent (provider, use case, time window, target), campaign stats are computed
from stored verification requests and proof results, and a short briefing is
composed from those stats.

When the store is unreachable, answers are built from clearly marked
fallback stats instead of failing.`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of zk-loci.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("zkloci %s\n", Version)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.zkloci/config.yaml)")
	flags.StringVar(&envFile, "env-file", ".env", "dotenv file loaded into the environment if present")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	flags.String("llm-provider", "", "LLM provider (openai, anthropic, ollama); empty disables the LLM")
	flags.String("llm-model", "", "LLM model name")
	flags.String("store", "", "store driver (postgres, memory, none)")
	flags.String("database-url", "", "Postgres connection string")
	flags.String("log-level", "", "log level (debug, info, warn, error)")

	_ = viper.BindPFlag("llm.provider", flags.Lookup("llm-provider"))
	_ = viper.BindPFlag("llm.model", flags.Lookup("llm-model"))
	_ = viper.BindPFlag("store.driver", flags.Lookup("store"))
	_ = viper.BindPFlag("store.database_url", flags.Lookup("database-url"))
	_ = viper.BindPFlag("log.level", flags.Lookup("log-level"))

	rootCmd.AddCommand(versionCmd)
}

// setup resolves configuration and installs the logger in the command context
func setup(cmd *cobra.Command, args []string) error {
	if err := loadEnvFile(envFile); err != nil {
		return err
	}
	if err := initConfig(viper.GetViper(), cfgFile); err != nil {
		return err
	}

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	l, err := log.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	appConfig = cfg
	logger = l

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(log.NewContext(ctx, l))

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug(cmd.Context(), "using config file", zap.String("path", used))
	}
	return nil
}

// initConfig points v at the config file and environment. A missing
// default config file is not an error; a missing explicit one is.
func initConfig(v *viper.Viper, file string) error {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		dir, err := configDir()
		if err != nil {
			return err
		}
		v.AddConfigPath(dir)
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	if err := registerDefaults(v, model.DefaultConfig()); err != nil {
		return err
	}

	// ZKLOCI_STORE_DRIVER -> store.driver
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Well-known variables shared with other tooling
	_ = v.BindEnv("store.database_url", envPrefix+"_STORE_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("cache.redis_url", envPrefix+"_CACHE_REDIS_URL", "REDIS_URL")
	// Keys omitted from the defaults tree still need an env binding
	for _, key := range []string{
		"llm.api_key", "llm.base_url", "llm.http_proxy", "llm.https_proxy", "llm.no_proxy",
		"analytics.known_providers", "analytics.known_use_cases",
	} {
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// loadConfig decodes v into a Config seeded with defaults and fills
// provider credentials from their conventional variables.
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(cfg.LLM.Provider)) {
	case "openai":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	case "anthropic", "claude":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	case "ollama":
		if cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = os.Getenv("OLLAMA_BASE_URL")
		}
	}

	return cfg, nil
}

// loadEnvFile adds variables from a dotenv file without overriding ones
// already set. A missing file is ignored.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".zkloci"), nil
}

// currentConfig returns the resolved configuration, or defaults when
// setup has not run (commands invoked directly in tests).
func currentConfig() *model.Config {
	if appConfig == nil {
		return model.DefaultConfig()
	}
	return appConfig
}
