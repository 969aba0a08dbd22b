package cmd

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/apply-pilot/internal/form"
	"github.com/spigell/apply-pilot/internal/matching"
	"github.com/spigell/apply-pilot/internal/session"
	"github.com/spigell/apply-pilot/internal/utils"
)

const (
	app       = "apply-pilot"
	envPrefix = "APPLY_PILOT"
)

type Config struct {
	Postings    string            `mapstructure:"postings"`
	ExcludeFile string            `mapstructure:"exclude-file"`
	Criteria    map[string]any    `mapstructure:"criteria"`
	Matching    *matching.Tables  `mapstructure:"matching"`
	Form        *FormConfig       `mapstructure:"form"`
	Proxy       *ProxyConfig      `mapstructure:"proxy"`
	Session     session.Options   `mapstructure:"session"`
	Profile     map[string]string `mapstructure:"profile"`
	Store       *StoreConfig      `mapstructure:"store"`
	Telegram    *TelegramConfig   `mapstructure:"telegram"`
	Apply       *ApplyConfig      `mapstructure:"apply"`
}

type FormConfig struct {
	// Patterns replaces the built-in purpose table when set. Order matters.
	Patterns           []form.Pattern `mapstructure:"patterns"`
	RequiredIndicators []string       `mapstructure:"required-indicators"`
	Scorer             *ScorerConfig  `mapstructure:"scorer"`
}

type ScorerConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Provider     string `mapstructure:"provider"`
	Model        string `mapstructure:"model"`
	APIKey       string `mapstructure:"api-key" json:"-"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type ProxyConfig struct {
	File     string        `mapstructure:"file"`
	MaxFails int           `mapstructure:"max-fails"`
	TestURLs []string      `mapstructure:"test-urls"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type StoreConfig struct {
	DSN     string `mapstructure:"dsn" json:"-"`
	DSNFile string `mapstructure:"dsn-file"`
}

type TelegramConfig struct {
	Token     string `mapstructure:"token" json:"-"`
	TokenFile string `mapstructure:"token-file"`
	ChatID    int64  `mapstructure:"chat-id"`
}

type ApplyConfig struct {
	Delay   utils.Pause `mapstructure:"delay"`
	Exclude *struct {
		Companies []string `mapstructure:"companies"`
	} `mapstructure:"exclude"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "apply-pilot filters job postings and submits application forms through a browser",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.BindEnv("proxy.file", "PROXY_FILE", envPrefix+"_PROXY_FILE"); err != nil {
		log.Fatalf("binding PROXY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is apply-pilot.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if versionCmd.CalledAs() != "" {
		return
	}

	// Values from .env become regular environment variables; a missing file is fine.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	err := viper.ReadInConfig()
	if err == nil {
		return
	}

	// classify works on built-in patterns alone.
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) && classifyCmd.CalledAs() != "" {
		return
	}

	// We can't proceed if the config file parsed with error.
	log.Fatal(err)
}

func getConfig() (*Config, error) {
	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, err
	}

	return config, nil
}
