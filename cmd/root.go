package cmd

import (
	"errors"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/scholarpath/internal/history"
)

const (
	app       = "scholarpath"
	envPrefix = "SCHOLARPATH"
)

type Config struct {
	Profile           string          `mapstructure:"profile"`
	Catalog           *CatalogConfig  `mapstructure:"catalog"`
	ExcludeFile       string          `mapstructure:"exclude-file"`
	AppliedFile       string          `mapstructure:"applied-file"`
	SkipExpired       bool            `mapstructure:"skip-expired"`
	MinAmount         float64         `mapstructure:"min-amount"`
	ExcludedProviders []string        `mapstructure:"excluded-providers"`
	History           history.Config  `mapstructure:"history"`
	Analysis          *AnalysisConfig `mapstructure:"analysis"`
	AI                *AIConfig       `mapstructure:"ai"`
	Server            *ServerConfig   `mapstructure:"server"`
}

type CatalogConfig struct {
	File      string `mapstructure:"file"`
	URL       string `mapstructure:"url"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"token-file"`
	PerPage   int    `mapstructure:"per-page"`
	State     string `mapstructure:"state"`
}

type AnalysisConfig struct {
	HighValueThreshold float64 `mapstructure:"high-value-threshold"`
	MaxReachCandidates int     `mapstructure:"max-reach-candidates"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string        `mapstructure:"api-key"`
	APIKeyFile   string        `mapstructure:"api-key-file"`
	Model        string        `mapstructure:"model"`
	MaxRetries   int           `mapstructure:"max-retries"`
	MaxLogLength int           `mapstructure:"max-log-length"`
	Prompt       *PromptConfig `mapstructure:"prompt"`
}

type PromptConfig struct {
	Tone             string `mapstructure:"tone"`
	ExtraCriteria    string `mapstructure:"extra-criteria"`
	UserInstructions string `mapstructure:"user-instructions"`
}

type ServerConfig struct {
	Address           string   `mapstructure:"address"`
	AllowedOrigins    []string `mapstructure:"allowed-origins"`
	RequestsPerMinute int      `mapstructure:"requests-per-minute"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "scholarpath matches a student profile against a scholarship catalog and plans how to close the gaps",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is scholarpath.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().StringP("profile", "p", "", "student profile file")
	rootCmd.PersistentFlags().StringP("catalog", "c", "", "scholarship catalog file")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("profile", rootCmd.PersistentFlags().Lookup("profile"))
	viper.BindPFlag("catalog.file", rootCmd.PersistentFlags().Lookup("catalog"))
}

func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
	setDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// A missing default config is fine, flags and env may be enough.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("skip-expired", true)
	v.SetDefault("catalog.per-page", 100)
	v.SetDefault("history.driver", history.DriverNone)
	v.SetDefault("history.dir", "history")
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.timeout", "2m")
	v.SetDefault("ai.gemini.max-retries", 3)
	v.SetDefault("ai.gemini.max-log-length", 200)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.requests-per-minute", 120)
}

func getConfig() (*Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config == nil {
		config = &Config{}
	}
	if config.Catalog == nil {
		config.Catalog = &CatalogConfig{}
	}
	if config.Analysis == nil {
		config.Analysis = &AnalysisConfig{}
	}
	if config.Server == nil {
		config.Server = &ServerConfig{}
	}

	return config, nil
}
