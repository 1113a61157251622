package cmd

import (
	"errors"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "screener"
)

type Config struct {
	Store     *StoreConfig     `mapstructure:"store"`
	Screening *ScreeningConfig `mapstructure:"screening"`
	Jobs      any              `mapstructure:"jobs"`
	AI        *AIConfig        `mapstructure:"ai"`
	Auth      *AuthConfig      `mapstructure:"auth"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type ScreeningConfig struct {
	MatchThreshold   float64 `mapstructure:"match-threshold"`
	InitialQuestions int     `mapstructure:"initial-questions"`
	MaxQuestions     int     `mapstructure:"max-questions"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
	OpenAI   *OpenAIConfig `mapstructure:"openai"`
}

type GeminiConfig struct {
	APIKey         string `mapstructure:"api-key"`
	APIKeyFile     string `mapstructure:"api-key-file"`
	Model          string `mapstructure:"model"`
	EmbeddingModel string `mapstructure:"embedding-model"`
	MaxLogLength   int    `mapstructure:"max-log-length"`
}

type OpenAIConfig struct {
	APIKey         string `mapstructure:"api-key"`
	APIKeyFile     string `mapstructure:"api-key-file"`
	BaseURL        string `mapstructure:"base-url"`
	Model          string `mapstructure:"model"`
	EmbeddingModel string `mapstructure:"embedding-model"`
	MaxLogLength   int    `mapstructure:"max-log-length"`
}

type AuthConfig struct {
	Email        string `mapstructure:"email"`
	Password     string `mapstructure:"password"`
	PasswordFile string `mapstructure:"password-file"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "screener is a cli that screens candidates against open roles and runs a short technical interview",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// A .env file is a convenient place for API keys during development.
	_ = godotenv.Load()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is screener.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// A missing config file is fine: every setting has a default or an
	// environment fallback. A present but unparseable one is not.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
