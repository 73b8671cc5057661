package cmd

import (
	"errors"
	"io/fs"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "job-radar"
)

type Config struct {
	Server    *ServerConfig    `mapstructure:"server"`
	Database  *DatabaseConfig  `mapstructure:"database"`
	Redis     *RedisConfig     `mapstructure:"redis"`
	AI        *AIConfig        `mapstructure:"ai"`
	Analysis  *AnalysisConfig  `mapstructure:"analysis"`
	Resume    *ResumeConfig    `mapstructure:"resume"`
	Scraper   *ScraperConfig   `mapstructure:"scraper"`
	Scheduler *SchedulerConfig `mapstructure:"scheduler"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read-timeout"`
	WriteTimeout time.Duration `mapstructure:"write-timeout"`
	CORSOrigins  []string      `mapstructure:"cors-origins"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type RedisConfig struct {
	URL       string        `mapstructure:"url"`
	ResumeTTL time.Duration `mapstructure:"resume-ttl"`
}

type AIConfig struct {
	RequestTimeout time.Duration `mapstructure:"request-timeout"`
	Gemini         *GeminiConfig `mapstructure:"gemini"`
	OpenAI         *OpenAIConfig `mapstructure:"openai"`
	Ollama         *OllamaConfig `mapstructure:"ollama"`
}

type GeminiConfig struct {
	APIKey          string `mapstructure:"api-key"`
	APIKeyFile      string `mapstructure:"api-key-file"`
	Model           string `mapstructure:"model"`
	ExtractionModel string `mapstructure:"extraction-model"`
}

type OpenAIConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	BaseURL    string `mapstructure:"base-url"`
}

type OllamaConfig struct {
	Model string `mapstructure:"model"`
}

type AnalysisConfig struct {
	JobLimit       int           `mapstructure:"job-limit"`
	Concurrency    int           `mapstructure:"concurrency"`
	PersistTimeout time.Duration `mapstructure:"persist-timeout"`
}

type ResumeConfig struct {
	MaxBytes      int64     `mapstructure:"max-bytes"`
	LocalFallback bool      `mapstructure:"local-fallback"`
	S3            *S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"`
}

type ScraperConfig struct {
	MaxHTMLChars int           `mapstructure:"max-html-chars"`
	UserAgent    string        `mapstructure:"user-agent"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type SchedulerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Spec    string `mapstructure:"spec"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "job-radar collects job postings from company career pages and scores them against your profile",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envs := map[string]string{
		"database.url":       "DATABASE_URL",
		"redis.url":          "REDIS_URL",
		"ai.gemini.api-key":  "GEMINI_API_KEY",
		"ai.openai.api-key":  "OPENAI_API_KEY",
		"ai.openai.base-url": "OPENAI_BASE_URL",
	}
	for key, env := range envs {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	setDefaults()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is job-radar.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults() {
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.read-timeout", 30*time.Second)
	viper.SetDefault("server.write-timeout", 5*time.Minute)
	viper.SetDefault("redis.resume-ttl", 24*time.Hour)
	viper.SetDefault("ai.request-timeout", 45*time.Second)
	viper.SetDefault("ai.gemini.model", "gemini-1.5-flash")
	viper.SetDefault("ai.gemini.extraction-model", "gemini-1.5-flash")
	viper.SetDefault("ai.openai.model", "gpt-4o-mini")
	viper.SetDefault("ai.ollama.model", "llama3")
	viper.SetDefault("analysis.job-limit", 50)
	viper.SetDefault("analysis.concurrency", 10)
	viper.SetDefault("analysis.persist-timeout", 10*time.Second)
	viper.SetDefault("resume.max-bytes", 10<<20)
	viper.SetDefault("scraper.max-html-chars", 30000)
	viper.SetDefault("scraper.user-agent", app)
	viper.SetDefault("scraper.timeout", 30*time.Second)
	viper.SetDefault("scheduler.spec", "@every 24h")
}

func initConfig() {
	// A missing .env is fine, everything can come from the real environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// Without a config file we run on defaults and the environment.
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
