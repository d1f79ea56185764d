package config

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const defaultSessionSecret = "change-me-in-production"

type Config struct {
	Server   Server
	Database Database
	Session  Session
	Survey   Survey
	Oracle   Oracle
	Redis    Redis
	LogLevel string
}

type Server struct {
	Port    string
	GinMode string
}

type Database struct {
	Driver   string
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type Session struct {
	Secret string
	MaxAge time.Duration
	Secure bool
}

type Survey struct {
	MaxQuestions         int
	InsightsOnCompletion bool
}

// CallLimits bounds a single oracle call site.
type CallLimits struct {
	MaxTokens   int32
	Temperature float32
}

type Oracle struct {
	Providers         []string
	Model             string
	GeminiModel       string
	GeminiApiKey      string
	OpenAIModel       string
	OpenAIApiKey      string
	OpenAIBaseURL     string
	Timeout           time.Duration
	MaxRetries        int
	RetryDelay        time.Duration
	RequestsPerMinute int

	FirstQuestion CallLimits
	FollowUp      CallLimits
	Interpret     CallLimits
	Synthesis     CallLimits
}

type Redis struct {
	Addr     string
	Password string
	DB       int
	LockTTL  time.Duration
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Server.GinMode = viper.GetString("GIN_MODE")
	config.LogLevel = viper.GetString("LOG_LEVEL")

	config.Database.Driver = strings.ToLower(viper.GetString("DATABASE_DRIVER"))
	config.Database.URL = viper.GetString("DATABASE_URL")
	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")

	config.Session.Secret = viper.GetString("SESSION_SECRET")
	config.Session.MaxAge = viper.GetDuration("SESSION_MAX_AGE")
	config.Session.Secure = viper.GetBool("SESSION_SECURE")
	if config.Session.Secret == defaultSessionSecret {
		log.Warn().Msg("SESSION_SECRET is not set. Using an insecure development secret.")
	}

	config.Survey.MaxQuestions = viper.GetInt("MAX_QUESTIONS_PER_SURVEY")
	config.Survey.InsightsOnCompletion = viper.GetBool("INSIGHTS_ON_COMPLETION")

	config.Oracle.Providers = splitList(viper.GetString("ORACLE_PROVIDER"))
	config.Oracle.Model = viper.GetString("ORACLE_MODEL")
	config.Oracle.GeminiModel = viper.GetString("GEMINI_MODEL")
	config.Oracle.GeminiApiKey = viper.GetString("GEMINI_API_KEY")
	config.Oracle.OpenAIModel = viper.GetString("OPENAI_MODEL")
	config.Oracle.OpenAIApiKey = viper.GetString("OPENAI_API_KEY")
	config.Oracle.OpenAIBaseURL = viper.GetString("OPENAI_BASE_URL")
	config.Oracle.Timeout = viper.GetDuration("ORACLE_TIMEOUT")
	config.Oracle.MaxRetries = viper.GetInt("ORACLE_MAX_RETRIES")
	config.Oracle.RetryDelay = viper.GetDuration("ORACLE_RETRY_DELAY")
	config.Oracle.RequestsPerMinute = viper.GetInt("ORACLE_REQUESTS_PER_MINUTE")
	config.Oracle.FirstQuestion = callLimits("FIRST_QUESTION")
	config.Oracle.FollowUp = callLimits("FOLLOW_UP")
	config.Oracle.Interpret = callLimits("INTERPRET")
	config.Oracle.Synthesis = callLimits("SYNTHESIS")

	config.Redis.Addr = viper.GetString("REDIS_ADDR")
	config.Redis.Password = viper.GetString("REDIS_PASSWORD")
	config.Redis.DB = viper.GetInt("REDIS_DB")
	config.Redis.LockTTL = viper.GetDuration("LOCK_TTL")

	config.normalize()

	log.Info().
		Str("port", config.Server.Port).
		Str("dbDriver", config.Database.Driver).
		Strs("oracleProviders", config.Oracle.Providers).
		Str("oracleModel", config.Oracle.Model).
		Int("maxQuestions", config.Survey.MaxQuestions).
		Bool("redisLock", config.Redis.Addr != "").
		Msg("Config loaded")
	return &config, nil
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("GIN_MODE", "debug")
	viper.SetDefault("LOG_LEVEL", "info")

	viper.SetDefault("DATABASE_DRIVER", "sqlite")
	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("DATABASE_PORT", "5432")

	viper.SetDefault("SESSION_SECRET", defaultSessionSecret)
	viper.SetDefault("SESSION_MAX_AGE", "720h")
	viper.SetDefault("SESSION_SECURE", false)

	viper.SetDefault("MAX_QUESTIONS_PER_SURVEY", 5)
	viper.SetDefault("INSIGHTS_ON_COMPLETION", true)

	viper.SetDefault("ORACLE_PROVIDER", "gemini")
	viper.SetDefault("ORACLE_MODEL", "")
	viper.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	viper.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	viper.SetDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
	viper.SetDefault("ORACLE_TIMEOUT", "30s")
	viper.SetDefault("ORACLE_MAX_RETRIES", 2)
	viper.SetDefault("ORACLE_RETRY_DELAY", "1s")
	viper.SetDefault("ORACLE_REQUESTS_PER_MINUTE", 60)

	viper.SetDefault("FIRST_QUESTION_MAX_TOKENS", 100)
	viper.SetDefault("FIRST_QUESTION_TEMPERATURE", 0.7)
	viper.SetDefault("FOLLOW_UP_MAX_TOKENS", 100)
	viper.SetDefault("FOLLOW_UP_TEMPERATURE", 0.7)
	viper.SetDefault("INTERPRET_MAX_TOKENS", 300)
	viper.SetDefault("INTERPRET_TEMPERATURE", 0.3)
	viper.SetDefault("SYNTHESIS_MAX_TOKENS", 1000)
	viper.SetDefault("SYNTHESIS_TEMPERATURE", 0.5)

	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("LOCK_TTL", "60s")
}

// normalize clamps values that would break survey progression.
func (c *Config) normalize() {
	if c.Survey.MaxQuestions < 1 {
		log.Warn().Int("maxQuestions", c.Survey.MaxQuestions).Msg("MAX_QUESTIONS_PER_SURVEY must be at least 1. Using 1.")
		c.Survey.MaxQuestions = 1
	}
	// The progression lock is held across one oracle call.
	if minTTL := 2 * c.Oracle.Timeout; c.Redis.LockTTL < minTTL {
		log.Warn().Dur("lockTTL", c.Redis.LockTTL).Dur("minimum", minTTL).Msg("LOCK_TTL is shorter than twice ORACLE_TIMEOUT. Raising it.")
		c.Redis.LockTTL = minTTL
	}
}

func callLimits(prefix string) CallLimits {
	return CallLimits{
		MaxTokens:   viper.GetInt32(prefix + "_MAX_TOKENS"),
		Temperature: float32(viper.GetFloat64(prefix + "_TEMPERATURE")),
	}
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(strings.ToLower(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
