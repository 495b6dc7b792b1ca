package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Env string `mapstructure:"env"`
	} `mapstructure:"app"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
	Database struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"sslmode"`
	} `mapstructure:"database"`
	Storage struct {
		Driver string `mapstructure:"driver"`
		// MemoryCustomers are registered as ACTIVE customers when Driver is "memory".
		MemoryCustomers []int64 `mapstructure:"memory_customers"`
	} `mapstructure:"storage"`
	Server struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`
	JWT struct {
		SecretKey string `mapstructure:"secret_key"`
	} `mapstructure:"jwt"`
	Redis struct {
		Enabled  bool          `mapstructure:"enabled"`
		Host     string        `mapstructure:"host"`
		Port     string        `mapstructure:"port"`
		Password string        `mapstructure:"password"`
		TTL      time.Duration `mapstructure:"ttl"`
	} `mapstructure:"redis"`
	Ledger struct {
		MaxRetries   int           `mapstructure:"max_retries"`
		RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	} `mapstructure:"ledger"`
	Interest struct {
		SavingsRate float64 `mapstructure:"savings_rate"`
		CurrentRate float64 `mapstructure:"current_rate"`
		Schedule    string  `mapstructure:"schedule"`
		Workers     int     `mapstructure:"workers"`
	} `mapstructure:"interest"`
	Kafka struct {
		Enabled bool     `mapstructure:"enabled"`
		Brokers []string `mapstructure:"brokers"`
		Topic   string   `mapstructure:"topic"`
	} `mapstructure:"kafka"`
	Events struct {
		RelayInterval time.Duration `mapstructure:"relay_interval"`
		BatchSize     int           `mapstructure:"batch_size"`
	} `mapstructure:"events"`
}

var AppConfig Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("log.level", "info")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "ledger")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("storage.driver", "postgres")
	v.SetDefault("storage.memory_customers", []int64{})

	v.SetDefault("server.port", "8080")
	v.SetDefault("jwt.secret_key", "")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.ttl", 10*time.Minute)

	v.SetDefault("ledger.max_retries", 5)
	v.SetDefault("ledger.retry_backoff", 10*time.Millisecond)

	v.SetDefault("interest.savings_rate", 3.5)
	v.SetDefault("interest.current_rate", 0.5)
	v.SetDefault("interest.schedule", "0 2 * * *")
	v.SetDefault("interest.workers", 4)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "transaction_completed")
	v.SetDefault("events.relay_interval", 5*time.Second)
	v.SetDefault("events.batch_size", 100)
}

// Load reads config.yml from path (if present) and the environment into a Config.
// Environment variables override file values, e.g. LEDGER_MAX_RETRIES.
func Load(path string) (Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	var cfg Config
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func LoadConfig(path string) {
	cfg, err := Load(path)
	if err != nil {
		log.Fatalf("Error reading config, %s", err)
	}
	AppConfig = cfg
}
