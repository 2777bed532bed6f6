package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Storage backends
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Port           string `env:"APP_PORT" env-default:"8080"`
	ProductionType string `env:"APP_PRODUCTION_TYPE" env-default:"debug"`
	LogPath        string `env:"APP_LOG_PATH" env-default:"logs/app.log"`
	Storage        string `env:"APP_STORAGE" env-default:"postgres"`

	Database  Database
	Auth      Auth
	GitHub    GitHub
	Reconcile Reconcile
}

type Database struct {
	Host     string `env:"DB_HOST" env-default:"localhost"`
	Port     string `env:"DB_PORT" env-default:"5432"`
	User     string `env:"DB_USER" env-default:"postgres"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME" env-default:"reviewflow"`
	SSLMode  string `env:"DB_SSLMODE" env-default:"disable"`

	MigrationsPath string `env:"DB_MIGRATIONS_PATH" env-default:"file://migrations"`
}

type Auth struct {
	JWTSecret string `env:"AUTH_JWT_SECRET"`
}

type GitHub struct {
	Token   string `env:"GITHUB_TOKEN"`
	BaseURL string `env:"GITHUB_BASE_URL"`
	Owner   string `env:"GITHUB_OWNER"`
}

type Reconcile struct {
	Interval time.Duration `env:"RECONCILE_INTERVAL" env-default:"10m"`
}

// NewEnvConfig читает конфигурацию из переменных окружения.
// .env загружается заранее в main через godotenv.
func NewEnvConfig() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment variables: %w", err)
	}

	if cfg.Storage != StoragePostgres && cfg.Storage != StorageMemory {
		return nil, fmt.Errorf("unknown APP_STORAGE %q", cfg.Storage)
	}

	return &cfg, nil
}

// DSN собирает строку подключения к PostgreSQL
func (d Database) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
}

// MigrateURL собирает URL для golang-migrate
func (d Database) MigrateURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

func (config *Config) PrintConfigWithHiddenSecrets() {
	// Функция для маскировки секретов
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return strings.Repeat("*", len(s))
	}

	fmt.Println("========== Configuration ==========")

	fmt.Println("\nApp Configuration:")
	fmt.Printf("\tPort: %s\n", config.Port)
	fmt.Printf("\tProductionType: %s\n", config.ProductionType)
	fmt.Printf("\tLogPath: %s\n", config.LogPath)
	fmt.Printf("\tStorage: %s\n", config.Storage)

	fmt.Println("\nDatabase Configuration:")
	fmt.Printf("\tHost: %s\n", config.Database.Host)
	fmt.Printf("\tPort: %s\n", config.Database.Port)
	fmt.Printf("\tUser: %s\n", config.Database.User)
	fmt.Printf("\tPassword: %s\n", mask(config.Database.Password))
	fmt.Printf("\tName: %s\n", config.Database.Name)
	fmt.Printf("\tSSLMode: %s\n", config.Database.SSLMode)
	fmt.Printf("\tMigrationsPath: %s\n", config.Database.MigrationsPath)

	fmt.Println("\nAuth Configuration:")
	fmt.Printf("\tJWTSecret: %s\n", mask(config.Auth.JWTSecret))

	fmt.Println("\nGitHub Configuration:")
	fmt.Printf("\tToken: %s\n", mask(config.GitHub.Token))
	fmt.Printf("\tBaseURL: %s\n", config.GitHub.BaseURL)
	fmt.Printf("\tOwner: %s\n", config.GitHub.Owner)

	fmt.Println("\nReconcile Configuration:")
	fmt.Printf("\tInterval: %s\n", config.Reconcile.Interval)

	fmt.Println("\n===================================")
}
