package server

import (
	"flag"
	"fmt"
	"os"
	"time"

	"taskmanager/internal/domain/errors"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

const (
	defaultAddr        = "0.0.0.0"
	defaultPort        = 8080
	defaultDBStr       = "postgresql://taskmanager:taskmanager@db:5432/tasks?sslmode=disable"
	defaultMigratePath = "migrations"
	defaultJWTSecret   = "local-development-secret-change-me"
)

type Config struct {
	Addr        string `json:"addr" yaml:"addr" env:"ADDR" env-default:"0.0.0.0"`
	Port        int    `json:"port" yaml:"port" env:"PORT" env-default:"8080"`
	DBStr       string `json:"db_str" yaml:"db_str" env:"DB_STR" env-default:"postgresql://taskmanager:taskmanager@db:5432/tasks?sslmode=disable"`
	MigratePath string `json:"migrate_path" yaml:"migrate_path" env:"MIGRATE_PATH" env-default:"migrations"`
	Env         string `json:"env" yaml:"env" env:"ENV" env-default:"local"`

	JWTSecret string        `json:"jwt_secret" yaml:"jwt_secret" env:"JWT_SECRET" env-default:"local-development-secret-change-me"`
	JWTTTL    time.Duration `json:"jwt_ttl" yaml:"jwt_ttl" env:"JWT_TTL" env-default:"24h"`

	ReminderInterval time.Duration `json:"reminder_interval" yaml:"reminder_interval" env:"REMINDER_INTERVAL" env-default:"30s"`

	DB   DBConfig   `json:"db" yaml:"db"`
	SMTP SMTPConfig `json:"smtp" yaml:"smtp"`
	S3   S3Config   `json:"s3" yaml:"s3"`
}

// DBConfig holds the parts DB_STR is composed from when it is not set
// explicitly.
type DBConfig struct {
	User     string `json:"user" yaml:"user" env:"DB_USER"`
	Password string `json:"password" yaml:"password" env:"DB_PASSWORD"`
	Host     string `json:"host" yaml:"host" env:"DB_HOST"`
	Port     string `json:"port" yaml:"port" env:"DB_PORT"`
	Name     string `json:"name" yaml:"name" env:"DB_NAME"`
}

func (c DBConfig) complete() bool {
	return c.User != "" && c.Password != "" && c.Host != "" && c.Port != "" && c.Name != ""
}

func (c DBConfig) dsn() string {
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=disable", c.User, c.Password, c.Host, c.Port, c.Name)
}

type SMTPConfig struct {
	Host     string `json:"host" yaml:"host" env:"SMTP_HOST" env-default:"smtp.gmail.com"`
	Port     int    `json:"port" yaml:"port" env:"SMTP_PORT" env-default:"587"`
	Username string `json:"username" yaml:"username" env:"SMTP_USERNAME"`
	Password string `json:"password" yaml:"password" env:"SMTP_PASSWORD"`
	From     string `json:"from" yaml:"from" env:"SMTP_FROM"`
}

type S3Config struct {
	Bucket    string `json:"bucket" yaml:"bucket" env:"S3_BUCKET"`
	Region    string `json:"region" yaml:"region" env:"S3_REGION" env-default:"us-east-1"`
	Endpoint  string `json:"endpoint" yaml:"endpoint" env:"S3_ENDPOINT"`
	AccessKey string `json:"access_key" yaml:"access_key" env:"S3_ACCESS_KEY"`
	SecretKey string `json:"secret_key" yaml:"secret_key" env:"S3_SECRET_KEY"`
}

// ReadConfig builds the configuration from defaults, an optional config file
// (-c flag or CONFIG), the environment and finally any flags set in args.
func ReadConfig(args []string) (*Config, error) {
	fs := flag.NewFlagSet("tasks", flag.ContinueOnError)
	var (
		configFile  = fs.String("c", "", "path to a JSON or YAML config file")
		addr        = fs.String("addr", defaultAddr, "server address")
		port        = fs.Int("port", defaultPort, "server port")
		dbStr       = fs.String("dbstr", defaultDBStr, "database connection string")
		dbDsn       = fs.String("dbdsn", "", "database DSN, takes precedence over -dbstr")
		migratePath = fs.String("migratepath", defaultMigratePath, "migrations directory")
		env         = fs.String("env", EnvLocal, "environment: local, dev or prod")
	)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	path := *configFile
	if path == "" {
		path = os.Getenv("CONFIG")
	}

	cfg := &Config{}
	if path != "" {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("%w %s: %v", errors.ErrConfigFileReadFailed, path, err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrConfigInvalidFormat, err)
	}

	if os.Getenv("DB_STR") == "" && cfg.DBStr == defaultDBStr && cfg.DB.complete() {
		cfg.DBStr = cfg.DB.dsn()
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = *addr
		case "port":
			cfg.Port = *port
		case "dbstr":
			if *dbDsn == "" {
				cfg.DBStr = *dbStr
			}
		case "dbdsn":
			cfg.DBStr = *dbDsn
		case "migratepath":
			cfg.MigratePath = *migratePath
		case "env":
			cfg.Env = *env
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: port must be between 1 and 65535, got %d", errors.ErrConfigInvalidFormat, c.Port)
	}
	switch c.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		return fmt.Errorf("%w: unknown env %q", errors.ErrConfigInvalidFormat, c.Env)
	}
	if c.Env == EnvProd && (c.JWTSecret == "" || c.JWTSecret == defaultJWTSecret) {
		return fmt.Errorf("%w: JWT_SECRET must be set in prod", errors.ErrConfigInvalidFormat)
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("%w: jwt ttl must be positive", errors.ErrConfigInvalidFormat)
	}
	if c.ReminderInterval <= 0 {
		return fmt.Errorf("%w: reminder interval must be positive", errors.ErrConfigInvalidFormat)
	}
	return nil
}
