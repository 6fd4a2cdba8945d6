package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Storage backends supported by the record store.
const (
	StorageBackendFile   = "file"
	StorageBackendMemory = "memory"
	StorageBackendRedis  = "redis"
	StorageBackendOracle = "oracle"
)

type Config struct {
	DB      DBConfig
	Server  ServerConfig
	Redis   RedisConfig
	Logger  LoggerConfig
	Storage StorageConfig
	Exam    ExamConfig
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LoggerConfig struct {
	Level string `yaml:"level"`
	Env   string `yaml:"env"`
}

// StorageConfig selects where history, mistakes and the app snapshot live.
type StorageConfig struct {
	Backend   string `yaml:"backend"`
	FilePath  string `yaml:"file_path"`
	KeyPrefix string `yaml:"key_prefix"`
}

// ExamConfig holds the exam trainer's tunables.
type ExamConfig struct {
	QuestionBankPath string        `yaml:"question_bank_path"` // empty uses the bundled bank
	AutoAdvanceDelay time.Duration `yaml:"auto_advance_delay"`
	CompletionDelay  time.Duration `yaml:"completion_delay"`
	RestoreWindow    time.Duration `yaml:"restore_window"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", 20)
	v.SetDefault("server.write_timeout", 20)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.env", "development")
	v.SetDefault("storage.backend", StorageBackendFile)
	v.SetDefault("storage.file_path", "data/quiz-drill.json")
	v.SetDefault("storage.key_prefix", "quizdrill")
	v.SetDefault("redis.db", 0)
	v.SetDefault("db.port", 1521)
	v.SetDefault("exam.auto_advance_delay", "1500ms")
	v.SetDefault("exam.completion_delay", "2s")
	v.SetDefault("exam.restore_window", "24h")
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	return fromViper(v)
}

func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	setDefaults(v)

	// Add config paths based on environment
	if os.Getenv("ENV") == "test" {
		// For test environment, look for config in the project root
		v.AddConfigPath("../../config")
		v.AddConfigPath("../../")
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file: run on defaults and environment.
	}

	if configFile := v.ConfigFileUsed(); configFile != "" {
		absPath, _ := filepath.Abs(configFile)
		fmt.Printf("Using config file: %s\n", absPath)
	}

	config := fromViper(v)

	// Override with environment variables if set
	if port := os.Getenv("SERVER_PORT"); port != "" {
		v.Set("server.port", port)
		config.Server.Port = v.GetInt("server.port")
	}
	if backend := os.Getenv("STORAGE_BACKEND"); backend != "" {
		config.Storage.Backend = backend
	}
	if path := os.Getenv("STORAGE_FILE_PATH"); path != "" {
		config.Storage.FilePath = path
	}
	if bank := os.Getenv("QUESTION_BANK_PATH"); bank != "" {
		config.Exam.QuestionBankPath = bank
	}
	if host := os.Getenv("DB_HOST"); host != "" {
		config.DB.Host = host
	}
	if user := os.Getenv("DB_USER"); user != "" {
		config.DB.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		config.DB.Password = password
	}
	if dbname := os.Getenv("DB_NAME"); dbname != "" {
		config.DB.DBName = dbname
	}
	if redisAddress := os.Getenv("REDIS_ADDRESS"); redisAddress != "" {
		config.Redis.Address = redisAddress
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		config.Redis.Password = redisPassword
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logger.Level = level
	}
	if env := os.Getenv("ENV"); env != "" {
		config.Logger.Env = env
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		DB: DBConfig{
			Host:     v.GetString("db.host"),
			Port:     v.GetInt("db.port"),
			User:     v.GetString("db.user"),
			Password: v.GetString("db.password"),
			DBName:   v.GetString("db.name"),
		},
		Server: ServerConfig{
			Port:         v.GetInt("server.port"),
			ReadTimeout:  time.Duration(v.GetInt("server.read_timeout")) * time.Second,
			WriteTimeout: time.Duration(v.GetInt("server.write_timeout")) * time.Second,
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Logger: LoggerConfig{
			Level: v.GetString("logger.level"),
			Env:   v.GetString("logger.env"),
		},
		Storage: StorageConfig{
			Backend:   v.GetString("storage.backend"),
			FilePath:  v.GetString("storage.file_path"),
			KeyPrefix: v.GetString("storage.key_prefix"),
		},
		Exam: ExamConfig{
			QuestionBankPath: v.GetString("exam.question_bank_path"),
			AutoAdvanceDelay: v.GetDuration("exam.auto_advance_delay"),
			CompletionDelay:  v.GetDuration("exam.completion_delay"),
			RestoreWindow:    v.GetDuration("exam.restore_window"),
		},
	}
}

// Validate checks the settings that would otherwise fail late at startup.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case StorageBackendFile:
		if c.Storage.FilePath == "" {
			return fmt.Errorf("storage.file_path is required for the file backend")
		}
	case StorageBackendMemory:
	case StorageBackendRedis:
		if c.Redis.Address == "" {
			return fmt.Errorf("redis.address is required for the redis backend")
		}
	case StorageBackendOracle:
		if c.DB.Host == "" || c.DB.User == "" || c.DB.DBName == "" {
			return fmt.Errorf("db.host, db.user and db.name are required for the oracle backend")
		}
	default:
		return fmt.Errorf("unsupported storage backend: %q", c.Storage.Backend)
	}
	if c.Exam.AutoAdvanceDelay < 0 || c.Exam.CompletionDelay < 0 {
		return fmt.Errorf("exam delays must not be negative")
	}
	if c.Exam.RestoreWindow <= 0 {
		return fmt.Errorf("exam.restore_window must be positive")
	}
	return nil
}

func (c *Config) GetDSN() string {
	// Oracle DSN format: user/password@host:port/service
	return fmt.Sprintf("oracle://%s:%s@%s:%d/%s",
		c.DB.User,
		c.DB.Password,
		c.DB.Host,
		c.DB.Port,
		c.DB.DBName,
	)
}
