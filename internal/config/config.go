package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	DB       *DBconfig
	RabbitMq *RabbitMqconfig
	Srv      *Serviceconfig
	App      *Appconfig
	Log      *Loggerconfig
}

type DBconfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type RabbitMqconfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type Serviceconfig struct {
	RideServicePort   string `yaml:"ride_service"`
	DriverServicePort string `yaml:"driver_service"`
	AuthServicePort   string `yaml:"auth_service"`
}

type Appconfig struct {
	JwtSecret        string `yaml:"jwt_secret"`
	OtpTTLMinutes    int    `yaml:"otp_ttl_minutes"`
	AccessTokenHours int    `yaml:"access_token_hours"`
}

type Loggerconfig struct {
	Level string `yaml:"level"`
}

func New() (*Config, error) {
	getEnv := func(key, def string) string {
		val := os.Getenv(key)
		if val == "" {
			fmt.Printf("using default for %v\n", key)
			return def
		}
		return val
	}

	getEnvInt := func(key string, def int) int {
		valStr := os.Getenv(key)
		if valStr == "" {
			fmt.Printf("using default for %v\n", key)
			return def
		}
		val, err := strconv.Atoi(valStr)
		if err != nil {
			fmt.Printf("using default for %v\n", key)
			return def
		}
		return val
	}

	cnf := &Config{
		DB: &DBconfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "malitrans_user"),
			Password: getEnv("DB_PASSWORD", "malitrans_pass"),
			Database: getEnv("DB_NAME", "malitrans_db"),
		},
		RabbitMq: &RabbitMqconfig{
			Host:     getEnv("RABBITMQ_HOST", "localhost"),
			Port:     getEnvInt("RABBITMQ_PORT", 5672),
			User:     getEnv("RABBITMQ_USER", "guest"),
			Password: getEnv("RABBITMQ_PASSWORD", "guest"),
		},
		Srv: &Serviceconfig{
			RideServicePort:   getEnv("RIDE_SERVICE_PORT", "3000"),
			DriverServicePort: getEnv("DRIVER_SERVICE_PORT", "3001"),
			AuthServicePort:   getEnv("AUTH_SERVICE_PORT", "3002"),
		},
		App: &Appconfig{
			JwtSecret:        getEnv("JWT_SECRET", "dev-secret-change-me"),
			OtpTTLMinutes:    getEnvInt("OTP_TTL_MINUTES", 5),
			AccessTokenHours: getEnvInt("ACCESS_TOKEN_HOURS", 72),
		},
		Log: &Loggerconfig{
			Level: getEnv("LOG_LEVEL", "INFO"),
		},
	}

	return cnf, nil
}
