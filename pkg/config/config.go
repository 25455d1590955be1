package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverFirestore = "firestore"
	DriverMongo     = "mongo"
	DriverMemory    = "memory"

	defaultJWTSecret = "your-secret-key"
)

type Config struct {
	ServerPort  string
	Environment string
	LogLevel    string

	DocstoreDriver         string
	FirebaseProject        string
	FirebaseServiceAccount string
	FirebaseCredentialFile string
	MongoURI               string
	MongoDatabase          string

	JWTSecret string
	JWTExpiry int64

	TypingTimeout  time.Duration
	RequestTimeout time.Duration
}

func Load() (*Config, error) {
	godotenv.Load()

	environment := getEnv("ENVIRONMENT", "development")
	defaultDriver := DriverFirestore
	if environment == "development" {
		defaultDriver = DriverMemory
	}

	config := &Config{
		ServerPort:             getEnv("SERVER_PORT", "8080"),
		Environment:            environment,
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		DocstoreDriver:         getEnv("DOCSTORE_DRIVER", defaultDriver),
		FirebaseProject:        getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseServiceAccount: getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		FirebaseCredentialFile: getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", ""),
		MongoURI:               getEnv("MONGODB_URI", ""),
		MongoDatabase:          getEnv("MONGODB_DATABASE", "foodshare"),
		JWTSecret:              getEnv("JWT_SECRET", defaultJWTSecret),
		JWTExpiry:              getEnvAsInt64("JWT_EXPIRY", 24*60*60), // 24 hours
		TypingTimeout:          time.Duration(getEnvAsInt64("TYPING_TIMEOUT_MS", 2000)) * time.Millisecond,
		RequestTimeout:         time.Duration(getEnvAsInt64("REQUEST_TIMEOUT_MS", 10000)) * time.Millisecond,
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Validate() error {
	switch c.DocstoreDriver {
	case DriverFirestore:
		if c.FirebaseProject == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID is required for the %s driver", c.DocstoreDriver)
		}
	case DriverMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGODB_URI is required for the %s driver", c.DocstoreDriver)
		}
		if c.MongoDatabase == "" {
			return fmt.Errorf("MONGODB_DATABASE is required for the %s driver", c.DocstoreDriver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown DOCSTORE_DRIVER %q", c.DocstoreDriver)
	}
	// Outside Firestore, HS256 dev tokens are the only verifier, so a known
	// secret would let anyone mint tokens.
	if !c.IsDevelopment() && c.DocstoreDriver != DriverFirestore {
		if c.JWTSecret == "" || c.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be set to a non-default value in %s with the %s driver", c.Environment, c.DocstoreDriver)
		}
	}
	if c.TypingTimeout <= 0 {
		return fmt.Errorf("TYPING_TIMEOUT_MS must be positive")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT_MS must be positive")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}
