package storage

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type credentialsLogger interface {
	Panicf(format string, args ...interface{})
}

const (
	productionURL = "https://api.coinbase.com"
	sandboxURL    = "https://api-public.sandbox.exchange.coinbase.com"
)

// Credentials is loaded once at process start and immutable afterwards.
// Missing required values stop the process before anything is served.
type Credentials struct {
	apiKey               string
	privateKey           string
	passphrase           string
	sandbox              bool
	logLevel             string
	apiPort              int
	corsAllowedOrigins   []string
	maxRequestsPerMinute int
	httpTimeout          time.Duration
	logger               credentialsLogger
}

func NewCredentialsStorage(credentialsLogger credentialsLogger) *Credentials {
	credentials := Credentials{logger: credentialsLogger}

	credentials.apiKey = credentials.getKeyFromEnv("COINBASE_API_KEY")
	// COINBASE_API_SECRET is an accepted fallback name for the private key.
	credentials.privateKey = os.Getenv("COINBASE_PRIVATE_KEY")
	if credentials.privateKey == "" {
		credentials.privateKey = credentials.getKeyFromEnv("COINBASE_API_SECRET")
	}
	credentials.passphrase = credentials.getKeyFromEnv("COINBASE_PASSPHRASE")
	credentials.sandbox = getBoolFromEnv("SANDBOX_MODE", false)
	credentials.logLevel = getFromEnv("LOG_LEVEL", "info")
	credentials.apiPort = getIntFromEnv("API_PORT", 8000)
	credentials.corsAllowedOrigins = strings.Split(getFromEnv("CORS_ALLOWED_ORIGINS", "*"), ",")
	credentials.maxRequestsPerMinute = getIntFromEnv("MAX_REQUESTS_PER_MINUTE", 60)
	credentials.httpTimeout = time.Duration(getIntFromEnv("HTTP_TIMEOUT_SECONDS", 15)) * time.Second

	return &credentials
}

func (credentials *Credentials) GetAPIKey() string {
	return credentials.apiKey
}

func (credentials *Credentials) GetPrivateKey() string {
	return credentials.privateKey
}

func (credentials *Credentials) GetPassphrase() string {
	return credentials.passphrase
}

func (credentials *Credentials) GetSandbox() bool {
	return credentials.sandbox
}

func (credentials *Credentials) GetBaseURL() string {
	if credentials.sandbox {
		return sandboxURL
	}
	return productionURL
}

func (credentials *Credentials) GetLogLevel() string {
	return credentials.logLevel
}

func (credentials *Credentials) GetAPIPort() int {
	return credentials.apiPort
}

func (credentials *Credentials) GetCORSAllowedOrigins() []string {
	return credentials.corsAllowedOrigins
}

func (credentials *Credentials) GetMaxRequestsPerMinute() int {
	return credentials.maxRequestsPerMinute
}

func (credentials *Credentials) GetHTTPTimeout() time.Duration {
	return credentials.httpTimeout
}

func (credentials *Credentials) getKeyFromEnv(keyName string) string {
	key := os.Getenv(keyName)
	if key == "" {
		credentials.logger.Panicf("Please set %s in system environment variables", keyName)
	}
	return key
}

func getFromEnv(keyName string, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(keyName))
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntFromEnv(keyName string, defaultValue int) int {
	value, err := strconv.Atoi(getFromEnv(keyName, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getBoolFromEnv(keyName string, defaultValue bool) bool {
	switch strings.ToLower(getFromEnv(keyName, "")) {
	case "1", "true", "y", "yes":
		return true
	case "0", "false", "n", "no":
		return false
	default:
		return defaultValue
	}
}
