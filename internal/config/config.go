package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/hazard-target-service/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// ZipDirectoryPath points at the delimited zip reference file.
	ZipDirectoryPath string

	// NWS alert and zone API.
	NWSBaseURL   string
	NWSUserAgent string
	NWSTimeout   time.Duration

	// Periodic refresh of feed-backed hazard modes.
	RefreshEnabled     bool
	RefreshInterval    time.Duration
	RefreshModes       []string
	RefreshMinSeverity domain.Severity

	// Publishing of refreshed target lists.
	KafkaEnabled     bool
	KafkaBrokers     []string
	KafkaTargetTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	nwsTimeout, err := parseDuration("NWS_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}

	refreshInterval, err := parseDuration("REFRESH_INTERVAL", "10m")
	if err != nil {
		return nil, err
	}

	refreshModes, err := parseModes(sharedcfg.EnvOrDefault("REFRESH_MODES", "smoke,winter,heat,flood"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:         sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:         sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:        sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:  shutdownTimeout,
		ZipDirectoryPath: sharedcfg.EnvOrDefault("ZIP_DIRECTORY_PATH", "data/zip_directory.csv"),

		NWSBaseURL:   strings.TrimRight(sharedcfg.EnvOrDefault("NWS_BASE_URL", "https://api.weather.gov"), "/"),
		NWSUserAgent: sharedcfg.EnvOrDefault("NWS_USER_AGENT", "hazard-target-service (ops@example.com)"),
		NWSTimeout:   nwsTimeout,

		RefreshEnabled:     parseBool("REFRESH_ENABLED"),
		RefreshInterval:    refreshInterval,
		RefreshModes:       refreshModes,
		RefreshMinSeverity: domain.ParseSeverity(os.Getenv("REFRESH_MIN_SEVERITY")),

		KafkaEnabled:     parseBool("KAFKA_ENABLED"),
		KafkaBrokers:     sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTargetTopic: sharedcfg.EnvOrDefault("KAFKA_TARGET_TOPIC", "hazard-targets"),
	}

	if cfg.ZipDirectoryPath == "" {
		return nil, errors.New("ZIP_DIRECTORY_PATH is required")
	}
	if cfg.NWSUserAgent == "" {
		return nil, errors.New("NWS_USER_AGENT is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaTargetTopic == "" {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_TARGET_TOPIC is empty")
	}

	return cfg, nil
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

// parseModes validates a comma-separated list of hazard modes. Only modes
// backed by the NWS feed can be refreshed.
func parseModes(s string) ([]string, error) {
	var modes []string
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		m, ok := domain.LookupMode(name)
		if !ok {
			return nil, fmt.Errorf("invalid REFRESH_MODES: unknown mode %q", name)
		}
		if !m.FeedBacked() {
			return nil, fmt.Errorf("invalid REFRESH_MODES: mode %q has no alert feed", name)
		}
		modes = append(modes, m.Name)
	}
	if len(modes) == 0 {
		return nil, errors.New("REFRESH_MODES is empty")
	}
	return modes, nil
}
