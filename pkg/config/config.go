package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Engine struct {
		HistoryCapacity   int           `yaml:"history_capacity"`
		MirrorTTL         time.Duration `yaml:"mirror_ttl"`
		LookupTimeout     time.Duration `yaml:"lookup_timeout"`
		AlertDedupWindow  time.Duration `yaml:"alert_dedup_window"` // 0 disables dedup
		MaxSpeedMS        float64       `yaml:"max_speed_ms"`
		SpeedVarianceMax  float64       `yaml:"speed_variance_max"`
		CircleRadiusKM    float64       `yaml:"circle_radius_km"`
		CirclePathM       float64       `yaml:"circle_path_m"`
		LoiterRadiusM     float64       `yaml:"loiter_radius_m"`
		LoiterSeconds     float64       `yaml:"loiter_seconds"`
		CrimeDensityMin   float64       `yaml:"crime_density_min"`
		AccuracyMaxM      float64       `yaml:"accuracy_max_m"`
		NearbyFraudRadius float64       `yaml:"nearby_fraud_radius_m"`
		ConcurrentMin     int           `yaml:"concurrent_subjects_min"`
	} `yaml:"engine"`
	Geofences []GeofenceConfig `yaml:"geofences"`
	Districts []DistrictConfig `yaml:"districts"`
	Hotspots  []HotspotConfig  `yaml:"hotspots"`
	Redis     struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled       bool     `yaml:"enabled"`
		Brokers       []string `yaml:"brokers"`
		IncidentTopic string   `yaml:"incident_topic"`
		AlertTopic    string   `yaml:"alert_topic"`
		Consumer      struct {
			GroupID    string `yaml:"group_id"`
			Workers    int    `yaml:"workers"`
			BufferSize int    `yaml:"buffer_size"`
			MinBytes   int    `yaml:"min_bytes"`
			MaxBytes   int    `yaml:"max_bytes"`
		} `yaml:"consumer"`
		Producer struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	Aggregator struct {
		Interval         time.Duration `yaml:"interval"`
		QueueSize        int           `yaml:"queue_size"`
		Window           time.Duration `yaml:"window"`
		HotspotMinCount  int           `yaml:"hotspot_min_count"`
		TrendMinPercent  float64       `yaml:"trend_min_percent"`
		RiskAreaMinScore float64       `yaml:"risk_area_min_score"`
	} `yaml:"aggregator"`
}

// GeofenceConfig describes a named circular hazard region.
type GeofenceConfig struct {
	Name           string  `yaml:"name"`
	Lat            float64 `yaml:"lat"`
	Lng            float64 `yaml:"lng"`
	RadiusMeters   float64 `yaml:"radius_m"`
	RiskLevel      string  `yaml:"risk_level"`
	AlertThreshold int     `yaml:"alert_threshold"`
}

// DistrictConfig describes a known banking district or tech hub used for
// location-context flags on assessments.
type DistrictConfig struct {
	Name         string  `yaml:"name"`
	Lat          float64 `yaml:"lat"`
	Lng          float64 `yaml:"lng"`
	RadiusMeters float64 `yaml:"radius_m"`
	Kind         string  `yaml:"kind"` // banking or tech
}

// HotspotConfig describes a reference point with recent incident history.
type HotspotConfig struct {
	Label           string  `yaml:"label"`
	Lat             float64 `yaml:"lat"`
	Lng             float64 `yaml:"lng"`
	RecentIncidents int     `yaml:"recent_incidents"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port := v, 6379
		if i := strings.LastIndex(v, ":"); i > 0 {
			host = v[:i]
			if p, err := strconv.Atoi(v[i+1:]); err == nil {
				port = p
			}
		}
		c.Redis.Host = host
		c.Redis.Port = port
		c.Redis.Enabled = true
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("KAFKA_INCIDENT_TOPIC"); v != "" {
		c.Kafka.IncidentTopic = v
	}
	if v := os.Getenv("KAFKA_ALERT_TOPIC"); v != "" {
		c.Kafka.AlertTopic = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Engine.HistoryCapacity <= 0 {
		c.Engine.HistoryCapacity = 100
	}
	if c.Engine.MirrorTTL <= 0 {
		c.Engine.MirrorTTL = time.Hour
	}
	if c.Engine.LookupTimeout <= 0 {
		c.Engine.LookupTimeout = 500 * time.Millisecond
	}
	if c.Engine.MaxSpeedMS <= 0 {
		c.Engine.MaxSpeedMS = 41.67 // 150 km/h
	}
	if c.Engine.SpeedVarianceMax <= 0 {
		c.Engine.SpeedVarianceMax = 100
	}
	if c.Engine.CircleRadiusKM <= 0 {
		c.Engine.CircleRadiusKM = 0.5
	}
	if c.Engine.CirclePathM <= 0 {
		c.Engine.CirclePathM = 500
	}
	if c.Engine.LoiterRadiusM <= 0 {
		c.Engine.LoiterRadiusM = 100
	}
	if c.Engine.LoiterSeconds <= 0 {
		c.Engine.LoiterSeconds = 600
	}
	if c.Engine.CrimeDensityMin <= 0 {
		c.Engine.CrimeDensityMin = 0.7
	}
	if c.Engine.AccuracyMaxM <= 0 {
		c.Engine.AccuracyMaxM = 100
	}
	if c.Engine.NearbyFraudRadius <= 0 {
		c.Engine.NearbyFraudRadius = 1000
	}
	if c.Engine.ConcurrentMin <= 0 {
		c.Engine.ConcurrentMin = 6
	}
	if c.Aggregator.Interval <= 0 {
		c.Aggregator.Interval = 5 * time.Second
	}
	if c.Aggregator.QueueSize <= 0 {
		c.Aggregator.QueueSize = 1000
	}
	if c.Aggregator.Window <= 0 {
		c.Aggregator.Window = time.Hour
	}
	if c.Aggregator.HotspotMinCount <= 0 {
		c.Aggregator.HotspotMinCount = 2
	}
	if c.Aggregator.TrendMinPercent <= 0 {
		c.Aggregator.TrendMinPercent = 20
	}
	if c.Aggregator.RiskAreaMinScore <= 0 {
		c.Aggregator.RiskAreaMinScore = 1.0
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	for i, g := range c.Geofences {
		if g.Name == "" {
			return fmt.Errorf("geofences[%d].name is required", i)
		}
		if g.RadiusMeters <= 0 {
			return fmt.Errorf("geofences[%d].radius_m must be positive", i)
		}
		switch g.RiskLevel {
		case "low", "medium", "high", "very_high":
		default:
			return fmt.Errorf("geofences[%d].risk_level must be low, medium, high, or very_high, got '%s'", i, g.RiskLevel)
		}
	}
	for i, d := range c.Districts {
		if d.Kind != "banking" && d.Kind != "tech" {
			return fmt.Errorf("districts[%d].kind must be 'banking' or 'tech', got '%s'", i, d.Kind)
		}
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}
