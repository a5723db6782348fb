package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"cellloc/internal/location"
)

type Config struct {
	Modem    ModemConfig    `yaml:"modem"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Location LocationConfig `yaml:"location"`
}

type ModemConfig struct {
	// Device is the serial device path, e.g. /dev/ttyUSB2.
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
}

type MQTTConfig struct {
	Enable      bool   `yaml:"enable"`
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
}

type LocationConfig struct {
	// AntennaPin is the BCM GPIO driving active-antenna power; 0 means a
	// passive antenna.
	AntennaPin    int           `yaml:"antenna_pin"`
	Constellation string        `yaml:"constellation"`
	HDOPThreshold int           `yaml:"hdop_threshold"`
	AccuracyM     float64       `yaml:"accuracy_m"`
	MaxFixTime    time.Duration `yaml:"max_fix_time"`
	PollInterval  time.Duration `yaml:"poll_interval"`
}

// ConstellationFlags maps the configured constellation name to the engine
// bitmap.
func (l LocationConfig) ConstellationFlags() (location.Constellation, error) {
	switch l.Constellation {
	case "gps":
		return location.ConstellationGPSOnly, nil
	case "", "gps_glonass":
		return location.ConstellationGPSGlonass, nil
	case "gps_beidou":
		return location.ConstellationGPSBeidou, nil
	case "gps_galileo":
		return location.ConstellationGPSGalileo, nil
	case "gps_qzss":
		return location.ConstellationGPSQZSS, nil
	default:
		return 0, fmt.Errorf("location.constellation %q is not recognized", l.Constellation)
	}
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	if cfg.Modem.Device == "" {
		return Config{}, fmt.Errorf("modem.device is required")
	}
	if cfg.Modem.Baud == 0 {
		cfg.Modem.Baud = 115200
	}

	if cfg.MQTT.Enable && cfg.MQTT.Broker == "" {
		return Config{}, fmt.Errorf("mqtt.broker is required when mqtt.enable is true")
	}

	if _, err := cfg.Location.ConstellationFlags(); err != nil {
		return Config{}, err
	}
	if cfg.Location.HDOPThreshold < 0 || cfg.Location.HDOPThreshold > 100 {
		return Config{}, fmt.Errorf("location.hdop_threshold must be within 0..100")
	}
	if cfg.Location.HDOPThreshold == 0 {
		cfg.Location.HDOPThreshold = location.DefaultHDOPThreshold
	}
	if cfg.Location.AccuracyM < 0 {
		return Config{}, fmt.Errorf("location.accuracy_m must be >= 0")
	}
	if cfg.Location.AccuracyM == 0 {
		cfg.Location.AccuracyM = location.DefaultAccuracyThreshold
	}
	if cfg.Location.MaxFixTime <= 0 {
		cfg.Location.MaxFixTime = location.DefaultMaxFixTime
	}
	if cfg.Location.PollInterval <= 0 {
		cfg.Location.PollInterval = location.DefaultPollInterval
	}

	return cfg, nil
}
