package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port              string `yaml:"port"`
		BindAddr          string `yaml:"bind_addr"`
		HeartbeatInterval string `yaml:"heartbeat_interval"`
		HeartbeatTimeout  string `yaml:"heartbeat_timeout"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Generator struct {
		URL      string `yaml:"url"`
		Timeout  string `yaml:"timeout"`
		CacheTTL string `yaml:"cache_ttl"`
	} `yaml:"generator"`
	Game struct {
		CountdownSeconds int    `yaml:"countdown_seconds"`
		AnswerWindow     string `yaml:"answer_window"`
		QuestionGap      string `yaml:"question_gap"`
		EvictionGrace    string `yaml:"eviction_grace"`
	} `yaml:"game"`
}

// Load reads YAML config from path. A missing file is not an error: every
// section has a working in-process default.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Duration parses a duration string or returns the fallback if empty or invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
