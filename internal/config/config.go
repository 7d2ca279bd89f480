package config

import (
	"log"

	"gopkg.in/yaml.v3"

	"timeline-service/pkg/config"
)

type Config struct {
	Server config.ServerConfig `yaml:"server"`
	DB     config.DBConfig     `yaml:"db"`
	MQ     config.MQConfig     `yaml:"mq"`
	Redis  config.RedisConfig  `yaml:"redis"`
	Runner struct {
		ScanIntervalSeconds int `yaml:"scan_interval_seconds"`
	} `yaml:"runner"`
	Notify struct {
		TimeoutSeconds int `yaml:"timeout_seconds"`
		DedupTTLHours  int `yaml:"dedup_ttl_hours"`
	} `yaml:"notify"`
}

func Load() *Config {
	env := config.GetConfigEnv()
	configDir := config.GetEnv("CONFIG_DIR", "config")

	cfgMap, err := config.LoadConfig(env, configDir)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var cfg Config
	cfgData, err := yaml.Marshal(cfgMap)
	if err != nil {
		log.Fatalf("failed to marshal config: %v", err)
	}
	if err := yaml.Unmarshal(cfgData, &cfg); err != nil {
		log.Fatalf("failed to unmarshal config: %v", err)
	}

	// Environment variables take highest priority.
	config.OverrideDBFromEnv(&cfg.DB)
	config.OverrideMQFromEnv(&cfg.MQ)
	config.OverrideRedisFromEnv(&cfg.Redis)
	config.OverrideServerFromEnv(&cfg.Server)

	if cfg.Runner.ScanIntervalSeconds <= 0 {
		cfg.Runner.ScanIntervalSeconds = 30
	}
	if cfg.Notify.TimeoutSeconds <= 0 {
		cfg.Notify.TimeoutSeconds = 2
	}
	if cfg.Notify.DedupTTLHours <= 0 {
		cfg.Notify.DedupTTLHours = 24
	}

	return &cfg
}
