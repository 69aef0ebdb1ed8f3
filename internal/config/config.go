package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port       int    `yaml:"port"`
		APIKey     string `yaml:"apiKey"` // optional; empty disables auth
		RateBurst  int    `yaml:"rateBurst"`
		RatePerSec int    `yaml:"ratePerSec"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql | postgres
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
	} `yaml:"database"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	AI struct {
		OpenAI struct {
			APIKey string `yaml:"apiKey"`
			Model  string `yaml:"model"`
		} `yaml:"openai"`
		Gemini struct {
			APIKey   string `yaml:"apiKey"`
			Model    string `yaml:"model"`
			Endpoint string `yaml:"endpoint"` // override for testing
		} `yaml:"gemini"`
	} `yaml:"ai"`

	Scan struct {
		MaxUploadBytes      int64 `yaml:"maxUploadBytes"`
		SubscribeTimeoutSec int   `yaml:"subscribeTimeoutSec"`
	} `yaml:"scan"`
}

// Load baca file config.yaml
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Server.RateBurst <= 0 {
		c.Server.RateBurst = 100
	}
	if c.Server.RatePerSec <= 0 {
		c.Server.RatePerSec = 10
	}
	if c.Scan.MaxUploadBytes <= 0 {
		c.Scan.MaxUploadBytes = 10 << 20 // 10 MiB per file, same cap the upload form advertises
	}
	if c.Scan.SubscribeTimeoutSec <= 0 {
		c.Scan.SubscribeTimeoutSec = 120
	}
}

// SubscribeTimeout is the upper bound a result listener stays open without a
// terminal event.
func (c *Config) SubscribeTimeout() time.Duration {
	return time.Duration(c.Scan.SubscribeTimeoutSec) * time.Second
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN Postgres
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
	)
}
