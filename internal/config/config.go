package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/YelzhanWeb/restopos/internal/domain"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	HTTP     HTTPConfig     `yaml:"http"`
	Store    StoreConfig    `yaml:"store"`
	Polling  PollingConfig  `yaml:"polling"`
	Fees     FeesConfig     `yaml:"fees"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type HTTPConfig struct {
	Port int `yaml:"port"`
	// CashierPort is where the cashier mode serves its checkout endpoints.
	CashierPort int `yaml:"cashier_port"`
}

// StoreConfig points the view clients at the order store API.
type StoreConfig struct {
	BaseURL string `yaml:"base_url"`
}

// PollingConfig holds the per-view poll intervals in seconds. Each view
// picks its own cadence; they share nothing but the store.
type PollingConfig struct {
	CashierIntervalSec int `yaml:"cashier_interval_seconds"`
	KitchenIntervalSec int `yaml:"kitchen_interval_seconds"`
	AdminIntervalSec   int `yaml:"admin_interval_seconds"`
}

// FeesConfig is the persisted fee configuration. It is turned into
// domain.FeeRule values and passed into the pricing engine explicitly;
// nothing reads fee settings ad hoc.
type FeesConfig struct {
	Packaging FeeConfig `yaml:"packaging"`
	Delivery  FeeConfig `yaml:"delivery"`
}

type FeeConfig struct {
	Active        bool    `yaml:"active"`
	Amount        float64 `yaml:"amount"`
	FreeThreshold float64 `yaml:"free_threshold"`
}

func (f FeeConfig) Rule() domain.FeeRule {
	return domain.FeeRule{
		Active:        f.Active,
		Amount:        decimal.NewFromFloat(f.Amount),
		FreeThreshold: decimal.NewFromFloat(f.FreeThreshold),
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	return &cfg, nil
}

// applyEnv lets secrets come from the environment instead of the file.
func (c *Config) applyEnv() {
	if v := os.Getenv("RESTOPOS_DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("RESTOPOS_RABBITMQ_PASSWORD"); v != "" {
		c.RabbitMQ.Password = v
	}
	if v := os.Getenv("RESTOPOS_STORE_URL"); v != "" {
		c.Store.BaseURL = v
	}
}

func (c *Config) applyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 3000
	}
	if c.HTTP.CashierPort == 0 {
		c.HTTP.CashierPort = 3001
	}
	if c.Store.BaseURL == "" {
		c.Store.BaseURL = fmt.Sprintf("http://localhost:%d", c.HTTP.Port)
	}
	if c.Polling.CashierIntervalSec == 0 {
		c.Polling.CashierIntervalSec = 5
	}
	if c.Polling.KitchenIntervalSec == 0 {
		c.Polling.KitchenIntervalSec = 10
	}
	if c.Polling.AdminIntervalSec == 0 {
		c.Polling.AdminIntervalSec = 15
	}
}
