package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	DataSource struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
		Window  string `yaml:"window"`
	} `yaml:"data_source"`
	Email struct {
		SMTPHost   string   `yaml:"smtp_host"`
		SMTPPort   int      `yaml:"smtp_port"`
		Username   string   `yaml:"username"`
		Password   string   `yaml:"password"`
		From       string   `yaml:"from"`
		Recipients []string `yaml:"recipients"`
	} `yaml:"email"`
	Schedule struct {
		DailyCron string `yaml:"daily_cron"`
	} `yaml:"schedule"`
	Universe struct {
		WatchlistUser   string   `yaml:"watchlist_user"`
		WatchlistCSV    string   `yaml:"watchlist_csv"`
		BrokerPositions []string `yaml:"broker_positions"`
		SP500CSV        string   `yaml:"sp500_csv"`
		NasdaqCSV       string   `yaml:"nasdaq_csv"`
		ETFCSV          string   `yaml:"etf_csv"`
	} `yaml:"universe"`
	Report struct {
		IncreaseThresholds []float64 `yaml:"increase_thresholds"`
		DecreaseThresholds []float64 `yaml:"decrease_thresholds"`
		TopChartRows       int       `yaml:"top_chart_rows"`
	} `yaml:"report"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("DATA_SOURCE_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_SOURCE_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("SMTP_HOST"); v != "" {
		cfg.Email.SMTPHost = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Email.SMTPPort = port
		}
	}
	if v := os.Getenv("SMTP_USERNAME"); v != "" {
		cfg.Email.Username = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.Email.Password = v
	}
	if v := os.Getenv("CRON_DAILY"); v != "" {
		cfg.Schedule.DailyCron = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/stockscan.db"
	}
	if cfg.DataSource.Window == "" {
		cfg.DataSource.Window = "1y"
	}
	if cfg.Email.SMTPHost == "" {
		cfg.Email.SMTPHost = "smtp.gmail.com"
	}
	if cfg.Email.SMTPPort == 0 {
		cfg.Email.SMTPPort = 465
	}
	if cfg.Email.From == "" {
		cfg.Email.From = cfg.Email.Username
	}
	if cfg.Schedule.DailyCron == "" {
		// Weekday evenings after US market close.
		cfg.Schedule.DailyCron = "0 0 18 * * 1-5"
	}
	if len(cfg.Report.IncreaseThresholds) == 0 {
		cfg.Report.IncreaseThresholds = []float64{0.05, 0.1, 0.2, 0.3, 0.4, 0.5, 1, 2}
	}
	if len(cfg.Report.DecreaseThresholds) == 0 {
		cfg.Report.DecreaseThresholds = []float64{0.05, 0.1, 0.2, 0.3, 0.4, 0.5, 1, 2}
	}
	if cfg.Report.TopChartRows == 0 {
		cfg.Report.TopChartRows = 20
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Database.SQLitePath == "" {
		return fmt.Errorf("database.sqlite_path is required")
	}
	if len(c.Email.Recipients) > 0 {
		if c.Email.Username == "" {
			return fmt.Errorf("email.username is required when recipients are set")
		}
		if c.Email.Password == "" {
			return fmt.Errorf("email.password is required when recipients are set")
		}
	}
	if c.Report.TopChartRows < 0 {
		return fmt.Errorf("report.top_chart_rows must not be negative")
	}
	return nil
}
