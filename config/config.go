package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig  `json:"server"`
	Engine  EngineConfig  `json:"engine"`
	Ledger  LedgerConfig  `json:"ledger"`
	Redis   RedisConfig   `json:"redis"`
	MongoDB MongoDBConfig `json:"mongodb"`
	Discord DiscordConfig `json:"discord"`
}

type ServerConfig struct {
	Port           int      `json:"port"`
	Host           string   `json:"host"`
	AllowedOrigins []string `json:"allowed_origins"`
}

// EngineConfig tunes the decay, burn and payout machinery.
type EngineConfig struct {
	SweepInterval       int `json:"sweep_interval_seconds"`
	PayoutInterval      int `json:"payout_interval_seconds"`
	HealthCheckInterval int `json:"health_check_interval_seconds"`

	BatchSize         int     `json:"batch_size"`
	PayoutCap         float64 `json:"payout_cap"`
	BaseRewardRate    float64 `json:"base_reward_rate"`
	ContributionBonus float64 `json:"contribution_bonus"`
	MinEligibleUptime float64 `json:"min_eligible_uptime"`
	MinEligibleStake  int64   `json:"min_eligible_stake"`
	BatchHistoryLimit int     `json:"batch_history_limit"`

	MinBurnAmount int64 `json:"min_burn_amount"`

	EmergencyPayoutFactor   float64 `json:"emergency_payout_factor"`
	EmergencyQualityPenalty int     `json:"emergency_quality_penalty"`
	AutoRecover             bool    `json:"auto_recover"`
	AutoRecoverChecks       int     `json:"auto_recover_checks"`
}

type LedgerConfig struct {
	Endpoint   string `json:"endpoint"`
	Treasury   string `json:"treasury"`
	Timeout    int    `json:"timeout_seconds"`
	MaxRetries int    `json:"max_retries"`
}

type RedisConfig struct {
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Enabled  bool   `json:"enabled"`
	UseTLS   bool   `json:"use_tls"`
}

type MongoDBConfig struct {
	URI      string `json:"uri"`
	Database string `json:"database"`
	Enabled  bool   `json:"enabled"`
}

type DiscordConfig struct {
	BotToken  string `json:"bot_token"`
	ChannelID string `json:"channel_id"`
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	// Default configuration
	cfg := &Config{
		Server: ServerConfig{
			Port:           8080,
			Host:           "0.0.0.0",
			AllowedOrigins: []string{"*"},
		},
		Engine: EngineConfig{
			SweepInterval:       3600, // burn sweep every hour
			PayoutInterval:      3600, // payout cycle every hour
			HealthCheckInterval: 300,  // health checks every 5 minutes

			BatchSize:         50,
			PayoutCap:         1000,
			BaseRewardRate:    0.01, // tokens per staked token per cycle
			ContributionBonus: 0.10,
			MinEligibleUptime: 70,
			MinEligibleStake:  10,
			BatchHistoryLimit: 100,

			MinBurnAmount: 1,

			EmergencyPayoutFactor:   0.5,
			EmergencyQualityPenalty: 20,
			AutoRecover:             false, // manual recovery only by default
			AutoRecoverChecks:       3,
		},
		Ledger: LedgerConfig{
			Endpoint:   "",
			Treasury:   "",
			Timeout:    10,
			MaxRetries: 3,
		},
		Redis: RedisConfig{
			Address:  "localhost:6379",
			Password: "",
			DB:       0,
			Enabled:  true,
			UseTLS:   false,
		},
		MongoDB: MongoDBConfig{
			URI:      "mongodb://localhost:27017",
			Database: "onusone_engine",
			Enabled:  true,
		},
		Discord: DiscordConfig{},
	}

	// Load from config file if exists
	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "config/config.json"
	}

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.Open(configPath)
		if err == nil {
			defer file.Close()
			decoder := json.NewDecoder(file)
			if err := decoder.Decode(cfg); err != nil {
				fmt.Printf("Warning: Failed to decode config file: %v\n", err)
			}
		}
	}

	// Load from environment variables (overrides config file)
	loadEnv(cfg)

	// Load from command-line flags (overrides everything)
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	var serverPort int
	var serverHost string

	fs.IntVar(&serverPort, "port", 0, "Server port")
	fs.StringVar(&serverHost, "host", "", "Server host")

	_ = fs.Parse(os.Args[1:])

	if isFlagPassed(fs, "port") {
		cfg.Server.Port = serverPort
	}
	if isFlagPassed(fs, "host") {
		cfg.Server.Host = serverHost
	}

	return cfg, nil
}

func isFlagPassed(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func loadEnv(cfg *Config) {
	// Server configuration
	if val := os.Getenv("SERVER_PORT"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Server.Port = p
		}
	}
	if val := os.Getenv("SERVER_HOST"); val != "" {
		cfg.Server.Host = val
	}
	if val := os.Getenv("ALLOWED_ORIGINS"); val != "" {
		cfg.Server.AllowedOrigins = strings.Split(val, ",")
	}

	// Engine configuration
	if val := os.Getenv("SWEEP_INTERVAL"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Engine.SweepInterval = p
		}
	}
	if val := os.Getenv("PAYOUT_INTERVAL"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Engine.PayoutInterval = p
		}
	}
	if val := os.Getenv("HEALTH_CHECK_INTERVAL"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Engine.HealthCheckInterval = p
		}
	}
	if val := os.Getenv("PAYOUT_BATCH_SIZE"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Engine.BatchSize = p
		}
	}
	if val := os.Getenv("PAYOUT_CAP"); val != "" {
		if p, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Engine.PayoutCap = p
		}
	}
	if val := os.Getenv("BASE_REWARD_RATE"); val != "" {
		if p, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Engine.BaseRewardRate = p
		}
	}
	if val := os.Getenv("MIN_BURN_AMOUNT"); val != "" {
		if p, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Engine.MinBurnAmount = p
		}
	}
	if val := os.Getenv("EMERGENCY_AUTO_RECOVER"); val != "" {
		cfg.Engine.AutoRecover = val == "true" || val == "1"
	}

	// Ledger configuration
	if val := os.Getenv("LEDGER_ENDPOINT"); val != "" {
		cfg.Ledger.Endpoint = val
	}
	if val := os.Getenv("LEDGER_TREASURY"); val != "" {
		cfg.Ledger.Treasury = val
	}
	if val := os.Getenv("LEDGER_TIMEOUT"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Ledger.Timeout = p
		}
	}
	if val := os.Getenv("LEDGER_MAX_RETRIES"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Ledger.MaxRetries = p
		}
	}

	// Redis configuration
	if val := os.Getenv("REDIS_ADDRESS"); val != "" {
		cfg.Redis.Address = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		cfg.Redis.Password = val
	}
	if val := os.Getenv("REDIS_DB"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Redis.DB = p
		}
	}
	if val := os.Getenv("REDIS_ENABLED"); val != "" {
		cfg.Redis.Enabled = val == "true" || val == "1"
	}
	if val := os.Getenv("REDIS_USE_TLS"); val != "" {
		cfg.Redis.UseTLS = val == "true" || val == "1"
	}

	// MongoDB configuration
	if val := os.Getenv("MONGODB_URI"); val != "" {
		cfg.MongoDB.URI = val
	}
	if val := os.Getenv("MONGODB_DATABASE"); val != "" {
		cfg.MongoDB.Database = val
	}
	if val := os.Getenv("MONGODB_ENABLED"); val != "" {
		cfg.MongoDB.Enabled = val == "true" || val == "1"
	}

	// Discord configuration
	if val := os.Getenv("DISCORD_BOT_TOKEN"); val != "" {
		cfg.Discord.BotToken = val
	}
	if val := os.Getenv("DISCORD_CHANNEL_ID"); val != "" {
		cfg.Discord.ChannelID = val
	}
}

// Helper methods for duration conversion
func (c *Config) SweepIntervalDuration() time.Duration {
	return time.Duration(c.Engine.SweepInterval) * time.Second
}

func (c *Config) PayoutIntervalDuration() time.Duration {
	return time.Duration(c.Engine.PayoutInterval) * time.Second
}

func (c *Config) HealthCheckIntervalDuration() time.Duration {
	return time.Duration(c.Engine.HealthCheckInterval) * time.Second
}

func (c *Config) LedgerTimeoutDuration() time.Duration {
	return time.Duration(c.Ledger.Timeout) * time.Second
}
