/**
 * @description
 * This file handles the configuration management for the dashboard-service.
 * It uses the Viper library to read settings from environment variables or a .env file.
 *
 * @dependencies
 * - github.com/spf13/viper: For configuration management.
 */
package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
type Config struct {
	WalletAPIBaseURL    string `mapstructure:"WALLET_API_BASE_URL"`
	DatabaseURL         string `mapstructure:"DATABASE_URL"`
	RabbitMQURL         string `mapstructure:"RABBITMQ_URL"`
	ServerPort          string `mapstructure:"SERVER_PORT"`
	AllowedOrigins      string `mapstructure:"ALLOWED_ORIGINS"`
	RateRefreshSchedule string `mapstructure:"RATE_REFRESH_SCHEDULE"`
	FlowReapSchedule    string `mapstructure:"FLOW_REAP_SCHEDULE"`
	FlowMaxIdleMinutes  int    `mapstructure:"FLOW_MAX_IDLE_MINUTES"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8090")
	viper.SetDefault("WALLET_API_BASE_URL", "http://localhost:8000")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("RATE_REFRESH_SCHEDULE", "*/5 * * * *")
	viper.SetDefault("FLOW_REAP_SCHEDULE", "*/10 * * * *")
	viper.SetDefault("FLOW_MAX_IDLE_MINUTES", 30)

	// Bind envs explicitly so containers pick them up reliably
	_ = viper.BindEnv("WALLET_API_BASE_URL")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("ALLOWED_ORIGINS")
	_ = viper.BindEnv("RATE_REFRESH_SCHEDULE")
	_ = viper.BindEnv("FLOW_REAP_SCHEDULE")
	_ = viper.BindEnv("FLOW_MAX_IDLE_MINUTES")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("Warning: Error reading config file: %s", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
