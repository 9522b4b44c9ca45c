package utils

import (
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// LoadConfig reads a .env file (if present) and primes viper with automatic
// environment lookup so cmd flags and env vars share one source.
func LoadConfig(path string) {
	if err := godotenv.Load(path + "/.env"); err != nil {
		logrus.Debugf("no .env file loaded from %s: %v", path, err)
	}

	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}
