package config

import (
	"fmt"
	"sync"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Path    string `mapstructure:"path"`
	LogMode bool   `mapstructure:"log_mode"`
}

type JWTConfig struct {
	Secret             string `mapstructure:"secret"`
	Issuer             string `mapstructure:"issuer"`
	AccessExpireHours  int    `mapstructure:"access_expire_hours"`
	RefreshExpireHours int    `mapstructure:"refresh_expire_hours"`
}

type SMTPConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
}

type StorageConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

type UsersConfig struct {
	AllowedDomain string `mapstructure:"allowed_domain"`
}

type OTPConfig struct {
	ExpireMinutes int `mapstructure:"expire_minutes"`
}

type GuestConfig struct {
	ExpireDays   int `mapstructure:"expire_days"`
	SweepMinutes int `mapstructure:"sweep_minutes"`
}

type FaceConfig struct {
	CascadePath string `mapstructure:"cascade_path"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Users    UsersConfig    `mapstructure:"users"`
	OTP      OTPConfig      `mapstructure:"otp"`
	Guest    GuestConfig    `mapstructure:"guest"`
	Face     FaceConfig     `mapstructure:"face"`
	Log      LogConfig      `mapstructure:"log"`
}

var (
	appConfig *Config
	once      sync.Once
)

// Load loads configuration from given file path (e.g. "config.yaml").
// If path is empty, it defaults to "config.yaml" in current working directory.
func Load(path string) (*Config, error) {
	var err error
	once.Do(func() {
		v := viper.New()

		if path == "" {
			v.SetConfigName("config")
			v.SetConfigType("yaml")
			v.AddConfigPath(".")
		} else {
			v.SetConfigFile(path)
		}

		// environment overrides, e.g. RPT_SERVER_PORT=9000
		v.SetEnvPrefix("RPT")
		v.AutomaticEnv()

		v.SetDefault("users.allowed_domain", "gmail.com")
		v.SetDefault("otp.expire_minutes", 60)
		v.SetDefault("guest.expire_days", 30)
		v.SetDefault("guest.sweep_minutes", 60)
		v.SetDefault("jwt.access_expire_hours", 1)
		v.SetDefault("jwt.refresh_expire_hours", 24)
		v.SetDefault("face.cascade_path", "cascade/facefinder")

		if err = v.ReadInConfig(); err != nil {
			err = fmt.Errorf("read config: %w", err)
			return
		}

		var c Config
		if err = v.Unmarshal(&c); err != nil {
			err = fmt.Errorf("unmarshal config: %w", err)
			return
		}

		appConfig = &c
	})

	if err != nil {
		return nil, err
	}
	return appConfig, nil
}

// Get returns the loaded global configuration.
// Call Load() once at application startup.
func Get() *Config {
	return appConfig
}
