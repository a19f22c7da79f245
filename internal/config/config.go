package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application. Values are read by
// Viper from config.yaml and overridden by environment variables
// (SERVER_ADDRESS, DATABASE_URL, STORAGE_UPLOAD_DIR, S3_ACCESS_KEY_ID, ...).
type Config struct {
	Server   ServerConfig  `mapstructure:"server"`
	Database DBConfig      `mapstructure:"database"`
	Storage  StorageConfig `mapstructure:"storage"`
	S3       S3Config      `mapstructure:"s3"`
	JWT      JWTConfig     `mapstructure:"jwt"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type DBConfig struct {
	URL string `mapstructure:"url"`
}

type StorageConfig struct {
	// UploadDir is the primary local blob directory; LegacyDir is the
	// pre-rename directory still holding blobs referenced by old links.
	UploadDir string `mapstructure:"upload_dir"`
	LegacyDir string `mapstructure:"legacy_dir"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
}

// Configured reports whether enough credentials are present to attempt
// remote storage at all. Absence means the service runs purely on local
// directories.
func (c S3Config) Configured() bool {
	return c.AccessKeyID != "" && c.SecretAccessKey != "" && c.BucketName != ""
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

// Load reads configuration from path/config.yaml and the environment.
// A missing config file is not an error; env vars alone are enough.
func Load(path string) (Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("database.url", "scriptrack.db")
	viper.SetDefault("storage.upload_dir", "./storage/files")
	viper.SetDefault("storage.legacy_dir", "./public/uploads")
	viper.SetDefault("s3.region", "us-east-1")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
