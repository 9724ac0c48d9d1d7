package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Address         string        `mapstructure:"address"`
	LogLevel        string        `mapstructure:"log_level"`
	LogFormat       string        `mapstructure:"log_format"`
	LogFile         string        `mapstructure:"log_file"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	StaticFolder    string        `mapstructure:"static_folder"`
	StoreURL        string        `mapstructure:"store_url"`
	Version         string        `mapstructure:"version"`

	Auth    AuthConfig    `mapstructure:"auth"`
	Dataset DatasetConfig `mapstructure:"dataset"`
	Store   StoreConfig   `mapstructure:"store"`
	Tasks   TasksConfig   `mapstructure:"tasks"`
}

// AuthConfig names the headers a fronting proxy uses to pass the caller identity.
type AuthConfig struct {
	UserHeader  string `mapstructure:"user_header"`
	RolesHeader string `mapstructure:"roles_header"`
}

type DatasetConfig struct {
	// Root is where uploaded files land, one directory per <name>/<version>.
	Root        string `mapstructure:"root"`
	DefaultIcon string `mapstructure:"default_icon"`
	StaticPath  string `mapstructure:"static_path"`
	// Rewrites translate local path prefixes into paths served under StaticPath.
	Rewrites []PathRewrite `mapstructure:"rewrites"`
}

type PathRewrite struct {
	Prefix string `mapstructure:"prefix"`
	Strip  string `mapstructure:"strip"`
}

// StoreConfig selects the object storage backend used when a dataset has
// neither local files nor external links.
type StoreConfig struct {
	Type   string        `mapstructure:"type"`
	Expiry time.Duration `mapstructure:"expiry"`
	MinIO  MinIOConfig   `mapstructure:"minio"`
	S3     S3Config      `mapstructure:"s3"`
}

type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Secure    bool   `mapstructure:"secure"`
}

type S3Config struct {
	Bucket       string `mapstructure:"bucket"`
	Region       string `mapstructure:"region"`
	Endpoint     string `mapstructure:"endpoint"`
	AccessKey    string `mapstructure:"access_key"`
	SecretKey    string `mapstructure:"secret_key"`
	UsePathStyle bool   `mapstructure:"use_path_style"`
}

type TasksConfig struct {
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	Queue         string `mapstructure:"queue"`
}

func Default() *Config {
	return &Config{
		Address:         "0.0.0.0:8080",
		LogLevel:        "info",
		LogFormat:       "text",
		ShutdownTimeout: time.Minute,
		StaticFolder:    "./static",
		StoreURL:        "sqlite:///dataset-admin.db",
		Version:         "dev",
		Auth: AuthConfig{
			UserHeader:  "X-Auth-User",
			RolesHeader: "X-Auth-Roles",
		},
		Dataset: DatasetConfig{
			Root:        "/data/k8s/kubeflow/dataset",
			DefaultIcon: "/static/assets/images/dataset.png",
			StaticPath:  "/static",
			Rewrites: []PathRewrite{
				{Prefix: "/mnt/", Strip: "/mnt"},
				{Prefix: "/data/k8s/kubeflow/dataset", Strip: "/data/k8s/kubeflow"},
			},
		},
		Store: StoreConfig{
			Type:   "minio",
			Expiry: 24 * time.Hour,
			MinIO: MinIOConfig{
				Bucket: "dataset",
				Region: "us-east-1",
			},
			S3: S3Config{
				Region: "us-east-1",
			},
		},
		Tasks: TasksConfig{
			Queue: "dataset:tasks",
		},
	}
}

// SetDefaults registers every default of Default() on v so that env vars and
// flags can override single keys of nested sections.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("address", d.Address)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("shutdown_timeout", d.ShutdownTimeout)
	v.SetDefault("static_folder", d.StaticFolder)
	v.SetDefault("store_url", d.StoreURL)
	v.SetDefault("version", d.Version)
	v.SetDefault("auth.user_header", d.Auth.UserHeader)
	v.SetDefault("auth.roles_header", d.Auth.RolesHeader)
	v.SetDefault("dataset.root", d.Dataset.Root)
	v.SetDefault("dataset.default_icon", d.Dataset.DefaultIcon)
	v.SetDefault("dataset.static_path", d.Dataset.StaticPath)
	v.SetDefault("dataset.rewrites", []map[string]string{
		{"prefix": d.Dataset.Rewrites[0].Prefix, "strip": d.Dataset.Rewrites[0].Strip},
		{"prefix": d.Dataset.Rewrites[1].Prefix, "strip": d.Dataset.Rewrites[1].Strip},
	})
	v.SetDefault("store.type", d.Store.Type)
	v.SetDefault("store.expiry", d.Store.Expiry)
	v.SetDefault("store.minio.endpoint", d.Store.MinIO.Endpoint)
	v.SetDefault("store.minio.access_key", d.Store.MinIO.AccessKey)
	v.SetDefault("store.minio.secret_key", d.Store.MinIO.SecretKey)
	v.SetDefault("store.minio.bucket", d.Store.MinIO.Bucket)
	v.SetDefault("store.minio.region", d.Store.MinIO.Region)
	v.SetDefault("store.minio.secure", d.Store.MinIO.Secure)
	v.SetDefault("store.s3.bucket", d.Store.S3.Bucket)
	v.SetDefault("store.s3.region", d.Store.S3.Region)
	v.SetDefault("store.s3.endpoint", d.Store.S3.Endpoint)
	v.SetDefault("store.s3.access_key", d.Store.S3.AccessKey)
	v.SetDefault("store.s3.secret_key", d.Store.S3.SecretKey)
	v.SetDefault("store.s3.use_path_style", d.Store.S3.UsePathStyle)
	v.SetDefault("tasks.redis_addr", d.Tasks.RedisAddr)
	v.SetDefault("tasks.redis_password", d.Tasks.RedisPassword)
	v.SetDefault("tasks.redis_db", d.Tasks.RedisDB)
	v.SetDefault("tasks.queue", d.Tasks.Queue)
}

// Load reads the optional config file into v and decodes the merged view of
// defaults, file, environment and bound flags.
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix("DATASET_ADMIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.StoreURL == "" {
		errs = append(errs, errors.New("store_url must be set"))
	}
	if c.Dataset.Root == "" {
		errs = append(errs, errors.New("dataset.root must be set"))
	}
	if c.Auth.UserHeader == "" {
		errs = append(errs, errors.New("auth.user_header must be set"))
	}
	for i, rewrite := range c.Dataset.Rewrites {
		if rewrite.Prefix == "" {
			errs = append(errs, fmt.Errorf("dataset.rewrites[%d].prefix must be set", i))
		}
	}

	return errors.Join(errs...)
}
