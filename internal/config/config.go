package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Database  DatabaseConfig   `mapstructure:"database"`
	Server    ServerConfig     `mapstructure:"server"`
	Engine    EngineConfig     `mapstructure:"engine"`
	Storage   StorageConfig    `mapstructure:"storage"`
	Scheduler SchedulerConfig  `mapstructure:"scheduler"`
	Backup    BackupConfig     `mapstructure:"backup"`
	Logging   LoggingConfig    `mapstructure:"logging"`
	Templates []TemplateConfig `mapstructure:"templates"`
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool   `mapstructure:"auto_migrate"`
}

func (d *DatabaseConfig) DSN() string {
	if d.Driver == "postgres" {
		sslMode := d.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			d.Host, d.Port, d.User, d.Password, d.DBName, sslMode)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.User, d.Password, d.Host, d.Port, d.DBName)
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
	BodyLimitMB  int `mapstructure:"body_limit_mb"`
}

// EngineConfig holds the tunables of the streak rules.
type EngineConfig struct {
	Timezone         string `mapstructure:"timezone"`
	FreezeWindowDays int    `mapstructure:"freeze_window_days"`
	PhotoBonusPoints int    `mapstructure:"photo_bonus_points"`
	PointsPerHeart   int    `mapstructure:"points_per_heart"`
	JoinCodeLength   int    `mapstructure:"join_code_length"`
	DefaultDuration  int    `mapstructure:"default_duration_days"`
}

// Location resolves the reference timezone used to cut calendar days.
func (e EngineConfig) Location() (*time.Location, error) {
	if e.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(e.Timezone)
}

type StorageConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	AccountID       string `mapstructure:"account_id"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	Bucket          string `mapstructure:"bucket"`
	CDNBaseURL      string `mapstructure:"cdn_base_url"`
	MaxPhotoMB      int    `mapstructure:"max_photo_mb"`
}

type SchedulerConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	MaintenanceCron string `mapstructure:"maintenance_cron"`
}

type BackupConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	RetentionDays int  `mapstructure:"retention_days"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// TemplateConfig seeds a template and its habits at startup.
type TemplateConfig struct {
	Key    string              `mapstructure:"key"`
	Name   string              `mapstructure:"name"`
	Mode   string              `mapstructure:"mode"`
	Habits []TemplateHabitSeed `mapstructure:"habits"`
}

type TemplateHabitSeed struct {
	Title          string   `mapstructure:"title"`
	Description    string   `mapstructure:"description"`
	Category       string   `mapstructure:"category"`
	Points         *float64 `mapstructure:"points"`
	IsCore         *bool    `mapstructure:"is_core"`
	PointsOverride *float64 `mapstructure:"points_override"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 300)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15)
	v.SetDefault("server.write_timeout", 15)
	v.SetDefault("server.body_limit_mb", 12)

	v.SetDefault("engine.timezone", "UTC")
	v.SetDefault("engine.freeze_window_days", 3)
	v.SetDefault("engine.photo_bonus_points", 5)
	v.SetDefault("engine.points_per_heart", 100)
	v.SetDefault("engine.join_code_length", 6)
	v.SetDefault("engine.default_duration_days", 75)

	v.SetDefault("storage.max_photo_mb", 10)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.maintenance_cron", "0 5 0 * * *")

	v.SetDefault("backup.retention_days", 30)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stdout")
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("STREAKZILLA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}
	if c.Engine.FreezeWindowDays < 1 {
		return fmt.Errorf("engine.freeze_window_days must be at least 1, got %d", c.Engine.FreezeWindowDays)
	}
	if c.Engine.PointsPerHeart < 1 {
		return fmt.Errorf("engine.points_per_heart must be at least 1, got %d", c.Engine.PointsPerHeart)
	}
	if c.Engine.PhotoBonusPoints < 0 {
		return fmt.Errorf("engine.photo_bonus_points must not be negative, got %d", c.Engine.PhotoBonusPoints)
	}
	if c.Engine.JoinCodeLength < 4 {
		return fmt.Errorf("engine.join_code_length must be at least 4, got %d", c.Engine.JoinCodeLength)
	}
	if _, err := c.Engine.Location(); err != nil {
		return fmt.Errorf("invalid engine.timezone %q: %w", c.Engine.Timezone, err)
	}
	if c.Storage.Enabled && (c.Storage.Bucket == "" || c.Storage.AccountID == "") {
		return fmt.Errorf("storage is enabled but bucket or account_id is missing")
	}
	for _, t := range c.Templates {
		if t.Name == "" && t.Key == "" {
			return fmt.Errorf("template seed needs a key or a name")
		}
	}
	return nil
}
