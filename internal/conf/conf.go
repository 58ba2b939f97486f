// Package conf loads herdguard settings from config file and environment.
package conf

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Default tunables. Sweep intervals must stay well below the thresholds
// they police; Validate enforces this on load.
const (
	DefaultEscalationThreshold     = 120 * time.Second
	DefaultEscalationSweepInterval = 15 * time.Second
	DefaultOfflineThreshold        = 10 * time.Minute
	DefaultRecoveryThreshold       = 5 * time.Minute
	DefaultWatchdogSweepInterval   = 30 * time.Second
	DefaultLowBatteryFloor         = 20
	DefaultGeofenceCacheTTL        = 30 * time.Second
	DefaultPushTimeout             = 10 * time.Second
)

// Settings is the root configuration.
type Settings struct {
	Database DatabaseSettings `mapstructure:"database"`
	HTTP     HTTPSettings     `mapstructure:"http"`
	MQTT     MQTTSettings     `mapstructure:"mqtt"`
	Push     PushSettings     `mapstructure:"push"`
	Alerting AlertingSettings `mapstructure:"alerting"`
	Geofence GeofenceSettings `mapstructure:"geofence"`
	Log      LogSettings      `mapstructure:"log"`
}

// DatabaseSettings selects the storage backend.
type DatabaseSettings struct {
	Driver string `mapstructure:"driver"` // "sqlite" or "mysql"
	DSN    string `mapstructure:"dsn"`
}

// HTTPSettings configures the ingestion/API listener.
type HTTPSettings struct {
	Listen string `mapstructure:"listen"`
}

// MQTTSettings configures the optional MQTT ingestion adapter.
type MQTTSettings struct {
	Enabled  bool   `mapstructure:"enabled"`
	Broker   string `mapstructure:"broker"`
	Topic    string `mapstructure:"topic"`
	ClientID string `mapstructure:"client_id"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// PushSettings configures the push notification channel. Each recipient is
// a shoutrrr service URL (ntfy://, telegram://, pushover://, ...).
type PushSettings struct {
	Recipients []string `mapstructure:"recipients"`
	Timeout    Duration `mapstructure:"timeout"`
}

// AlertingSettings holds the monitoring thresholds: how long before an
// unresolved breach turns urgent, how long a collar may stay silent, and
// the dead zone that stops offline alerts from flapping.
type AlertingSettings struct {
	EscalationThreshold     Duration `mapstructure:"escalation_threshold"`
	EscalationSweepInterval Duration `mapstructure:"escalation_sweep_interval"`
	OfflineThreshold        Duration `mapstructure:"offline_threshold"`
	RecoveryThreshold       Duration `mapstructure:"recovery_threshold"`
	WatchdogSweepInterval   Duration `mapstructure:"watchdog_sweep_interval"`
	LowBatteryFloor         int      `mapstructure:"low_battery_floor"`
}

// GeofenceSettings configures the evaluator's cache of active fences.
type GeofenceSettings struct {
	CacheTTL Duration `mapstructure:"cache_ttl"`
}

// LogSettings configures structured logging.
type LogSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// Load reads settings from herdguard.yaml (working directory or
// /etc/herdguard) with HERDGUARD_* environment overrides. A missing config
// file is not an error; defaults apply.
func Load(configFile string) (*Settings, error) {
	v := viper.New()
	v.SetConfigName("herdguard")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/herdguard")
	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	v.SetEnvPrefix("herdguard")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings, viper.DecodeHook(DurationDecodeHook())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "herdguard.db")
	v.SetDefault("http.listen", ":8080")
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.topic", "herdguard/positions/+")
	v.SetDefault("mqtt.client_id", "herdguard")
	v.SetDefault("push.timeout", DefaultPushTimeout.String())
	v.SetDefault("alerting.escalation_threshold", DefaultEscalationThreshold.String())
	v.SetDefault("alerting.escalation_sweep_interval", DefaultEscalationSweepInterval.String())
	v.SetDefault("alerting.offline_threshold", DefaultOfflineThreshold.String())
	v.SetDefault("alerting.recovery_threshold", DefaultRecoveryThreshold.String())
	v.SetDefault("alerting.watchdog_sweep_interval", DefaultWatchdogSweepInterval.String())
	v.SetDefault("alerting.low_battery_floor", DefaultLowBatteryFloor)
	v.SetDefault("geofence.cache_ttl", DefaultGeofenceCacheTTL.String())
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate rejects threshold combinations that break the sweep model.
func (s *Settings) Validate() error {
	a := &s.Alerting
	if a.EscalationThreshold <= 0 {
		return fmt.Errorf("alerting.escalation_threshold must be positive, got %s", a.EscalationThreshold.Std())
	}
	if a.EscalationSweepInterval <= 0 || a.EscalationSweepInterval.Std() >= a.EscalationThreshold.Std() {
		return fmt.Errorf("alerting.escalation_sweep_interval %s must be positive and shorter than the escalation threshold %s",
			a.EscalationSweepInterval.Std(), a.EscalationThreshold.Std())
	}
	if a.RecoveryThreshold.Std() > a.OfflineThreshold.Std() {
		return fmt.Errorf("alerting.recovery_threshold %s must not exceed alerting.offline_threshold %s",
			a.RecoveryThreshold.Std(), a.OfflineThreshold.Std())
	}
	if a.WatchdogSweepInterval <= 0 || a.WatchdogSweepInterval.Std() >= a.OfflineThreshold.Std() {
		return fmt.Errorf("alerting.watchdog_sweep_interval %s must be positive and shorter than the offline threshold %s",
			a.WatchdogSweepInterval.Std(), a.OfflineThreshold.Std())
	}
	if a.LowBatteryFloor < 0 || a.LowBatteryFloor > 100 {
		return fmt.Errorf("alerting.low_battery_floor must be a percentage, got %d", a.LowBatteryFloor)
	}
	return nil
}
