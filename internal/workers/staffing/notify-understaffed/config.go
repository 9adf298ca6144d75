// internal/workers/staffing/notify-understaffed/config.go
package notifyunderstaffed

import (
	"time"

	"montaz-workers/internal/common/config"
	"montaz-workers/internal/coverage"
)

type Config struct {
	Timeout      time.Duration
	EmailEnabled bool
	SMSEnabled   bool
	// SMSStatuses are the coverage statuses severe enough for a text message.
	SMSStatuses []coverage.Status
}

func LoadConfig(wcfg config.WorkerConfig, ncfg config.NotificationConfig) *Config {
	cfg := &Config{
		Timeout:      30 * time.Second,
		EmailEnabled: ncfg.Email.Enabled,
		SMSEnabled:   ncfg.SMS.Enabled,
		SMSStatuses:  []coverage.Status{coverage.StatusNone},
	}
	if wcfg.Timeout > 0 {
		cfg.Timeout = config.GetDuration(wcfg.Timeout)
	}
	if len(ncfg.SMS.Statuses) > 0 {
		cfg.SMSStatuses = make([]coverage.Status, 0, len(ncfg.SMS.Statuses))
		for _, s := range ncfg.SMS.Statuses {
			cfg.SMSStatuses = append(cfg.SMSStatuses, coverage.Status(s))
		}
	}
	return cfg
}
