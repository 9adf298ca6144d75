// internal/workers/staffing/suggest-candidates/config.go
package suggestcandidates

import (
	"time"

	"montaz-workers/internal/common/config"
)

type Config struct {
	Timeout       time.Duration
	Index         string
	PerSlot       int
	MaxCandidates int
}

func LoadConfig(wcfg config.WorkerConfig, scfg config.StaffingConfig) *Config {
	cfg := &Config{
		Timeout:       15 * time.Second,
		Index:         "workers",
		PerSlot:       3,
		MaxCandidates: 50,
	}
	if wcfg.Timeout > 0 {
		cfg.Timeout = config.GetDuration(wcfg.Timeout)
	}
	if scfg.CandidateIndex != "" {
		cfg.Index = scfg.CandidateIndex
	}
	if scfg.CandidatesPerSlot > 0 {
		cfg.PerSlot = scfg.CandidatesPerSlot
	}
	if scfg.MaxCandidates > 0 {
		cfg.MaxCandidates = scfg.MaxCandidates
	}
	return cfg
}
