package service

import (
	"time"

	"smartschedule/core/config"
	"smartschedule/modules/matching/engine"
)

// EngineOptions maps configuration onto the engine's explicit options.
func EngineOptions(cfg config.MatchingConfig, loc *time.Location, now func() time.Time) engine.Options {
	return engine.Options{
		Step:        time.Duration(cfg.SlotStepMinutes) * time.Minute,
		SameDayLead: time.Duration(cfg.SameDayLeadMinutes) * time.Minute,
		MaxSlots:    cfg.MaxResults,
		Location:    loc,
		Now:         now,
	}
}
