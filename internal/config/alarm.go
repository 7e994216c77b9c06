package config

import (
	"fmt"
	"os"
	"time"
)

const (
	alarmMaxBatchEnv        = "ALARM_MAX_BATCH"
	alarmSingleShotCapEnv   = "ALARM_SINGLE_SHOT_CAP"
	alarmPlatformCeilingEnv = "ALARM_PLATFORM_CEILING"
	alarmRefillThresholdEnv = "ALARM_REFILL_THRESHOLD"
	alarmTimezoneEnv        = "ALARM_TIMEZONE"
	alarmSoundEnv           = "ALARM_SOUND"

	defaultAlarmMaxBatch        = 50
	defaultAlarmSingleShotCap   = 100
	defaultAlarmPlatformCeiling = 64
	defaultAlarmRefillThreshold = 10
)

type AlarmConfig struct {
	MaxBatch        int
	SingleShotCap   int
	PlatformCeiling int
	RefillThreshold int
	// Location is the zone reminder times are interpreted in.
	Location *time.Location
	Sound    string
}

func LoadAlarmConfig() (*AlarmConfig, error) {
	loc := time.Local
	if name := os.Getenv(alarmTimezoneEnv); name != "" {
		parsed, err := time.LoadLocation(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, name)
		}
		loc = parsed
	}

	return &AlarmConfig{
		MaxBatch:        intFromEnv(alarmMaxBatchEnv, defaultAlarmMaxBatch),
		SingleShotCap:   intFromEnv(alarmSingleShotCapEnv, defaultAlarmSingleShotCap),
		PlatformCeiling: intFromEnv(alarmPlatformCeilingEnv, defaultAlarmPlatformCeiling),
		RefillThreshold: intFromEnv(alarmRefillThresholdEnv, defaultAlarmRefillThreshold),
		Location:        loc,
		Sound:           os.Getenv(alarmSoundEnv),
	}, nil
}

func (c *AlarmConfig) Validate() error {
	if c.RefillThreshold >= c.PlatformCeiling {
		return ErrInvalidAlarmLimits
	}
	return nil
}
