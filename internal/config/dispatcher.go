package config

import (
	"os"
	"strings"
)

const (
	dispatchScheduleEnv = "DISPATCH_SCHEDULE"
	refreshScheduleEnv  = "REFRESH_SCHEDULE"

	defaultDispatchSchedule = "@every 1s"
	defaultRefreshSchedule  = "0 */15 * * * *"

	scheduleOff = "off"
)

type DispatcherConfig struct {
	PollSpec string
	// RefreshSpec is empty when the periodic refresh sweep is switched off.
	RefreshSpec string
}

func LoadDispatcherConfig() *DispatcherConfig {
	poll := os.Getenv(dispatchScheduleEnv)
	if poll == "" {
		poll = defaultDispatchSchedule
	}

	refresh := os.Getenv(refreshScheduleEnv)
	switch {
	case refresh == "":
		refresh = defaultRefreshSchedule
	case strings.EqualFold(refresh, scheduleOff):
		refresh = ""
	}

	return &DispatcherConfig{
		PollSpec:    poll,
		RefreshSpec: refresh,
	}
}
