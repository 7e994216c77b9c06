package config

import "errors"

// ValidateForRun reports every problem at once.
func ValidateForRun(cfg *Config) error {
	var errs []error

	if err := cfg.Redis.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := cfg.Mongo.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := cfg.Alarm.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := cfg.TaskQueue.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
