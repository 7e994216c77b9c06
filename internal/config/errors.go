package config

import "errors"

var (
	ErrEnvFile            = errors.New("failed to load env file")
	ErrRedisAddrMissing   = errors.New("REDIS_ADDR is required")
	ErrInvalidRedisDB     = errors.New("REDIS_DB must be a valid integer")
	ErrMongoURIMissing    = errors.New("MONGO_URI is required")
	ErrMongoDBMissing     = errors.New("MONGO_DATABASE is required")
	ErrInvalidTimezone    = errors.New("ALARM_TIMEZONE must be a valid IANA zone")
	ErrInvalidAlarmLimits = errors.New("ALARM_REFILL_THRESHOLD must be below ALARM_PLATFORM_CEILING")
)
