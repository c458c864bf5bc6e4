package constants

import "time"

const (
	DefaultTimeout        = 30 * time.Second
	DefaultRequestTimeout = 10 * time.Second

	DatabaseMaxOpenConns    = 25
	DatabaseMaxIdleConns    = 5
	DatabaseConnMaxLifetime = 30 // minutes
	DatabaseSSLMode         = "disable"

	ContextTokenData = "token_data"

	// Redis channel prefix for the schedule change feed; channels are scoped
	// per organization, week filtering happens client-side.
	RedisScheduleFeedPrefix = "schedule:feed:"

	// Redis key prefix for cached week snapshots.
	RedisScheduleWeekPrefix = "schedule:week:"

	// Prefix distinguishing client-local placeholder ids from server uuids.
	TempIDPrefix = "tmp_"

	// Asynq task types
	TaskTypeNotificationDeliver = "notification:deliver"
)
