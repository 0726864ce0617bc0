package translations

import "github.com/goliatone/go-translations/internal/runtimeconfig"

var (
	ErrDefaultLocaleRequired   = runtimeconfig.ErrDefaultLocaleRequired
	ErrDefaultLocaleNotEnabled = runtimeconfig.ErrDefaultLocaleNotEnabled
	ErrCacheTTLInvalid         = runtimeconfig.ErrCacheTTLInvalid
	ErrRebuildTimeoutInvalid   = runtimeconfig.ErrRebuildTimeoutInvalid
	ErrReplayRetentionInvalid  = runtimeconfig.ErrReplayRetentionInvalid
	ErrReplayCapacityInvalid   = runtimeconfig.ErrReplayCapacityInvalid
	ErrSessionQueueInvalid     = runtimeconfig.ErrSessionQueueInvalid
	ErrNotifierTimingInvalid   = runtimeconfig.ErrNotifierTimingInvalid
	ErrContentLimitInvalid     = runtimeconfig.ErrContentLimitInvalid
	ErrLoggingLevelInvalid     = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid    = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config         = runtimeconfig.Config
	LocalesConfig  = runtimeconfig.LocalesConfig
	CacheConfig    = runtimeconfig.CacheConfig
	NotifierConfig = runtimeconfig.NotifierConfig
	WorkflowConfig = runtimeconfig.WorkflowConfig
	ContentConfig  = runtimeconfig.ContentConfig
	Features       = runtimeconfig.Features
	LoggingConfig  = runtimeconfig.LoggingConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
