package logger

import "strings"

const (
	// LevelDebug represents the debug severity level name.
	LevelDebug = "DEBUG"
	// LevelInfo represents the info severity level name.
	LevelInfo = "INFO"
	// LevelWarn represents the warning severity level name.
	LevelWarn = "WARN"
	// LevelError represents the error severity level name.
	LevelError = "ERROR"
)

var allowedLevels = map[string]string{
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"warn":    LevelWarn,
	"warning": LevelWarn,
	"error":   LevelError,
}

// Status values used across handler summaries and transport logs.
const (
	StatusOK          = "ok"
	StatusFail        = "fail"
	StatusSkip        = "skip"
	StatusDenied      = "denied"
	StatusRateLimited = "rate_limited"
	StatusCancelled   = "cancelled"
)

var statusAliases = map[string]string{
	"error":    StatusFail,
	"failed":   StatusFail,
	"canceled": StatusCancelled,
	"skipped":  StatusSkip,
}

func normalizeLevel(level string) string {
	if level == "" {
		return LevelInfo
	}
	if mapped, ok := allowedLevels[strings.ToLower(level)]; ok {
		return mapped
	}
	return strings.ToUpper(level)
}

func normalizeStatus(status string) string {
	status = strings.ToLower(strings.TrimSpace(status))
	if mapped, ok := statusAliases[status]; ok {
		return mapped
	}
	return status
}

var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"update_id",
	"user_id",
	"chat_id",
	"chat_type",
	"handler",
	"command",
	"action",
	"duration_ms",
	"groups",
	"sent",
	"failed",
	"members",
	"backend",
	"path",
	"db",
	"host",
	"port",
	"mode",
	"username",
	"err",
	"err_code",
	"retryable",
	"attempts",
	"backoff_ms",
}
