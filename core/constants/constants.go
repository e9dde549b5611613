package constants

import "time"

const (
	ContextTokenData = "token_data"
	ContextRequestID = "request_id"

	HeaderRequestID = "X-Request-ID"

	DefaultTimeout = 10 * time.Second

	// Cache keys
	PatternCacheKeyPrefix = "pattern:analysis:"

	// Background tasks
	TaskAnalyzePattern = "pattern:analyze"
)
