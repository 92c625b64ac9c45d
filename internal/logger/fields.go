package logger

import (
	"log/slog"
)

// Standard field keys for structured logging across storage backends.
// Use these keys consistently across all log statements for log aggregation
// and querying.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Storage Operation
	// ========================================================================
	KeyOperation = "operation" // Storage operation name: Create, Load, Save, Lock, ...
	KeyBackend   = "backend"   // Backend name: disk, dynamodb, postgres, null
	KeyID        = "id"        // Item identifier
	KeyOwner     = "owner"     // Lock owner ("who")
	KeyExtension = "extension" // Payload/lock file extension (disk backend)
	KeyPath      = "path"      // Filesystem path (disk backend)
	KeyTable     = "table"     // Remote table/relation name (dynamodb/postgres backends)

	// ========================================================================
	// Scan / Enumeration
	// ========================================================================
	KeyStartID    = "start_id"    // scan_ids continuation token
	KeyLimit      = "limit"       // scan_ids page size
	KeyCount      = "count"       // Number of IDs returned
	KeyHighestID  = "highest_id"  // Highest-seen-id tracker value

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyErrorCode  = "error_code"  // Numeric error code
	KeyAttempt    = "attempt"     // Retry/generation attempt number
	KeyMaxRetries = "max_retries" // Maximum retry attempts
)

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// Operation returns a slog.Attr for the storage operation name
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Backend returns a slog.Attr for the backend name
func Backend(name string) slog.Attr {
	return slog.String(KeyBackend, name)
}

// ID returns a slog.Attr for an item identifier
func ID(id string) slog.Attr {
	return slog.String(KeyID, id)
}

// Owner returns a slog.Attr for a lock owner
func Owner(who string) slog.Attr {
	return slog.String(KeyOwner, who)
}

// Extension returns a slog.Attr for a file extension
func Extension(ext string) slog.Attr {
	return slog.String(KeyExtension, ext)
}

// Path returns a slog.Attr for a filesystem path
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Table returns a slog.Attr for a remote table/relation name
func Table(name string) slog.Attr {
	return slog.String(KeyTable, name)
}

// StartID returns a slog.Attr for a scan continuation token
func StartID(id string) slog.Attr {
	return slog.String(KeyStartID, id)
}

// Limit returns a slog.Attr for a scan page size
func Limit(n int) slog.Attr {
	return slog.Int(KeyLimit, n)
}

// Count returns a slog.Attr for a result count
func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}

// HighestID returns a slog.Attr for the highest-seen-id value
func HighestID(id string) slog.Attr {
	return slog.String(KeyHighestID, id)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for a numeric error code
func ErrorCode(code int) slog.Attr {
	return slog.Int(KeyErrorCode, code)
}

// Attempt returns a slog.Attr for a retry/generation attempt number
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// MaxRetries returns a slog.Attr for maximum retry attempts
func MaxRetries(n int) slog.Attr {
	return slog.Int(KeyMaxRetries, n)
}
