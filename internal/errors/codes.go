package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"
	ErrNotImplemented  ErrorCode = "not_implemented"
	ErrAlreadyRunning  ErrorCode = "already_running"

	// Configuration errors
	ErrInvalidConfig   ErrorCode = "invalid_configuration"
	ErrMissingConfig   ErrorCode = "missing_configuration"
	ErrBindFlags       ErrorCode = "bind_flags_failed"
	ErrReadConfig      ErrorCode = "read_config_failed"
	ErrInvalidInterval ErrorCode = "invalid_interval"

	// Logging errors
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"

	// Threshold configuration errors
	ErrEmptyThresholds  ErrorCode = "empty_threshold_set"
	ErrDuplicateLabel   ErrorCode = "duplicate_threshold_label"
	ErrRatioOutOfRange  ErrorCode = "threshold_ratio_out_of_range"
	ErrNegativeTime     ErrorCode = "threshold_time_negative"
	ErrMissingCallback  ErrorCode = "missing_callback"
	ErrRootNotSupported ErrorCode = "root_not_supported"

	// Engine errors
	ErrEngineStopped ErrorCode = "engine_stopped"
	ErrTaskPanic     ErrorCode = "task_panic"

	// Dispatch errors
	ErrUnknownEvent ErrorCode = "unknown_event_kind"

	// Initialization errors
	ErrInitFailed     ErrorCode = "initialization_failed"
	ErrShutdownFailed ErrorCode = "shutdown_failed"

	// Application errors
	ErrInitApp  ErrorCode = "init_app_failed"
	ErrMainLoop ErrorCode = "main_loop_failed"

	// Operation errors
	ErrOperationFailed  ErrorCode = "operation_failed"
	ErrTimeout          ErrorCode = "operation_timeout"
	ErrInvalidOperation ErrorCode = "invalid_operation"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:         "Internal error occurred",
	ErrInvalidArgument:  "Invalid argument provided",
	ErrNotImplemented:   "Operation not implemented",
	ErrAlreadyRunning:   "Process already running",
	ErrInvalidConfig:    "Invalid configuration",
	ErrMissingConfig:    "Missing configuration",
	ErrBindFlags:        "Failed to bind flags",
	ErrReadConfig:       "Failed to read configuration",
	ErrInvalidInterval:  "Invalid interval value",
	ErrInvalidLogLevel:  "Invalid log level",
	ErrEmptyThresholds:  "Threshold set must not be empty",
	ErrDuplicateLabel:   "Threshold labels must be unique",
	ErrRatioOutOfRange:  "Threshold ratio must be within [0, 1]",
	ErrNegativeTime:     "Threshold time must not be negative",
	ErrMissingCallback:  "Observer callback must not be nil",
	ErrRootNotSupported: "Custom roots are not supported",
	ErrEngineStopped:    "Engine is not running",
	ErrTaskPanic:        "Scheduled task panicked",
	ErrUnknownEvent:     "Unknown event kind",
	ErrInitFailed:       "Initialization failed",
	ErrShutdownFailed:   "Shutdown failed",
	ErrInitApp:          "Failed to initialize application",
	ErrMainLoop:         "Error in main loop",
	ErrOperationFailed:  "Operation failed",
	ErrTimeout:          "Operation timed out",
	ErrInvalidOperation: "Invalid operation",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
