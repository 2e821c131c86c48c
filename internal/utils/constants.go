package utils

// ApplicationExecutionFailedMessage prefixes fatal errors reported by the entry point.
const ApplicationExecutionFailedMessage = "snapsource failed"

// LoggerInitializationFailedMessageFormat reports a failure to build the application logger.
const LoggerInitializationFailedMessageFormat = "initialize logger: %w"
