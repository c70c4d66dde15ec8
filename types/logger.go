package types

// Logger defines methods for structured logging.
//
// Compatible with zap.SugaredLogger and other structured loggers.
// All methods accept key-value pairs for structured fields.
type Logger interface {
	// Debug logs a message at DebugLevel with the given key-value pairs.
	Debug(msg string, keysAndValues ...any)

	// Info logs a message at InfoLevel with the given key-value pairs.
	Info(msg string, keysAndValues ...any)

	// Warn logs a message at WarnLevel with the given key-value pairs.
	Warn(msg string, keysAndValues ...any)

	// Error logs a message at ErrorLevel with the given key-value pairs.
	Error(msg string, keysAndValues ...any)

	// Fatal logs a message at FatalLevel and calls os.Exit(1).
	Fatal(msg string, keysAndValues ...any)
}
