package utils

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	logLevelDebugStringConstant          = "debug"
	logLevelInfoStringConstant           = "info"
	logLevelWarnStringConstant           = "warn"
	logLevelErrorStringConstant          = "error"
	logFormatStructuredStringConstant    = "structured"
	logFormatConsoleStringConstant       = "console"
	jsonZapEncodingStringConstant        = "json"
	consoleZapEncodingStringConstant     = "console"
	unsupportedLogLevelTemplateConstant  = "unsupported log level: %s"
	unsupportedLogFormatTemplateConstant = "unsupported log format: %s"
)

// LogLevel enumerates supported logging granularities.
type LogLevel string

// Supported log levels.
const (
	LogLevelDebug LogLevel = LogLevel(logLevelDebugStringConstant)
	LogLevelInfo  LogLevel = LogLevel(logLevelInfoStringConstant)
	LogLevelWarn  LogLevel = LogLevel(logLevelWarnStringConstant)
	LogLevelError LogLevel = LogLevel(logLevelErrorStringConstant)
)

// LogFormat enumerates supported logger output encodings.
type LogFormat string

// Supported log formats.
const (
	LogFormatStructured LogFormat = LogFormat(logFormatStructuredStringConstant)
	LogFormatConsole    LogFormat = LogFormat(logFormatConsoleStringConstant)
)

var logLevelMapping = map[LogLevel]zapcore.Level{
	LogLevelDebug: zapcore.DebugLevel,
	LogLevelInfo:  zapcore.InfoLevel,
	LogLevelWarn:  zapcore.WarnLevel,
	LogLevelError: zapcore.ErrorLevel,
}

var logFormatEncodingMapping = map[LogFormat]string{
	LogFormatStructured: jsonZapEncodingStringConstant,
	LogFormatConsole:    consoleZapEncodingStringConstant,
}

// LogLevelNames lists the accepted log level spellings in severity order.
func LogLevelNames() []string {
	return []string{
		logLevelDebugStringConstant,
		logLevelInfoStringConstant,
		logLevelWarnStringConstant,
		logLevelErrorStringConstant,
	}
}

// LogFormatNames lists the accepted log format spellings.
func LogFormatNames() []string {
	return []string{logFormatStructuredStringConstant, logFormatConsoleStringConstant}
}

// ParseLogLevel normalizes a textual log level into a LogLevel.
func ParseLogLevel(candidateLevel string) (LogLevel, error) {
	normalizedLevel := LogLevel(strings.ToLower(strings.TrimSpace(candidateLevel)))
	if _, levelExists := logLevelMapping[normalizedLevel]; !levelExists {
		return "", fmt.Errorf(unsupportedLogLevelTemplateConstant, candidateLevel)
	}
	return normalizedLevel, nil
}

// ParseLogFormat normalizes a textual log format into a LogFormat.
func ParseLogFormat(candidateFormat string) (LogFormat, error) {
	normalizedFormat := LogFormat(strings.ToLower(strings.TrimSpace(candidateFormat)))
	if _, formatExists := logFormatEncodingMapping[normalizedFormat]; !formatExists {
		return "", fmt.Errorf(unsupportedLogFormatTemplateConstant, candidateFormat)
	}
	return normalizedFormat, nil
}

// IsHumanReadable reports whether the format targets interactive consumption.
func (format LogFormat) IsHumanReadable() bool {
	return format == LogFormatConsole
}

// LoggerSettings describes the logger requested by the caller.
type LoggerSettings struct {
	Level  LogLevel
	Format LogFormat
}

// LoggerFactory builds zap.Logger instances with consistent configuration.
type LoggerFactory struct{}

// NewLoggerFactory constructs a new logger factory.
func NewLoggerFactory() *LoggerFactory {
	return &LoggerFactory{}
}

// CreateLogger produces a zap.Logger honoring the requested settings.
func (factory *LoggerFactory) CreateLogger(settings LoggerSettings) (*zap.Logger, error) {
	zapLogLevel, levelExists := logLevelMapping[settings.Level]
	if !levelExists {
		return nil, fmt.Errorf(unsupportedLogLevelTemplateConstant, settings.Level)
	}

	encoding, formatExists := logFormatEncodingMapping[settings.Format]
	if !formatExists {
		return nil, fmt.Errorf(unsupportedLogFormatTemplateConstant, settings.Format)
	}

	configuration := zap.NewProductionConfig()
	configuration.Level = zap.NewAtomicLevelAt(zapLogLevel)
	configuration.Encoding = encoding
	if settings.Format.IsHumanReadable() {
		configuration.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		configuration.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	return configuration.Build()
}
