// internal/logger/pretty.go
package logger

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Colors for terminal output
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorPurple = "\033[35m"
	ColorCyan   = "\033[36m"
	ColorWhite  = "\033[37m"
	ColorBold   = "\033[1m"
)

// PrettyEncoder creates a user-friendly console encoder
func PrettyEncoder() zapcore.Encoder {
	config := zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		TimeKey:        "time",
		CallerKey:      "",
		StacktraceKey:  "",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    customLevelEncoder,
		EncodeTime:     customTimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   customCallerEncoder,
	}
	return zapcore.NewConsoleEncoder(config)
}

// customLevelEncoder formats log levels with colors
func customLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	switch level {
	case zapcore.DebugLevel:
		enc.AppendString(fmt.Sprintf("%s[DEBUG]%s", ColorCyan, ColorReset))
	case zapcore.InfoLevel:
		enc.AppendString(fmt.Sprintf("%s[INFO]%s", ColorGreen, ColorReset))
	case zapcore.WarnLevel:
		enc.AppendString(fmt.Sprintf("%s[WARN]%s", ColorYellow, ColorReset))
	case zapcore.ErrorLevel:
		enc.AppendString(fmt.Sprintf("%s[ERROR]%s", ColorRed, ColorReset))
	case zapcore.FatalLevel:
		enc.AppendString(fmt.Sprintf("%s[FATAL]%s", ColorRed+ColorBold, ColorReset))
	default:
		enc.AppendString(fmt.Sprintf("[%s]", level.CapitalString()))
	}
}

// customTimeEncoder formats time in a readable way
func customTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("15:04:05"))
}

// customCallerEncoder hides caller information for cleaner logs
func customCallerEncoder(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
	// Don't show caller for cleaner output
}

// FormatMessage rewrites known milestone messages into operator-friendly lines
func FormatMessage(msg string, fields ...zap.Field) string {
	switch {
	case strings.Contains(msg, "License validated"):
		return fmt.Sprintf("%s✓ License validated successfully%s", ColorGreen, ColorReset)

	case strings.Contains(msg, "Wallets loaded"):
		count := extractField(fields, "count")
		return fmt.Sprintf("%s📋 Loaded %s wallets%s", ColorBlue, count, ColorReset)

	case strings.Contains(msg, "bonding curve tradable"):
		return fmt.Sprintf("%s🎯 Bonding curve tradable: first sell route obtained%s", ColorPurple, ColorReset)

	case strings.Contains(msg, "sell submitted"):
		sig := extractField(fields, "signature")
		return fmt.Sprintf("%s📤 Sell transaction sent: %s%s", ColorYellow, shortenSignature(sig), ColorReset)

	case strings.Contains(msg, "sell confirmed"):
		sig := extractField(fields, "signature")
		return fmt.Sprintf("%s✅ Sell confirmed: %s%s", ColorGreen, shortenSignature(sig), ColorReset)

	case strings.Contains(msg, "balance drained after submission"):
		return fmt.Sprintf("%s💸 Position already drained, nothing left to sell%s", ColorGreen, ColorReset)

	case strings.Contains(msg, "creator sale broadcast"):
		return fmt.Sprintf("%s🥇 Creator sale broadcast, releasing remaining wallets%s", ColorCyan, ColorReset)

	case strings.Contains(msg, "Run report exported"):
		file := extractField(fields, "file")
		return fmt.Sprintf("%s📄 Run report exported: %s%s", ColorBlue, file, ColorReset)

	default:
		return msg
	}
}

// Helper functions
func extractField(fields []zap.Field, key string) string {
	for _, field := range fields {
		if field.Key != key {
			continue
		}
		switch {
		case field.String != "":
			return field.String
		case field.Interface != nil:
			return fmt.Sprintf("%v", field.Interface)
		default:
			return strconv.FormatInt(field.Integer, 10)
		}
	}
	return ""
}

func shortenAddress(addr string) string {
	if len(addr) > 8 {
		return addr[:4] + "..." + addr[len(addr)-4:]
	}
	return addr
}

func shortenSignature(sig string) string {
	if len(sig) > 16 {
		return sig[:8] + "..." + sig[len(sig)-8:]
	}
	return sig
}

// FieldFilterCore wraps a zapcore.Core to keep console output to one clean
// line per event. Structured fields still reach the file sink untouched.
type FieldFilterCore struct {
	core zapcore.Core
}

func (c *FieldFilterCore) Enabled(level zapcore.Level) bool {
	return c.core.Enabled(level)
}

func (c *FieldFilterCore) With(fields []zapcore.Field) zapcore.Core {
	return &FieldFilterCore{core: c.core.With(fields)}
}

func (c *FieldFilterCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c *FieldFilterCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	cleanEntry := entry
	cleanEntry.Message = FormatMessage(entry.Message, fields...)

	// Errors keep their cause on the console line
	for _, field := range fields {
		if field.Key == "error" && field.Interface != nil {
			cleanEntry.Message = fmt.Sprintf("%s: %v", cleanEntry.Message, field.Interface)
			break
		}
	}

	return c.core.Write(cleanEntry, nil)
}

func (c *FieldFilterCore) Sync() error {
	return c.core.Sync()
}
