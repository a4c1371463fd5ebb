// internal/logger/logger.go
package logger

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const fileFlushInterval = 2 * time.Second

// Build assembles the process logger: a pretty console core for the
// operator plus, when logFile is set, a structured JSON core appended to
// disk. Debug mode swaps the pretty console for a development encoder that
// keeps structured fields visible. The returned closer flushes the file
// sink and must run before exit.
func Build(debug bool, logFile string) (*zap.Logger, func(), error) {
	var console zapcore.Core
	if debug {
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		console = zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.AddSync(zapcore.Lock(os.Stdout)),
			zap.DebugLevel,
		)
	} else {
		console = &FieldFilterCore{core: zapcore.NewCore(
			PrettyEncoder(),
			zapcore.AddSync(zapcore.Lock(os.Stdout)),
			zap.InfoLevel,
		)}
	}

	cores := []zapcore.Core{console}
	closer := func() {}

	if logFile != "" {
		sink, err := NewSafeFileWriter(logFile, fileFlushInterval, zap.NewNop())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		fileCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(sink),
			zap.DebugLevel,
		)
		cores = append(cores, fileCore)
		closer = func() { _ = sink.Close() }
	}

	return zap.New(zapcore.NewTee(cores...)), closer, nil
}
