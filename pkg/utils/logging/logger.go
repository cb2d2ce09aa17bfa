package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls where and how verbosely the logger writes
type Options struct {
	Env     string // Prefixes the log file name; "" becomes "default"
	Dir     string // Log directory; "" disables the file output
	Verbose bool   // Debug on the console instead of Info
}

// InitLogger builds a logger writing human-readable lines to stderr and,
// when Dir is set, JSON lines at Debug to a timestamped file
func InitLogger(opts Options) (*zap.Logger, error) {
	consoleLevel := zapcore.InfoLevel
	if opts.Verbose {
		consoleLevel = zapcore.DebugLevel
	}

	consoleConfig := zap.NewDevelopmentEncoderConfig()
	consoleConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	consoleConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	// Stdout is reserved for command output
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleConfig), zapcore.Lock(os.Stderr), consoleLevel),
	}

	if opts.Dir != "" {
		fileCore, err := newFileCore(opts)
		if err != nil {
			return nil, err
		}
		cores = append(cores, fileCore)
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

func newFileCore(opts Options) (zapcore.Core, error) {
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	env := opts.Env
	if env == "" {
		env = "default"
	}
	name := filepath.Join(opts.Dir, fmt.Sprintf("moneyclub_%s_%s.log", env, time.Now().Format("2006-01-02_15-04-05")))

	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	fileConfig := zap.NewProductionEncoderConfig()
	fileConfig.TimeKey = "timestamp"
	fileConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zapcore.NewCore(zapcore.NewJSONEncoder(fileConfig), zapcore.AddSync(f), zapcore.DebugLevel), nil
}
