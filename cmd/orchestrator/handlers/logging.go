package handlers

import (
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log formats.
const (
	LogFormatAuto    = "auto"
	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

// stderrIsTerminal is replaceable in tests.
var stderrIsTerminal = func() bool {
	return isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
}

// NewLogger builds a zap-backed logr.Logger writing to w.
//
// level is a zap level name. Each verbosity step enables one more logr
// V-level below info. The auto format picks console output on a terminal
// and JSON otherwise. The returned func flushes buffered entries.
func NewLogger(w io.Writer, level, format string, verbosity int) (logr.Logger, func(), error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return logr.Discard(), nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}
	if verbosity > 0 {
		lvl = min(lvl, zapcore.Level(-verbosity))
	}

	if format == "" || format == LogFormatAuto {
		format = LogFormatJSON
		if stderrIsTerminal() {
			format = LogFormatConsole
		}
	}

	var enc zapcore.Encoder
	switch format {
	case LogFormatJSON:
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(encCfg)
	case LogFormatConsole:
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	default:
		return logr.Discard(), nil, fmt.Errorf("invalid log format %q, want %s, %s or %s", format, LogFormatAuto, LogFormatJSON, LogFormatConsole)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(w)), zap.NewAtomicLevelAt(lvl))
	z := zap.New(core)
	return zapr.NewLogger(z), func() { _ = z.Sync() }, nil
}
