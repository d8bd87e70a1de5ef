package utils

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger represents the process-wide structured logger.
type Logger struct {
	logger                 *log.Logger
	userInteractionEnabled bool
	jsonMode               bool
	correlationID          string
}

var (
	globalLogger *Logger
	once         sync.Once
)

// GetLogger returns the singleton Logger, initializing it with a rotating
// file handler on first call. skipPrompts sets the flag that
// InteractionEnabled reports (enabled when skipPrompts is false); every
// call overwrites it.
func GetLogger(skipPrompts bool) *Logger {
	once.Do(func() {
		dir := ConfigDir()
		_ = os.MkdirAll(dir, 0o755)
		logFile := &lumberjack.Logger{
			Filename:   dir + "/angela.log",
			MaxSize:    15, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		globalLogger = &Logger{
			logger:        log.New(logFile, "", log.LstdFlags),
			correlationID: uuid.NewString(),
		}
	})
	globalLogger.userInteractionEnabled = !skipPrompts
	if os.Getenv("ANGELA_JSON_LOGS") == "1" {
		globalLogger.jsonMode = true
	}
	if cid := os.Getenv("ANGELA_CORRELATION_ID"); cid != "" {
		globalLogger.correlationID = cid
	}
	return globalLogger
}

// Close releases the underlying log file.
func (w *Logger) Close() error {
	if logFile, ok := w.logger.Writer().(*lumberjack.Logger); ok {
		return logFile.Close()
	}
	return nil
}

// LogProcessStep records a step in a multi-step operation (plan execution,
// rollback progress) to the log file only.
func (w *Logger) LogProcessStep(step string) {
	w.logger.Printf("step: %s", step)
}

// Log writes a general message to the log file.
func (w *Logger) Log(message string) {
	if w.jsonMode {
		_ = json.NewEncoder(w.logger.Writer()).Encode(map[string]any{"level": "info", "msg": message, "cid": w.correlationID})
		return
	}
	w.logger.Print(message)
}

// Logf writes a formatted message to the log file.
func (w *Logger) Logf(format string, v ...interface{}) {
	if w.jsonMode {
		w.Log(fmt.Sprintf(format, v...))
		return
	}
	w.logger.Printf(format, v...)
}

// LogError writes an error to the log file.
func (w *Logger) LogError(err error) {
	if w.jsonMode {
		_ = json.NewEncoder(w.logger.Writer()).Encode(map[string]any{"level": "error", "error": err.Error(), "cid": w.correlationID})
		return
	}
	w.logger.Printf("error: %s", err)
}

// InteractionEnabled reports whether the process may block on a terminal
// prompt, as set by the most recent GetLogger call. The Confirmation
// Gate's terminal formatter does not consult it; it checks whether stdin
// is a terminal.
func (w *Logger) InteractionEnabled() bool {
	return w.userInteractionEnabled
}
