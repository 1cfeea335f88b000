// Package logging writes one JSON object per line through a standard
// *log.Logger.
package logging

import (
	"encoding/json"
	"io"
	"log"
	"time"
)

// New returns a logger without the default date prefix; every line carries
// its own "ts" field.
func New(w io.Writer) *log.Logger {
	return log.New(w, "", 0)
}

func Info(logger *log.Logger, msg string, fields map[string]any) {
	write(logger, "info", msg, fields)
}

func Warn(logger *log.Logger, msg string, fields map[string]any) {
	write(logger, "warn", msg, fields)
}

func Error(logger *log.Logger, msg string, fields map[string]any) {
	write(logger, "error", msg, fields)
}

func write(logger *log.Logger, level, msg string, fields map[string]any) {
	if logger == nil {
		return
	}
	payload := make(map[string]any, len(fields)+3)
	for k, v := range fields {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		payload[k] = v
	}
	payload["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	payload["level"] = level
	payload["msg"] = msg

	b, err := json.Marshal(payload)
	if err != nil {
		logger.Printf(`{"level":"error","msg":"log_marshal_failed","error":%q}`, err.Error())
		return
	}
	logger.Print(string(b))
}
