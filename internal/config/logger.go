package config

import (
	"os"
	"strings"

	"github.com/labstack/gommon/log"
)

// logHeader makes gommon emit one JSON object per line.
const logHeader = `{"time":"${time_rfc3339}","level":"${level}","prefix":"${prefix}","file":"${short_file}","line":"${line}"}`

// NewLogger returns the process logger writing JSON lines to stdout at
// the given LOG_LEVEL.
func NewLogger(prefix, level string) *log.Logger {
	l := log.New(prefix)
	l.SetOutput(os.Stdout)
	l.SetHeader(logHeader)
	l.SetLevel(ParseLevel(level))
	return l
}

// ParseLevel maps a LOG_LEVEL value to a gommon level.  Unknown values
// mean info.
func ParseLevel(s string) log.Lvl {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	}
	return log.INFO
}
