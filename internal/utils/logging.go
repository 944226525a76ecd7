package utils

import (
	"log"
	"strings"
)

var debugEnabled bool

// InitLogging sets log flags; "debug" adds file:line and enables Debugf
func InitLogging(level string) {
	debugEnabled = strings.EqualFold(strings.TrimSpace(level), "debug")
	if debugEnabled {
		log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
		return
	}
	log.SetFlags(log.LstdFlags)
}

// Debugf logs only when debug logging is enabled
func Debugf(format string, args ...interface{}) {
	if debugEnabled {
		log.Printf(format, args...)
	}
}
