package service

import "github.com/labstack/gommon/log"

var defaultLog = log.New("service")

func logger(l *log.Logger) *log.Logger {
	if l == nil {
		return defaultLog
	}
	return l
}
