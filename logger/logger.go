package logger

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

var globalLogger *logrus.Logger

// Init sets up the process wide logger for the given level name.
func Init(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level: %s", level)
	}

	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(lvl)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	globalLogger = l
	return nil
}

func Get() *logrus.Logger {
	if globalLogger == nil {
		return logrus.StandardLogger()
	}
	return globalLogger
}
