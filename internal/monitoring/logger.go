// Package monitoring configures the process-wide structured logger.
package monitoring

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Levels are the accepted -log.level values.
var Levels = map[string]logrus.Level{
	"trace": logrus.TraceLevel,
	"debug": logrus.DebugLevel,
	"info":  logrus.InfoLevel,
	"warn":  logrus.WarnLevel,
	"error": logrus.ErrorLevel,
	"off":   logrus.PanicLevel,
}

// Logger returns an entry tagged with the given module name.
func Logger(module string) *logrus.Entry {
	return logrus.WithField("module", module)
}

// SetLevel applies a named level to the standard logger.
func SetLevel(name string) error {
	level, ok := Levels[name]
	if !ok {
		return fmt.Errorf("log level must be one of trace, debug, info, warn, error, off; got %q", name)
	}
	logrus.SetLevel(level)
	return nil
}

// SetOutput redirects the standard logger. Terminal output goes to stderr so
// that the signal card owns stdout.
func SetOutput(w io.Writer) {
	logrus.SetOutput(w)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})
}
