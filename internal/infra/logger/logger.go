// internal/infra/logger/logger.go
package logger

import (
	"os"
	"time"

	"escala_notifier/internal/infra/config"

	"github.com/sirupsen/logrus"
)

const serviceName = "escala-notifier"

// Log is the global logger instance
var Log = logrus.New()

var base = logrus.NewEntry(Log)

// Init applies level and format from the configuration and tags every entry
// with the service and environment.
func Init(cfg *config.AppConfig) {
	Log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		Log.Warnf("Invalid log level '%s', defaulting to 'info'. Error: %v", cfg.LogLevel, err)
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)

	switch cfg.Environment {
	case "production", "staging":
		// severity/message is what the log collector indexes
		Log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyLevel: "severity",
				logrus.FieldKeyMsg:   "message",
			},
		})
	default:
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
			ForceColors:     true,
		})
	}

	base = Log.WithFields(logrus.Fields{
		"service": serviceName,
		"env":     cfg.Environment,
	})
	base.WithField("level", Log.GetLevel().String()).Info("Logger initialized")
}

// Component returns an entry tagged with the component name.
func Component(name string) *logrus.Entry {
	return base.WithField("component", name)
}
