package resource

import (
	"go.uber.org/zap"
)

// Observer is notified of non-fatal lookup events.
type Observer interface {
	OnFallback(f FallbackUsed)
	OnMissing(locale, key string)
}

// Observers fans events out to several observers.
type Observers []Observer

func (os Observers) OnFallback(f FallbackUsed) {
	for _, o := range os {
		if o != nil {
			o.OnFallback(f)
		}
	}
}

func (os Observers) OnMissing(locale, key string) {
	for _, o := range os {
		if o != nil {
			o.OnMissing(locale, key)
		}
	}
}

// LogObserver logs lookup events at debug level.
type LogObserver struct {
	logger *zap.Logger
}

func NewLogObserver(logger *zap.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

func (l *LogObserver) OnFallback(f FallbackUsed) {
	l.logger.Debug("Template resolved through fallback",
		zap.String("key", f.Key),
		zap.String("requested", f.Requested),
		zap.String("resolved", f.Resolved.String()))
}

func (l *LogObserver) OnMissing(locale, key string) {
	l.logger.Debug("Template not found",
		zap.String("key", key),
		zap.String("locale", locale))
}
