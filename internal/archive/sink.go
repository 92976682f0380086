// internal/archive/sink.go
package archive

import (
	"context"
	"errors"

	commonerrors "jtracker-hub/internal/common/errors"
	"jtracker-hub/internal/common/logger"
	"jtracker-hub/internal/common/metrics"
	"jtracker-hub/internal/models"
)

// Sink stores a completed application somewhere outside the state store.
type Sink interface {
	Name() string
	Archive(ctx context.Context, app models.Application) error
}

// Multi fans an application out to every sink. A failing sink does not stop
// the others; all failures are joined into the returned error.
type Multi struct {
	sinks []Sink
	log   logger.Logger
}

func NewMulti(log logger.Logger, sinks ...Sink) *Multi {
	return &Multi{
		sinks: sinks,
		log:   log.WithFields(map[string]interface{}{"component": "archive"}),
	}
}

// Len returns the number of configured sinks.
func (m *Multi) Len() int {
	if m == nil {
		return 0
	}
	return len(m.sinks)
}

func (m *Multi) Archive(ctx context.Context, app models.Application) error {
	if m == nil {
		return nil
	}
	var errs []error
	for _, sink := range m.sinks {
		err := sink.Archive(ctx, app)
		metrics.HubArchiveWrites.WithLabelValues(sink.Name(), metrics.Outcome(err)).Inc()
		if err != nil {
			m.log.Warn("Archive sink failed", map[string]interface{}{
				"sink":          sink.Name(),
				"applicationId": app.ID,
				"error":         err.Error(),
			})
			errs = append(errs, commonerrors.NewArchiveFailedError(sink.Name(), err))
			continue
		}
		m.log.Debug("Application archived", map[string]interface{}{
			"sink":          sink.Name(),
			"applicationId": app.ID,
		})
	}
	return errors.Join(errs...)
}
