// internal/common/errors/handler.go
package errors

// ErrorHandler normalizes, logs and counts failures of event handlers and
// their asynchronous side effects. Failures are terminal for the event.
type ErrorHandler struct {
	logger   Logger
	recorder Recorder
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

// Recorder receives one call per handled failure.
type Recorder interface {
	RecordEventFailure(event string, code string)
}

func NewErrorHandler(logger Logger, recorder Recorder) *ErrorHandler {
	return &ErrorHandler{logger: logger, recorder: recorder}
}

// HandleEventError handles any error raised while processing event.
func (h *ErrorHandler) HandleEventError(event string, err error) *StandardError {
	if err == nil {
		return nil
	}

	stdErr := AsStandardError(err)

	fields := map[string]interface{}{
		"event":         event,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	}
	for k, v := range stdErr.Metadata {
		fields[k] = v
	}
	h.logger.Error("Event failed", fields)

	if h.recorder != nil {
		h.recorder.RecordEventFailure(event, string(stdErr.Code))
	}

	return stdErr
}
