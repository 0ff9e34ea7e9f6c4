package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/verte-zerg/speedtype/internal/logger"
)

// requestLogFormatter sends chi request lines through the application logger so they
// honour its level and colours.
type requestLogFormatter struct {
	log *logger.Logger
}

func (f requestLogFormatter) NewLogEntry(r *http.Request) middleware.LogEntry {
	return &requestLogEntry{
		log:    f.log,
		method: r.Method,
		path:   r.URL.Path,
		reqID:  middleware.GetReqID(r.Context()),
	}
}

type requestLogEntry struct {
	log    *logger.Logger
	method string
	path   string
	reqID  string
}

func (e *requestLogEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ interface{}) {
	if status >= http.StatusInternalServerError {
		e.log.Warnf("%s %s %s -> %d (%dB in %s)", e.reqID, e.method, e.path, status, bytes, elapsed)
		return
	}
	e.log.Infof("%s %s %s -> %d (%dB in %s)", e.reqID, e.method, e.path, status, bytes, elapsed)
}

func (e *requestLogEntry) Panic(v interface{}, stack []byte) {
	e.log.Errorf("%s %s %s panic: %v\n%s", e.reqID, e.method, e.path, v, stack)
}
