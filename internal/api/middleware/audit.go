// Audit middleware: one structured log line per /api/v1 request, with the
// authenticated subject, a derived action name and the outcome.
package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/matiasleandrokruk/dissociated/internal/api/ctxkeys"
	"github.com/matiasleandrokruk/dissociated/internal/infra/logging"
)

// Outcome classifies a response status for the audit log.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeDenied  Outcome = "denied"
	OutcomeError   Outcome = "error"
)

type auditKey struct{}

// auditRecord is filled in by middleware further down the chain.
type auditRecord struct {
	subject string
}

// recordSubject reports the authenticated subject to an enclosing Audit.
func recordSubject(ctx context.Context, subject string) {
	if rec, ok := ctx.Value(auditKey{}).(*auditRecord); ok {
		rec.subject = subject
	}
}

// Audit logs every request passing through it. Expected order in router:
// Audit -> Auth -> handlers, so rejected tokens are logged as denied.
func Audit(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if logger == nil {
				next.ServeHTTP(w, r)
				return
			}

			rec := &auditRecord{}
			recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(recorder, r.WithContext(context.WithValue(r.Context(), auditKey{}, rec)))

			subject := rec.subject
			if subject == "" {
				subject = ctxkeys.String(r.Context(), ctxkeys.Subject)
			}

			action, target := actionFromRequest(r.Method, r.URL.Path)
			keyvals := []any{
				"action", action,
				"subject", subject,
				"status", recorder.statusCode,
				"outcome", string(outcomeFromStatus(recorder.statusCode)),
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if target != "" {
				keyvals = append(keyvals, "target", target)
			}
			logger.Info("api request", keyvals...)
		})
	}
}

// WithLogger stores logger in the request context for handlers to pick up
// through logging.FromContext.
func WithLogger(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(logging.ContextWithLogger(r.Context(), logger)))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func outcomeFromStatus(statusCode int) Outcome {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return OutcomeSuccess
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return OutcomeDenied
	default:
		return OutcomeError
	}
}

// actionFromRequest maps "/api/v1/<resource>[/<id>]" to an action name and the
// addressed id, e.g. DELETE /api/v1/corpora/x → ("delete_corpus", "x").
func actionFromRequest(method, path string) (string, string) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) < 3 || segments[0] != "api" || segments[1] != "v1" {
		return strings.ToLower(method) + "_request", ""
	}

	switch segments[2] {
	case "generate":
		return "generate", ""
	case "corpora":
		if len(segments) == 3 {
			if method == http.MethodPost {
				return "create_corpus", ""
			}
			return "list_corpus", ""
		}
		return actionForCorpus(method), segments[3]
	default:
		return strings.ToLower(method) + "_request", ""
	}
}

func actionForCorpus(method string) string {
	switch method {
	case http.MethodGet:
		return "get_corpus"
	case http.MethodDelete:
		return "delete_corpus"
	default:
		return strings.ToLower(method) + "_corpus"
	}
}
