// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides correlation IDs, the redacting access logger, panic
// recovery, and access to the request-scoped logger:
//
//   - RequestID() reuses a well-formed X-Request-ID or mints a UUID.
//   - AccessLog() attaches a request-scoped zerolog.Logger and, after the
//     handler ran, emits one structured line per request. Submitted values
//     travel in bodies and are never logged; query strings and headers are
//     scrubbed of e-mail addresses, phone numbers and UUIDs.
//   - Recovery() turns panics into the JSON error envelope.
//
// Order: RequestID → AccessLog → Recovery.
package middleware

import (
	"net/http"
	"regexp"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	requestIDKey    = "requestID"
	requestIDHeader = "X-Request-ID"
	loggerKey       = "logger"

	maxQueryLogLength = 2048
)

var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9._\-:]{1,128}$`)

// RequestID attaches (or propagates) a correlation identifier per request.
// Incoming values that are too long or carry unexpected characters are
// replaced so they cannot pollute logs.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if !requestIDPattern.MatchString(rid) {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// RequestIDFrom returns the correlation id of the request, if any.
func RequestIDFrom(c *gin.Context) string {
	if v, ok := c.Get(requestIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return c.Writer.Header().Get(requestIDHeader)
}

// AccessLogOptions configures AccessLog.
type AccessLogOptions struct {
	// MaskHeaders lists extra header names whose values are fully masked, on
	// top of Authorization, Cookie and Set-Cookie.
	MaskHeaders []string
	// LogHeaders includes scrubbed request headers in the access line.
	LogHeaders bool
}

var (
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)[a-z0-9._%+\-]+(@|%40)[a-z0-9.\-]+\.[a-z]{2,}\b`)
	phoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

// Redact scrubs identifiers from s. UUIDs go first so the phone pattern never
// sees their digit groups.
func Redact(s string) string {
	if s == "" {
		return s
	}
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

// AccessLog returns the request logging middleware. Level follows the
// outcome: error for 5xx or gin errors, warn for 4xx, info otherwise.
func AccessLog(opts AccessLogOptions) gin.HandlerFunc {
	mask := map[string]struct{}{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			mask[h] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := routeOf(c)

		lc := log.With().
			Str("request_id", RequestIDFrom(c)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("remote_ip", c.ClientIP())
		if id := c.Param("id"); id != "" && strings.Contains(path, "/forms/") {
			lc = lc.Str("form_id", id)
		}
		l := lc.Logger()
		c.Set(loggerKey, &l)

		c.Next()

		ev := l.Info()
		status := c.Writer.Status()
		switch {
		case len(c.Errors) > 0:
			ev = l.Error().Str("errors", c.Errors.String())
		case status >= http.StatusInternalServerError:
			ev = l.Error()
		case status >= http.StatusBadRequest:
			ev = l.Warn()
		}

		ev = ev.
			Str("query", truncate(Redact(c.Request.URL.RawQuery), maxQueryLogLength)).
			Str("user_agent", c.Request.UserAgent()).
			Int64("bytes_in", c.Request.ContentLength).
			Int("status", status).
			Int("bytes_out", c.Writer.Size()).
			Dur("latency", time.Since(start))

		if opts.LogHeaders {
			headers := make(map[string]string, len(c.Request.Header))
			for k, vv := range c.Request.Header {
				if _, ok := mask[strings.ToLower(k)]; ok {
					headers[k] = "[REDACTED]"
					continue
				}
				headers[k] = Redact(strings.Join(vv, ", "))
			}
			ev = ev.Interface("headers", headers)
		}
		ev.Msg("http_request")
	}
}

// Recovery intercepts panics, logs the stack, and answers with a JSON 500.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			rid := RequestIDFrom(c)
			LoggerFrom(c).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")

			if c.Writer.Written() {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			c.Header(requestIDHeader, rid)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"request_id": rid,
				"code":       "internal_error",
				"message":    "internal server error",
			})
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped logger, or the global logger when
// AccessLog did not run.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

func routeOf(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return c.Request.URL.Path
}

// truncate caps s at max bytes and appends an ellipsis. max <= 0 disables it.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
