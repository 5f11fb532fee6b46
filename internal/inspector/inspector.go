// Stagewatch - HTTP Security Event Detection and Classification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stagewatch

// Package inspector is the passive detection middleware at the heart of the
// pipeline. It observes each HTTP exchange, runs pattern pre-checks before
// the downstream handler, times the invocation, classifies downstream
// failures, and runs post-checks after — all without ever blocking, mutating,
// or delaying the exchange it watches. A total inspector failure degrades to
// an uninspected request, never a failed one.
package inspector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tomtom215/stagewatch/internal/logging"
	"github.com/tomtom215/stagewatch/internal/metrics"
	"github.com/tomtom215/stagewatch/internal/patterns"
	"github.com/tomtom215/stagewatch/internal/principal"
	"github.com/tomtom215/stagewatch/internal/secerr"
	"github.com/tomtom215/stagewatch/internal/secevent"
)

// Config holds inspector tuning knobs.
type Config struct {
	// SlowRequestThreshold is the elapsed wall-clock time above which a
	// request emits a SlowRequest event.
	SlowRequestThreshold time.Duration `json:"slow_request_threshold"`

	// SensitivePrefixes are path prefixes whose access by an authenticated
	// principal is recorded in the audit trail.
	SensitivePrefixes []string `json:"sensitive_prefixes"`

	// ScanForms enables the form body scanner.
	ScanForms bool `json:"scan_forms"`

	// MaxFormScanBytes caps how much of a form body is buffered for
	// scanning. Larger bodies pass through unscanned.
	MaxFormScanBytes int64 `json:"max_form_scan_bytes"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		SlowRequestThreshold: 10 * time.Second,
		SensitivePrefixes:    []string{"/admin", "/account", "/profile", "/settings", "/api/admin"},
		ScanForms:            true,
		MaxFormScanBytes:     1 << 20, // 1 MiB
	}
}

// Inspector inspects requests and responses and emits security events to a
// sink. Safe for concurrent use: all state is immutable after construction.
type Inspector struct {
	registry *patterns.Registry
	sink     secevent.Sink
	resolver principal.Resolver
	config   *Config
}

// New creates an inspector. A nil registry gets the default pattern set, a
// nil resolver means all requests are anonymous, and a nil sink means events
// are discarded (detection still runs for metrics).
func New(registry *patterns.Registry, sink secevent.Sink, resolver principal.Resolver, config *Config) *Inspector {
	if registry == nil {
		registry = patterns.New()
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.SlowRequestThreshold <= 0 {
		config.SlowRequestThreshold = 10 * time.Second
	}
	if config.MaxFormScanBytes <= 0 {
		config.MaxFormScanBytes = 1 << 20
	}
	return &Inspector{
		registry: registry,
		sink:     sink,
		resolver: resolver,
		config:   config,
	}
}

// Middleware returns the chi-compatible inspection middleware. Per request it
// runs pre-checks, invokes the downstream handler under timing, classifies
// any panic, and runs post-checks. Panics are always re-raised with the
// identical value after classification; the inspector never swallows a
// downstream failure.
func (i *Inspector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		preStart := time.Now()

		rc := secevent.CaptureRequest(r)
		if i.resolver != nil {
			if id, ok := i.resolver.UserID(r); ok {
				rc.UserID = id
			}
		}

		i.preCheck(r, rc)
		if i.config.ScanForms {
			i.scanFormBody(r, rc)
		}

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		overhead := time.Since(preStart)

		invokeStart := time.Now()
		defer func() {
			elapsed := time.Since(invokeStart)
			rec := recover()

			postStart := time.Now()
			if rec != nil {
				i.classifyPanic(r.Context(), rc, rec)
			}
			i.postCheck(r.Context(), rc, sw.status, elapsed)
			metrics.ObserveInspectorOverhead(overhead + time.Since(postStart))

			if rec != nil {
				panic(rec)
			}
		}()

		next.ServeHTTP(sw, r)
	})
}

// preCheck runs URL threat matching and User-Agent classification before the
// downstream handler is invoked. Hits emit events and nothing more: the
// request proceeds regardless.
func (i *Inspector) preCheck(r *http.Request, rc secevent.RequestContext) {
	query := r.URL.RawQuery
	if decoded, err := url.QueryUnescape(query); err == nil {
		query = decoded
	}

	if ok, label := i.registry.MatchURLThreat(r.URL.Path, query); ok {
		target := r.URL.Path
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		i.emit(r.Context(), secevent.New(rc,
			secevent.CategoryMaliciousURLPattern, secevent.SeverityHigh,
			"request URL matched signature "+label, truncate(target, 256)))
	}

	if c := i.registry.ClassifyUserAgent(r.UserAgent(), r.URL.Path); c != nil {
		detail := "request carried no User-Agent header"
		if c.MatchedToken != "" {
			detail = fmt.Sprintf("User-Agent matched token %q", c.MatchedToken)
		}
		i.emit(r.Context(), secevent.New(rc, c.Category, c.Severity, detail, truncate(r.UserAgent(), 256)))
	}
}

// classifyPanic emits a High SecurityException for panic values belonging to
// the security-relevant error set. The caller re-panics with the original
// value either way.
func (i *Inspector) classifyPanic(ctx context.Context, rc secevent.RequestContext, rec any) {
	err, relevant := secerr.ClassifyPanic(rec)
	if !relevant {
		return
	}
	i.emit(ctx, secevent.New(rc,
		secevent.CategorySecurityException, secevent.SeverityHigh,
		"downstream failure classified as security-relevant: "+truncate(err.Error(), 512), ""))
}

// postCheck runs slow-request detection and sensitive-area auditing after the
// downstream handler returns. Guarded by its own recover so a post-check
// fault can never mask the original outcome of the request.
func (i *Inspector) postCheck(ctx context.Context, rc secevent.RequestContext, status int, elapsed time.Duration) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.Error().Interface("panic", rec).Msg("Inspector post-check panic suppressed")
		}
	}()

	// The client may already be gone; post-checks still finish.
	ctx = context.WithoutCancel(ctx)

	if elapsed > i.config.SlowRequestThreshold {
		metrics.RecordSlowRequest()
		i.emit(ctx, secevent.New(rc,
			secevent.CategorySlowRequest, secevent.SeverityMedium,
			fmt.Sprintf("request took %s, threshold %s",
				elapsed.Round(time.Millisecond), i.config.SlowRequestThreshold), ""))
	}

	if rc.UserID == "" {
		return
	}
	area, ok := i.sensitiveArea(rc.Path)
	if !ok {
		return
	}

	metrics.RecordAuditEvent()
	access := &secevent.DataAccess{
		UserID:     rc.UserID,
		Area:       area,
		Path:       rc.Path,
		Method:     rc.Method,
		StatusCode: status,
		ClientIP:   rc.ClientIP,
		Timestamp:  time.Now().UTC(),
	}
	if i.sink == nil {
		return
	}
	if err := i.sink.LogDataAccess(ctx, access); err != nil {
		logging.Warn().Err(err).Str("area", area).Msg("Audit sink rejected data access record")
	}
}

// sensitiveArea returns the configured prefix the path falls under, if any.
// Prefixes match on segment boundaries: /admin covers /admin and /admin/x
// but not /administrator.
func (i *Inspector) sensitiveArea(path string) (string, bool) {
	for _, prefix := range i.config.SensitivePrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return prefix, true
		}
	}
	return "", false
}

// emit delivers an event to the sink, best-effort. Sink faults are logged
// and dropped, never raised into the request path.
func (i *Inspector) emit(ctx context.Context, event *secevent.Event) {
	metrics.RecordSecurityEvent(string(event.Category), string(event.Severity))

	if i.sink == nil {
		return
	}
	if err := i.sink.OnSuspiciousActivity(ctx, event); err != nil {
		logging.Warn().
			Err(err).
			Str("category", string(event.Category)).
			Msg("Security sink rejected event")
	}
}

// statusWriter captures the response status code for post-checks without
// altering what the downstream handler writes.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

// Flush passes through to the underlying writer when it supports streaming.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// truncate bounds attacker-controlled text carried into events.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
