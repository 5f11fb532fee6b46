// Stagewatch - HTTP Security Event Detection and Classification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stagewatch

package inspector

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/tomtom215/stagewatch/internal/metrics"
	"github.com/tomtom215/stagewatch/internal/patterns"
	"github.com/tomtom215/stagewatch/internal/secevent"
)

// formMethods are the methods whose bodies are candidates for scanning.
var formMethods = map[string]struct{}{
	http.MethodPost:   {},
	http.MethodPut:    {},
	http.MethodPatch:  {},
	http.MethodDelete: {},
}

// scanFormBody inspects form-encoded request bodies for injection patterns.
// The body is buffered once and restored so the downstream handler reads the
// identical byte stream; the request is never consumed, truncated, or
// reordered by scanning. Bodies over the configured cap are restored
// unscanned.
func (i *Inspector) scanFormBody(r *http.Request, rc secevent.RequestContext) {
	if _, ok := formMethods[r.Method]; !ok {
		return
	}
	if r.Body == nil || r.Body == http.NoBody {
		return
	}

	contentType := r.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return
	}
	if mediaType != "application/x-www-form-urlencoded" && mediaType != "multipart/form-data" {
		return
	}

	// Buffer up to the cap plus one byte so an oversized body is detectable.
	buf, readErr := io.ReadAll(io.LimitReader(r.Body, i.config.MaxFormScanBytes+1))

	// Restore before anything else: the downstream handler must see the
	// original stream whether or not scanning proceeds.
	r.Body = &replayBody{
		Reader: io.MultiReader(bytes.NewReader(buf), r.Body),
		Closer: r.Body,
	}

	if readErr != nil || int64(len(buf)) > i.config.MaxFormScanBytes {
		metrics.RecordBodyScanSkipped()
		return
	}

	var form url.Values
	switch mediaType {
	case "application/x-www-form-urlencoded":
		form, err = url.ParseQuery(string(buf))
		if err != nil {
			metrics.RecordBodyScanSkipped()
			return
		}
	case "multipart/form-data":
		form = parseMultipartValues(r, contentType, buf, i.config.MaxFormScanBytes)
		if form == nil {
			metrics.RecordBodyScanSkipped()
			return
		}
	}

	metrics.RecordBodyScan()
	i.scanFormValues(r, rc, form)
}

// scanFormValues runs every field value through both grammars. Each matched
// field emits one High event per grammar that fired.
func (i *Inspector) scanFormValues(r *http.Request, rc secevent.RequestContext, form url.Values) {
	for field, values := range form {
		for _, value := range values {
			for _, match := range i.registry.MatchBodyThreat(value) {
				category := secevent.CategoryXSSPattern
				if match.Category == patterns.BodyThreatSQLInjection {
					category = secevent.CategorySQLInjectionPattern
				}
				i.emit(r.Context(), secevent.New(rc,
					category, secevent.SeverityHigh,
					fmt.Sprintf("form field %q matched signature %s", field, match.Label),
					truncate(value, 256)))
			}
		}
	}
}

// parseMultipartValues parses multipart form values from the buffered body
// using a shadow request, leaving the real request untouched. File parts are
// ignored; only text values are scanned. Returns nil when the body does not
// parse.
func parseMultipartValues(r *http.Request, contentType string, buf []byte, maxMemory int64) url.Values {
	shadow, err := http.NewRequest(r.Method, r.URL.String(), bytes.NewReader(buf))
	if err != nil {
		return nil
	}
	shadow.Header.Set("Content-Type", contentType)
	if err := shadow.ParseMultipartForm(maxMemory); err != nil {
		return nil
	}
	if shadow.MultipartForm != nil {
		defer shadow.MultipartForm.RemoveAll() //nolint:errcheck // best-effort temp cleanup
	}
	return url.Values(shadow.PostForm)
}

// replayBody prepends buffered bytes to the remaining stream while keeping
// the original closer so connection reuse is unaffected.
type replayBody struct {
	io.Reader
	io.Closer
}
