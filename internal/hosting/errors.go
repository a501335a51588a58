package hosting

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind buckets every failure the pipeline can surface. Retriability is a
// property of the kind: callers own retry policy, the pipeline never retries.
type Kind string

const (
	KindConfig     Kind = "config"
	KindAuth       Kind = "auth"
	KindQuota      Kind = "quota"
	KindNetwork    Kind = "network"
	KindValidation Kind = "validation"
	KindServer     Kind = "server"
)

const quotaMarker = "uploadLimitExceeded"

const quotaRemediation = "the channel has reached its upload limit; wait 24 hours or request a quota increase before uploading again"

// ClassifiedError is the only error type the pipeline returns. Message is
// human-readable; the raw API payload is kept for logs, never for display.
type ClassifiedError struct {
	Kind      Kind
	Message   string
	Retriable bool
	Raw       string
	cause     error
}

func (e *ClassifiedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ClassifiedError) Unwrap() error {
	return e.cause
}

func errConfig(format string, args ...any) *ClassifiedError {
	return &ClassifiedError{Kind: KindConfig, Message: fmt.Sprintf(format, args...)}
}

func errAuth(format string, args ...any) *ClassifiedError {
	return &ClassifiedError{Kind: KindAuth, Message: fmt.Sprintf(format, args...)}
}

func errValidation(format string, args ...any) *ClassifiedError {
	return &ClassifiedError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Classify maps a non-2xx platform or broker response to the taxonomy.
// Order matters: the quota marker wins over the status code, auth codes win
// over generic 4xx, and anything unrecognized stays a retriable server error
// with the raw body preserved.
func Classify(status int, body []byte) *ClassifiedError {
	raw := string(body)

	if strings.Contains(raw, quotaMarker) {
		return &ClassifiedError{Kind: KindQuota, Message: quotaRemediation, Raw: raw}
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &ClassifiedError{Kind: KindAuth, Message: authMessage(status, raw), Raw: raw}
	case status >= 400 && status < 500:
		return &ClassifiedError{Kind: KindValidation, Message: apiMessage(raw, "the request was rejected by the platform"), Raw: raw}
	default:
		return &ClassifiedError{
			Kind:      KindServer,
			Message:   apiMessage(raw, fmt.Sprintf("the platform returned status %d", status)),
			Retriable: true,
			Raw:       raw,
		}
	}
}

// ClassifyTransport maps a failure where the request never produced an HTTP
// response. These are the only errors marked retriable besides 5xx.
func ClassifyTransport(err error) *ClassifiedError {
	return &ClassifiedError{
		Kind:      KindNetwork,
		Message:   "could not reach the hosting platform; check the connection and try again",
		Retriable: true,
		cause:     err,
	}
}

type apiErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Errors  []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

// apiMessage pulls the platform's error.message out of a JSON body, falling
// back to the given text when the body is not in the expected shape. The raw
// body itself is never used as the user-facing message.
func apiMessage(raw, fallback string) string {
	var parsed apiErrorBody
	if err := json.Unmarshal([]byte(raw), &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return fallback
}

func authMessage(status int, raw string) string {
	if status == http.StatusForbidden {
		return apiMessage(raw, "access to the channel was denied; sign in again")
	}
	return apiMessage(raw, "the session is no longer valid; sign in again")
}

// KindOf reports the taxonomy kind of err, or the empty string when err did
// not come out of this pipeline.
func KindOf(err error) Kind {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// IsRetriable reports whether the caller may safely retry the failed
// operation. Unclassified errors are not retriable.
func IsRetriable(err error) bool {
	var ce *ClassifiedError
	return errors.As(err, &ce) && ce.Retriable
}
