package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

// Kind classifies why a dataset could not be produced
type Kind int

const (
	// KindTransient covers network, server and malformed-response failures
	KindTransient Kind = iota
	// KindConfiguration means the API key is missing or rejected
	KindConfiguration
	// KindAccess means the spreadsheet is not readable with the configured key
	KindAccess
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindAccess:
		return "access"
	default:
		return "transient"
	}
}

var (
	// ErrAPIKeyMissing is returned when no usable API key is configured
	ErrAPIKeyMissing = errors.New("API key is not configured")
	// ErrAccessDenied is returned when the spreadsheet refuses the request
	ErrAccessDenied = errors.New("spreadsheet access denied")
	// ErrMalformedResponse is returned when the response cannot be interpreted
	ErrMalformedResponse = errors.New("malformed spreadsheet response")
	// ErrNotConfigured is returned for datasets with no config section
	ErrNotConfigured = errors.New("dataset is not configured")
)

// Error is returned by every Gateway read that cannot produce data
type Error struct {
	Kind    Kind
	Dataset string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Dataset, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Dataset, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or KindTransient when err is not a gateway error
func KindOf(err error) Kind {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}
	return KindTransient
}

// Remediation returns a user-facing hint for err
func Remediation(err error) string {
	switch KindOf(err) {
	case KindConfiguration:
		return "Configure a Google Sheets API key (apiKey in moneyclub_config.yaml or MONEYCLUB_API_KEY)."
	case KindAccess:
		return "Make sure the spreadsheet is shared so that anyone with the link can view it."
	default:
		return "Check your internet connection and try again."
	}
}

// classifyFetchError maps a failed fetch onto a gateway error
func classifyFetchError(dataset string, err error) *Error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusForbidden:
			return &Error{Kind: KindAccess, Dataset: dataset, Message: "access denied", Err: errors.Join(ErrAccessDenied, err)}
		case apiErr.Code == http.StatusBadRequest && isInvalidKey(apiErr):
			return &Error{Kind: KindConfiguration, Dataset: dataset, Message: "API key rejected", Err: err}
		}
		return &Error{Kind: KindTransient, Dataset: dataset, Message: fmt.Sprintf("request failed with status %d", apiErr.Code), Err: err}
	}

	if errors.Is(err, ErrNotConfigured) {
		return &Error{Kind: KindConfiguration, Dataset: dataset, Message: "not configured", Err: err}
	}
	if errors.Is(err, ErrMalformedResponse) {
		return &Error{Kind: KindTransient, Dataset: dataset, Message: "malformed response", Err: err}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTransient, Dataset: dataset, Message: "request interrupted", Err: err}
	}

	return &Error{Kind: KindTransient, Dataset: dataset, Message: "request failed", Err: err}
}

func isInvalidKey(apiErr *googleapi.Error) bool {
	if strings.Contains(apiErr.Message, "API key not valid") {
		return true
	}
	for _, item := range apiErr.Errors {
		if item.Reason == "keyInvalid" {
			return true
		}
	}
	return false
}
