package sheetsclient

import "errors"

// ErrUnexpectedResponse is returned when the API answers with a payload that does not match the request
var ErrUnexpectedResponse = errors.New("unexpected sheets response")
