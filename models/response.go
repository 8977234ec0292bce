package models

import "encoding/json"

// MessageResponse is returned by successful signup and unregister calls.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse carries the detail of a rejected request. Detail is usually
// a string but validation failures may send a structured value.
type ErrorResponse struct {
	Detail json.RawMessage `json:"detail,omitempty"`
}

// Text returns the detail when it is a plain string.
func (e ErrorResponse) Text() string {
	var s string
	if err := json.Unmarshal(e.Detail, &s); err != nil {
		return ""
	}
	return s
}
