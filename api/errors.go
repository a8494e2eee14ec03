package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Error is the single error type for backend-reported failures.
// Message is display-ready; callers that need to branch on the HTTP
// status can use errors.As and inspect Status.
type Error struct {
	Status  int
	Message string
}

// Error implements the error interface. It returns the bare message
// so callers can surface it to users unmodified.
func (e *Error) Error() string {
	return e.Message
}

// The backend reports failures as {"detail": ...} where detail is a
// single message or a list of messages. Anything else is classified
// as unknown so a malformed body can never produce a confusing
// message.
type detailKind int

const (
	detailUnknown detailKind = iota
	detailSingle
	detailList
)

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

// classifyDetail tags the detail payload and formats its message.
// Lists are joined with ", ".
func classifyDetail(raw json.RawMessage) (detailKind, string) {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return detailSingle, single
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return detailList, strings.Join(list, ", ")
	}
	return detailUnknown, ""
}

// parseError builds an *Error from a non-2xx response body. When the
// body carries no usable detail the message falls back to the HTTP
// status text, and finally to a generic message for statuses the
// standard library has no name for.
func parseError(status int, body []byte) *Error {
	var message string
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && len(eb.Detail) > 0 {
		if kind, m := classifyDetail(eb.Detail); kind != detailUnknown && m != "" {
			message = m
		}
	}
	if message == "" {
		message = http.StatusText(status)
	}
	if message == "" {
		message = "request failed"
	}
	return &Error{Status: status, Message: message}
}
