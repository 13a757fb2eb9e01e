package respond

import (
	"encoding/json"
	"net/url"
)

// Back is the redirect target meaning "the page the request came from".
const Back = "back"

// Outcome is the transport-level response of a handler. It is one of
// Redirect, Page or Envelope.
type Outcome interface {
	outcome()
}

// Flash is a one-request-lived status message attached to a redirect.
type Flash struct {
	Success string `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Empty reports whether no message is set.
func (f Flash) Empty() bool {
	return f.Success == "" && f.Error == ""
}

// Redirect navigates the browser elsewhere, carrying a flash message and,
// on failure, the submitted input and per-field errors.
type Redirect struct {
	Target   string
	Params   map[string]string
	Flash    Flash
	OldInput url.Values
	Errors   map[string]string
}

// Page renders a named template.
type Page struct {
	Template string
	Status   int
	Data     any
}

// Envelope is a JSON response.
type Envelope struct {
	Status int
	Body   Body
}

func (Redirect) outcome() {}
func (Page) outcome()     {}
func (Envelope) outcome() {}

// Body is the flat JSON envelope shared by every data endpoint. A success
// encodes as {success, data, message}; a failure as {success, error,
// message} plus errors when per-field errors exist.
type Body struct {
	Success bool              `json:"success"`
	Data    any               `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

type successBody struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message"`
}

type failureBody struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (b Body) MarshalJSON() ([]byte, error) {
	if b.Success {
		return json.Marshal(successBody{Success: true, Data: b.Data, Message: b.Message})
	}
	return json.Marshal(failureBody{Success: false, Error: b.Error, Message: b.Message, Errors: b.Errors})
}

// Encode returns the JSON encoding of the envelope body.
func (e Envelope) Encode() ([]byte, error) {
	return json.Marshal(e.Body)
}
