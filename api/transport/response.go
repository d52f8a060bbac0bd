package transport

import "github.com/fastygo/focus/domain"

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Envelope wraps every JSON body written by the API, success or failure.
type Envelope struct {
	Status string      `json:"status"`
	Code   string      `json:"code,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
	Meta   *Meta       `json:"meta,omitempty"`
}

// Meta carries per-request details alongside the payload.
type Meta struct {
	RequestID string `json:"request_id,omitempty"`
}

// NewMeta returns nil for an empty request id so the field is omitted.
func NewMeta(requestID string) *Meta {
	if requestID == "" {
		return nil
	}
	return &Meta{RequestID: requestID}
}

// NewSuccess returns a success envelope.
func NewSuccess(data interface{}, meta *Meta) Envelope {
	return Envelope{Status: statusSuccess, Data: data, Meta: meta}
}

// NewError returns an error envelope. data is optional detail, such as probe results.
func NewError(code string, message string, data interface{}, meta *Meta) Envelope {
	return Envelope{Status: statusError, Code: code, Error: message, Data: data, Meta: meta}
}

// FromError builds the error envelope for err. Internal failures never leak their cause.
func FromError(err error, meta *Meta) Envelope {
	return NewError(string(domain.CodeOf(err)), domain.PublicMessage(err), nil, meta)
}
