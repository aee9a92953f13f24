package types

// Every JSON body the API writes is one of these two shapes, except the
// Stripe webhook acknowledgement.

// SuccessEnvelope wraps a handler result as {"data": ...}.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public part of a failed request. Details only appear for
// codes that allow them; RequestID echoes the X-Request-Id header.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// ErrorEnvelope wraps an APIError as {"error": ...}.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
