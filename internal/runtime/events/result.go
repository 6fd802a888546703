package events

// Result is the outcome sent back for one Event. An empty Message and a nil
// Payload are treated as absent and left out of the encoding, so "" cannot
// be sent as an explicit message.
type Result struct {
	Succeeded        bool   `json:"succeeded"`
	Message          string `json:"message,omitempty"`
	Payload          any    `json:"payload,omitempty"`
	CorrelationToken *int64 `json:"correlation_token,omitempty"`
}

// OK is a successful Result. An empty message is left out of the encoding.
func OK(message string, payload any) Result {
	return Result{Succeeded: true, Message: message, Payload: payload}
}

// Fail is a failed Result carrying message.
func Fail(message string) Result {
	return Result{Succeeded: false, Message: message}
}

// Empty is a successful Result without message or payload.
func Empty() Result {
	return Result{Succeeded: true}
}

// WithPayload returns a copy of r carrying payload.
func (r Result) WithPayload(payload any) Result {
	r.Payload = payload
	return r
}

// WithMessage returns a copy of r carrying message; "" clears it.
func (r Result) WithMessage(message string) Result {
	r.Message = message
	return r
}
