package synth

// Request describes one inbound trap request.
type Request struct {
	// Method is the HTTP verb, e.g. "GET".
	Method string

	// Endpoint is the request path, e.g. "/api/v1/accounts".
	Endpoint string

	// Payload is the request body. Nil means the request had no body, which
	// is distinct from an empty body.
	Payload *string
}

// NewRequest builds a Request. An empty payload is recorded as absent.
func NewRequest(method, endpoint, payload string) Request {
	r := Request{Method: method, Endpoint: endpoint}
	if payload != "" {
		r.Payload = &payload
	}
	return r
}
