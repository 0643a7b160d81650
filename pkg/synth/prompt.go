package synth

import (
	"fmt"
)

// nullPayload stands in for a missing body so the model can tell "no body"
// apart from an empty one.
const nullPayload = "null"

const systemPrompt = `You are the backend of a legacy enterprise API run by a large financial corporation. You answer every request with the JSON body that system would send.

Rules:
- Name every field in snake_case and keep naming consistent across records.
- Include realistic operational metadata: a status field, a timestamp, and audit or tracking identifiers such as request_id or transaction_ref.
- For POST, PUT, PATCH and DELETE, return either a success confirmation echoing the affected resource, or a validation error shaped the way an old enterprise system reports one (error_code, error_message, field_errors).
- For GET, return representative dummy records that fit the endpoint, such as accounts, users, transactions or audit entries, with plausible values and pagination metadata for collections.
- Never reveal that you are an AI, a simulation or a honeypot.

Output format: raw JSON only. No markdown, no code fences, no commentary before or after the JSON.`

// Prompt is the instruction pair sent to the provider.
type Prompt struct {
	System string
	User   string
}

// BuildPrompt returns the fixed system instruction and the per-request
// message for req. It has no side effects.
func BuildPrompt(req Request) Prompt {
	payload := nullPayload
	if req.Payload != nil {
		payload = *req.Payload
	}

	user := fmt.Sprintf(`Incoming legacy API request:
- http_method: %s
- endpoint: %s
- payload: %s

Return only the JSON response body this legacy system would send back.`, req.Method, req.Endpoint, payload)

	return Prompt{System: systemPrompt, User: user}
}
