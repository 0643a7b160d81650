// Package header reads client identity from trap requests and sets the
// headers every trap response carries.
//
// The trap usually sits behind a load balancer:
//
//	Attacker <--> Load Balancer <--> Trap
//
// so the socket peer is only used when no forwarding header is present.
package header

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	// ForwardedForHeader carries the originating client chain.
	ForwardedForHeader = "X-Forwarded-For"

	// UnknownUserAgent is recorded when the request has no User-Agent.
	UnknownUserAgent = "Unknown"

	// NoCache forbids any cache from keeping a trap response.
	NoCache = "no-cache, no-store, must-revalidate"
)

// responseHeaders are set on every trap response.
var responseHeaders = map[string]string{
	fiber.HeaderContentType:  fiber.MIMEApplicationJSON,
	fiber.HeaderCacheControl: NoCache,
}

// Handler manages trap request and response headers.
type Handler struct{}

// NewHandler creates a new header Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// ClientIP returns the first X-Forwarded-For entry, or the socket peer
// address when the header is absent or blank.
func (h *Handler) ClientIP(c *fiber.Ctx) string {
	forwarded := c.Get(ForwardedForHeader)
	if first, _, _ := strings.Cut(forwarded, ","); strings.TrimSpace(first) != "" {
		return strings.TrimSpace(first)
	}
	return c.IP()
}

// UserAgent returns the request User-Agent or UnknownUserAgent.
func (h *Handler) UserAgent(c *fiber.Ctx) string {
	if ua := c.Get(fiber.HeaderUserAgent); ua != "" {
		return ua
	}
	return UnknownUserAgent
}

// SetTrapResponseHeaders marks the response as uncacheable JSON.
func (h *Handler) SetTrapResponseHeaders(c *fiber.Ctx) {
	for k, v := range responseHeaders {
		c.Set(k, v)
	}
}
