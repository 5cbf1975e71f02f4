package websocket

import "fmt"

// EndpointSelector walks an ordered list of candidate WebSocket URLs. The
// cursor advances cyclically when an endpoint rejects us, so the list never
// exhausts.
type EndpointSelector struct {
	urls  []string
	index int
}

// NewEndpointSelector creates a selector over the given candidate URLs
func NewEndpointSelector(urls []string) (*EndpointSelector, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("endpoint list is empty")
	}
	copied := make([]string, len(urls))
	copy(copied, urls)
	return &EndpointSelector{urls: copied}, nil
}

// Current returns the URL currently being attempted
func (s *EndpointSelector) Current() string {
	return s.urls[s.index]
}

// Advance moves to the next candidate, wrapping around, and returns it
func (s *EndpointSelector) Advance() string {
	s.index = (s.index + 1) % len(s.urls)
	return s.urls[s.index]
}

// Endpoints returns a copy of the candidate list
func (s *EndpointSelector) Endpoints() []string {
	copied := make([]string, len(s.urls))
	copy(copied, s.urls)
	return copied
}
