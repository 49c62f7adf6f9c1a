package mockfile

import "strings"

// Header is a single name/value pair. Descriptors carry ordered header
// lists rather than maps so repeated headers and original order survive the
// transport boundary.
type Header struct {
	Name  string
	Value string
}

// Request is the incoming-request descriptor the core consumes. It is
// supplied by the transport layer; the core never reads sockets itself.
type Request struct {
	Method  string
	Path    string
	Query   string // raw query string, without the leading '?'
	Headers []Header
	Body    []byte
}

// HeaderValues returns all values of the named header, case-insensitively.
func (r *Request) HeaderValues(name string) []string {
	var vals []string
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			vals = append(vals, h.Value)
		}
	}
	return vals
}

// Response is the outgoing-response descriptor the core produces, handed to
// the transport layer for writing.
type Response struct {
	Status  int
	Headers []Header
	Body    []byte
}
