package engine

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/textmock/textmock/internal/registry"
	"github.com/textmock/textmock/internal/render"
	"github.com/textmock/textmock/pkg/logging"
	"github.com/textmock/textmock/pkg/mockfile"
)

// MaxRequestBodySize caps how much of a request body is read for matching
// so oversized uploads can't exhaust memory.
const MaxRequestBodySize = 10 << 20 // 10MB

// HealthPath is the reserved liveness endpoint, always served regardless
// of the loaded mocks.
const HealthPath = "/__textmock/health"

// Handler serves mock responses over net/http. It holds no per-request
// state beyond the shared Holder, so a single Handler is safe for
// concurrent use.
type Handler struct {
	holder   *registry.Holder
	builtins render.Builtins
	log      *slog.Logger
	onMiss   func()
}

// NewHandler creates a Handler serving whatever registry the holder
// currently publishes.
func NewHandler(holder *registry.Holder) *Handler {
	return &Handler{
		holder:   holder,
		builtins: render.Default(),
		log:      logging.Nop(),
	}
}

// SetLogger sets the operational logger for render failures.
func (h *Handler) SetLogger(log *slog.Logger) {
	if log != nil {
		h.log = log
	}
}

// OnNoMatch registers a callback invoked whenever no definition matches a
// request. A mock that responds with a 404 of its own is a match, not a
// miss, so status codes cannot stand in for this signal.
func (h *Handler) OnNoMatch(fn func()) {
	h.onMiss = fn
}

// RegisterBuiltin adds a dynamic placeholder value available to response
// templates served by this handler.
func (h *Handler) RegisterBuiltin(name string, fn func() string) {
	h.builtins.Register(name, fn)
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == HealthPath {
		h.serveHealth(w)
		return
	}

	req, err := descriptorFromHTTP(r)
	if err != nil {
		http.Error(w, "request body too large or unreadable", http.StatusBadRequest)
		return
	}

	resp, err := Handle(h.holder.Get(), req, h.builtins)
	if err != nil {
		// Render errors indicate a core bug; surface them loudly.
		h.log.Error("render failed", "method", req.Method, "path", req.Path, "error", err)
		http.Error(w, "internal error rendering mock response", http.StatusInternalServerError)
		return
	}
	if resp == nil {
		if h.onMiss != nil {
			h.onMiss()
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, "no mock matched %s %s\n", req.Method, req.Path)
		return
	}

	for _, hdr := range resp.Headers {
		w.Header().Add(hdr.Name, hdr.Value)
	}
	w.WriteHeader(resp.Status)
	if len(resp.Body) > 0 {
		_, _ = w.Write(resp.Body)
	}
}

func (h *Handler) serveHealth(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"ok","definitions":%d}`+"\n", h.holder.Get().Len())
}

// descriptorFromHTTP adapts a net/http request to the core's descriptor.
// The body is read up front (capped) because matching may need it for
// JSONPath asserts.
func descriptorFromHTTP(r *http.Request) (*mockfile.Request, error) {
	var body []byte
	if r.Body != nil {
		var err error
		body, err = io.ReadAll(io.LimitReader(r.Body, MaxRequestBodySize))
		if err != nil {
			return nil, err
		}
	}

	var headers []mockfile.Header
	for name, values := range r.Header {
		for _, v := range values {
			headers = append(headers, mockfile.Header{Name: name, Value: v})
		}
	}

	return &mockfile.Request{
		Method:  r.Method,
		Path:    r.URL.Path,
		Query:   r.URL.RawQuery,
		Headers: headers,
		Body:    body,
	}, nil
}
