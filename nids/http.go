package nids

// Error-response rendering here is adapted from the teacher's
// daemon/http.go: a small response wrapper plus a JSON-body convenience
// constructor, independent of any particular backend client.

import (
	"encoding/json"
	"net/http"

	"github.com/golang/gddo/httputil/header"
	"github.com/gorilla/mux"

	"github.com/alonsoveliz1/layton/capture"
	"github.com/alonsoveliz1/layton/printer"
)

// HTTPResponse is a pre-serialized response body plus status code.
type HTTPResponse struct {
	StatusCode int
	Body       []byte
}

func (r HTTPResponse) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(r.StatusCode)
	w.Write(r.Body)
}

// NewHTTPResponse JSON-encodes body. A marshal failure degrades to a bare
// 500 rather than panicking the handler.
func NewHTTPResponse(status int, body interface{}) HTTPResponse {
	if body == nil {
		return HTTPResponse{StatusCode: status}
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		printer.Errorf("failed to serialize HTTP response body: %v\n", err)
		return HTTPResponse{StatusCode: http.StatusInternalServerError}
	}
	return HTTPResponse{StatusCode: status, Body: encoded}
}

// NewHTTPError builds a JSON error response.
func NewHTTPError(err error, status int, message string) HTTPResponse {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	return NewHTTPResponse(status, struct {
		Message string `json:"message,omitempty"`
		Detail  string `json:"detail,omitempty"`
	}{Message: message, Detail: detail})
}

type httpHandlerFunc func(*http.Request) HTTPResponse

func asHandler(f httpHandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f(r).Write(w)
	})
}

// Router builds the pipeline's HTTP control and observability surface:
// GET /devices, GET /devices/{name}, POST /start, POST /stop, GET /stats,
// GET /metrics.
func (p *Pipeline) Router() *mux.Router {
	r := mux.NewRouter().StrictSlash(true)

	r.Handle("/devices", asHandler(p.handleListDevices)).Methods(http.MethodGet)
	r.Handle("/devices/{name}", asHandler(p.handleDeviceInfo)).Methods(http.MethodGet)
	r.Handle("/start", asHandler(p.handleStart)).Methods(http.MethodPost)
	r.Handle("/stop", asHandler(p.handleStop)).Methods(http.MethodPost)
	r.Handle("/stats", asHandler(p.handleStats)).Methods(http.MethodGet)
	r.Handle("/metrics", p.metricsHandler()).Methods(http.MethodGet)

	return r
}

func (p *Pipeline) handleListDevices(_ *http.Request) HTTPResponse {
	devices, err := capture.ListDevices()
	if err != nil {
		return NewHTTPError(err, http.StatusInternalServerError, "failed to list capture interfaces")
	}
	return NewHTTPResponse(http.StatusOK, devices)
}

func (p *Pipeline) handleDeviceInfo(r *http.Request) HTTPResponse {
	name := mux.Vars(r)["name"]
	device, err := capture.DeviceInfo(name)
	if err != nil {
		return NewHTTPError(err, http.StatusNotFound, "interface not found")
	}
	return NewHTTPResponse(http.StatusOK, device)
}

// startRequest is the optional JSON body for POST /start, used instead
// of the ?interface= query parameter when the caller sends one.
type startRequest struct {
	Interface string `json:"interface"`
}

func (p *Pipeline) handleStart(r *http.Request) HTTPResponse {
	iface := r.URL.Query().Get("interface")

	if iface == "" && r.Body != nil && r.ContentLength != 0 {
		contentType, _ := header.ParseValueAndParams(r.Header, "Content-Type")
		if contentType != "" && contentType != "application/json" {
			return NewHTTPError(nil, http.StatusUnsupportedMediaType, "expected application/json body or ?interface= query parameter")
		}
		var body startRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return NewHTTPError(err, http.StatusBadRequest, "failed to decode request body")
		}
		iface = body.Interface
	}

	if iface == "" {
		return NewHTTPError(nil, http.StatusBadRequest, "missing required \"interface\" (query parameter or JSON body field)")
	}
	if err := p.Start(r.Context(), iface); err != nil {
		return NewHTTPError(err, http.StatusInternalServerError, "failed to start pipeline")
	}
	return NewHTTPResponse(http.StatusOK, struct {
		RunID string `json:"run_id"`
	}{RunID: p.RunID()})
}

func (p *Pipeline) handleStop(_ *http.Request) HTTPResponse {
	p.Stop()
	return NewHTTPResponse(http.StatusOK, struct {
		Stopped bool `json:"stopped"`
	}{Stopped: true})
}

func (p *Pipeline) handleStats(_ *http.Request) HTTPResponse {
	return NewHTTPResponse(http.StatusOK, p.Stats())
}
