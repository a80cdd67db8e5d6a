package health

import (
	"encoding/json"
	"net/http"
	"runtime"
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version       string `json:"version"`
	EngineVersion string `json:"engine_version"`
	Commit        string `json:"commit"`
	BuildTime     string `json:"build_time"`
	GoVersion     string `json:"go_version"`
}

// LivenessHandler serves the liveness probe.
func (c *Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, c.Liveness(r.Context()))
	}
}

// ReadinessHandler serves the readiness probe: 200 when ready, 503 when
// any component check fails.
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := c.Readiness(r.Context())
		code := http.StatusOK
		if status.Status != StatusReady {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, r, code, status)
	}
}

// VersionHandler serves info with the Go version filled in.
func VersionHandler(info BuildInfo) http.HandlerFunc {
	info.GoVersion = runtime.Version()
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, info)
	}
}

// Paths holds the endpoint paths.
type Paths struct {
	Liveness  string
	Readiness string
	Version   string
}

// Register mounts the health endpoints on mux for GET and HEAD.
func (c *Checker) Register(mux *http.ServeMux, paths Paths, info BuildInfo) {
	handlers := map[string]http.HandlerFunc{
		paths.Liveness:  c.LivenessHandler(),
		paths.Readiness: c.ReadinessHandler(),
		paths.Version:   VersionHandler(info),
	}
	for path, h := range handlers {
		mux.HandleFunc("GET "+path, h)
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if r.Method != http.MethodHead {
		_ = json.NewEncoder(w).Encode(v)
	}
}
