package apiserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"lyceum/internal/storage"
)

// ErrorResponse is the generic error body for API responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSONResponse sends a JSON response with the given status code.
func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already out; nothing useful left to do.
			return
		}
	}
}

// writeJSONError sends a JSON error response.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSONResponse(w, statusCode, ErrorResponse{Error: message})
}

// pathID extracts a uint path variable from the request.
func pathID(r *http.Request, name string) (uint, error) {
	vars := mux.Vars(r)
	return storage.StrToUint(vars[name])
}

// queryInt reads an integer query parameter, falling back to def.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}
