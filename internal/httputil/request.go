package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// maxBodyBytes caps JSON request bodies. Attachments go through the
// multipart path, which has its own limit.
const maxBodyBytes = 1 << 20

// ParseJSON decodes the request body into dest, with a size cap so a
// hostile body cannot exhaust memory.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	return nil
}
