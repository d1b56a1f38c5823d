package routes

import (
	"encoding/json"
	"net/http"

	"mediaedge/auth"
	"mediaedge/cdn"
	"mediaedge/logger"
	"mediaedge/storage"
	"mediaedge/uploads"
)

// Server carries the dependencies shared by the handlers.
type Server struct {
	Rewriter *cdn.Rewriter
	Images   *cdn.ImagePolicy
	Store    *uploads.Store
	Provider storage.Provider
	Verify   auth.VerifyConfig
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorf("Failed to encode response: %v", err)
	}
}
