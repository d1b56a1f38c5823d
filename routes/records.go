package routes

import (
	"net/http"

	"mediaedge/auth"
	"mediaedge/logger"
)

// UploadQueryHandler returns the record for one upload key.
func (s *Server) UploadQueryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	key := r.URL.Query().Get("key")
	if key == "" {
		http.Error(w, "key parameter required", http.StatusBadRequest)
		return
	}

	record, err := s.Store.Get(key)
	if err != nil {
		logger.Errorf("Failed to query upload %s: %v", key, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if record == nil {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"key":     key,
			"status":  "not_found",
			"message": "No upload record found for this key",
		})
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// UploadListHandler lists all upload records (admin endpoint).
func (s *Server) UploadListHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if _, err := auth.FromRequest(r, s.Verify); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	records, err := s.Store.List()
	if err != nil {
		logger.Errorf("Failed to list upload records: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"uploads": records,
		"count":   len(records),
	})
}
