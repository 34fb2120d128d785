package style

import (
	"encoding/json"
	"net/http"
)

// HandleList - GET /api/styles
func HandleList(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"styles": List(),
	})
}
