package mockserver

import (
	"encoding/json"
	"net/http"
)

type Error struct {
	Err string `json:"error"`
}

func (se Error) ToJSON() []byte {
	b, err := json.Marshal(se)
	if err != nil {
		return []byte(`{"error": "marshal error"}`)
	}

	return b
}

func handleError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	w.Write(Error{msg}.ToJSON()) //nolint:errcheck
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		handleError(w, "encode error: "+err.Error(), http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(b) //nolint:errcheck
}
