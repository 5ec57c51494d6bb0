package handler

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

const maxJWTBody = 4 << 10

type jwtRequest struct {
	SessionName string `json:"sessionName"`
	Role        *int   `json:"role"`
}

type jwtResponse struct {
	Signature string `json:"signature"`
}

// jwt signs a Video SDK token. Role 1 is host, 0 is participant.
func (h *Handler) jwt(w http.ResponseWriter, r *http.Request) {
	var req jwtRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJWTBody)).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionName == "" {
		writeJSONError(w, http.StatusBadRequest, "sessionName required")
		return
	}
	if req.Role == nil || (*req.Role != 0 && *req.Role != 1) {
		writeJSONError(w, http.StatusBadRequest, "role must be 0 or 1")
		return
	}

	sig, err := h.signer.Sign(req.SessionName, *req.Role)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("sign token")
		writeJSONError(w, http.StatusInternalServerError, "could not sign token")
		return
	}
	writeJSON(w, http.StatusOK, jwtResponse{Signature: sig})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
