package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/matzehuels/cookgems/pkg/errors"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	s.writeJSON(w, httpStatus(code), errorResponse{
		Error:   strings.ToLower(string(code)),
		Message: errors.UserMessage(err),
	})
}

func httpStatus(code errors.Code) int {
	switch {
	case code == errors.ErrCodeNotFound || code == errors.ErrCodeRunNotFound:
		return http.StatusNotFound
	case code.Invalid():
		return http.StatusBadRequest
	case code == errors.ErrCodeNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
