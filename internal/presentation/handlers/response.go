package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	jsoniter "github.com/json-iterator/go"

	"github.com/bimakw/wallet-aggregator/internal/application/services"
	"github.com/bimakw/wallet-aggregator/internal/domain/entities"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrorResponse is the body of every non-2xx API response
type ErrorResponse struct {
	Error string             `json:"error"`
	Kind  entities.ErrorKind `json:"kind,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondServiceError maps a service error to a status and a safe message
func respondServiceError(w http.ResponseWriter, err error) {
	status, body := errorStatus(err)
	respondJSON(w, status, body)
}

func errorStatus(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrorResponse{Error: "request timed out"}
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, ErrorResponse{Error: "request cancelled"}
	case errors.Is(err, services.ErrNoMorePages):
		return http.StatusNotFound, ErrorResponse{Error: "no more pages"}
	}

	se, ok := entities.AsSourceError(err)
	if !ok {
		return http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"}
	}

	body := ErrorResponse{Error: se.Message, Kind: se.Kind}
	switch se.Kind {
	case entities.ValidationError:
		return http.StatusBadRequest, body
	case entities.ConfigError:
		return http.StatusServiceUnavailable, body
	case entities.NetworkError:
		if se.Timeout {
			return http.StatusGatewayTimeout, body
		}
		return http.StatusBadGateway, body
	default:
		return http.StatusBadGateway, body
	}
}

// parsePage reads a 1-based page number, defaulting to 1
func parsePage(r *http.Request) (int, bool) {
	v := r.URL.Query().Get("page")
	if v == "" {
		return 1, true
	}
	page, err := strconv.Atoi(v)
	if err != nil || page < 1 {
		return 0, false
	}
	return page, true
}
