package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"i4.energy/across/ntnmodem/channel"
	"i4.energy/across/ntnmodem/modem"
	"i4.energy/across/ntnmodem/transport"
)

// Server handles incoming HTTP requests for interacting with the
// modem session
type Server struct {
	Logger  *slog.Logger
	Gateway *Gateway
}

// ServeHTTP implements the http.Handler interface for the Server struct
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /uplink", s.handleUplink)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.ServeHTTP(w, r)
}

func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	if message == "" {
		w.WriteHeader(statusCode)
		return
	}

	type ErrorResponse struct {
		Message string `json:"message"`
	}
	resp := ErrorResponse{Message: message}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) sendJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

// handleUplink processes incoming HTTP POST requests to send a payload.
// The payload is base64 encoded; transport is "nidd" (default) or "udp".
func (s *Server) handleUplink(w http.ResponseWriter, r *http.Request) {
	type UplinkRequest struct {
		Payload   []byte `json:"payload"`
		Transport string `json:"transport"`
	}

	var req UplinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Payload) == 0 {
		s.sendError(w, "'payload' field is required", http.StatusBadRequest)
		return
	}

	var udp bool
	switch strings.ToLower(req.Transport) {
	case "", "nidd":
	case "udp":
		udp = true
	default:
		s.sendError(w, "'transport' must be nidd or udp", http.StatusBadRequest)
		return
	}

	msg, err := s.Gateway.Send(r.Context(), Uplink{Payload: req.Payload, UDP: udp})
	if err != nil {
		s.Logger.Error("Failed to send uplink", "error", err, "size", len(req.Payload), "udp", udp)
		s.sendError(w, err.Error(), uplinkStatus(err))
		return
	}

	type UplinkResponse struct {
		Size      int    `json:"size"`
		Transport string `json:"transport"`
		Cid       int    `json:"cid"`
		Server    string `json:"server,omitempty"`
		Port      int    `json:"port,omitempty"`
	}
	s.Logger.Info("Uplink sent successfully", "size", msg.Size, "transport", msg.Transport)
	s.sendJSON(w, UplinkResponse{
		Size:      msg.Size,
		Transport: msg.Transport.String(),
		Cid:       msg.Cid,
		Server:    msg.Server,
		Port:      msg.Port,
	})
}

func uplinkStatus(err error) int {
	switch {
	case errors.Is(err, transport.ErrSendFailed):
		return http.StatusBadGateway
	case errors.Is(err, transport.ErrNoSocketDriver), errors.Is(err, modem.ErrUnsupported):
		return http.StatusNotImplemented
	case errors.Is(err, transport.ErrInvalidEndpoint), errors.Is(err, modem.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, channel.ErrBusy), errors.Is(err, channel.ErrDisconnected):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// handleStatus reports registration and signal state.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, s.Gateway.Status())
}
