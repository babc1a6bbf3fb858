package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"i4.energy/across/ntnmodem/at"
	"i4.energy/across/ntnmodem/channel"
	"i4.energy/across/ntnmodem/transport"
)

func newServer(t *testing.T, fake *channel.Fake) *Server {
	t.Helper()
	return &Server{
		Logger:  slog.New(slog.DiscardHandler),
		Gateway: startGateway(t, fake),
	}
}

func TestServerUplink(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		statusCode int
		message    string
	}{
		{
			name:       "Invalid JSON",
			body:       `{"payload":`,
			statusCode: http.StatusBadRequest,
		},
		{
			name:       "Missing payload",
			body:       `{"transport":"nidd"}`,
			statusCode: http.StatusBadRequest,
			message:    "'payload' field is required",
		},
		{
			name:       "Unknown transport",
			body:       `{"payload":"cGluZw==","transport":"sms"}`,
			statusCode: http.StatusBadRequest,
			message:    "'transport' must be nidd or udp",
		},
		{
			name:       "Rejected by network",
			body:       `{"payload":"cGFuZw=="}`,
			statusCode: http.StatusBadGateway,
		},
		{
			name:       "UDP without socket driver",
			body:       `{"payload":"cGluZw==","transport":"udp"}`,
			statusCode: http.StatusNotImplemented,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := connected().On(`AT+CSODCP=1,4,"70616e67"`, channel.Fail(at.ResultError))
			srv := newServer(t, fake)

			req := httptest.NewRequest(http.MethodPost, "/uplink", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)

			require.Equal(t, tt.statusCode, rec.Code)
			var resp struct {
				Message string `json:"message"`
			}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			if tt.message != "" {
				assert.Equal(t, tt.message, resp.Message)
			} else {
				assert.NotEmpty(t, resp.Message)
			}
		})
	}

	t.Run("NIDD uplink", func(t *testing.T) {
		fake := connected().On(`AT+CSODCP=1,4,"70696e67"`, channel.OK())
		srv := newServer(t, fake)

		req := httptest.NewRequest(http.MethodPost, "/uplink", strings.NewReader(`{"payload":"cGluZw=="}`))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"size":4,"transport":"NON_IP","cid":1}`, rec.Body.String())
		assert.Equal(t, 1, fake.Count(`AT+CSODCP=1,4,"70696e67"`))
	})

	t.Run("Wrong method", func(t *testing.T) {
		srv := newServer(t, connected())

		req := httptest.NewRequest(http.MethodGet, "/uplink", nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestServerStatus(t *testing.T) {
	fake := connected()
	fake.Push(`+CRTDCP: 1,5,"68656c6c6f"`)
	srv := newServer(t, fake)
	require.Eventually(t, func() bool {
		return srv.Gateway.Status().Downlinks == 1
	}, time.Second, time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var status Status
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.Equal(t, "generic", status.Variant)
	assert.Equal(t, "HOME", status.Registration)
	assert.Equal(t, 1, status.Downlinks)
	assert.Equal(t, []byte("hello"), status.LastDownlink)
}

func TestUplinkStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: ERROR", transport.ErrSendFailed), http.StatusBadGateway},
		{transport.ErrNoSocketDriver, http.StatusNotImplemented},
		{transport.ErrInvalidEndpoint, http.StatusBadRequest},
		{channel.ErrBusy, http.StatusServiceUnavailable},
		{channel.ErrDisconnected, http.StatusServiceUnavailable},
		{fmt.Errorf("other"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, uplinkStatus(tt.err), tt.err.Error())
	}
}
