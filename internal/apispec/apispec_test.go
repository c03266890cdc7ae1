package apispec

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []Operation{
		{Method: http.MethodGet, Path: "/", ID: "getGreeting"},
		{Method: http.MethodGet, Path: "/api/message", ID: "getMessage"},
		{Method: http.MethodGet, Path: "/health", ID: "getHealth"},
	}, c.Operations())
	assert.NotEmpty(t, Document())
}

func TestLoadFromData_Invalid(t *testing.T) {
	_, err := LoadFromData([]byte("openapi: 3.0.3\ninfo: {}\n"))
	assert.Error(t, err)

	_, err = LoadFromData([]byte("not: [valid"))
	assert.Error(t, err)
}

func TestValidateResponse(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	tests := []struct {
		name    string
		method  string
		path    string
		status  int
		body    string
		wantErr error
		invalid bool
	}{
		{
			name:   "greeting",
			method: http.MethodGet, path: "/", status: 200,
			body: `{"message":"Hello World from Backend!","timestamp":"2024-01-01T00:00:00.000Z","server":"Go net/http","version":"1.0.0"}`,
		},
		{
			name:   "greeting via HEAD",
			method: http.MethodHead, path: "/", status: 200,
			body: `{"message":"hi","timestamp":"2024-01-01T00:00:00.000Z","server":"s","version":"v"}`,
		},
		{
			name:   "greeting missing version",
			method: http.MethodGet, path: "/", status: 200,
			body:    `{"message":"hi","timestamp":"2024-01-01T00:00:00.000Z","server":"s"}`,
			invalid: true,
		},
		{
			name:   "health",
			method: http.MethodGet, path: "/health", status: 200,
			body: `{"status":"UP","uptime":12.5,"timestamp":"2024-01-01T00:00:00.123Z"}`,
		},
		{
			name:   "health with wrong status value",
			method: http.MethodGet, path: "/health", status: 200,
			body:    `{"status":"DOWN","uptime":1,"timestamp":"2024-01-01T00:00:00.123Z"}`,
			invalid: true,
		},
		{
			name:   "health timestamp without millis",
			method: http.MethodGet, path: "/health", status: 200,
			body:    `{"status":"UP","uptime":1,"timestamp":"2024-01-01T00:00:00Z"}`,
			invalid: true,
		},
		{
			name:   "message",
			method: http.MethodGet, path: "/api/message", status: 200,
			body: `{"message":"This is a message from the backend API!","data":{"environment":"development","runtime_version":"go1.24"}}`,
		},
		{
			name:   "legacy message",
			method: http.MethodGet, path: "/api/message", status: 200,
			body: `{"message":"m","data":{"environment":"production","node_version":"v18.0.0"}}`,
		},
		{
			name:   "fault",
			method: http.MethodGet, path: "/api/message", status: 500,
			body: `{"error":"Something went wrong!","message":"boom"}`,
		},
		{
			name:   "not found on unknown path",
			method: http.MethodGet, path: "/nope", status: 404,
			body: `{"error":"Route not found","path":"/nope"}`,
		},
		{
			name:   "not found for unknown method",
			method: http.MethodPost, path: "/health", status: 404,
			body: `{"error":"Route not found","path":"/health"}`,
		},
		{
			name:   "unknown path with success",
			method: http.MethodGet, path: "/nope", status: 200,
			body:    `{}`,
			wantErr: ErrUnknownOperation,
		},
		{
			name:   "undeclared status",
			method: http.MethodGet, path: "/health", status: 500,
			body:    `{}`,
			wantErr: ErrUndeclaredStatus,
		},
		{
			name:   "not json",
			method: http.MethodGet, path: "/health", status: 200,
			body:    `<html>`,
			invalid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.ValidateResponse(tt.method, tt.path, tt.status, []byte(tt.body))
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.invalid:
				assert.Error(t, err)
			default:
				assert.NoError(t, err)
			}
		})
	}
}
