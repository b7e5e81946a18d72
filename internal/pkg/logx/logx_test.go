package logx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnonymizeIP(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"203.0.113.42:5123", "203.0.113.0"},
		{"203.0.113.42", "203.0.113.0"},
		{"127.0.0.1:80", "127.0.0.1"},
		{"[2001:db8:85a3:1:2:3:4:5]:443", "2001:db8:85a3:1::"},
		{"::ffff:192.0.2.9", "192.0.2.0"},
		{"10.1.2.255", "10.1.2.0"},
		{"not-an-ip", "unknown_ip"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, anonymizeIP(tt.in))
		})
	}
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal(line, &m))
		out = append(out, m)
	}
	return out
}

func TestHelpers_WriteFields(t *testing.T) {
	var buf bytes.Buffer
	InitGlobalLoggerTo(&buf, false)

	Error(errors.New("boom"), "delete failed", "key", "a.png")
	Info("odd", "only-key")

	lines := decodeLines(t, &buf)
	require.GreaterOrEqual(t, len(lines), 2)

	assert.Equal(t, "error", lines[0]["level"])
	assert.Equal(t, "boom", lines[0]["error"])
	assert.Equal(t, "a.png", lines[0]["key"])

	// the odd-field warning precedes the info line
	assert.Equal(t, "warn", lines[1]["level"])
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	InitGlobalLoggerTo(&buf, false)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger())
	r.Get("/files/{id}", func(w http.ResponseWriter, r *http.Request) {
		Ctx(r.Context()).Info().Msg("inside")
		w.WriteHeader(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/files/abc", nil)
	req.RemoteAddr = "198.51.100.7:1234"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)

	assert.Equal(t, "inside", lines[0]["message"])
	assert.Equal(t, "http", lines[0]["component"])

	done := lines[1]
	assert.Equal(t, "warn", done["level"])
	assert.Equal(t, float64(http.StatusNotFound), done["status"])
	assert.Equal(t, "198.51.100.0", done["remote_ip"])
	assert.Equal(t, "/files/{id}", done["route"])
	assert.NotEmpty(t, done["request_id"])
}

func TestCtx_FallsBackToGlobal(t *testing.T) {
	var buf bytes.Buffer
	InitGlobalLoggerTo(&buf, false)

	Ctx(context.Background()).Info().Msg("global")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "global", lines[0]["message"])
}
