package common

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteErrorResponse(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	WriteErrorResponse(rr, "participant session not found", http.StatusNotFound)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "participant session not found", body.Error)
}

func TestDecodeJSONBody(t *testing.T) {
	t.Parallel()

	type payload struct {
		Rebake bool `json:"rebake"`
	}

	tests := []struct {
		name    string
		body    string
		want    payload
		wantErr bool
	}{
		{name: "valid", body: `{"rebake":true}`, want: payload{Rebake: true}},
		{name: "unknown field", body: `{"rebake":true,"extra":1}`, wantErr: true},
		{name: "trailing object", body: `{"rebake":true}{"rebake":false}`, wantErr: true},
		{name: "malformed", body: `{"rebake":`, wantErr: true},
		{name: "empty", body: ``, wantErr: true},
		{name: "too large", body: `{"rebake":true,"pad":"` + strings.Repeat("x", MaxRequestBodyBytes) + `"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var got payload
			err := DecodeJSONBody(httptest.NewRecorder(), req, &got)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
