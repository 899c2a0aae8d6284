package harness

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getspecd/specd/pkg/schema"
	"github.com/getspecd/specd/pkg/spec"
)

func TestExpandPath(t *testing.T) {
	tests := []struct {
		name     string
		template string
		params   map[string]string
		want     string
		wantErr  string
	}{
		{"no params", "/api/v1/lap_times", nil, "/api/v1/lap_times", ""},
		{"one param", "/drivers/{id}", map[string]string{"id": "44"}, "/drivers/44", ""},
		{"two params", "/drivers/{d}/laps/{n}", map[string]string{"d": "44", "n": "3"}, "/drivers/44/laps/3", ""},
		{"escaped value", "/teams/{name}", map[string]string{"name": "red bull"}, "/teams/red%20bull", ""},
		{"missing value", "/drivers/{id}", nil, "", `no value for parameter "id"`},
		{"unclosed brace", "/drivers/{id", map[string]string{"id": "44"}, "", "malformed path template"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandPath(tt.template, tt.params)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func echoOp(t *testing.T) *spec.Operation {
	t.Helper()
	op, err := spec.NewOperation("POST", "/echo/{id}").
		PathParam("id", schema.Integer()).
		Body(schema.Object().AllowAdditional(), false).
		Response(200, nil).
		Build()
	require.NoError(t, err)
	return op
}

func TestHTTPExecutor_AgainstServer(t *testing.T) {
	var captured *http.Request
	var capturedBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		captured = req
		_ = json.NewDecoder(req.Body).Decode(&capturedBody)
		w.Header().Set("X-Upstream", "yes")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	ex, err := (&HTTPExecutor{BaseURL: srv.URL}).Do(context.Background(), echoOp(t), &Scenario{
		Name:        "echo",
		PathParams:  map[string]string{"id": "7"},
		QueryParams: map[string]string{"verbose": "true"},
		Headers:     map[string]string{"X-Request-ID": "abc"},
		Body:        map[string]any{"speed": 312},
	})
	require.NoError(t, err)

	assert.Equal(t, "/echo/7", captured.URL.Path)
	assert.Equal(t, "true", captured.URL.Query().Get("verbose"))
	assert.Equal(t, "abc", captured.Header.Get("X-Request-ID"))
	assert.Equal(t, "application/json", captured.Header.Get("Content-Type"))
	assert.Equal(t, float64(312), capturedBody["speed"])

	assert.Equal(t, http.StatusOK, ex.Status)
	assert.JSONEq(t, `{"ok":true}`, string(ex.ResponseBody))
	assert.Equal(t, "yes", ex.Header.Get("X-Upstream"))
	assert.Positive(t, ex.Duration)
}

func TestHTTPExecutor_FormBody(t *testing.T) {
	op, err := spec.NewOperation("POST", "/login").
		Param("username", spec.InFormData, schema.String(), true, "").
		Response(204, nil).
		Build()
	require.NoError(t, err)

	var contentType, username string
	handler := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		contentType = req.Header.Get("Content-Type")
		_ = req.ParseForm()
		username = req.PostFormValue("username")
		w.WriteHeader(http.StatusNoContent)
	})

	ex, err := (&HTTPExecutor{Handler: handler}).Do(context.Background(), op, &Scenario{
		Name:       "login",
		FormParams: map[string]string{"username": "max"},
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusNoContent, ex.Status)
	assert.Equal(t, "application/x-www-form-urlencoded", contentType)
	assert.Equal(t, "max", username)
}
