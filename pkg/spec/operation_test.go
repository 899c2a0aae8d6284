package spec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getspecd/specd/pkg/schema"
)

func TestBuilder(t *testing.T) {
	op, err := NewOperation("get", "/api/v1/lap_times/{id}").
		ID("getLapTime").
		Summary("Fetch one lap time").
		Tags("lap_times").
		PathParam("id", schema.Integer()).
		Query("include_driver", schema.Bool(), false).
		Header("X-Request-ID", schema.String().WithFormat("uuid"), false).
		Response(200, schema.RefTo("LapTime")).
		Response(404, nil).
		Build()
	require.NoError(t, err)

	assert.Equal(t, "GET", op.Method)
	assert.Equal(t, "GET /api/v1/lap_times/{id}", op.Key())
	assert.Equal(t, []int{200, 404}, op.DocumentedStatuses())

	params := op.ParamsIn(InPath)
	require.Len(t, params, 1)
	assert.Equal(t, "id", params[0].Name)
	assert.True(t, params[0].Required)

	_, ok := op.ResponseFor(500)
	assert.False(t, ok)
}

func TestBuilder_Errors(t *testing.T) {
	tests := []struct {
		name    string
		build   func() (*Operation, error)
		wantErr string
	}{
		{
			name: "invalid method",
			build: func() (*Operation, error) {
				return NewOperation("FETCH", "/x").Response(200, nil).Build()
			},
			wantErr: "invalid HTTP method",
		},
		{
			name: "relative path",
			build: func() (*Operation, error) {
				return NewOperation("GET", "x").Response(200, nil).Build()
			},
			wantErr: "must start with /",
		},
		{
			name: "duplicate parameter",
			build: func() (*Operation, error) {
				return NewOperation("GET", "/x").
					Query("q", schema.String(), false).
					Query("q", schema.String(), false).
					Response(200, nil).
					Build()
			},
			wantErr: `duplicate parameter "q"`,
		},
		{
			name: "no responses",
			build: func() (*Operation, error) {
				return NewOperation("GET", "/x").Build()
			},
			wantErr: "no responses declared",
		},
		{
			name: "duplicate response status",
			build: func() (*Operation, error) {
				return NewOperation("GET", "/x").Response(200, nil).Response(200, nil).Build()
			},
			wantErr: "duplicate response for status 200",
		},
		{
			name: "invalid status",
			build: func() (*Operation, error) {
				return NewOperation("GET", "/x").Response(99, nil).Build()
			},
			wantErr: "invalid status code",
		},
		{
			name: "both body forms",
			build: func() (*Operation, error) {
				return NewOperation("POST", "/x").
					Body(schema.Object(), true).
					RawBody([]byte(`{"type":"object"}`), true).
					Response(201, nil).
					Build()
			},
			wantErr: "both schema and raw request body",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMustBuild_Panics(t *testing.T) {
	assert.Panics(t, func() {
		NewOperation("GET", "/x").MustBuild()
	})
}
