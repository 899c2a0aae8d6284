package harness

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getspecd/specd/pkg/schema"
	"github.com/getspecd/specd/pkg/spec"
	"github.com/getspecd/specd/pkg/validate"
)

func lapTimesRegistry(t *testing.T) *spec.Registry {
	t.Helper()
	r := spec.NewRegistry(spec.Info{Title: "Lap Times API", Version: "1.0.0"})

	require.NoError(t, r.RegisterComponent("LapTime", schema.Object().
		Prop("id", schema.Integer()).
		Prop("driver_id", schema.Integer()).
		Prop("circuit_id", schema.Integer()).
		Prop("time_ms", schema.Integer()).
		Prop("lap_number", schema.Integer()).
		Req("id", "driver_id", "circuit_id", "time_ms", "lap_number")))

	post, err := spec.NewOperation("POST", "/api/v1/lap_times").
		Tags("lap_times").
		Body(schema.Object().
			Prop("driver_id", schema.Integer()).
			Prop("circuit_id", schema.Integer()).
			Prop("time_ms", schema.Integer()).
			Prop("lap_number", schema.Integer()).
			Req("driver_id", "circuit_id", "time_ms", "lap_number"), true).
		Response(201, schema.RefTo("LapTime")).
		Build()
	require.NoError(t, err)
	require.NoError(t, r.Register(post))

	get, err := spec.NewOperation("GET", "/api/v1/lap_times/{id}").
		Tags("lap_times").
		PathParam("id", schema.Integer()).
		Query("include_splits", schema.Bool(), false).
		Response(200, schema.RefTo("LapTime")).
		Response(404, nil).
		Build()
	require.NoError(t, err)
	require.NoError(t, r.Register(get))

	require.NoError(t, r.Freeze())
	return r
}

// lapTimesApp is the application under test: a minimal in-process
// implementation of the lap times API.
func lapTimesApp() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/lap_times", func(w http.ResponseWriter, req *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(req.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":         42,
			"driver_id":  body["driver_id"],
			"circuit_id": body["circuit_id"],
			"time_ms":    body["time_ms"],
			"lap_number": body["lap_number"],
		})
	})
	mux.HandleFunc("GET /api/v1/lap_times/{id}", func(w http.ResponseWriter, req *http.Request) {
		if req.PathValue("id") != "42" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": 42, "driver_id": 1, "circuit_id": 1, "time_ms": 80000, "lap_number": 1,
		})
	})
	return mux
}

func newRunner(t *testing.T) *Runner {
	t.Helper()
	return &Runner{
		Registry: lapTimesRegistry(t),
		Executor: &HTTPExecutor{Handler: lapTimesApp()},
	}
}

func validCreate() *Scenario {
	return &Scenario{
		Name:   "create lap time",
		Method: "POST",
		Path:   "/api/v1/lap_times",
		Tags:   []string{"lap_times"},
		Body: map[string]any{
			"driver_id": 1, "circuit_id": 1, "time_ms": 80000, "lap_number": 1,
		},
		ExpectStatus: 201,
	}
}

func TestRun_EndToEndPass(t *testing.T) {
	report, err := newRunner(t).Run(context.Background(), []*Scenario{
		validCreate(),
		{
			Name:         "fetch lap time",
			Method:       "GET",
			Path:         "/api/v1/lap_times/{id}",
			PathParams:   map[string]string{"id": "42"},
			QueryParams:  map[string]string{"include_splits": "true"},
			ExpectStatus: 200,
		},
		{
			Name:         "fetch missing lap time",
			Method:       "GET",
			Path:         "/api/v1/lap_times/{id}",
			PathParams:   map[string]string{"id": "7"},
			ExpectStatus: 404,
		},
	})
	require.NoError(t, err)

	assert.True(t, report.Ok())
	assert.Equal(t, 3, report.Passed)
	assert.NotEmpty(t, report.RunID)
	for _, v := range report.Verdicts {
		assert.Equal(t, StatePassed, v.State, v.Summary())
	}
}

func TestRun_MissingRequiredBodyFields(t *testing.T) {
	sc := validCreate()
	sc.Name = "create with missing fields"
	sc.Body = map[string]any{"driver_id": 1}
	sc.ExpectStatus = 0 // app still answers 201; status is documented

	report, err := newRunner(t).Run(context.Background(), []*Scenario{sc})
	require.NoError(t, err)
	require.Equal(t, 1, report.Failed)

	v := report.Verdicts[0]
	assert.Equal(t, StateFailed, v.State)

	var required []string
	for _, violation := range v.Violations {
		if violation.Code == validate.CodeRequired && violation.Location == validate.LocationBody {
			required = append(required, violation.Field)
		}
	}
	assert.ElementsMatch(t, []string{"circuit_id", "time_ms", "lap_number"}, required,
		"one violation per missing required field")
}

func TestRun_UndocumentedStatus(t *testing.T) {
	runner := newRunner(t)
	runner.Executor = &HTTPExecutor{Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})}

	report, err := runner.Run(context.Background(), []*Scenario{validCreate()})
	require.NoError(t, err)
	require.Equal(t, 1, report.Failed)

	v := report.Verdicts[0]
	require.NotEmpty(t, v.Violations)
	var found bool
	for _, violation := range v.Violations {
		if violation.Code == validate.CodeUndocumentedStatus {
			found = true
			assert.Contains(t, violation.Message, "418")
		}
	}
	assert.True(t, found, "undocumented status must be reported")
}

func TestRun_UnknownOperation(t *testing.T) {
	report, err := newRunner(t).Run(context.Background(), []*Scenario{{
		Name: "unregistered", Method: "DELETE", Path: "/api/v1/lap_times",
	}})
	require.NoError(t, err)

	v := report.Verdicts[0]
	assert.Equal(t, StateFailed, v.State)
	require.Error(t, v.Err)
	assert.Contains(t, v.Err.Error(), "no operation registered")
}

func TestRun_MissingRequiredPathParam(t *testing.T) {
	report, err := newRunner(t).Run(context.Background(), []*Scenario{{
		Name:   "fetch without id",
		Method: "GET",
		Path:   "/api/v1/lap_times/{id}",
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	require.Error(t, report.Verdicts[0].Err, "unfilled path template cannot execute")
}

func TestRun_RequiresFrozenRegistry(t *testing.T) {
	runner := newRunner(t)
	runner.Registry = spec.NewRegistry(spec.Info{Title: "t", Version: "1"})

	_, err := runner.Run(context.Background(), []*Scenario{validCreate()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frozen")
}

func TestRun_TagFilter(t *testing.T) {
	runner := newRunner(t)
	runner.Tags = []string{"smoke"}

	smoke := validCreate()
	smoke.Name = "smoke create"
	smoke.Tags = []string{"smoke"}

	report, err := runner.Run(context.Background(), []*Scenario{validCreate(), smoke})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Passed)
	assert.Equal(t, 1, report.Skipped)
	require.Len(t, report.Verdicts, 1)
	assert.Equal(t, "smoke create", report.Verdicts[0].Scenario)
}

func TestRun_FailFastSkipsPending(t *testing.T) {
	var served atomic.Int32
	slowFail := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		served.Add(1)
		time.Sleep(20 * time.Millisecond)
		w.WriteHeader(http.StatusTeapot) // undocumented, every scenario fails
	})

	runner := newRunner(t)
	runner.Executor = &HTTPExecutor{Handler: slowFail}
	runner.FailFast = true
	runner.Workers = 1

	scenarios := make([]*Scenario, 8)
	for i := range scenarios {
		sc := validCreate()
		sc.Name = string(rune('a' + i))
		scenarios[i] = sc
	}

	report, err := runner.Run(context.Background(), scenarios)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, report.Failed, 1)
	assert.Less(t, int(served.Load()), len(scenarios), "fail-fast must stop scheduling new scenarios")
	assert.Equal(t, len(scenarios)-report.Failed, report.Skipped)
}

func TestRun_ParallelScenariosAllReport(t *testing.T) {
	runner := newRunner(t)
	runner.Workers = 8

	scenarios := make([]*Scenario, 24)
	for i := range scenarios {
		sc := validCreate()
		sc.Name = string(rune('a'+i%26)) + string(rune('0'+i/26))
		scenarios[i] = sc
	}

	report, err := runner.Run(context.Background(), scenarios)
	require.NoError(t, err)
	assert.Equal(t, len(scenarios), report.Passed)
	assert.Len(t, report.Verdicts, len(scenarios))
}
