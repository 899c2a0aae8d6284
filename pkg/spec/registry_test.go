package spec

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getspecd/specd/pkg/schema"
)

func lapTimeCreate() *schema.Schema {
	return schema.Object().
		Prop("driver_id", schema.Integer()).
		Prop("circuit_id", schema.Integer()).
		Prop("time_ms", schema.Integer()).
		Prop("lap_number", schema.Integer()).
		Req("driver_id", "circuit_id", "time_ms", "lap_number")
}

func newLapTimesOp(t *testing.T) *Operation {
	t.Helper()
	op, err := NewOperation("POST", "/api/v1/lap_times").
		Tags("lap_times").
		Body(lapTimeCreate(), true).
		Response(201, schema.RefTo("LapTime")).
		Build()
	require.NoError(t, err)
	return op
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry(Info{Title: "Lap Times API", Version: "1.0.0"})
	require.NoError(t, r.RegisterComponent("LapTime", schema.Object().
		Prop("id", schema.Integer()).
		Prop("driver_id", schema.Integer()).
		Prop("time_ms", schema.Integer()).
		Req("id")))
	return r
}

func TestRegister_Duplicate(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Register(newLapTimesOp(t)))

	err := r.Register(newLapTimesOp(t))
	var dup *DuplicateOperationError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "POST", dup.Method)
	assert.Equal(t, "/api/v1/lap_times", dup.Path)
}

func TestRegister_DistinctMethodsMerge(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Register(newLapTimesOp(t)))

	get, err := NewOperation("GET", "/api/v1/lap_times").
		Response(200, schema.ArrayOf(schema.RefTo("LapTime"))).
		Build()
	require.NoError(t, err)
	require.NoError(t, r.Register(get))

	ops := r.Operations()
	require.Len(t, ops, 2)
	assert.Equal(t, "GET", ops[0].Method)
	assert.Equal(t, "POST", ops[1].Method)
}

func TestRegister_ConcurrentDuplicates(t *testing.T) {
	r := newTestRegistry(t)

	const n = 32
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = r.Register(newLapTimesOp(t))
		}(i)
	}
	wg.Wait()

	var winners, losers int
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		var dup *DuplicateOperationError
		require.ErrorAs(t, err, &dup)
		losers++
	}
	assert.Equal(t, 1, winners)
	assert.Equal(t, n-1, losers)
}

func TestRegisterComponent_Duplicate(t *testing.T) {
	r := newTestRegistry(t)

	err := r.RegisterComponent("LapTime", schema.Object())
	var dup *DuplicateComponentError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "LapTime", dup.Name)
}

func TestFreeze_ClosesRegistry(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Register(newLapTimesOp(t)))
	require.NoError(t, r.Freeze())
	assert.True(t, r.Frozen())
	require.NotNil(t, r.Resolver())

	var closed *RegistryClosedError
	assert.ErrorAs(t, r.Register(newLapTimesOp(t)), &closed)
	assert.ErrorAs(t, r.RegisterComponent("Driver", schema.Object()), &closed)
	assert.ErrorAs(t, r.AddServer(Server{URL: "http://localhost"}), &closed)
	assert.ErrorAs(t, r.SetInfo(Info{}), &closed)

	// Idempotent once succeeded.
	assert.NoError(t, r.Freeze())
}

func TestFreeze_UnresolvedReference(t *testing.T) {
	r := newTestRegistry(t)
	op, err := NewOperation("GET", "/api/v1/drivers").
		Response(200, schema.ArrayOf(schema.RefTo("Driver"))).
		Build()
	require.NoError(t, err)
	require.NoError(t, r.Register(op))

	err = r.Freeze()
	var unresolved *schema.UnresolvedRefError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, schema.RefPrefix+"Driver", unresolved.Ref)
	assert.Contains(t, unresolved.Origin, "GET /api/v1/drivers")
	assert.False(t, r.Frozen(), "failed freeze leaves the registry open")
}

func TestFreeze_CyclicComponents(t *testing.T) {
	r := NewRegistry(Info{Title: "t", Version: "1"})
	require.NoError(t, r.RegisterComponent("A", schema.RefTo("B")))
	require.NoError(t, r.RegisterComponent("B", schema.RefTo("A")))

	err := r.Freeze()
	var cyclic *schema.CyclicRefError
	require.ErrorAs(t, err, &cyclic)
	assert.Contains(t, cyclic.Cycle, "A")
	assert.Contains(t, cyclic.Cycle, "B")
}

func TestFreeze_MalformedSchema(t *testing.T) {
	r := NewRegistry(Info{Title: "t", Version: "1"})
	require.NoError(t, r.RegisterComponent("Bad", schema.Object().Req("ghost")))

	err := r.Freeze()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `component "Bad"`)
}

func TestLookup(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Register(newLapTimesOp(t)))

	op, ok := r.Lookup("post", "/api/v1/lap_times")
	require.True(t, ok)
	assert.Equal(t, "POST", op.Method)

	_, ok = r.Lookup("DELETE", "/api/v1/lap_times")
	assert.False(t, ok)
}
