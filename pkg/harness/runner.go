package harness

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/getspecd/specd/internal/id"
	"github.com/getspecd/specd/pkg/logging"
	"github.com/getspecd/specd/pkg/schema"
	"github.com/getspecd/specd/pkg/spec"
	"github.com/getspecd/specd/pkg/validate"
)

// UndocumentedStatusError reports a response status the contract does not
// document. It is always fatal to its scenario.
type UndocumentedStatusError struct {
	Operation  string
	Status     int
	Documented []int
}

func (e *UndocumentedStatusError) Error() string {
	return fmt.Sprintf("%s returned undocumented status %d (documented: %v)", e.Operation, e.Status, e.Documented)
}

// Runner executes scenarios against a frozen registry and aggregates
// verdicts into a report.
type Runner struct {
	Registry *spec.Registry
	Executor Executor
	Logger   *slog.Logger

	// Workers bounds scenario parallelism. Defaults to 4.
	Workers int

	// FailFast cancels not-yet-started scenarios after the first failed
	// verdict. In-flight scenarios always finish and report.
	FailFast bool

	// Tags, when non-empty, restricts the run to scenarios carrying at
	// least one of the tags.
	Tags []string
}

// Report aggregates the verdicts of one run.
type Report struct {
	RunID    string        `json:"runId" yaml:"runId"`
	Verdicts []*Verdict    `json:"verdicts" yaml:"verdicts"`
	Passed   int           `json:"passed" yaml:"passed"`
	Failed   int           `json:"failed" yaml:"failed"`
	Skipped  int           `json:"skipped" yaml:"skipped"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Ok reports whether every executed scenario passed.
func (r *Report) Ok() bool { return r.Failed == 0 }

// Run executes the scenarios and returns the aggregated report. The
// registry must be frozen. ctx bounds the whole run; fail-fast
// cancellation never interrupts an in-flight scenario.
func (r *Runner) Run(ctx context.Context, scenarios []*Scenario) (*Report, error) {
	if !r.Registry.Frozen() {
		return nil, fmt.Errorf("registry must be frozen before scenarios run")
	}

	logger := r.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	selected := r.filter(scenarios)
	report := &Report{
		RunID:   id.Run(),
		Skipped: len(scenarios) - len(selected),
	}
	logger = logger.With("run_id", report.RunID)
	logger.Info("contract run starting",
		"scenarios", len(selected), "skipped", report.Skipped, "fail_fast", r.FailFast)

	workers := r.Workers
	if workers <= 0 {
		workers = 4
	}
	if workers > len(selected) {
		workers = len(selected)
	}

	gate, stop := context.WithCancel(context.Background())
	defer stop()

	jobs := make(chan *Scenario)
	results := make(chan *Verdict)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sc := range jobs {
				// ctx, not gate: fail-fast must not abort work
				// already started.
				results <- r.execute(ctx, sc, logger)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, sc := range selected {
			select {
			case <-gate.Done():
				return
			case <-ctx.Done():
				return
			case jobs <- sc:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	start := time.Now()
	for v := range results {
		report.Verdicts = append(report.Verdicts, v)
		if v.Passed() {
			report.Passed++
		} else {
			report.Failed++
			if r.FailFast {
				stop()
			}
		}
	}
	report.Duration = time.Since(start)
	report.Skipped = len(scenarios) - len(report.Verdicts)

	sort.Slice(report.Verdicts, func(i, j int) bool {
		return report.Verdicts[i].Scenario < report.Verdicts[j].Scenario
	})

	logger.Info("contract run finished",
		"passed", report.Passed, "failed", report.Failed, "skipped", report.Skipped,
		"duration", report.Duration.Round(time.Millisecond))
	return report, nil
}

func (r *Runner) filter(scenarios []*Scenario) []*Scenario {
	if len(r.Tags) == 0 {
		return scenarios
	}
	var out []*Scenario
	for _, sc := range scenarios {
		for _, tag := range r.Tags {
			if sc.HasTag(tag) {
				out = append(out, sc)
				break
			}
		}
	}
	return out
}

// execute walks one scenario through its state machine and returns the
// terminal verdict. The state machine instance is private to this call.
func (r *Runner) execute(ctx context.Context, sc *Scenario, logger *slog.Logger) *Verdict {
	verdict := &Verdict{
		Scenario:    sc.Name,
		ExecutionID: id.Short(),
		Operation:   spec.OperationKey(sc.Method, sc.Path),
		State:       StateDefined,
	}
	log := logger.With("scenario", sc.Name, "execution_id", verdict.ExecutionID)

	op, ok := r.Registry.Lookup(sc.Method, sc.Path)
	if !ok {
		verdict.State = StateFailed
		verdict.Err = fmt.Errorf("no operation registered for %s", verdict.Operation)
		log.Error("scenario failed", "error", verdict.Err)
		return verdict
	}

	start := time.Now()
	exchange, err := r.Executor.Do(ctx, op, sc)
	if err != nil {
		verdict.State = StateFailed
		verdict.Err = err
		verdict.Duration = time.Since(start)
		log.Error("scenario execution failed", "error", err)
		return verdict
	}
	verdict.State = StateExecuted
	verdict.Status = exchange.Status
	verdict.Duration = exchange.Duration

	result := r.validateExchange(op, sc, exchange)
	verdict.State = StateValidated
	verdict.Violations = result.Errors

	if result.Valid {
		verdict.State = StatePassed
		log.Debug("scenario passed", "status", exchange.Status)
	} else {
		verdict.State = StateFailed
		log.Warn("scenario failed", "status", exchange.Status, "violations", len(result.Errors))
	}
	return verdict
}

// validateExchange checks the captured exchange against the operation's
// declared parameter schemas and the response schema registered for the
// returned status. All violations accumulate into one result.
func (r *Runner) validateExchange(op *spec.Operation, sc *Scenario, ex *Exchange) *validate.Result {
	resolver := r.Registry.Resolver()
	result := validate.NewResult()

	paramSources := []struct {
		in       spec.Location
		location string
		values   map[string]string
	}{
		{spec.InPath, validate.LocationPath, sc.PathParams},
		{spec.InQuery, validate.LocationQuery, sc.QueryParams},
		{spec.InHeader, validate.LocationHeader, sc.Headers},
		{spec.InFormData, validate.LocationForm, sc.FormParams},
	}
	for _, src := range paramSources {
		for _, p := range op.ParamsIn(src.in) {
			raw, present := src.values[p.Name]
			if !present {
				if p.Required {
					result.Add(&validate.FieldError{
						Field:    p.Name,
						Location: src.location,
						Code:     validate.CodeRequired,
						Message:  fmt.Sprintf("required parameter %q is missing", p.Name),
						Expected: "present",
					})
				}
				continue
			}
			result.Merge(validate.ParamValue(p.Schema, p.Name, raw, src.location, resolver))
		}
	}

	result.Merge(r.validateRequestBody(op, ex))
	result.Merge(r.validateResponse(op, sc, ex, resolver))
	return result
}

func (r *Runner) validateRequestBody(op *spec.Operation, ex *Exchange) *validate.Result {
	result := validate.NewResult()
	if op.RequestBody == nil && op.RawRequestSchema == nil {
		return result
	}

	if len(ex.RequestBody) == 0 {
		if op.RequestBodyRequired {
			result.Add(&validate.FieldError{
				Location: validate.LocationBody,
				Code:     validate.CodeRequired,
				Message:  "request body is required",
				Expected: "present",
			})
		}
		return result
	}

	var body any
	if err := unmarshalJSON(ex.RequestBody, &body); err != nil {
		result.Add(&validate.FieldError{
			Location: validate.LocationBody,
			Code:     validate.CodeInvalidJSON,
			Message:  fmt.Sprintf("request body is not valid JSON: %v", err),
		})
		return result
	}

	if op.RawRequestSchema != nil {
		result.Merge(validate.NewRawValidator(op.RawRequestSchema).Validate(body, validate.LocationBody))
		return result
	}
	result.Merge(validate.ValueAt(op.RequestBody, body, r.Registry.Resolver(), "", validate.LocationBody))
	return result
}

func (r *Runner) validateResponse(op *spec.Operation, sc *Scenario, ex *Exchange, resolver *schema.Resolver) *validate.Result {
	result := validate.NewResult()

	if sc.ExpectStatus != 0 && ex.Status != sc.ExpectStatus {
		result.Add(&validate.FieldError{
			Location: validate.LocationResponse,
			Code:     validate.CodeStatus,
			Message:  fmt.Sprintf("expected status %d, got %d", sc.ExpectStatus, ex.Status),
			Expected: fmt.Sprintf("status %d", sc.ExpectStatus),
			Received: ex.Status,
		})
	}

	respSchema, documented := op.ResponseFor(ex.Status)
	if !documented {
		err := &UndocumentedStatusError{
			Operation:  op.Key(),
			Status:     ex.Status,
			Documented: op.DocumentedStatuses(),
		}
		result.Add(&validate.FieldError{
			Location: validate.LocationResponse,
			Code:     validate.CodeUndocumentedStatus,
			Message:  err.Error(),
			Received: ex.Status,
		})
		return result
	}
	if respSchema == nil {
		// Documented as bodyless.
		return result
	}

	var body any
	if err := unmarshalJSON(ex.ResponseBody, &body); err != nil {
		result.Add(&validate.FieldError{
			Location: validate.LocationResponse,
			Code:     validate.CodeInvalidJSON,
			Message:  fmt.Sprintf("response body is not valid JSON: %v", err),
		})
		return result
	}
	result.Merge(validate.ValueAt(respSchema, body, resolver, "", validate.LocationResponse))
	return result
}

func unmarshalJSON(data []byte, v *any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
