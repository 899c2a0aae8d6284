package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/getspecd/specd/pkg/document"
	"github.com/getspecd/specd/pkg/harness"
	"github.com/getspecd/specd/pkg/spec"
	"github.com/getspecd/specd/pkg/specfile"
)

// DefaultOutput is where the compiled document lands when -o is not given.
const DefaultOutput = "openapi.yaml"

func newRunCmd() *cobra.Command {
	var (
		specs    []string
		out      string
		baseURL  string
		failFast bool
		tags     []string
		workers  int
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run all declared scenarios and compile the specification document",
		Long: `Run every scenario declared in the contract files against the live
application, validate each real exchange against the declared schemas, and
compile the consolidated OpenAPI document.

The document is written even when scenarios fail: documentation generation
and contract verification are independent outcomes. The exit code reflects
the contract report.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runContract(cmd, runOptions{
				specs:    specs,
				out:      out,
				baseURL:  baseURL,
				failFast: failFast,
				tags:     tags,
				workers:  workers,
				timeout:  timeout,
			})
		},
	}

	cmd.Flags().StringSliceVarP(&specs, "spec", "f", nil, "Contract file path (repeatable)")
	cmd.Flags().StringVarP(&out, "out", "o", DefaultOutput, "Output path for the compiled document")
	cmd.Flags().StringVar(&baseURL, "base-url", "http://localhost:8080", "Base URL of the application under test")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "Cancel not-yet-started scenarios after the first failure")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Run only scenarios carrying one of these tags")
	cmd.Flags().IntVar(&workers, "workers", 4, "Scenario parallelism")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "Overall run timeout")
	_ = cmd.MarkFlagRequired("spec")
	return cmd
}

type runOptions struct {
	specs    []string
	out      string
	baseURL  string
	failFast bool
	tags     []string
	workers  int
	timeout  time.Duration
}

func runContract(cmd *cobra.Command, opts runOptions) error {
	logger := loggerFrom(cmd)

	reg, scenarios, err := specfile.Load(opts.specs)
	if err != nil {
		return fatal(err)
	}
	if err := reg.Freeze(); err != nil {
		return fatal(err)
	}

	runner := &harness.Runner{
		Registry: reg,
		Executor: &harness.HTTPExecutor{BaseURL: strings.TrimRight(opts.baseURL, "/")},
		Logger:   logger,
		Workers:  opts.workers,
		FailFast: opts.failFast,
		Tags:     opts.tags,
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	report, err := runner.Run(ctx, scenarios)
	if err != nil {
		return fatal(err)
	}
	for _, v := range report.Verdicts {
		fmt.Fprintln(cmd.OutOrStdout(), v.Summary())
		for _, violation := range v.Violations {
			fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", violation.Error())
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d passed, %d failed, %d skipped\n",
		report.Passed, report.Failed, report.Skipped)

	// Compile and write the document regardless of the contract outcome.
	if err := compileTo(reg, opts.out); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", opts.out)

	if !report.Ok() {
		return &ExitError{
			Code: ExitFail,
			Err:  fmt.Errorf("%d of %d scenario(s) failed", report.Failed, report.Failed+report.Passed),
		}
	}
	return nil
}

// compileTo compiles the frozen registry, lints the result, and writes it
// to path. JSON output is selected by the .json extension, YAML otherwise.
func compileTo(reg *spec.Registry, path string) error {
	doc, err := document.Compile(reg)
	if err != nil {
		return fatal(err)
	}

	var data []byte
	if filepath.Ext(path) == ".json" {
		data, err = doc.ToJSON()
	} else {
		data, err = doc.ToYAML()
	}
	if err != nil {
		return fatal(err)
	}
	if err := document.Lint(data); err != nil {
		return fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fatal(err)
	}
	return nil
}
