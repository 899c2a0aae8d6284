package specfile

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/getspecd/specd/pkg/harness"
	"github.com/getspecd/specd/pkg/schema"
	"github.com/getspecd/specd/pkg/spec"
)

//go:embed specfile.schema.json
var metaSchemaJSON []byte

var (
	metaOnce   sync.Once
	metaSchema *jsonschema.Schema
	metaErr    error
)

// File is the decoded form of one contract file.
type File struct {
	Info       *spec.Info                    `yaml:"info"`
	Servers    []spec.Server                 `yaml:"servers"`
	Components *Components                   `yaml:"components"`
	Paths      map[string]map[string]*OpDecl `yaml:"paths"`
}

// Components mirrors the components block.
type Components struct {
	Schemas         map[string]*schema.Schema      `yaml:"schemas"`
	SecuritySchemes map[string]spec.SecurityScheme `yaml:"securitySchemes"`
}

// OpDecl is one operation declaration under a path.
type OpDecl struct {
	OperationID string                    `yaml:"operationId"`
	Summary     string                    `yaml:"summary"`
	Description string                    `yaml:"description"`
	Tags        []string                  `yaml:"tags"`
	Parameters  []ParamDecl               `yaml:"parameters"`
	RequestBody *BodyDecl                 `yaml:"requestBody"`
	Responses   map[string]*schema.Schema `yaml:"responses"`
	Scenarios   []ScenarioDecl            `yaml:"scenarios"`
}

// ParamDecl is one parameter declaration.
type ParamDecl struct {
	Name        string         `yaml:"name"`
	In          string         `yaml:"in"`
	Required    bool           `yaml:"required"`
	Description string         `yaml:"description"`
	Schema      *schema.Schema `yaml:"schema"`
}

// BodyDecl is the request body declaration.
type BodyDecl struct {
	Required bool           `yaml:"required"`
	Schema   *schema.Schema `yaml:"schema"`
}

// ScenarioDecl is one example scenario attached to an operation.
type ScenarioDecl struct {
	Name         string            `yaml:"name"`
	Tags         []string          `yaml:"tags"`
	PathParams   map[string]string `yaml:"pathParams"`
	QueryParams  map[string]string `yaml:"queryParams"`
	Headers      map[string]string `yaml:"headers"`
	FormParams   map[string]string `yaml:"formParams"`
	Body         any               `yaml:"body"`
	ExpectStatus int               `yaml:"expectStatus"`
}

// Load reads the given contract files, validates each against the embedded
// meta-schema, and merges them into one registry plus the combined
// scenario list. The returned registry is not frozen.
func Load(paths []string) (*spec.Registry, []*harness.Scenario, error) {
	reg := spec.NewRegistry(spec.Info{})
	var scenarios []*harness.Scenario
	infoSeen := ""

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", path, err)
		}
		file, err := Parse(data)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", path, err)
		}

		if file.Info != nil {
			if infoSeen != "" {
				return nil, nil, fmt.Errorf("%s: info block already declared in %s", path, infoSeen)
			}
			infoSeen = path
			if err := reg.SetInfo(*file.Info); err != nil {
				return nil, nil, err
			}
		}
		for _, srv := range file.Servers {
			if err := reg.AddServer(srv); err != nil {
				return nil, nil, err
			}
		}
		if file.Components != nil {
			for name, s := range file.Components.Schemas {
				if err := reg.RegisterComponent(name, s); err != nil {
					return nil, nil, fmt.Errorf("%s: %w", path, err)
				}
			}
			for name, ss := range file.Components.SecuritySchemes {
				if err := reg.RegisterSecurityScheme(name, ss); err != nil {
					return nil, nil, fmt.Errorf("%s: %w", path, err)
				}
			}
		}

		fileScenarios, err := registerPaths(reg, file)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", path, err)
		}
		scenarios = append(scenarios, fileScenarios...)
	}
	return reg, scenarios, nil
}

// Parse validates one file against the meta-schema and decodes it.
func Parse(data []byte) (*File, error) {
	if err := metaValidate(data); err != nil {
		return nil, err
	}
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &file, nil
}

func registerPaths(reg *spec.Registry, file *File) ([]*harness.Scenario, error) {
	var scenarios []*harness.Scenario
	for path, methods := range file.Paths {
		for method, decl := range methods {
			op, err := buildOperation(method, path, decl)
			if err != nil {
				return nil, err
			}
			if err := reg.Register(op); err != nil {
				return nil, err
			}
			for _, sd := range decl.Scenarios {
				scenarios = append(scenarios, &harness.Scenario{
					Name:         sd.Name,
					Method:       op.Method,
					Path:         op.Path,
					Tags:         sd.Tags,
					PathParams:   sd.PathParams,
					QueryParams:  sd.QueryParams,
					Headers:      sd.Headers,
					FormParams:   sd.FormParams,
					Body:         sd.Body,
					ExpectStatus: sd.ExpectStatus,
				})
			}
		}
	}
	return scenarios, nil
}

func buildOperation(method, path string, decl *OpDecl) (*spec.Operation, error) {
	b := spec.NewOperation(method, path).
		ID(decl.OperationID).
		Summary(decl.Summary).
		Describe(decl.Description).
		Tags(decl.Tags...)

	for _, p := range decl.Parameters {
		required := p.Required
		if spec.Location(p.In) == spec.InPath {
			required = true
		}
		b.Param(p.Name, spec.Location(p.In), p.Schema, required, p.Description)
	}
	if decl.RequestBody != nil {
		b.Body(decl.RequestBody.Schema, decl.RequestBody.Required)
	}
	for code, s := range decl.Responses {
		status, err := strconv.Atoi(code)
		if err != nil {
			return nil, fmt.Errorf("%s %s: response status %q is not a number", method, path, code)
		}
		b.Response(status, s)
	}
	return b.Build()
}

// metaValidate checks the raw YAML against the embedded meta-schema. The
// document is normalized through encoding/json first so the instance uses
// JSON value types.
func metaValidate(data []byte) error {
	metaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("specfile.schema.json", bytes.NewReader(metaSchemaJSON)); err != nil {
			metaErr = err
			return
		}
		metaSchema, metaErr = compiler.Compile("specfile.schema.json")
	})
	if metaErr != nil {
		return fmt.Errorf("meta-schema: %w", metaErr)
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse YAML: %w", err)
	}
	normalized, err := normalize(raw)
	if err != nil {
		return err
	}
	if err := metaSchema.Validate(normalized); err != nil {
		return fmt.Errorf("contract file is malformed: %w", err)
	}
	return nil
}

func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("contract file is not JSON-representable: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
