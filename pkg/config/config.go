// Package config loads declarative stub collections from YAML or JSON files
// and applies them to a server.
//
// A collection file declares stubs that cannot carry Go callbacks, so dynamic
// bodies are expressed as expr expressions evaluated against the extracted
// request parameters:
//
//	stubs:
//	  - uri: /user/{id}
//	    status: 200
//	    headers:
//	      Content-Type: application/json
//	    bodyExpr: '"{\"id\": \"" + path.id + "\"}"'
//	  - uri: /events
//	    stream: true
//	    delay: 50ms
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"gopkg.in/yaml.v3"

	"github.com/httpstub/httpstub/pkg/protocol"
	"github.com/httpstub/httpstub/pkg/resource"
	"github.com/httpstub/httpstub/pkg/server"
)

// Common errors for collection loading.
var (
	ErrFileNotFound = errors.New("stub collection file not found")
	ErrEmptyFile    = errors.New("stub collection file is empty")
	ErrInvalidYAML  = errors.New("invalid YAML syntax")
	ErrInvalidJSON  = errors.New("invalid JSON syntax")
	ErrInvalidStub  = errors.New("invalid stub definition")
)

// StubCollection is the root of a collection file.
type StubCollection struct {
	Stubs []StubDefinition `json:"stubs" yaml:"stubs"`
}

// StubDefinition declares one resource.
type StubDefinition struct {
	// URI is the pattern declaration, including optional query constraints.
	URI string `json:"uri" yaml:"uri"`

	// Method defaults to GET.
	Method string `json:"method,omitempty" yaml:"method,omitempty"`

	// Status is the numeric status code; defaults to 200.
	Status int `json:"status,omitempty" yaml:"status,omitempty"`

	// Reason overrides the reason phrase, producing a custom status line.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`

	// Headers are emitted on every response.
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`

	// Body is the literal body template ({path.x}/{query.x} substituted).
	Body string `json:"body,omitempty" yaml:"body,omitempty"`

	// BodyExpr is an expr expression computing the body from `path` and
	// `query` maps. Mutually exclusive with Body.
	BodyExpr string `json:"bodyExpr,omitempty" yaml:"bodyExpr,omitempty"`

	// Delay holds a duration string such as "250ms".
	Delay string `json:"delay,omitempty" yaml:"delay,omitempty"`

	// Stream keeps connections open for broadcasting.
	Stream bool `json:"stream,omitempty" yaml:"stream,omitempty"`
}

// LoadFromFile reads a collection from a JSON or YAML file, format detected
// by extension (.yaml/.yml for YAML, JSON otherwise).
func LoadFromFile(path string) (*StubCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("read collection file: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		return ParseYAML(data)
	}
	return ParseJSON(data)
}

// ParseYAML decodes a collection from YAML.
func ParseYAML(data []byte) (*StubCollection, error) {
	var c StubCollection
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	return &c, c.Validate()
}

// ParseJSON decodes a collection from JSON.
func ParseJSON(data []byte) (*StubCollection, error) {
	var c StubCollection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return &c, c.Validate()
}

// Validate checks every stub definition without touching a server.
func (c *StubCollection) Validate() error {
	for i := range c.Stubs {
		if err := c.Stubs[i].validate(); err != nil {
			return fmt.Errorf("stub %d: %w", i, err)
		}
	}
	return nil
}

func (d *StubDefinition) validate() error {
	if d.URI == "" {
		return fmt.Errorf("%w: uri is required", ErrInvalidStub)
	}
	if d.Body != "" && d.BodyExpr != "" {
		return fmt.Errorf("%w: body and bodyExpr are mutually exclusive", ErrInvalidStub)
	}
	if d.Method != "" {
		if _, err := protocol.ParseMethod(d.Method); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidStub, err)
		}
	}
	if d.Status != 0 && d.Reason == "" && !protocol.Status(d.Status).Known() {
		return fmt.Errorf("%w: unknown status code %d (set reason for a custom status)", ErrInvalidStub, d.Status)
	}
	if d.Delay != "" {
		if _, err := time.ParseDuration(d.Delay); err != nil {
			return fmt.Errorf("%w: bad delay %q: %v", ErrInvalidStub, d.Delay, err)
		}
	}
	if d.BodyExpr != "" {
		if _, err := compileBodyExpr(d.BodyExpr); err != nil {
			return err
		}
	}
	return nil
}

// Apply registers every stub of the collection on the server.
func (c *StubCollection) Apply(srv *server.Server) error {
	for i := range c.Stubs {
		if err := c.Stubs[i].apply(srv); err != nil {
			return fmt.Errorf("stub %d: %w", i, err)
		}
	}
	return nil
}

func (d *StubDefinition) apply(srv *server.Server) error {
	if err := d.validate(); err != nil {
		return err
	}

	res, err := srv.CreateResource(d.URI)
	if err != nil {
		return err
	}

	if d.Method != "" {
		m, _ := protocol.ParseMethod(d.Method)
		res.Method(m)
	}
	switch {
	case d.Reason != "":
		code := d.Status
		if code == 0 {
			code = int(protocol.StatusOK)
		}
		res.CustomStatus(code, d.Reason)
	case d.Status != 0:
		res.Status(protocol.Status(d.Status))
	}
	for name, value := range d.Headers {
		res.Header(name, value)
	}
	if d.Body != "" {
		res.Body(d.Body)
	}
	if d.BodyExpr != "" {
		fn, err := compileBodyExpr(d.BodyExpr)
		if err != nil {
			return err
		}
		res.BodyFn(fn)
	}
	if d.Delay != "" {
		delay, _ := time.ParseDuration(d.Delay)
		res.Delay(delay)
	}
	if d.Stream {
		res.Stream()
	}
	return nil
}

// compileBodyExpr compiles a body expression against the {path, query}
// environment and wraps it as a BodyFunc.
func compileBodyExpr(src string) (resource.BodyFunc, error) {
	program, err := expr.Compile(src, expr.Env(exprEnv(nil, nil)))
	if err != nil {
		return nil, fmt.Errorf("%w: bodyExpr: %v", ErrInvalidStub, err)
	}
	return func(p resource.Params) string {
		out, err := expr.Run(program, exprEnv(p.Path, p.Query))
		if err != nil {
			return ""
		}
		return fmt.Sprint(out)
	}, nil
}

func exprEnv(path, query map[string]string) map[string]any {
	if path == nil {
		path = map[string]string{}
	}
	if query == nil {
		query = map[string]string{}
	}
	return map[string]any{"path": path, "query": query}
}
