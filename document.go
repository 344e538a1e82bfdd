package fmtlang

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/juju/errors"
	yaml "gopkg.in/yaml.v2"
)

// DocKind enumerates the decoded-document variants spec.md §1 names as
// the document decoder's "generic tagged tree": boolean, integer,
// string, array, object. This is the read-only visitor interface the
// core's environment builder consumes (spec.md §6's "Decoded-document
// visitor").
type DocKind int

const (
	DocBool DocKind = iota
	DocInt64
	DocString
	DocArray
	DocObject
)

// DocNode is a single node of the decoded document tree. Callers
// switch on Kind() and call exactly one of Bool/Int64/String/
// Array/Object.
type DocNode interface {
	Kind() DocKind
	Bool() bool
	Int64() int64
	String() string
	Array() []DocNode
	Object() map[string]DocNode
}

// docNode is the concrete DocNode built by both the YAML and JSON
// loaders below, after each has normalized its library's native
// decoded shape (yaml.v2 favors map[interface{}]interface{} and
// already-int64 scalars; encoding/json favors map[string]interface{}
// and float64 scalars) into one representation.
type docNode struct {
	kind DocKind
	b    bool
	i    int64
	s    string
	arr  []DocNode
	obj  map[string]DocNode
}

func (n *docNode) Kind() DocKind              { return n.kind }
func (n *docNode) Bool() bool                 { return n.b }
func (n *docNode) Int64() int64               { return n.i }
func (n *docNode) String() string             { return n.s }
func (n *docNode) Array() []DocNode           { return n.arr }
func (n *docNode) Object() map[string]DocNode { return n.obj }

// LoadYAMLDocument decodes YAML source into a DocNode tree. Grounded on
// original_source/src/main.cpp, which decodes every input file (.json
// or .yaml) through its YAML parser since "the yaml parser can parse
// any valid json string". Here that call is reserved for true YAML
// sources; see LoadJSONDocument for .json files (SPEC_FULL.md §3).
func LoadYAMLDocument(content []byte) (DocNode, error) {
	var raw any
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return nil, errors.Annotate(err, "decoding yaml document")
	}
	return fromYAML(raw), nil
}

// LoadJSONDocument decodes JSON source into the same DocNode shape
// LoadYAMLDocument produces.
func LoadJSONDocument(content []byte) (DocNode, error) {
	var raw any
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, errors.Annotate(err, "decoding json document")
	}
	return fromJSON(raw), nil
}

// LoadDocument decodes content as YAML or JSON based on path's
// extension — SPEC_FULL.md §3's explicit split between the two
// loaders, since no corpus-grounded precedent exists for routing JSON
// through the YAML decoder the way the original program does.
func LoadDocument(path string, content []byte) (DocNode, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return LoadYAMLDocument(content)
	case ".json":
		return LoadJSONDocument(content)
	default:
		return nil, errors.Errorf("unsupported document extension %q (want .yaml, .yml or .json)", ext)
	}
}

// TemplateSpec is one entry of the document's top-level `templates`
// array (SPEC_FULL.md §4.4): the literal template body content, the
// literal output-path template content (itself rendered as a template,
// per pass), and the list of per-pass parameter records to run both
// against. Neither Template nor Output is a file path — both are
// inline template source already present in the decoded document,
// matching main.cpp's `template_data[ref("template")].string()` feeding
// `Fmt::tokenize` directly.
type TemplateSpec struct {
	Template string
	Output   string
	Passes   []DocNode
}

// ExtractTemplates reads root's `templates` array into TemplateSpecs,
// the shape driver.Run iterates. root is otherwise consumed via
// PrepareEnvironment, which skips this same key.
func ExtractTemplates(root DocNode) ([]TemplateSpec, error) {
	if root.Kind() != DocObject {
		return nil, errors.New("document root must be an object")
	}
	node, ok := root.Object()[templatesKey]
	if !ok {
		return nil, errors.Errorf("document has no %q array", templatesKey)
	}
	if node.Kind() != DocArray {
		return nil, errors.Errorf("%q must be an array", templatesKey)
	}

	specs := make([]TemplateSpec, 0, len(node.Array()))
	for i, entry := range node.Array() {
		if entry.Kind() != DocObject {
			return nil, errors.Errorf("templates[%d] must be an object", i)
		}
		obj := entry.Object()

		tmpl, ok := obj["template"]
		if !ok || tmpl.Kind() != DocString {
			return nil, errors.Errorf("templates[%d].template must be a string", i)
		}
		out, ok := obj["output"]
		if !ok || out.Kind() != DocString {
			return nil, errors.Errorf("templates[%d].output must be a string", i)
		}

		var passes []DocNode
		if p, ok := obj["passes"]; ok {
			if p.Kind() != DocArray {
				return nil, errors.Errorf("templates[%d].passes must be an array", i)
			}
			passes = p.Array()
		} else {
			// No explicit passes: render once, with an empty params record.
			passes = []DocNode{&docNode{kind: DocObject, obj: map[string]DocNode{}}}
		}

		specs = append(specs, TemplateSpec{
			Template: tmpl.String(),
			Output:   out.String(),
			Passes:   passes,
		})
	}
	return specs, nil
}

func fromYAML(v any) DocNode {
	switch t := v.(type) {
	case nil:
		return &docNode{kind: DocString, s: ""}
	case bool:
		return &docNode{kind: DocBool, b: t}
	case int:
		return &docNode{kind: DocInt64, i: int64(t)}
	case int64:
		return &docNode{kind: DocInt64, i: t}
	case string:
		return &docNode{kind: DocString, s: t}
	case []any:
		out := make([]DocNode, len(t))
		for i, e := range t {
			out[i] = fromYAML(e)
		}
		return &docNode{kind: DocArray, arr: out}
	case map[any]any:
		out := make(map[string]DocNode, len(t))
		for k, val := range t {
			out[fmt.Sprintf("%v", k)] = fromYAML(val)
		}
		return &docNode{kind: DocObject, obj: out}
	case map[string]any:
		out := make(map[string]DocNode, len(t))
		for k, val := range t {
			out[k] = fromYAML(val)
		}
		return &docNode{kind: DocObject, obj: out}
	default:
		return &docNode{kind: DocString, s: fmt.Sprintf("%v", t)}
	}
}

func fromJSON(v any) DocNode {
	switch t := v.(type) {
	case nil:
		return &docNode{kind: DocString, s: ""}
	case bool:
		return &docNode{kind: DocBool, b: t}
	case float64:
		return &docNode{kind: DocInt64, i: int64(t)}
	case string:
		return &docNode{kind: DocString, s: t}
	case []any:
		out := make([]DocNode, len(t))
		for i, e := range t {
			out[i] = fromJSON(e)
		}
		return &docNode{kind: DocArray, arr: out}
	case map[string]any:
		out := make(map[string]DocNode, len(t))
		for k, val := range t {
			out[k] = fromJSON(val)
		}
		return &docNode{kind: DocObject, obj: out}
	default:
		return &docNode{kind: DocString, s: fmt.Sprintf("%v", t)}
	}
}
