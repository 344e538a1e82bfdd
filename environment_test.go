package fmtlang

import "testing"

type fakeDoc struct {
	kind DocKind
	b    bool
	i    int64
	s    string
	arr  []DocNode
	obj  map[string]DocNode
}

func (n *fakeDoc) Kind() DocKind              { return n.kind }
func (n *fakeDoc) Bool() bool                 { return n.b }
func (n *fakeDoc) Int64() int64               { return n.i }
func (n *fakeDoc) String() string             { return n.s }
func (n *fakeDoc) Array() []DocNode           { return n.arr }
func (n *fakeDoc) Object() map[string]DocNode { return n.obj }

func TestPrepareEnvironmentSkipsTemplatesKey(t *testing.T) {
	root := &fakeDoc{kind: DocObject, obj: map[string]DocNode{
		"name":      &fakeDoc{kind: DocString, s: "World"},
		"templates": &fakeDoc{kind: DocArray},
	}}

	env := PrepareEnvironment(root)
	if env.Kind != KindObject {
		t.Fatalf("env.Kind = %s, want OBJECT", env.Kind)
	}
	if _, ok := env.Object["templates"]; ok {
		t.Errorf("templates key should be excluded from the root environment")
	}
	name, ok := env.Object["name"]
	if !ok || name.Kind != KindString || name.Str != "World" {
		t.Errorf("name = %+v, want STRING(World)", name)
	}
}

func TestPreparePassReplacesParamsWithoutLeaking(t *testing.T) {
	env := ObjectValue(map[string]*Value{})

	PreparePass(env, &fakeDoc{kind: DocObject, obj: map[string]DocNode{
		"old": &fakeDoc{kind: DocString, s: "stale"},
	}})
	firstParams := env.Object["params"]
	if _, ok := firstParams.Object["old"]; !ok {
		t.Fatalf("first params should contain 'old'")
	}

	PreparePass(env, &fakeDoc{kind: DocObject, obj: map[string]DocNode{
		"new": &fakeDoc{kind: DocString, s: "fresh"},
	}})
	secondParams := env.Object["params"]
	if _, ok := secondParams.Object["old"]; ok {
		t.Errorf("second params must not still contain 'old': %+v", secondParams.Object)
	}
	if _, ok := secondParams.Object["new"]; !ok {
		t.Errorf("second params should contain 'new'")
	}

	if _, ok := firstParams.Object["old"]; !ok {
		t.Errorf("a reference obtained before the replacement should keep observing the old state")
	}
}
