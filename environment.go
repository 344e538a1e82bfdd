package fmtlang

// paramsKey is the environment slot the driver installs/replaces once
// per pass, per spec.md §3's Environment definition.
const paramsKey = "params"

// templatesKey is excluded when seeding the root environment: it's
// consumed by the driver (the list of template/output/passes entries),
// never by the template language itself (spec.md §3).
const templatesKey = "templates"

// PrepareEnvironment converts a decoded document tree into the root
// environment Value (spec.md §4.C): every top-level key of root is
// recursively converted, except "templates". Matches
// original_source/src/main.cpp's `Fmt::prepare_data(pass, document
// .start())` call site.
func PrepareEnvironment(root DocNode) Value {
	obj := map[string]*Value{}
	if root.Kind() == DocObject {
		for k, v := range root.Object() {
			if k == templatesKey {
				continue
			}
			val := fromDocNode(v)
			obj[k] = &val
		}
	}
	return ObjectValue(obj)
}

// PreparePass installs (or replaces) the "params" key of env with the
// conversion of decoded, per spec.md §4.C. Replacing an existing
// "params" drops the old nested containers entirely — env.Object is
// mutated in place, so a stale reference obtained before this call
// never observes the new params (and vice versa), matching spec.md
// §8's "fresh object has only the new keys" test.
func PreparePass(env Value, decoded DocNode) {
	if env.Kind != KindObject {
		return
	}
	val := fromDocNode(decoded)
	env.Object[paramsKey] = &val
}

// fromDocNode recursively maps a decoded document node to a Value,
// per spec.md §4.C: bool/int/string/array/object map to the matching
// Value variant. Other decoded variants aren't expected at this layer.
func fromDocNode(n DocNode) Value {
	switch n.Kind() {
	case DocBool:
		return BoolValue(n.Bool())
	case DocInt64:
		return Int64Value(n.Int64())
	case DocString:
		return StringValue(n.String())
	case DocArray:
		src := n.Array()
		out := make([]Value, len(src))
		for i, e := range src {
			out[i] = fromDocNode(e)
		}
		return ArrayValue(out)
	case DocObject:
		src := n.Object()
		out := make(map[string]*Value, len(src))
		for k, v := range src {
			val := fromDocNode(v)
			out[k] = &val
		}
		return ObjectValue(out)
	default:
		return None()
	}
}
