package fmtlang

import "strings"

// varStack is the "ephemeral storage for synthesized values" spec.md
// §3 describes (array-index `.end`, array slices, expression
// temporaries): each entry is independently heap-allocated, so the
// pointers handed back to callers stay valid even while the backing
// slice of the stack itself grows and is reallocated. mark/restore
// implements the "stacks truncated to their pre-tag sizes" lifecycle
// rule from spec.md §3, mirroring original_source/fmt_parser.cpp's
// `ctx.var_stack.size = var_stack_start_size` tag-end reset.
type varStack struct {
	items []*Value
}

func (s *varStack) push(v *Value) *Value {
	s.items = append(s.items, v)
	return v
}

func (s *varStack) mark() int { return len(s.items) }

func (s *varStack) restore(mark int) { s.items = s.items[:mark] }

// evalCtx is the "Parse context" of spec.md §3: current source content
// and tokens, a cursor, the parent Value new identifiers are
// materialized under, and shared references to the synthesized-value
// stack and the file-inclusion cache. Sub-contexts (created for a
// TOKEN_LIST body, a for-loop body, or an included file) share parent,
// varStack, and cache with their creator but get their own
// content/tokens/pos — see subContext.
type evalCtx struct {
	content  string
	tokens   []Token
	pos      int
	parent   *Value
	varStack *varStack
	cache    *FileCache
	out      *strings.Builder
}

func (e *evalCtx) subContext(content string, tokens []Token) *evalCtx {
	return &evalCtx{
		content:  content,
		tokens:   tokens,
		pos:      0,
		parent:   e.parent,
		varStack: e.varStack,
		cache:    e.cache,
		out:      e.out,
	}
}

func (e *evalCtx) errorAt(kind ErrorKind, index int, format string, args ...any) *Error {
	return newError(kind, e.content, index, "eval", format, args...)
}

func (e *evalCtx) atEOF() bool { return e.pos >= len(e.tokens) }

func (e *evalCtx) cur() Token {
	if e.atEOF() {
		return Token{Type: TokenFmtEnd}
	}
	return e.tokens[e.pos]
}

// skipToFmtEnd advances the cursor until it sits on (not past) a
// FMT_END token, for best-effort recovery after an error inside a tag
// (spec.md §7: "evaluation continues past the faulting construct on a
// best-effort basis").
func (e *evalCtx) skipToFmtEnd() {
	for !e.atEOF() && e.cur().Type != TokenFmtEnd {
		e.pos++
	}
}

// Pass pairs one template's token stream with the environment it
// should be rendered against — the unit spec.md §3 calls a "Pass".
type Pass struct {
	Tokens []Token
	Env    Value
}

// Render walks pass.Tokens against pass.Env, appending output to out,
// per spec.md §4.D. It clears out first and ensures a small initial
// capacity. The returned bool is the driver-visible success flag
// (spec.md §6: "render(content, pass, builder) -> bool"); errs
// collects every non-fatal diagnostic raised along the way, in the
// order they were encountered.
func Render(content string, pass *Pass, cache *FileCache, out *strings.Builder) (ok bool, errs []error) {
	out.Reset()
	if out.Cap() == 0 {
		out.Grow(max(16, len(content)/10))
	}

	env := pass.Env
	ctx := &evalCtx{
		content:  content,
		tokens:   pass.Tokens,
		pos:      0,
		parent:   &env,
		varStack: &varStack{},
		cache:    cache,
		out:      out,
	}

	ok = renderTokens(ctx, &errs)
	return ok, errs
}

// renderTokens is spec.md §4.D's top-level dispatch loop, reused by
// every sub-context (TOKEN_LIST emission, for-loop bodies, file
// inclusion): RAW_STRING appends verbatim, FMT_START hands off to the
// tag handler, anything else is an error.
func renderTokens(ctx *evalCtx, errs *[]error) bool {
	ok := true
	for !ctx.atEOF() {
		startPos := ctx.pos
		tok := ctx.cur()
		switch tok.Type {
		case TokenRawString:
			ctx.out.WriteString(tok.Str)
			ctx.pos++

		case TokenFmtStart:
			ctx.pos++
			if err := ctx.evalTag(errs); err != nil {
				ok = false
				if err != errAlreadyReported {
					*errs = append(*errs, err)
				}
			}

		default:
			ok = false
			*errs = append(*errs, ctx.errorAt(UnexpectedToken, tok.Index, "expected a raw string or a fmt tag, found %s", tok.Type))
			ctx.pos++
		}

		if ctx.pos <= startPos {
			// Defensive: never let a malformed token stream stall the
			// cursor. The original C++ implementation doesn't need
			// this because every error path still increments
			// token_index at least once; this is a backstop for the
			// same property.
			ctx.pos = startPos + 1
		}
	}
	return ok
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// lookup resolves name as a member of parent (always an OBJECT Value),
// materializing a NONE entry if absent — spec.md's invariant 3:
// "Identifier lookup never fails silently". The returned pointer is
// the live slot: assigning through it mutates parent's object in
// place.
func lookup(parent *Value, name string) *Value {
	if parent.Object == nil {
		parent.Object = map[string]*Value{}
	}
	if v, ok := parent.Object[name]; ok {
		return v
	}
	v := &Value{Kind: KindNone}
	parent.Object[name] = v
	return v
}

// resolveIdentifier implements spec.md §4.D.1: resolve the identifier
// at the cursor against ctx.parent, then optionally walk a member
// access chain (`.name`, `[i]`, `[a, b]`). The chain terminates
// (without consuming) at the first token that doesn't extend it.
func (e *evalCtx) resolveIdentifier() (*Value, error) {
	tok := e.cur()
	if tok.Type != TokenIdentifier {
		return nil, e.errorAt(UnexpectedToken, tok.Index, "expected an identifier, found %s", tok.Type)
	}
	e.pos++
	cur := lookup(e.parent, tok.Str)

	for !e.atEOF() {
		next := e.cur()
		switch next.Type {
		case TokenDot:
			e.pos++
			switch cur.Kind {
			case KindObject:
				if e.atEOF() || e.cur().Type != TokenIdentifier {
					return nil, e.errorAt(UnexpectedToken, next.Index, "expected a member name after '.'")
				}
				member := e.cur()
				e.pos++
				cur = lookup(cur, member.Str)
			case KindArray:
				if e.atEOF() || e.cur().Type != TokenIdentifier || e.cur().Str != "end" {
					return nil, e.errorAt(TypeMismatch, next.Index, "'.' can only be used after an array for its end")
				}
				e.pos++
				end := Int64Value(int64(len(cur.Array) - 1))
				cur = e.varStack.push(&end)
			default:
				return nil, e.errorAt(TypeMismatch, next.Index, "%s has no members", cur.TypeName())
			}

		case TokenBracketOpen:
			e.pos++
			if cur.Kind != KindArray {
				return nil, e.errorAt(TypeMismatch, next.Index, "%s can't be indexed", cur.TypeName())
			}
			owner := cur
			start, err := e.readIndex()
			if err != nil {
				return nil, err
			}
			if start < 0 || start >= int64(len(owner.Array)) {
				return nil, e.errorAt(OutOfBounds, next.Index, "index %d out of bounds (size %d)", start, len(owner.Array))
			}
			if e.atEOF() {
				return nil, e.errorAt(UnexpectedToken, next.Index, "unterminated array index")
			}
			switch e.cur().Type {
			case TokenComma:
				e.pos++
				end, err := e.readIndex()
				if err != nil {
					return nil, err
				}
				if end < 0 || end >= int64(len(owner.Array)) {
					return nil, e.errorAt(OutOfBounds, next.Index, "index %d out of bounds (size %d)", end, len(owner.Array))
				}
				if start > end {
					return nil, e.errorAt(OutOfBounds, next.Index, "range end must not be less than start (start %d, end %d)", start, end)
				}
				if e.atEOF() || e.cur().Type != TokenBracketClose {
					return nil, e.errorAt(UnexpectedToken, next.Index, "expected ']' after array index range")
				}
				e.pos++
				slice := ArrayValue(owner.Array[start : end+1])
				cur = e.varStack.push(&slice)
			case TokenBracketClose:
				e.pos++
				cur = &owner.Array[start]
			default:
				return nil, e.errorAt(UnexpectedToken, next.Index, "expected ',' or ']' after array index")
			}

		default:
			return cur, nil
		}
	}
	return cur, nil
}

// readIndex reads one array index: an INTEGER literal, or an
// identifier that resolves to an INT64 (spec.md §4.D.1).
func (e *evalCtx) readIndex() (int64, error) {
	tok := e.cur()
	switch tok.Type {
	case TokenInteger:
		e.pos++
		return tok.Int, nil
	case TokenIdentifier:
		ptr, err := e.resolveIdentifier()
		if err != nil {
			return 0, err
		}
		if ptr.Kind != KindInt64 {
			return 0, e.errorAt(TypeMismatch, tok.Index, "expected an integer index, found %s", ptr.TypeName())
		}
		return ptr.Int64, nil
	default:
		return 0, e.errorAt(TypeMismatch, tok.Index, "expected an integer index, found %s", tok.Type)
	}
}

// storeToken consumes the token at the cursor and produces the Value
// it denotes, per spec.md §4.D.2's assignment RHS rule: STRING/
// INTEGER/BOOLEAN literals assign by value, TOKEN_LIST is captured
// together with ctx.content (see TokenListValue's doc comment),
// IDENTIFIER copies the resolved value, and FILE triggers inclusion
// (handled by the caller, since it also needs the file cache).
func (e *evalCtx) storeToken() (Value, error) {
	tok := e.cur()
	switch tok.Type {
	case TokenString:
		e.pos++
		return StringValue(tok.Str), nil
	case TokenInteger:
		e.pos++
		return Int64Value(tok.Int), nil
	case TokenBoolean:
		e.pos++
		return BoolValue(tok.Bool), nil
	case TokenList:
		e.pos++
		return TokenListVal(tok.List, e.content), nil
	case TokenIdentifier:
		ptr, err := e.resolveIdentifier()
		if err != nil {
			return Value{}, err
		}
		return *ptr, nil
	default:
		return Value{}, e.errorAt(UnexpectedToken, tok.Index, "can't use %s as a value here", tok.Type)
	}
}
