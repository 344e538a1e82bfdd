package fmtlang

// errAlreadyReported is a sentinel returned by tag handlers that ran a
// nested renderTokens pass (a TOKEN_LIST emission, a for-loop body, an
// if-branch, an included file): the individual diagnostics were
// already appended to the shared errs slice by that nested pass, so
// the caller should fold the failure into its own ok/error bookkeeping
// without appending a duplicate entry.
type reportedErr struct{}

func (reportedErr) Error() string { return "fmtlang: error already reported" }

var errAlreadyReported error = reportedErr{}

// recover resyncs the cursor to (and past) the tag's FMT_END on a
// best-effort basis after an error, per spec.md §7: "evaluation
// continues past the faulting construct".
func (e *evalCtx) recover() {
	e.skipToFmtEnd()
	if !e.atEOF() {
		e.pos++
	}
}

// evalTag dispatches on the token immediately after FMT_START, per
// spec.md §4.D.2. The var_stack/op_stack snapshot-and-restore
// described there is the varStack mark/restore below (op_stack has no
// ctx-level representation — see eval_cond.go's evalExpression, which
// only needs a local fold, never a returned pointer).
func (e *evalCtx) evalTag(errs *[]error) error {
	mark := e.varStack.mark()
	defer e.varStack.restore(mark)

	tok := e.cur()
	switch tok.Type {
	case TokenFmtEnd:
		e.pos++
		return nil
	case TokenIdentifier:
		return e.evalIdentifierTag(errs)
	case TokenIf:
		return e.evalIfTag(errs)
	case TokenFor:
		e.pos++
		return e.evalForTag(errs)
	case TokenFile:
		e.pos++
		return e.evalFileInclusionTag(errs)
	default:
		err := e.errorAt(UnexpectedToken, tok.Index, "fmt tag can't start with %s", tok.Type)
		e.recover()
		return err
	}
}

// evalIdentifierTag implements the "Identifier (emit or assign)" rule
// of spec.md §4.D.2.
func (e *evalCtx) evalIdentifierTag(errs *[]error) error {
	ptr, err := e.resolveIdentifier()
	if err != nil {
		e.recover()
		return err
	}

	next := e.cur()
	switch next.Type {
	case TokenFmtEnd:
		e.pos++
		return e.emitValue(*ptr, next.Index, errs)

	case TokenColon:
		e.pos++
		if err := e.assignInto(ptr, errs); err != nil {
			e.recover()
			return err
		}
		if e.atEOF() || e.cur().Type != TokenFmtEnd {
			tok := e.cur()
			e.recover()
			return e.errorAt(UnexpectedToken, tok.Index, "expected the end of the tag after an assignment, found %s", tok.Type)
		}
		e.pos++
		return nil

	default:
		e.recover()
		return e.errorAt(UnexpectedToken, next.Index, "expected ':' or the end of the tag after a variable, found %s", next.Type)
	}
}

// emitValue renders v into the output, per spec.md §4.D.2's emit
// rules: scalars format directly, TOKEN_LIST recurses into a
// sub-context over its captured content, NONE/ARRAY/OBJECT are errors.
func (e *evalCtx) emitValue(v Value, atIndex int, errs *[]error) error {
	switch v.Kind {
	case KindNone:
		return e.errorAt(UnknownVariable, atIndex, "variable doesn't exist")
	case KindBool, KindInt64, KindString:
		s, _ := v.FormatScalar()
		e.out.WriteString(s)
		return nil
	case KindTokenList:
		sub := e.subContext(v.Tokens.Content, v.Tokens.Tokens)
		if !renderTokens(sub, errs) {
			return errAlreadyReported
		}
		return nil
	default:
		return e.errorAt(TypeMismatch, atIndex, "%s cannot be formatted", v.TypeName())
	}
}

// assignInto stores one RHS token into *ptr, per spec.md §4.D.2's
// assign rules. The cursor sits on the RHS token on entry and is left
// just past it.
func (e *evalCtx) assignInto(ptr *Value, errs *[]error) error {
	if e.cur().Type == TokenFile {
		e.pos++
		v, err := e.includeFileValue()
		if err != nil {
			return err
		}
		*ptr = v
		return nil
	}
	v, err := e.storeToken()
	if err != nil {
		return err
	}
	*ptr = v
	return nil
}

// readStringOperand consumes one token that must produce a STRING
// value — a literal or an identifier reference — used by both the
// assignment-position and tag-position forms of `file`.
func (e *evalCtx) readStringOperand() (string, error) {
	tok := e.cur()
	switch tok.Type {
	case TokenString:
		e.pos++
		return tok.Str, nil
	case TokenIdentifier:
		ptr, err := e.resolveIdentifier()
		if err != nil {
			return "", err
		}
		if ptr.Kind != KindString {
			return "", e.errorAt(TypeMismatch, tok.Index, "expected a string, found %s", ptr.TypeName())
		}
		return ptr.Str, nil
	default:
		return "", e.errorAt(TypeMismatch, tok.Index, "expected a string, found %s", tok.Type)
	}
}

// includeFileValue consumes a file path operand, consults the cache,
// and wraps the included file as a TOKEN_LIST value without rendering
// it — the `<$ x : file "p" $>` assignment form of spec.md §4.D.2.
func (e *evalCtx) includeFileValue() (Value, error) {
	path, err := e.readStringOperand()
	if err != nil {
		return Value{}, err
	}
	entry := e.cache.get(path)
	if entry.hadError {
		return Value{}, entry.err
	}
	return TokenListVal(entry.tokens, entry.content), nil
}

// evalFileInclusionTag implements the standalone `<$ file "p" $>` tag
// form of spec.md §4.D.2: the included file's tokens are rendered
// straight into the output, not captured for later use.
func (e *evalCtx) evalFileInclusionTag(errs *[]error) error {
	path, err := e.readStringOperand()
	if err != nil {
		e.recover()
		return err
	}
	entry := e.cache.get(path)
	if entry.hadError {
		e.recover()
		return entry.err
	}
	if e.atEOF() || e.cur().Type != TokenFmtEnd {
		tok := e.cur()
		e.recover()
		return e.errorAt(UnexpectedToken, tok.Index, "expected the end of the tag after a file path, found %s", tok.Type)
	}
	e.pos++

	sub := e.subContext(entry.content, entry.tokens)
	if !renderTokens(sub, errs) {
		return errAlreadyReported
	}
	return nil
}

// evalForTag implements the `for <binder> [, <index_binder>] :
// <array-expr> { body }` form of spec.md §4.D.2. The FOR keyword is
// already consumed by evalTag's dispatch.
func (e *evalCtx) evalForTag(errs *[]error) error {
	if e.atEOF() || e.cur().Type != TokenIdentifier {
		tok := e.cur()
		e.recover()
		return e.errorAt(UnexpectedToken, tok.Index, "expected a binder identifier after 'for', found %s", tok.Type)
	}
	binder, err := e.resolveIdentifier()
	if err != nil {
		e.recover()
		return err
	}

	var indexPtr *Value
	if !e.atEOF() && e.cur().Type == TokenComma {
		e.pos++
		if e.atEOF() || e.cur().Type != TokenIdentifier {
			tok := e.cur()
			e.recover()
			return e.errorAt(UnexpectedToken, tok.Index, "expected an index binder identifier after ',', found %s", tok.Type)
		}
		ip, err := e.resolveIdentifier()
		if err != nil {
			e.recover()
			return err
		}
		indexPtr = ip
	}

	if e.atEOF() || e.cur().Type != TokenColon {
		tok := e.cur()
		e.recover()
		return e.errorAt(UnexpectedToken, tok.Index, "expected ':' after for-loop binder(s), found %s", tok.Type)
	}
	e.pos++

	arrTok := e.cur()
	arrPtr, err := e.resolveIdentifier()
	if err != nil {
		e.recover()
		return err
	}
	if arrPtr.Kind != KindArray {
		e.recover()
		return e.errorAt(TypeMismatch, arrTok.Index, "'for' requires an array, found %s", arrPtr.TypeName())
	}

	if e.atEOF() || e.cur().Type != TokenList {
		tok := e.cur()
		e.recover()
		return e.errorAt(UnexpectedToken, tok.Index, "expected a '{ }' body after the for-loop header, found %s", tok.Type)
	}
	bodyTok := e.cur()
	e.pos++

	if e.atEOF() || e.cur().Type != TokenFmtEnd {
		tok := e.cur()
		e.recover()
		return e.errorAt(UnexpectedToken, tok.Index, "expected the end of the tag after the for-loop body, found %s", tok.Type)
	}
	e.pos++

	ok := true
	for i, elem := range arrPtr.Array {
		*binder = elem
		if indexPtr != nil {
			*indexPtr = Int64Value(int64(i))
		}
		sub := e.subContext(e.content, bodyTok.List)
		if !renderTokens(sub, errs) {
			ok = false
		}
	}
	if !ok {
		return errAlreadyReported
	}
	return nil
}
