package fmtlang

// evalIfTag implements the "IF (conditional emission)" rule of
// spec.md §4.D.2: the decision tree yields the token list to execute,
// which is rendered in a sub-context over the current content; the
// tag is then closed at FMT_END.
func (e *evalCtx) evalIfTag(errs *[]error) error {
	execTokens, err := e.decisionTree()
	if err != nil {
		e.recover()
		return err
	}

	var bodyFailed bool
	if len(execTokens) > 0 {
		sub := e.subContext(e.content, execTokens)
		bodyFailed = !renderTokens(sub, errs)
	}

	if e.atEOF() || e.cur().Type != TokenFmtEnd {
		tok := e.cur()
		e.recover()
		return e.errorAt(UnexpectedToken, tok.Index, "expected the end of the tag after 'if', found %s", tok.Type)
	}
	e.pos++

	if bodyFailed {
		return errAlreadyReported
	}
	return nil
}

// decisionTree implements spec.md §4.D.3. It expects the cursor to sit
// on the token that opens this level of the tree — the IF token for
// the initial call, or IF/TOKEN_LIST for a recursive `else` call — and
// consumes it itself, mirroring
// original_source/src/formatter/fmt_parser.cpp's parse_decision_tree.
func (e *evalCtx) decisionTree() ([]Token, error) {
	tok := e.cur()
	e.pos++

	switch tok.Type {
	case TokenList:
		return tok.List, nil

	case TokenIf:
		cond, err := e.evalExpression()
		if err != nil {
			return nil, err
		}
		if e.atEOF() || e.cur().Type != TokenList {
			t := e.cur()
			return nil, e.errorAt(UnexpectedToken, t.Index, "expected a '{ }' body after an if condition, found %s", t.Type)
		}
		bodyTok := e.cur()
		e.pos++

		if cond.Truthy() {
			e.skipToFmtEnd()
			return bodyTok.List, nil
		}

		if e.atEOF() {
			return nil, e.errorAt(UnexpectedToken, bodyTok.Index, "if tag was never closed")
		}
		switch e.cur().Type {
		case TokenElse:
			e.pos++
			return e.decisionTree()
		case TokenFmtEnd:
			return nil, nil
		default:
			t := e.cur()
			return nil, e.errorAt(UnexpectedToken, t.Index, "expected 'else' or the end of the tag, found %s", t.Type)
		}

	default:
		return nil, e.errorAt(UnexpectedToken, tok.Index, "expected 'if' or a '{ }' body, found %s", tok.Type)
	}
}

// evalExpression parses the alternating operand/operator run of
// spec.md §4.D.3 and folds it right-to-left: operators are applied in
// the reverse of the order they were read, each combining the two
// most-recently-produced operands — the uniform-precedence,
// right-associative tie-break the spec requires implementers match
// exactly. The cursor is left sitting on the TOKEN_LIST that closes
// the expression (the then-body), not consumed.
func (e *evalCtx) evalExpression() (Value, error) {
	var vals []Value
	var ops []TokenType

collecting:
	for {
		if e.atEOF() {
			return Value{}, e.errorAt(BadExpression, e.lastIndex(), "if condition was never closed")
		}
		tok := e.cur()
		var v Value
		switch tok.Type {
		case TokenBoolean:
			v = BoolValue(tok.Bool)
			e.pos++
		case TokenInteger:
			v = Int64Value(tok.Int)
			e.pos++
		case TokenString:
			v = StringValue(tok.Str)
			e.pos++
		case TokenIdentifier:
			ptr, err := e.resolveIdentifier()
			if err != nil {
				return Value{}, err
			}
			v = *ptr
		default:
			return Value{}, e.errorAt(BadExpression, tok.Index, "expected a boolean, integer, string or variable in if condition, found %s", tok.Type)
		}
		vals = append(vals, v)

		if e.atEOF() {
			return Value{}, e.errorAt(BadExpression, e.lastIndex(), "if condition was never closed")
		}
		switch e.cur().Type {
		case TokenAnd, TokenOr, TokenEqual:
			ops = append(ops, e.cur().Type)
			e.pos++
		case TokenList:
			break collecting
		default:
			next := e.cur()
			return Value{}, e.errorAt(BadExpression, next.Index, "expected an operator or a '{ }' body after condition, found %s", next.Type)
		}
	}

	if len(vals) != len(ops)+1 {
		return Value{}, e.errorAt(BadExpression, e.cur().Index, "mismatched operand/operator count in if condition (%d operands, %d operators)", len(vals), len(ops))
	}

	for i := len(ops) - 1; i >= 0; i-- {
		v1 := vals[len(vals)-1]
		vals = vals[:len(vals)-1]
		v2 := vals[len(vals)-1]
		vals = vals[:len(vals)-1]
		vals = append(vals, combineOp(v1, v2, ops[i]))
	}
	return vals[0], nil
}

// lastIndex returns a byte index usable for diagnostics when the
// cursor has run off the end of the token stream.
func (e *evalCtx) lastIndex() int {
	if len(e.tokens) == 0 {
		return 0
	}
	return e.tokens[len(e.tokens)-1].Index
}

// combineOp applies one right-to-left fold step, per spec.md §4.D.3:
// `&` is logical and of truthy, `|` is logical or of truthy, `=` is
// Value equality (§3).
func combineOp(v1, v2 Value, op TokenType) Value {
	switch op {
	case TokenAnd:
		return BoolValue(v1.Truthy() && v2.Truthy())
	case TokenOr:
		return BoolValue(v1.Truthy() || v2.Truthy())
	case TokenEqual:
		return BoolValue(v1.Equal(v2))
	default:
		return BoolValue(false)
	}
}
