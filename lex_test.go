package fmtlang

import "testing"

func TestLexRoundTripLiteral(t *testing.T) {
	content := "just some plain text, no tags here\nat all."
	tokens, err := Lex(content)
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	if len(tokens) != 1 {
		t.Fatalf("got %d tokens, want 1: %v", len(tokens), tokens)
	}
	if tokens[0].Type != TokenRawString || tokens[0].Str != content {
		t.Fatalf("got %v, want RAW_STRING %q", tokens[0], content)
	}
}

func TestLexTagDelimitation(t *testing.T) {
	tokens, err := Lex("A<$ x $>B")
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	want := []TokenType{TokenRawString, TokenFmtStart, TokenIdentifier, TokenFmtEnd, TokenRawString}
	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(tokens), len(want), tokens)
	}
	for i, ty := range want {
		if tokens[i].Type != ty {
			t.Errorf("token %d: got %s, want %s", i, tokens[i].Type, ty)
		}
	}
	if tokens[0].Str != "A" || tokens[4].Str != "B" {
		t.Errorf("raw string spans wrong: %q / %q", tokens[0].Str, tokens[4].Str)
	}
	if tokens[2].Str != "x" {
		t.Errorf("identifier span wrong: %q", tokens[2].Str)
	}
}

func TestLexEscapedTagStartIsNotATag(t *testing.T) {
	tokens, err := Lex(`\<$not a tag$>`)
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	if len(tokens) != 1 || tokens[0].Type != TokenRawString {
		t.Fatalf("got %v, want a single RAW_STRING", tokens)
	}
	if tokens[0].Str != `\<$not a tag$>` {
		t.Errorf("got %q", tokens[0].Str)
	}
}

func TestLexKeywordRetyping(t *testing.T) {
	cases := []struct {
		word string
		want TokenType
	}{
		{"if", TokenIf},
		{"for", TokenFor},
		{"file", TokenFile},
		{"else", TokenElse},
		{"true", TokenBoolean},
		{"false", TokenBoolean},
		{"iff", TokenIdentifier},
		{"IF", TokenIdentifier},
		{"else_", TokenIdentifier},
	}
	for _, c := range cases {
		t.Run(c.word, func(t *testing.T) {
			tokens, err := Lex("<$ " + c.word + " $>")
			if err != nil {
				t.Fatalf("Lex: %v", err)
			}
			if len(tokens) != 3 {
				t.Fatalf("got %d tokens, want 3: %v", len(tokens), tokens)
			}
			if tokens[1].Type != c.want {
				t.Errorf("%q: got %s, want %s", c.word, tokens[1].Type, c.want)
			}
		})
	}
}

func TestLexBooleanPayload(t *testing.T) {
	tokens, err := Lex("<$ true $>")
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	if !tokens[1].Bool {
		t.Errorf("true literal: Bool field is false")
	}
	tokens, err = Lex("<$ false $>")
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	if tokens[1].Bool {
		t.Errorf("false literal: Bool field is true")
	}
}

func TestLexNumber(t *testing.T) {
	tokens, err := Lex("<$ -42 $>")
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	if tokens[1].Type != TokenInteger || tokens[1].Int != -42 {
		t.Fatalf("got %v, want INTEGER(-42)", tokens[1])
	}

	tokens, err = Lex("<$ 1-2 $>")
	if err == nil {
		t.Fatalf("expected an error lexing 1-2, got none: %v", tokens)
	}
	want := []TokenType{TokenFmtStart, TokenInteger, TokenInteger, TokenFmtEnd}
	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens, want %d (best-effort recovery past the stray '-'): %v", len(tokens), len(want), tokens)
	}
	for i, ty := range want {
		if tokens[i].Type != ty {
			t.Errorf("token %d: got %s, want %s", i, tokens[i].Type, ty)
		}
	}
	if tokens[1].Int != 1 {
		t.Errorf("first integer = %d, want 1", tokens[1].Int)
	}
	if tokens[2].Int != -2 {
		t.Errorf("second integer = %d, want -2 (the stray '-' restarts a new number)", tokens[2].Int)
	}
}

func TestLexNumberErrorDoesNotAbortRestOfTemplate(t *testing.T) {
	tokens, err := Lex("<$ 1-2 $>tail")
	if err == nil {
		t.Fatalf("expected an error lexing 1-2, got none: %v", tokens)
	}
	last := tokens[len(tokens)-1]
	if last.Type != TokenRawString || last.Str != "tail" {
		t.Fatalf("expected trailing raw text after the tag to still be tokenized, got %v", tokens)
	}
}

func TestLexStringEscape(t *testing.T) {
	tokens, err := Lex(`<$ "a\"b" $>`)
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	if tokens[1].Type != TokenString {
		t.Fatalf("got %v, want STRING", tokens[1])
	}
	if tokens[1].Str != `a\"b` {
		t.Errorf("got %q, want the backslash preserved verbatim", tokens[1].Str)
	}
}

func TestLexComment(t *testing.T) {
	tokens, err := Lex("<$ // this is ignored $>")
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	want := []TokenType{TokenFmtStart, TokenFmtEnd}
	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(tokens), len(want), tokens)
	}
	for i, ty := range want {
		if tokens[i].Type != ty {
			t.Errorf("token %d: got %s, want %s", i, tokens[i].Type, ty)
		}
	}
}

func TestLexBalancedBraces(t *testing.T) {
	tokens, err := Lex("<$ x : { a <$ y : { b } $> } $>")
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	var list *Token
	for i := range tokens {
		if tokens[i].Type == TokenList {
			list = &tokens[i]
			break
		}
	}
	if list == nil {
		t.Fatalf("no TOKEN_LIST produced: %v", tokens)
	}
	var nested bool
	for _, tok := range list.List {
		if tok.Type == TokenList {
			nested = true
		}
	}
	if !nested {
		t.Errorf("expected a nested TOKEN_LIST inside the outer body: %v", list.List)
	}
}

func TestLexUnterminatedString(t *testing.T) {
	_, err := Lex(`<$ "never closed $>`)
	if err == nil {
		t.Fatalf("expected an UnterminatedTag error")
	}
}

func TestLexInvalidChar(t *testing.T) {
	_, err := Lex("<$ @ $>")
	if err == nil {
		t.Fatalf("expected an InvalidChar error")
	}
}
