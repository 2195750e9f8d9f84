// Tests the lexer by verifying that a sample NyaC function is tokenized with
// the expected token types, values and positions. The positions were captured
// by hand from the source string.
package frontend

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// scan runs the lexer over src and collects every emitted item up to and
// including EOF or the first error.
func scan(src string) []item {
	l := newLexer(src)
	go l.run()

	items := []item{}
	for {
		t := l.nextItem()
		items = append(items, t)
		if t.typ == itemEOF || t.typ == itemError {
			return items
		}
	}
}

func TestLexer(t *testing.T) {
	src := "fn add(a: i32) -> i32 {\n    return a + 1;\n}\n"

	exp := []item{
		{val: "fn", typ: itemFn, line: 1, pos: 1},
		{val: "add", typ: itemIdentifier, line: 1, pos: 4},
		{val: "(", typ: itemLParen, line: 1, pos: 7},
		{val: "a", typ: itemIdentifier, line: 1, pos: 8},
		{val: ":", typ: itemColon, line: 1, pos: 9},
		{val: "i32", typ: itemIdentifier, line: 1, pos: 11},
		{val: ")", typ: itemRParen, line: 1, pos: 14},
		{val: "->", typ: itemArrow, line: 1, pos: 16},
		{val: "i32", typ: itemIdentifier, line: 1, pos: 19},
		{val: "{", typ: itemLBrace, line: 1, pos: 23},
		{val: "return", typ: itemReturn, line: 2, pos: 5},
		{val: "a", typ: itemIdentifier, line: 2, pos: 12},
		{val: "+", typ: itemPlus, line: 2, pos: 14},
		{val: "1", typ: itemInt, line: 2, pos: 16},
		{val: ";", typ: itemSemicolon, line: 2, pos: 17},
		{val: "}", typ: itemRBrace, line: 3, pos: 1},
	}

	items := scan(src)
	require.Equal(t, itemEOF, items[len(items)-1].typ)
	require.Equal(t, exp, items[:len(items)-1])
}

func TestLexerOperators(t *testing.T) {
	src := "== != <= >= < > = -> - + * / ! . , ; :"
	exp := []itemType{
		itemEq, itemNe, itemLe, itemGe, itemLt, itemGt, itemAssign, itemArrow,
		itemMinus, itemPlus, itemStar, itemSlash, itemNot, itemDot, itemComma,
		itemSemicolon, itemColon,
	}

	items := scan(src)
	require.Len(t, items, len(exp)+1)
	for i, typ := range exp {
		require.Equal(t, typ, items[i].typ, "token %d %q", i, items[i].val)
	}
}

func TestLexerNumbers(t *testing.T) {
	items := scan("3 1000 3.0 1.99 12.")
	types := []itemType{itemInt, itemInt, itemFloat, itemFloat, itemFloat}
	vals := []string{"3", "1000", "3.0", "1.99", "12."}
	require.Len(t, items, len(types)+1)
	for i := range types {
		require.Equal(t, types[i], items[i].typ)
		require.Equal(t, vals[i], items[i].val)
	}
}

func TestLexerIdentifiers(t *testing.T) {
	items := scan("abc s2 under_score forx iffy")
	for i, want := range []string{"abc", "s2", "under_score", "forx", "iffy"} {
		require.Equal(t, itemIdentifier, items[i].typ, items[i].val)
		require.Equal(t, want, items[i].val)
	}
}

func TestLexerKeywords(t *testing.T) {
	items := scan("fn let if else while for return struct")
	exp := []itemType{itemFn, itemLet, itemIf, itemElse, itemWhile, itemFor, itemReturn, itemStruct}
	for i, typ := range exp {
		require.Equal(t, typ, items[i].typ, items[i].val)
	}
}

func TestLexerComments(t *testing.T) {
	items := scan("a // the rest is ignored\nb")
	require.Equal(t, "a", items[0].val)
	require.Equal(t, "b", items[1].val)
	require.Equal(t, 2, items[1].line)
	require.Equal(t, itemEOF, items[2].typ)
}

func TestLexerError(t *testing.T) {
	items := scan("a @ b")
	last := items[len(items)-1]
	require.Equal(t, itemError, last.typ)
	require.Contains(t, last.val, "unexpected character")
	require.Contains(t, last.val, "line 1:")
}
