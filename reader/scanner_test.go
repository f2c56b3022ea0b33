package reader

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"gopkg.in/yaml.v2"

	"github.com/prismmonkey/jsontext/token"
)

// collectTokens reads r to completion, rendering each token through
// Token.String for compact comparison.
func collectTokens(r *Reader) ([]string, error) {
	var out []string
	for {
		ok, err := r.Read()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, r.Token().String())
	}
}

func TestTokenStreams(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		tokens []string
	}{
		{
			name:  "object with array",
			input: `{"a":1,"b":[true,null]}`,
			tokens: []string{
				"StartObject",
				"PropertyName(a)",
				"Integer(1)",
				"PropertyName(b)",
				"StartArray",
				"Boolean(true)",
				"Null",
				"EndArray",
				"EndObject",
			},
		},
		{
			name:  "unquoted names, single quotes, hex",
			input: `{a:'x\n',b:0xFF}`,
			tokens: []string{
				"StartObject",
				"PropertyName(a)",
				"String(x\n)",
				"PropertyName(b)",
				"Integer(255)",
				"EndObject",
			},
		},
		{
			name:  "non-finite and scientific floats",
			input: `[NaN,-Infinity,1.5e2]`,
			tokens: []string{
				"StartArray",
				"Float(NaN)",
				"Float(-Inf)",
				"Float(150)",
				"EndArray",
			},
		},
		{
			name:  "constructor",
			input: `new Date(1234567890123)`,
			tokens: []string{
				"StartConstructor(Date)",
				"Integer(1234567890123)",
				"EndConstructor",
			},
		},
		{
			name:  "comments and elided values",
			input: `[/*c*/ 1 ,, 2]`,
			tokens: []string{
				"StartArray",
				"Comment(c)",
				"Integer(1)",
				"Undefined",
				"Integer(2)",
				"EndArray",
			},
		},
		{
			name:   "empty object",
			input:  `{}`,
			tokens: []string{"StartObject", "EndObject"},
		},
		{
			name:   "empty array",
			input:  `[]`,
			tokens: []string{"StartArray", "EndArray"},
		},
		{
			name:   "top level scalar",
			input:  `42`,
			tokens: []string{"Integer(42)"},
		},
		{
			name:   "octal",
			input:  `[0123]`,
			tokens: []string{"StartArray", "Integer(83)", "EndArray"},
		},
		{
			name:   "octal accepts eight and nine",
			input:  `[089]`,
			tokens: []string{"StartArray", "Integer(73)", "EndArray"},
		},
		{
			name:   "undefined literal",
			input:  `[undefined]`,
			tokens: []string{"StartArray", "Undefined", "EndArray"},
		},
		{
			name:   "leading point float",
			input:  `[.5]`,
			tokens: []string{"StartArray", "Float(0.5)", "EndArray"},
		},
		{
			name:   "negative number",
			input:  `[-12,-0.25]`,
			tokens: []string{"StartArray", "Integer(-12)", "Float(-0.25)", "EndArray"},
		},
		{
			name:   "nested containers",
			input:  `{"a":{"b":[{"c":[]}]}}`,
			tokens: []string{"StartObject", "PropertyName(a)", "StartObject", "PropertyName(b)", "StartArray", "StartObject", "PropertyName(c)", "StartArray", "EndArray", "EndObject", "EndArray", "EndObject", "EndObject"},
		},
		{
			name:   "constructor with several arguments",
			input:  `new Thing(1, "x", true)`,
			tokens: []string{"StartConstructor(Thing)", "Integer(1)", "String(x)", "Boolean(true)", "EndConstructor"},
		},
		{
			name:   "trailing comment",
			input:  "1 /*done*/",
			tokens: []string{"Integer(1)", "Comment(done)"},
		},
		{
			name:   "comment between members",
			input:  "{\"a\":1/*between*/,\"b\":2}",
			tokens: []string{"StartObject", "PropertyName(a)", "Integer(1)", "Comment(between)", "PropertyName(b)", "Integer(2)", "EndObject"},
		},
		{
			name:   "escapes",
			input:  `["\b\t\n\f\r\\\/\"A"]`,
			tokens: []string{"StartArray", "String(\b\t\n\f\r\\/\"A)", "EndArray"},
		},
		{
			name:   "surrogate pair escape",
			input:  `["\uD83D\uDE00"]`,
			tokens: []string{"StartArray", "String(\U0001F600)", "EndArray"},
		},
		{
			name:   "basic unicode escape",
			input:  `["\u00e9"]`,
			tokens: []string{"StartArray", "String(\u00e9)", "EndArray"},
		},
		{
			name:   "dollar and underscore identifiers",
			input:  `{$ref:1,_x:2}`,
			tokens: []string{"StartObject", "PropertyName($ref)", "Integer(1)", "PropertyName(_x)", "Integer(2)", "EndObject"},
		},
		{
			name:   "whitespace before colon",
			input:  "{a : 1}",
			tokens: []string{"StartObject", "PropertyName(a)", "Integer(1)", "EndObject"},
		},
		{
			name:   "trailing comma in object",
			input:  `{"a":1,}`,
			tokens: []string{"StartObject", "PropertyName(a)", "Integer(1)", "EndObject"},
		},
		{
			name:   "empty input",
			input:  ``,
			tokens: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := collectTokens(NewStringReader(tc.input))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			assertTokens(t, tc.tokens, got)
		})
	}
}

// The same streams must tokenize identically when the input arrives one
// byte at a time through the refillable window.
func TestTokenStreamsByteAtATime(t *testing.T) {
	inputs := []string{
		`{"a":1,"b":[true,null]}`,
		`{a:'x\n',b:0xFF}`,
		`[NaN,-Infinity,1.5e2]`,
		`new Date(1234567890123)`,
		`[/*c*/ 1 ,, 2]`,
		`["😀","` + strings.Repeat("x", 9000) + `"]`,
	}
	for _, input := range inputs {
		want, err := collectTokens(NewStringReader(input))
		if err != nil {
			t.Fatalf("string reader failed on %q: %v", input, err)
		}
		r := NewReader(iotest.OneByteReader(strings.NewReader(input)))
		got, err := collectTokens(r)
		if err != nil {
			t.Fatalf("streaming reader failed on %.40q: %v", input, err)
		}
		assertTokens(t, want, got)
	}
}

func TestErrorMessageSourcePosition(t *testing.T) {
	testCases := []struct {
		name        string
		input       string
		kind        error
		expectedErr string
	}{
		{
			name:        "garbage value",
			input:       `x`,
			kind:        ErrUnexpectedCharacter,
			expectedErr: "unexpected character encountered while parsing value: x at line 1, column 0",
		},
		{
			name:        "eof inside object",
			input:       `{`,
			kind:        ErrUnexpectedEnd,
			expectedErr: "unexpected end of input when reading an object at line 1, column 1",
		},
		{
			name:        "unterminated string",
			input:       `"abc`,
			kind:        ErrUnterminatedString,
			expectedErr: `unterminated string, expected delimiter: " at line 1, column 4`,
		},
		{
			name:        "bad escape",
			input:       `"a\q"`,
			kind:        ErrBadEscape,
			expectedErr: `bad escape sequence: \q at line 1, column 3`,
		},
		{
			name:        "short unicode escape",
			input:       `"\u00G1"`,
			kind:        ErrBadEscape,
			expectedErr: `invalid unicode escape sequence: \u00G1 at line 1, column 3`,
		},
		{
			name:        "truncated literal",
			input:       `tru`,
			kind:        ErrUnexpectedCharacter,
			expectedErr: "error parsing boolean value at line 1, column 0",
		},
		{
			name:        "literal without separator",
			input:       `truex`,
			kind:        ErrUnexpectedCharacter,
			expectedErr: "error parsing boolean value at line 1, column 4",
		},
		{
			name:        "trailing garbage",
			input:       `1 2`,
			kind:        ErrTrailingGarbage,
			expectedErr: "additional text encountered after finished reading JSON content: 2 at line 1, column 2",
		},
		{
			name:        "mismatched container ends",
			input:       `[1}`,
			kind:        ErrIllegalState,
			expectedErr: "unexpected end of object in array at line 1, column 3",
		},
		{
			name:        "int64 overflow",
			input:       `9223372036854775808`,
			kind:        ErrIntegerOverflow,
			expectedErr: "JSON integer 9223372036854775808 is too large or small for an Int64 at line 1, column 19",
		},
		{
			name:        "unterminated comment",
			input:       `/*never`,
			kind:        ErrUnexpectedEnd,
			expectedErr: "unexpected end while parsing comment at line 1, column 7",
		},
		{
			name:        "slash without star",
			input:       `/x`,
			kind:        ErrUnexpectedCharacter,
			expectedErr: "error parsing comment, expected '*', got x at line 1, column 1",
		},
		{
			name:        "bad identifier",
			input:       `{a#:1}`,
			kind:        ErrBadIdentifier,
			expectedErr: "invalid JavaScript property identifier character: # at line 1, column 2",
		},
		{
			name:        "missing colon",
			input:       `{a 1}`,
			kind:        ErrUnexpectedCharacter,
			expectedErr: "invalid character after parsing property name, expected ':', got 1 at line 1, column 3",
		},
		{
			name:        "constructor without parenthesis",
			input:       `new Date]`,
			kind:        ErrUnexpectedCharacter,
			expectedErr: "unexpected character while parsing constructor: ] at line 1, column 8",
		},
		{
			name:        "error on second line",
			input:       "[1,\n!]",
			kind:        ErrUnexpectedCharacter,
			expectedErr: "unexpected character encountered while parsing value: ! at line 2, column 0",
		},
		{
			name:        "crlf counted once",
			input:       "[1,\r\n\r\n!]",
			kind:        ErrUnexpectedCharacter,
			expectedErr: "unexpected character encountered while parsing value: ! at line 3, column 0",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := collectTokens(NewStringReader(tc.input))
			if err == nil {
				t.Fatal("expected error but got none")
			}
			if !errors.Is(err, tc.kind) {
				t.Errorf("error kind mismatch: got %v", err)
			}
			if err.Error() != tc.expectedErr {
				t.Errorf("error message mismatch.\nExpected:\n%s\n\nGot:\n%s", tc.expectedErr, err.Error())
			}
		})
	}
}

type streamCase struct {
	Input  string   `yaml:"input"`
	Tokens []string `yaml:"tokens"`
	Error  string   `yaml:"error"`
}

func readStreamFixtures(t *testing.T) map[string]streamCase {
	buf, err := os.ReadFile(filepath.Join("testdata", "streams.yml"))
	if err != nil {
		t.Fatalf("failed to read fixtures: %v", err)
	}
	var cases map[string]streamCase
	if err := yaml.Unmarshal(buf, &cases); err != nil {
		t.Fatalf("failed to parse fixtures: %v", err)
	}
	return cases
}

func TestYamlStreamFixtures(t *testing.T) {
	for name, tc := range readStreamFixtures(t) {
		tc := tc
		t.Run(name, func(t *testing.T) {
			got, err := collectTokens(NewStringReader(tc.Input))
			if tc.Error != "" {
				if err == nil {
					t.Fatalf("expected error %q but got none", tc.Error)
				}
				if err.Error() != tc.Error {
					t.Errorf("error mismatch.\nExpected:\n%s\n\nGot:\n%s", tc.Error, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			assertTokens(t, tc.Tokens, got)
		})
	}
}

func TestQuoteCharRecorded(t *testing.T) {
	r := NewStringReader(`{a:'x',"b":"y"}`)
	type step struct {
		typ   token.Type
		quote byte
	}
	want := []step{
		{token.StartObject, 0},
		{token.PropertyName, 0},
		{token.String, '\''},
		{token.PropertyName, '"'},
		{token.String, '"'},
		{token.EndObject, 0},
	}
	for i, s := range want {
		ok, err := r.Read()
		if err != nil || !ok {
			t.Fatalf("read %d failed: ok=%t err=%v", i, ok, err)
		}
		if r.TokenType() != s.typ || r.QuoteChar() != s.quote {
			t.Errorf("step %d: got %s quote %q, want %s quote %q", i, r.TokenType(), r.QuoteChar(), s.typ, s.quote)
		}
	}
}

func assertTokens(t *testing.T, want, got []string) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("token count mismatch: want %v, got %v", want, got)
	}
	for i := range want {
		if want[i] != got[i] {
			t.Errorf("token %d mismatch: want %s, got %s", i, want[i], got[i])
		}
	}
}
