// Package reader implements a streaming, forward-only tokenizer for a
// JSON-superset text format: JS-style identifiers, single-quoted strings,
// new Ctor(...) constructors, NaN/Infinity, block comments, hex and octal
// integers and /Date(...)/ literals on top of standard JSON. Input is
// consumed through a sliding window without buffering the whole document.
package reader

import (
	"io"
	"strings"

	"golang.org/x/text/language"

	"github.com/prismmonkey/jsontext/token"
)

// Reader tokenizes a character stream. It is not safe for concurrent use;
// distinct Readers over distinct sources are independent.
type Reader struct {
	// CloseInput makes Close propagate to the source when it implements
	// io.Closer. On by default.
	CloseInput bool

	// Culture selects the conventions used when the typed Read* adapters
	// coerce strings to numbers. The zero value (language.Und) means the
	// invariant "." decimal separator.
	Culture language.Tag

	source     io.Reader
	window     *charWindow
	buf        *stringBuffer
	ref        stringReference
	state      readState
	containers []containerType
	tok        token.Token
	readMode   readType
	lineNumber int
	err        error
}

// NewReader tokenizes from an io.Reader through a refillable window.
func NewReader(r io.Reader) *Reader {
	return &Reader{
		CloseInput: true,
		source:     r,
		window:     newCharWindow(r),
		lineNumber: 1,
	}
}

// NewStringReader tokenizes an in-memory document.
func NewStringReader(s string) *Reader {
	return &Reader{
		CloseInput: true,
		window:     newStringWindow(s),
		lineNumber: 1,
	}
}

// Read advances to the next token. It returns false at the end of input and
// after any failure; failures are sticky and returned again on later calls.
func (r *Reader) Read() (bool, error) {
	r.readMode = readTypeRead
	return r.readInternal()
}

// TokenType returns the kind of the current token.
func (r *Reader) TokenType() token.Type { return r.tok.Type }

// Token returns the current token. Its payload is owned and survives
// subsequent reads.
func (r *Reader) Token() token.Token { return r.tok }

// QuoteChar returns the delimiter of the current scalar: '"', '\'' or 0.
func (r *Reader) QuoteChar() byte { return r.tok.Quote }

// Depth returns the number of open containers.
func (r *Reader) Depth() int { return len(r.containers) }

// HasLineInfo reports that the reader tracks line information. Always true.
func (r *Reader) HasLineInfo() bool { return true }

// LineNumber returns the current 1-based line.
func (r *Reader) LineNumber() int { return r.lineNumber }

// LinePosition returns the byte offset consumed since the last newline.
func (r *Reader) LinePosition() int { return r.window.pos - r.window.lineStart }

// Close is terminal: the reader rejects all further operations. When
// CloseInput is set and the source is an io.Closer, the source is closed.
func (r *Reader) Close() error {
	r.state = stateClosed
	r.tok = token.Token{}
	r.buf = nil
	r.ref = stringReference{}
	if r.CloseInput {
		if c, ok := r.source.(io.Closer); ok {
			return c.Close()
		}
	}
	return nil
}

// setToken installs the token and advances the structural state machine.
func (r *Reader) setToken(tok token.Token) error {
	r.tok = tok
	switch tok.Type {
	case token.StartObject:
		r.push(containerObject)
		r.state = stateObjectStart
	case token.StartArray:
		r.push(containerArray)
		r.state = stateArrayStart
	case token.StartConstructor:
		r.push(containerConstructor)
		r.state = stateConstructorStart
	case token.EndObject:
		if err := r.pop(containerObject); err != nil {
			return err
		}
		r.setPostValueState()
	case token.EndArray:
		if err := r.pop(containerArray); err != nil {
			return err
		}
		r.setPostValueState()
	case token.EndConstructor:
		if err := r.pop(containerConstructor); err != nil {
			return err
		}
		r.setPostValueState()
	case token.PropertyName:
		r.state = stateProperty
	case token.Comment, token.None:
		// no structural effect
	default:
		r.setPostValueState()
	}
	return nil
}

// setPostValueState follows a completed value: inside a container the next
// character decides separator or end; at the top level only trailing
// whitespace and comments remain.
func (r *Reader) setPostValueState() {
	if len(r.containers) == 0 {
		r.state = stateFinished
	} else {
		r.state = statePostValue
	}
}

// stringBuf returns the escape-decoding buffer, creating it on first use.
func (r *Reader) stringBuf() *stringBuffer {
	if r.buf == nil {
		r.buf = &stringBuffer{}
	}
	return r.buf
}

// onNewLine records that a logical newline ended just before pos.
func (r *Reader) onNewLine(pos int) {
	r.lineNumber++
	r.window.lineStart = pos
}

// normalizeNumber rewrites a culture-formatted numeric string to the
// invariant form strconv understands. Only languages conventionally using a
// comma decimal separator are rewritten; this deliberately stops short of
// full CLDR number data.
func normalizeNumber(s string, tag language.Tag) string {
	if tag == language.Und {
		return s
	}
	base, conf := tag.Base()
	if conf == language.No || !commaDecimalLanguages[base.String()] {
		return s
	}
	s = strings.ReplaceAll(s, ".", "")
	return strings.ReplaceAll(s, ",", ".")
}

var commaDecimalLanguages = map[string]bool{
	"cs": true, "da": true, "de": true, "el": true, "es": true,
	"fi": true, "fr": true, "hu": true, "id": true, "it": true,
	"nb": true, "nl": true, "pl": true, "pt": true, "ru": true,
	"sv": true, "tr": true, "uk": true, "vi": true,
}
