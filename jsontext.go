// Package jsontext glues the reader and writer together for whole-stream
// operations. The interesting parts live in the reader package.
package jsontext

import (
	"io"

	"golang.org/x/text/language"

	"github.com/prismmonkey/jsontext/reader"
	"github.com/prismmonkey/jsontext/token"
	"github.com/prismmonkey/jsontext/writer"
)

// Options configures the high-level helpers.
type Options struct {
	// CloseInput closes the source when tokenizing finishes.
	CloseInput bool
	// Culture is passed through to the reader for string coercions.
	Culture language.Tag
	// SkipComments drops Comment tokens from the output.
	SkipComments bool
}

// ReadAll tokenizes the whole stream, returning the tokens in source order.
// On failure the tokens read so far are returned with the error.
func ReadAll(r io.Reader) ([]token.Token, error) {
	jr := reader.NewReader(r)
	jr.CloseInput = false
	var toks []token.Token
	for {
		ok, err := jr.Read()
		if err != nil {
			return toks, err
		}
		if !ok {
			return toks, nil
		}
		toks = append(toks, jr.Token())
	}
}

// Rewrite tokenizes src and re-emits it through the writer: superset in,
// normalized text out.
func Rewrite(src io.Reader, dst io.Writer, options Options) error {
	jr := reader.NewReader(src)
	jr.CloseInput = options.CloseInput
	jr.Culture = options.Culture
	defer jr.Close()
	w := writer.New(dst)
	for {
		ok, err := jr.Read()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if options.SkipComments && jr.TokenType() == token.Comment {
			continue
		}
		if err := w.WriteToken(jr.Token()); err != nil {
			return err
		}
	}
	return w.Flush()
}
