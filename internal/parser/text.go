package parser

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
)

// TextParser handles plain text files. Input that is not valid UTF-8 is
// decoded as GB18030, which covers GB2312 and GBK exports.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	s, err := DecodeText(raw)
	if err != nil {
		return nil, err
	}
	return &Document{
		Title: stem(filename),
		Lines: splitLines(s),
	}, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeText returns raw as a string, transcoding from GB18030 when it is
// not valid UTF-8.
func DecodeText(raw []byte) (string, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	out, err := simplifiedchinese.GB18030.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode gb18030: %w", err)
	}
	return string(out), nil
}
