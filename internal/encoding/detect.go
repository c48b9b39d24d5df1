package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	xenc "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Charsets reported by NewUTF8Reader.
const (
	UTF8        = "UTF-8"
	UTF16LE     = "UTF-16LE"
	UTF16BE     = "UTF-16BE"
	Windows1252 = "windows-1252"
	ISO88599    = "ISO-8859-9"
	ISO885915   = "ISO-8859-15"
)

const sniffSize = 4096

var boms = []struct {
	prefix  []byte
	charset string
	enc     xenc.Encoding
}{
	{prefix: []byte{0xEF, 0xBB, 0xBF}, charset: UTF8},
	{prefix: []byte{0xFF, 0xFE}, charset: UTF16LE, enc: unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)},
	{prefix: []byte{0xFE, 0xFF}, charset: UTF16BE, enc: unicode.UTF16(unicode.BigEndian, unicode.UseBOM)},
}

// Single-byte charsets chardet may report, mapped to their decoders.
// ISO-8859-1 is read as its Windows-1252 superset.
var legacy = map[string]struct {
	charset string
	enc     xenc.Encoding
}{
	"ISO-8859-1":   {Windows1252, charmap.Windows1252},
	"windows-1252": {Windows1252, charmap.Windows1252},
	"ISO-8859-9":   {ISO88599, charmap.ISO8859_9},
	"ISO-8859-15":  {ISO885915, charmap.ISO8859_15},
}

// NewUTF8Reader returns a reader yielding r's content as UTF-8, plus the charset it was decoded from.
// A byte order mark wins; otherwise valid UTF-8 passes through untouched, then chardet is consulted,
// and anything else is read as Windows-1252. A UTF-8 BOM is stripped.
func NewUTF8Reader(r io.Reader) (io.Reader, string, error) {
	br := bufio.NewReaderSize(r, sniffSize)

	buf, err := br.Peek(sniffSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, "", fmt.Errorf("peek: %w", err)
	}

	for _, bom := range boms {
		if !bytes.HasPrefix(buf, bom.prefix) {
			continue
		}

		if bom.enc == nil {
			_, _ = br.Discard(len(bom.prefix))
			return br, bom.charset, nil
		}

		return transform.NewReader(br, bom.enc.NewDecoder()), bom.charset, nil
	}

	if validUTF8(buf, len(buf) == sniffSize) {
		return br, UTF8, nil
	}

	if result, err := chardet.NewTextDetector().DetectBest(buf); err == nil {
		if result.Charset == UTF8 {
			return br, UTF8, nil
		}

		if l, ok := legacy[result.Charset]; ok {
			return transform.NewReader(br, l.enc.NewDecoder()), l.charset, nil
		}
	}

	return transform.NewReader(br, charmap.Windows1252.NewDecoder()), Windows1252, nil
}

// validUTF8 ignores a multi-byte sequence cut off at the end of a truncated sample.
func validUTF8(buf []byte, truncated bool) bool {
	if truncated {
		for i := 1; i <= utf8.UTFMax && i <= len(buf); i++ {
			tail := buf[len(buf)-i:]
			if !utf8.RuneStart(tail[0]) {
				continue
			}

			if !utf8.FullRune(tail) {
				buf = buf[:len(buf)-i]
			}

			break
		}
	}

	return utf8.Valid(buf)
}
