package encoding_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/MrJamesThe3rd/piggy/internal/encoding"
)

func readAll(t *testing.T, input []byte) (string, string) {
	t.Helper()

	r, charset, err := encoding.NewUTF8Reader(bytes.NewReader(input))
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)

	return string(got), charset
}

func TestNewUTF8Reader(t *testing.T) {
	const text = "merchant_name;amount\nCafé Müller;12,50\nLoja São João;3,00\n"

	utf16le, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(text))
	require.NoError(t, err)

	latin1, err := charmap.Windows1252.NewEncoder().Bytes([]byte(text))
	require.NoError(t, err)

	tests := []struct {
		name        string
		input       []byte
		wantCharset string
	}{
		{name: "UTF8Passthrough", input: []byte(text), wantCharset: encoding.UTF8},
		{name: "UTF8BOMStripped", input: append([]byte{0xEF, 0xBB, 0xBF}, text...), wantCharset: encoding.UTF8},
		{name: "UTF16LE", input: utf16le, wantCharset: encoding.UTF16LE},
		{name: "Windows1252", input: latin1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, charset := readAll(t, tt.input)

			assert.Equal(t, text, got)

			if tt.wantCharset == "" {
				assert.NotEqual(t, encoding.UTF8, charset)
				return
			}

			assert.Equal(t, tt.wantCharset, charset)
		})
	}
}

func TestNewUTF8Reader_Empty(t *testing.T) {
	got, charset := readAll(t, nil)

	assert.Empty(t, got)
	assert.Equal(t, encoding.UTF8, charset)
}

func TestNewUTF8Reader_RuneAcrossSampleBoundary(t *testing.T) {
	// "é" is two bytes; place it so the sample ends between them.
	input := strings.Repeat("a", 4095) + "é" + strings.Repeat("b", 10)

	got, charset := readAll(t, []byte(input))

	assert.Equal(t, encoding.UTF8, charset)
	assert.Equal(t, input, got)
}
