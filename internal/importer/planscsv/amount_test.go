package planscsv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "1234.56", want: "1234.56"},
		{input: "1,234.56", want: "1234.56"},
		{input: "1.234,56", want: "1234.56"},
		{input: "10,00", want: "10"},
		{input: "$ 99.99", want: "99.99"},
		{input: "150,00 €", want: "150"},
		{input: "-588,74", want: "-588.74"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseAmount(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}

	_, err := parseAmount("twelve")
	assert.Error(t, err)
}
