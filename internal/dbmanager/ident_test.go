package dbmanager

import (
	"strings"
	"testing"

	"github.com/dmitrijs2005/pharmgate/internal/common"
	"github.com/stretchr/testify/assert"
)

func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		name  string
		ident string
		ok    bool
	}{
		{name: "simple", ident: "pharmacy", ok: true},
		{name: "leading underscore", ident: "_tmp", ok: true},
		{name: "mixed case and digits", ident: "Pharmacy_2024", ok: true},
		{name: "max length", ident: strings.Repeat("a", 63), ok: true},
		{name: "empty", ident: ""},
		{name: "leading digit", ident: "1pharmacy"},
		{name: "space", ident: "my db"},
		{name: "semicolon injection", ident: "x; DROP DATABASE postgres"},
		{name: "quote", ident: `x"y`},
		{name: "hyphen", ident: "pharmacy-db"},
		{name: "non ascii", ident: "аптека"},
		{name: "too long", ident: strings.Repeat("a", 64)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIdentifier(tt.ident)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, common.ErrInvalidIdentifier)
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}
}

func TestQuoting(t *testing.T) {
	assert.Equal(t, `"pharmacy"`, quoteIdent("pharmacy"))
	assert.Equal(t, `"Pharmacy"`, quoteIdent("Pharmacy"))
	assert.Equal(t, `'readonly123'`, quoteLiteral("readonly123"))
	assert.Equal(t, `'it''s'`, quoteLiteral("it's"))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "disconnected", Disconnected.String())
	assert.Equal(t, "connecting", Connecting.String())
	assert.Equal(t, "connected", Connected.String())
	assert.Equal(t, "unknown", State(42).String())
}
