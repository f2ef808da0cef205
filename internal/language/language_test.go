package language

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBase(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{code: "es", want: "es"},
		{code: "es-MX", want: "es"},
		{code: " EN-us ", want: "en"},
		{code: "not a code", want: "not a code"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, Base(tt.code))
		})
	}
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("fr"))
	assert.True(t, Supported("pt-BR"))
	assert.False(t, Supported("xx"))
	assert.False(t, Supported(""))
}

func TestName(t *testing.T) {
	assert.Equal(t, "Spanish", Name("es"))
	assert.Equal(t, "German", Name("de"))
	assert.Equal(t, "?!", Name("?!"))
}
