package dto

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pixKeyProbe struct {
	Key string `binding:"pix_key"`
}

func validateProbe(t *testing.T, key string) error {
	t.Helper()
	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)
	return v.Struct(pixKeyProbe{Key: key})
}

func TestValidatePixKey(t *testing.T) {
	valid := []string{
		"user@example.com",
		"12345678901",                            // CPF
		"12345678000199",                         // CNPJ
		"+5511999998888",                         // phone
		"123e4567-e89b-12d3-a456-426614174000",   // EVP
	}
	for _, key := range valid {
		assert.NoError(t, validateProbe(t, key), "expected %q to be valid", key)
	}

	invalid := []string{
		"",
		"not a key",
		"@nodomain",
		"123456",          // too short for CPF
		"123456789012",    // between CPF and CNPJ lengths
		"+123",            // phone too short
		"5511999998888",   // phone without + reads as a bad document number
		"user@@double.com",
	}
	for _, key := range invalid {
		assert.Error(t, validateProbe(t, key), "expected %q to be invalid", key)
	}
}

func TestSanitizeStruct(t *testing.T) {
	extra := "  <b>bold</b>  "
	in := struct {
		Name  string
		Extra *string
		Count int
	}{
		Name:  "  <script>x</script>  ",
		Extra: &extra,
		Count: 3,
	}

	SanitizeStruct(&in)
	assert.Equal(t, "&lt;script&gt;x&lt;/script&gt;", in.Name)
	assert.Equal(t, "&lt;b&gt;bold&lt;/b&gt;", *in.Extra)
	assert.Equal(t, 3, in.Count)
}

func TestSanitizeStruct_NonStructIsNoop(t *testing.T) {
	s := "  hi  "
	SanitizeStruct(&s) // not a struct pointer; must not panic
	assert.Equal(t, "  hi  ", s)
}
