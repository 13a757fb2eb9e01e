package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/bizhub/internal/app/result"
)

type sample struct {
	Name  string `json:"name" validate:"required,max=5"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
	Slug  string `json:"slug" validate:"slug"`
	Qty   int    `json:"quantity" validate:"gte=0"`
}

func TestStructValid(t *testing.T) {
	errs, err := Struct(sample{Name: "ok", Email: "a@b.co", Slug: "ok-1"})
	require.NoError(t, err)
	assert.Nil(t, errs)
}

func TestStructUsesJSONNames(t *testing.T) {
	errs, err := Struct(sample{Name: "", Email: "nope", Slug: "Bad Slug", Qty: -1})
	require.NoError(t, err)
	assert.Equal(t, "O campo name é obrigatório.", errs["name"])
	assert.Contains(t, errs["email"], "e-mail")
	assert.Contains(t, errs["slug"], "hífens")
	assert.Contains(t, errs["quantity"], "maior ou igual a 0")
}

func TestStructRejectsNonStruct(t *testing.T) {
	_, err := Struct("not a struct")
	assert.Error(t, err)
}

func TestCheck(t *testing.T) {
	res, ok := Check(sample{Name: "too long"}, result.WithEntity("samples", 0))
	require.False(t, ok)
	assert.False(t, res.IsSuccess())
	assert.Equal(t, result.KindValidation, res.Kind())
	assert.Equal(t, FailureMessage, res.Message())
	assert.Contains(t, res.Errors()["name"], "5 caracteres")
	assert.Equal(t, "samples", res.Entity())

	_, ok = Check(sample{Name: "ok"})
	assert.True(t, ok)
}
