package result

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

type payload struct {
	ID int64 `json:"id"`
}

func TestSuccessCarriesPayloadAndNoMessage(t *testing.T) {
	p := payload{ID: 42}
	r := Success(p, WithAction("create_address"), WithEntity("addresses", 42), WithErrors(map[string]string{"x": "y"}), WithKind(KindValidation))

	assert.True(t, r.IsSuccess())
	assert.Equal(t, p, r.Data())
	assert.Empty(t, r.Message())
	assert.Empty(t, r.Error())
	assert.Nil(t, r.Errors())
	assert.Equal(t, KindNone, r.Kind())
	assert.Equal(t, "create_address", r.Action())
	assert.Equal(t, "addresses", r.Entity())
	assert.EqualValues(t, 42, r.EntityID())
}

func TestFailureCarriesMessageAndNoPayload(t *testing.T) {
	r := Failure("Slug já existe", WithErrors(map[string]string{"slug": "Slug já existe"}))

	assert.False(t, r.IsSuccess())
	assert.Nil(t, r.Data())
	assert.Equal(t, "Slug já existe", r.Message())
	assert.Equal(t, r.Message(), r.Error())
	assert.Equal(t, map[string]string{"slug": "Slug já existe"}, r.Errors())
	assert.Equal(t, KindOperation, r.Kind())
}

func TestZeroValueIsSafeFailure(t *testing.T) {
	var r Result
	assert.False(t, r.IsSuccess())
	assert.Nil(t, r.Data())
	assert.Empty(t, r.Message())
	assert.Nil(t, r.Errors())
	assert.Nil(t, r.RedirectParameters())
}

func TestResultIsImmutable(t *testing.T) {
	errs := map[string]string{"name": "required"}
	params := map[string]string{"customer": "1"}
	r := Validation("invalid", errs, WithRedirect("customers.show", params))

	errs["name"] = "changed"
	params["customer"] = "2"
	assert.Equal(t, "required", r.Errors()["name"])
	assert.Equal(t, "1", r.RedirectParameters()["customer"])

	r.Errors()["name"] = "mutated"
	r.RedirectParameters()["customer"] = "3"
	assert.Equal(t, "required", r.Errors()["name"])
	assert.Equal(t, "1", r.RedirectParameters()["customer"])
}

func TestStatusPolicy(t *testing.T) {
	cases := map[Kind]int{
		KindValidation: http.StatusUnprocessableEntity,
		KindNotFound:   http.StatusNotFound,
		KindForbidden:  http.StatusForbidden,
		KindOperation:  http.StatusBadRequest,
	}
	for kind, want := range cases {
		assert.Equal(t, want, Status(kind), kind.String())
	}
}

func TestHelpersSetKind(t *testing.T) {
	assert.Equal(t, KindNotFound, NotFound("missing").Kind())
	assert.Equal(t, KindForbidden, Forbidden("not yours").Kind())
	assert.Equal(t, KindValidation, Validation("bad", nil).Kind())
	assert.Equal(t, KindOperation, Failure("x", WithKind(KindNone)).Kind())
}
