package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type currencyHolder struct {
	Code string `validate:"required,currency_code"`
}

type nameHolder struct {
	Name string `validate:"category_name"`
}

func TestValidateCurrencyCode(t *testing.T) {
	v := GetValidator()

	assert.NoError(t, v.ValidateStruct(currencyHolder{Code: "USD"}))
	assert.NoError(t, v.ValidateStruct(currencyHolder{Code: "eur"}))

	for _, code := range []string{"", "US", "USDX", "U$D", "123"} {
		assert.Error(t, v.ValidateStruct(currencyHolder{Code: code}), "code %q", code)
	}
}

func TestValidateCategoryName(t *testing.T) {
	v := GetValidator()

	assert.NoError(t, v.ValidateStruct(nameHolder{Name: "Food"}))
	assert.Error(t, v.ValidateStruct(nameHolder{Name: "F"}))
}

func TestValidateStruct_ListsEveryFailure(t *testing.T) {
	v := GetValidator()

	type input struct {
		Code string `validate:"required,currency_code"`
		Name string `validate:"required,min=2"`
	}

	err := v.ValidateStruct(input{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Code")
	assert.Contains(t, err.Error(), "Name")
}
