package model

import (
	"errors"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation"
)

func TestFromValidation(t *testing.T) {
	t.Run("nilはnil", func(t *testing.T) {
		if err := FromValidation(nil); err != nil {
			t.Errorf("FromValidation(nil) = %v, want nil", err)
		}
	})

	t.Run("フィールドエラーはVALIDATION_FAILEDに変換される", func(t *testing.T) {
		input := struct {
			Name string `json:"name"`
		}{}
		err := validation.ValidateStruct(&input, validation.Field(&input.Name, validation.Required))

		var apiErr *APIError
		if !errors.As(FromValidation(err), &apiErr) {
			t.Fatalf("expected *APIError, got %v", err)
		}
		if apiErr.Code != ErrCodeValidationFailed {
			t.Errorf("Code = %q, want %q", apiErr.Code, ErrCodeValidationFailed)
		}
		if _, ok := apiErr.Fields["name"]; !ok {
			t.Errorf("Fields = %v, want key %q", apiErr.Fields, "name")
		}
	})

	t.Run("検証エラー以外はそのまま返す", func(t *testing.T) {
		other := errors.New("boom")
		if got := FromValidation(other); got != other {
			t.Errorf("FromValidation(other) = %v, want %v", got, other)
		}
	})
}
