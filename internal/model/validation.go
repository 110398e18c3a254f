package model

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
)

// FromValidation はozzo-validationの検証結果をAPIErrorに変換する。
// 検証ルール自体の誤りなど、入力起因でないエラーはそのまま返す。
func FromValidation(err error) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err
	}
	fields := make(map[string]string, len(errs))
	for field, fieldErr := range errs {
		if fieldErr != nil {
			fields[field] = fieldErr.Error()
		}
	}
	return NewValidationError(fields)
}
