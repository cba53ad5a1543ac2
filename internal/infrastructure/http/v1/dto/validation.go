package dto

import (
	"errors"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"supplyplan/internal/core/period"
)

// RegisterValidators installs the custom binding tags on gin's validator:
//
//	planyear  the year lies inside the configured planning range
//	month     1..12
func RegisterValidators(years period.YearRange) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding validator is not go-playground/validator")
	}
	if err := v.RegisterValidation("planyear", func(fl validator.FieldLevel) bool {
		return years.Contains(int(fl.Field().Int()))
	}); err != nil {
		return err
	}
	return v.RegisterValidation("month", func(fl validator.FieldLevel) bool {
		m := fl.Field().Int()
		return m >= 1 && m <= 12
	})
}

// FieldErrors flattens validator errors into field -> failed tag.
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}
