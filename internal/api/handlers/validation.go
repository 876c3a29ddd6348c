package handlers

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Tickers: 1-10 letters, digits, dot or dash (BRK.B, BF-B). Case is
// normalized downstream.
var symbolPattern = regexp.MustCompile(`^[A-Za-z0-9.\-]{1,10}$`)

// RegisterValidators installs custom binding validations. Call once before
// serving.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterValidation("ticker", func(fl validator.FieldLevel) bool {
		return symbolPattern.MatchString(fl.Field().String())
	})
}
