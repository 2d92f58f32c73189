package handler

import (
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 ()-]{6,19}$`)
	registerOnce sync.Once
	registerErr  error
)

// RegisterValidators installs the custom binding rules used by request
// structs. Safe to call more than once.
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		registerErr = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return phonePattern.MatchString(fl.Field().String())
		})
		if registerErr != nil {
			return
		}
		// blank lets optional inputs posted as "" or whitespace pass, as in
		// "omitempty,blank|email". The services treat them as absent.
		registerErr = v.RegisterValidation("blank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) == ""
		})
	})
	return registerErr
}
