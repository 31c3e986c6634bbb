package dto

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
)

// RegisterValidators adds the enum tags used in request bindings
// (role, priority, question_status, request_status, entity_type,
// review_action) and reports fields by their JSON names.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	return register(v)
}

func register(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form", "uri"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})

	enums := map[string]func(string) bool{
		"role":            func(s string) bool { return model.Role(s).IsValid() },
		"priority":        func(s string) bool { return model.Priority(s).IsValid() },
		"question_status": func(s string) bool { return model.QuestionStatus(s).IsValid() },
		"request_status":  func(s string) bool { return model.RequestStatus(s).IsValid() },
		"entity_type":     func(s string) bool { return model.EntityType(s).IsValid() },
		"review_action":   func(s string) bool { return model.ReviewAction(s).IsValid() },
	}
	for tag, valid := range enums {
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return valid(fl.Field().String())
		}); err != nil {
			return fmt.Errorf("registering %s validator: %w", tag, err)
		}
	}
	return nil
}
