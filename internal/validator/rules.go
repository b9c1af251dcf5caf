package validator

import (
	"log"

	"creatorhub_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

// registerCustomRules регистрирует все кастомные функции валидации в
// переданном экземпляре валидатора.
func registerCustomRules(v *validator.Validate) {
	// Правило, которое не регистрируется, - ошибка сборки приложения: падаем сразу.
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	mustRegister("is-user-role", validateUserRole)
	mustRegister("is-subscription-type", validateSubscriptionType)
	mustRegister("is-content-kind", validateContentKind)
}

// --- Функции валидации ---
// Пустые значения пропускаются, для этого есть 'required'.

func validateUserRole(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.UserRole(value).Valid()
}

func validateSubscriptionType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	_, ok := models.ParseSubscriptionType(value)
	return ok
}

func validateContentKind(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	_, ok := models.ParseContentKind(value)
	return ok
}
