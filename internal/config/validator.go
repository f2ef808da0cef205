package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"

	"github.com/at-ishikawa/fluentai/internal/language"
)

type customValidation struct {
	tag     string
	fn      validator.Func
	message string
}

var customValidations = []customValidation{
	{
		tag:     "gemini_key",
		fn:      func(fl validator.FieldLevel) bool { return IsGeminiAPIKey(fl.Field().String()) },
		message: "{0} must be a Gemini API key starting with AIza",
	},
	{
		tag:     "language",
		fn:      func(fl validator.FieldLevel) bool { return language.Supported(fl.Field().String()) },
		message: "{0} must be a supported language code",
	},
}

func newValidator() (*validator.Validate, ut.Translator, error) {
	validate := validator.New()

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, nil, fmt.Errorf("failed to register default translations: %w", err)
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	for _, cv := range customValidations {
		if err := validate.RegisterValidation(cv.tag, cv.fn); err != nil {
			return nil, nil, fmt.Errorf("failed to register %s validation: %w", cv.tag, err)
		}
		tag, message := cv.tag, cv.message
		if err := validate.RegisterTranslation(tag, trans, func(ut ut.Translator) error {
			return ut.Add(tag, message, true)
		}, func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T(tag, strings.TrimPrefix(fe.Namespace(), "Config."))
			return t
		}); err != nil {
			return nil, nil, fmt.Errorf("failed to register %s translation: %w", tag, err)
		}
	}

	return validate, trans, nil
}
