package dto

import (
	"html"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	digitRe = regexp.MustCompile(`^[0-9]+$`)
	phoneRe = regexp.MustCompile(`^\+[0-9]{8,15}$`)
	evpRe   = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("pix_key", validatePixKey)
	}
}

// validatePixKey accepts any valid PIX key shape: email, CPF (11 digits),
// CNPJ (14 digits), phone with country code, or random key (EVP/UUID).
func validatePixKey(fl validator.FieldLevel) bool {
	key := strings.TrimSpace(fl.Field().String())
	if key == "" {
		return false
	}
	switch {
	case strings.Contains(key, "@"):
		return emailRe.MatchString(key)
	case strings.HasPrefix(key, "+"):
		return phoneRe.MatchString(key)
	case digitRe.MatchString(key):
		return len(key) == 11 || len(key) == 14
	default:
		return evpRe.MatchString(key)
	}
}

// SanitizeStruct trims whitespace and HTML-escapes every exported string
// field (including *string) of a struct pointer.
func SanitizeStruct(v interface{}) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return
	}
	sanitizeFields(rv.Elem())
}

func sanitizeFields(rv reflect.Value) {
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if !f.CanSet() {
			continue
		}
		switch f.Kind() {
		case reflect.String:
			f.SetString(sanitize(f.String()))
		case reflect.Ptr:
			if f.IsNil() {
				continue
			}
			elem := f.Elem()
			if elem.Kind() == reflect.String {
				s := sanitize(elem.String())
				elem.SetString(s)
			}
		}
	}
}

func sanitize(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}
