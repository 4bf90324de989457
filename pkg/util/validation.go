package util

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var thaiPhonePattern = regexp.MustCompile(`^0[0-9]{9}$`)

// NormalizePhone strips the separators residents commonly type.
func NormalizePhone(phone string) string {
	r := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
	return r.Replace(strings.TrimSpace(phone))
}

// IsValidThaiPhone reports whether phone is a 10 digit number starting with 0.
func IsValidThaiPhone(phone string) bool {
	return thaiPhonePattern.MatchString(NormalizePhone(phone))
}

// IsValidThaiIDCard checks length and the mod-11 check digit of a national ID.
func IsValidThaiIDCard(id string) bool {
	id = strings.ReplaceAll(strings.TrimSpace(id), "-", "")
	if len(id) != 13 {
		return false
	}

	sum := 0
	for i := 0; i < 13; i++ {
		c := id[i]
		if c < '0' || c > '9' {
			return false
		}
		if i < 12 {
			sum += int(c-'0') * (13 - i)
		}
	}
	check := (11 - sum%11) % 10
	return check == int(id[12]-'0')
}

// RegisterValidators adds thphone and thidcard to gin's binding validator.
// Empty values pass so the tags combine with omitempty/required.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})
	if err := v.RegisterValidation("thphone", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || IsValidThaiPhone(s)
	}); err != nil {
		return err
	}
	return v.RegisterValidation("thidcard", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || IsValidThaiIDCard(s)
	})
}

// FieldErrors returns the failed tag per field of a binding error, or nil
// when err did not come from the validator.
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
