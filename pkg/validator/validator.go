// Package validator envuelve go-playground/validator para validar DTOs por tags.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Validator validación estructurada de requests.
type Validator struct {
	v *validator.Validate
}

// New crea el validador. decimal.Decimal se expone como float64 para que las reglas
// gte/lte funcionen sobre montos y porcentajes.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return &Validator{v: v}
}

// Struct valida un struct según sus tags. Devuelve un error con los campos fallidos.
func (val *Validator) Struct(s interface{}) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s(%s)", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("campos inválidos: %s", strings.Join(fields, ", "))
	}
	return err
}

func decimalValue(field reflect.Value) interface{} {
	d, ok := field.Interface().(decimal.Decimal)
	if !ok {
		return nil
	}
	f, _ := d.Float64()
	return f
}
