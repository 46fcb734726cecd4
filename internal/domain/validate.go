package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Compare money as numbers so gt/gte tags work on decimal fields.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})

	// Report json names instead of Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	return v
}

// Validate runs struct tag validation and converts failures into a
// ValidationError keyed by json field path.
func Validate(op string, s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Internal(err, op, "validation could not run")
	}

	ve := &ValidationError{Op: op, Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		ve.Fields[fieldPath(fe)] = fieldMessage(fe)
	}
	return ve
}

func fieldPath(fe validator.FieldError) string {
	// Namespace is "Product.variations[0].base_price"; drop the root type.
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gtefield":
		return fmt.Sprintf("must not be less than %s", fe.Param())
	case "url":
		return "must be a valid URL"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// ValidateProduct checks the catalog invariants the composer relies on:
// at least one variation, promotional price below base price, bounded
// additive groups and a usable flavor limit when splitting is allowed.
func ValidateProduct(p *Product) error {
	const op = "product.validate"

	err := Validate(op, p)
	if err != nil && !IsValidationError(err) {
		return err
	}

	for i, v := range p.Variations {
		if v.PromotionalPrice != nil && !v.PromotionalPrice.LessThan(v.BasePrice) {
			err = addOpField(err, op, fmt.Sprintf("variations[%d].promotional_price", i),
				"must be less than base_price")
		}
	}

	if p.AllowsFlavorSplit && p.MaxFlavors < 2 {
		err = addOpField(err, op, "max_flavors", "must be at least 2 when flavor split is allowed")
	}

	return err
}

func addOpField(err error, op, field, msg string) error {
	err = AddFieldError(err, field, msg)
	var ve *ValidationError
	if errors.As(err, &ve) && ve.Op == "" {
		ve.Op = op
	}
	return err
}
