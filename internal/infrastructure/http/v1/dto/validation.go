// Package dto provides Data Transfer Objects for API requests/responses.
//
// Decimal fields travel as strings at their canonical scale and row
// versions as base64 tokens; nothing numeric passes through float64.
package dto

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"hesap/internal/core/apperror"
	"hesap/internal/core/entity"
	"hesap/internal/core/types"
)

var registerOnce sync.Once

// RegisterValidators installs the custom binding tags on gin's validator:
//
//	decimal=N   a plain decimal string, N is the target scale (default 4)
//	rowversion  a base64 row version token
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = errors.New("gin validator engine is not go-playground/validator")
			return
		}
		v.RegisterTagNameFunc(jsonFieldName)
		if err = v.RegisterValidation("decimal", validDecimal); err != nil {
			return
		}
		err = v.RegisterValidation("rowversion", validRowVersion)
	})
	return err
}

func validDecimal(fl validator.FieldLevel) bool {
	scale := int32(types.ScalePrice)
	if p := fl.Param(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return false
		}
		scale = int32(n)
	}
	_, ok := types.TryParseAtScale(fl.Field().String(), scale)
	return ok
}

func validRowVersion(fl validator.FieldLevel) bool {
	_, err := entity.DecodeToken(fl.Field().String())
	return err == nil
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

// BindingError turns a gin binding failure into a validation error listing
// the offending fields.
func BindingError(err error, message string) *apperror.AppError {
	appErr := apperror.NewValidation(message)

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return appErr.WithDetail("error", err.Error())
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe)] = describeRule(fe)
	}
	return appErr.WithDetail("fields", fields)
}

// fieldPath drops the root struct name: "lines[0].quantity".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "decimal":
		return "must be a plain decimal string such as 12.50"
	case "rowversion":
		return "must be a base64 row version"
	case "uuid":
		return "must be a UUID"
	case "oneof":
		return "must be one of " + fe.Param()
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "len":
		return "must have length " + fe.Param()
	}
	return "failed " + fe.Tag() + " validation"
}
