package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"strategy-journal/internal/domain"
)

const maxBodyBytes = 1 << 20

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "position", func(fl validator.FieldLevel) bool {
		return domain.Position(fl.Field().String()).Valid()
	})
	mustRegister(v, "market", func(fl validator.FieldLevel) bool {
		return domain.Market(fl.Field().String()).Valid()
	})
	mustRegister(v, "market_type", func(fl validator.FieldLevel) bool {
		return slices.Contains(domain.MarketTypes, fl.Field().String())
	})
	mustRegister(v, "timeframe", func(fl validator.FieldLevel) bool {
		return slices.Contains(domain.Timeframes, fl.Field().String())
	})
	mustRegister(v, "category", func(fl validator.FieldLevel) bool {
		return slices.Contains(domain.Categories, fl.Field().String())
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// decodeAndValidate reads a JSON body into dst and validates it.
// The returned error is safe to show to the client.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) error {
	// Unknown fields, including derived values such as leg risk, are ignored.
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := h.validate.Struct(dst); err != nil {
		return describeValidation(err)
	}
	return nil
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:] // drop the request type name
		}
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s", field, fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
