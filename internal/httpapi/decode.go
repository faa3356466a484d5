package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"backoffice.app/internal/apperr"
	"backoffice.app/internal/validate"
)

// decodeJSON reads exactly one JSON object into dst. Unknown properties,
// wrong types, empty bodies and trailing data are validation failures.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return decodeError(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return apperr.Validation("unexpected data after JSON body")
		}
		return decodeError(err)
	}
	return nil
}

func decodeError(err error) error {
	var (
		maxErr  *http.MaxBytesError
		typeErr *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &maxErr):
		return err
	case errors.Is(err, io.EOF):
		return apperr.Validation("request body is required")
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		return apperr.Validation("Validation failed", []validate.FieldError{{
			Field:  field,
			Errors: []string{fmt.Sprintf("property %s should not exist", field)},
		}})
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			return apperr.Wrap(apperr.KindValidation, "request body must be a JSON object", err)
		}
		return apperr.Validation("Validation failed", []validate.FieldError{{
			Field:  field,
			Errors: []string{fmt.Sprintf("%s must be a %s", field, jsonTypeName(typeErr.Type.Kind().String()))},
		}})
	default:
		return apperr.Wrap(apperr.KindValidation, "malformed JSON body", err)
	}
}

func jsonTypeName(kind string) string {
	switch kind {
	case "string":
		return "string"
	case "bool":
		return "boolean"
	case "int", "int8", "int16", "int32", "int64", "uint", "uint8", "uint16", "uint32", "uint64", "float32", "float64":
		return "number"
	case "slice", "array":
		return "array"
	default:
		return "object"
	}
}
