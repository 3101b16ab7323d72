/*
Package req provides helper functions for HTTP request parsing and data binding.

It decodes JSON bodies strictly and validates the bound struct against its `validate` tags,
reporting failures as coded application errors.
*/
package req

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"roomchat/internal/pkg/errs"
)

// MaxBodyBytes bounds the size of a JSON request body.
const MaxBodyBytes int64 = 64 << 10 // 64 KB

var validate = validator.New(validator.WithRequiredStructEnabled())

// BindJSON attempts to bind the JSON data from the HTTP request body to the destination struct dst.
func BindJSON(w http.ResponseWriter, r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}

// BindAndValidate binds the JSON body into dst and then runs struct validation.
func BindAndValidate(w http.ResponseWriter, r *http.Request, dst any) *errs.CustomError {
	if customErr := BindJSON(w, r, dst); customErr != nil {
		return customErr
	}

	if err := validate.Struct(dst); err != nil {
		return errs.Wrap(errs.ErrInvalidParams, err)
	}

	return nil
}

// Limit parses a positive integer query parameter. An absent parameter yields def.
func Limit(r *http.Request, key string, def int) (int, *errs.CustomError) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errs.NewError(errs.ErrInvalidParams)
	}

	return n, nil
}
