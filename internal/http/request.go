package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	inErrors "github.com/Alturino/storefront/internal/errors"
)

// MaxBodyBytes caps every request body the server reads.
const MaxBodyBytes = 1 << 20

// Validator is shared by every controller. validator caches struct metadata and is safe for
// concurrent use.
var Validator = validator.New(validator.WithRequiredStructEnabled())

// DecodeJson reads a JSON body into dst and validates it.
func DecodeJson(c context.Context, r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("failed decoding request body with error=%w", errors.Join(inErrors.ErrBadRequest, errors.New("empty body")))
		}
		return fmt.Errorf("failed decoding request body with error=%w", errors.Join(inErrors.ErrBadRequest, err))
	}
	if err := Validator.StructCtx(c, dst); err != nil {
		return fmt.Errorf("failed validating request body with error=%w", err)
	}
	return nil
}
