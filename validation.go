package turbo

import (
	"context"
	"reflect"

	"github.com/go-playground/validator/v10"

	"github.com/turbo-genesis/turbo-go/application/command"
	domainerrors "github.com/turbo-genesis/turbo-go/domain/errors"
)

// validate is a package-level singleton for better performance.
// Creating a new validator on each call is expensive; reusing is recommended.
var validate = validator.New()

// ValidatePayload runs the validate struct tags of v. Values that are not
// structs, or pointers to structs, always pass. A failure is a DecodeError,
// so a command answers it with Err(DecodeError).
func ValidatePayload(v any) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	if err := validate.Struct(rv.Interface()); err != nil {
		return &domainerrors.DecodeError{Target: "command payload", Err: err}
	}
	return nil
}

// Command is command.Typed with the decoded request validated before fn
// runs.
func Command[Req, Resp any](fn func(ctx context.Context, userID string, req Req) (Resp, error)) command.Handler {
	return command.Typed(func(ctx context.Context, userID string, req Req) (Resp, error) {
		if err := ValidatePayload(req); err != nil {
			var zero Resp
			return zero, err
		}
		return fn(ctx, userID, req)
	})
}
