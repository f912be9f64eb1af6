package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/edgerunner/cypress-mongodb/internal/pkg/log_messages"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/models"
	"github.com/go-playground/validator/v10"
)

var ErrValidation = errors.New("validation failed")

// Error is returned for every request or payload rejected before dispatch.
// Its message is exactly the human readable reason, and it matches
// ErrValidation with errors.Is.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	return target == ErrValidation
}

func newError(msg string) error {
	return &Error{Message: msg}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// ValidateRequest checks the connection fields every operation needs: uri,
// options.database and, depending on the operation, either
// options.collection or the collection name for create/drop.
func ValidateRequest(op models.Operation, req *models.TaskRequest) error {
	if !op.Valid() {
		return newError(fmt.Sprintf(log_messages.FieldIsInvalid, "operation"))
	}
	if req == nil {
		return newError(fmt.Sprintf(log_messages.FieldMustBeSpecified, "request"))
	}

	if err := validate.Struct(req); err != nil {
		return translate(err)
	}

	if targetsNamedCollection(op) {
		return ValidateCollectionName(req.Collection)
	}
	if err := validate.Var(req.Options.Collection, "required"); err != nil {
		return newError(fmt.Sprintf(log_messages.FieldMustBeSpecified, "options.collection"))
	}
	return nil
}

func targetsNamedCollection(op models.Operation) bool {
	return op == models.OperationCreateCollection || op == models.OperationDropCollection
}

// translate maps the first validator field error to a descriptive message
// such as "options.database must be specified".
func translate(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return newError(err.Error())
	}

	fe := fieldErrs[0]
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return newError(fmt.Sprintf(log_messages.FieldMustBeSpecified, field))
	default:
		return newError(fmt.Sprintf(log_messages.FieldIsInvalid, field))
	}
}
