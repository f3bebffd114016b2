// All global custom validations in Quorum are defined here.
// These validations are allowed to be used anywhere in the application.

package validations

import (
	"Quorum/pkg/log"
	"context"

	"github.com/asaskevich/govalidator"
)

func RegisterCustomValidations(ctx context.Context, logger log.Logger) {
	// This global validation doesn't allow whitespace in input.
	govalidator.TagMap["nospace"] = govalidator.Validator(func(str string) bool {
		return !govalidator.HasWhitespace(str)
	})
	// This global validation doesn't allow input made of whitespace only.
	govalidator.TagMap["nospaceonly"] = govalidator.Validator(func(str string) bool {
		return !govalidator.HasWhitespaceOnly(str)
	})
}
