// All custom validations related to question entity in Quorum are defined here.

package question

import (
	"Quorum/pkg/log"
	"context"
	"strings"

	"github.com/asaskevich/govalidator"
)

// Categories a question can be filed under.
var Categories = []string{
	"Programming",
	"Design",
	"Marketing",
	"3D",
	"Unity",
	"Project Management",
	"Data Science",
	"Machine Learning",
	"DevOps",
	"Business",
	"Other",
}

func RegisterCustomValidations(ctx context.Context, logger log.Logger) {
	// Category validation.
	// A question has to be filed under one of the known categories.
	govalidator.TagMap["category_custom"] = govalidator.Validator(func(str string) bool {
		for _, category := range Categories {
			if strings.EqualFold(category, str) {
				return true
			}
		}
		return false
	})

	logger.WithCtx(ctx).Info().Msg("Successfully registered question related custom validations.")
}
