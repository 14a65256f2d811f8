// All global custom validations in Reelo are defined here.
// These validations are allowed to be used anywhere in the application.

package validations

import (
	"strings"

	"github.com/asaskevich/govalidator"
)

// This function registers custom validation tags to be used as annotations in struct.
// After registering and adding the annotation, govalidator.ValidateStruct will trigger the validation.
func RegisterCustomValidations() {
	// This custom validation checks if there's any spaces in the input string.
	govalidator.TagMap["nospace"] = govalidator.Validator(func(str string) bool {
		return !strings.Contains(str, " ")
	})
	// This custom validation checks a gift rarity tier.
	govalidator.TagMap["rarity"] = govalidator.Validator(func(str string) bool {
		switch str {
		case "common", "rare", "epic", "legendary":
			return true
		}
		return false
	})
	// This custom validation checks a synchronized reaction type.
	govalidator.TagMap["reactiontype"] = govalidator.Validator(func(str string) bool {
		switch str {
		case "wave", "cheer", "fire", "love", "mind_blown":
			return true
		}
		return false
	})
}
