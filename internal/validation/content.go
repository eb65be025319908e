package validation

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-pagebuilder/internal/content"
)

// PostRequest checks the fields a post save needs before it reaches storage.
func PostRequest(req content.SavePostRequest) error {
	errs := validation.Errors{
		"title": validation.Validate(strings.TrimSpace(req.Title),
			validation.Required,
			validation.RuneLength(1, MaxTitleLength),
		),
		"status": validation.Validate(req.Status, statusRule),
		"tags":   validation.Validate(req.Tags, validation.Each(validation.RuneLength(0, 64))),
	}
	return errs.Filter()
}
