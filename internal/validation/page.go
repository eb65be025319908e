package validation

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/goliatone/go-pagebuilder/internal/domain"
	"github.com/goliatone/go-pagebuilder/internal/pages"
)

const (
	MaxTitleLength   = 255
	MaxColumns       = 4
	MaxContentType   = 32
	maxColumnIndex   = MaxColumns - 1
	contentIDMessage = "is required for post and media blocks"
)

//go:embed schemas/page_payload.json
var pagePayloadSchema []byte

var (
	pageSchemaOnce     sync.Once
	pageSchemaCompiled *jsonschema.Schema
	pageSchemaErr      error
)

// PagePayloadSchema returns the JSON schema document for page payloads.
func PagePayloadSchema() []byte {
	out := make([]byte, len(pagePayloadSchema))
	copy(out, pagePayloadSchema)
	return out
}

func pageSchema() (*jsonschema.Schema, error) {
	pageSchemaOnce.Do(func() {
		pageSchemaCompiled, pageSchemaErr = compileSchema(pagePayloadSchema)
		if pageSchemaErr != nil {
			pageSchemaErr = fmt.Errorf("%w: page payload: %v", ErrSchemaInvalid, pageSchemaErr)
		}
	})
	return pageSchemaCompiled, pageSchemaErr
}

// ValidatePagePayload checks a page payload against the page schema. The
// payload can be raw JSON or a value such as pages.SavePageRequest.
func ValidatePagePayload(payload any) error {
	schema, err := pageSchema()
	if err != nil {
		return err
	}
	return ValidatePayload(schema, payload)
}

// PageRequest applies the field rules editors are held to when saving a
// page. Unknown block content types pass; the engine stores them as empty
// fallback blocks.
func PageRequest(req pages.SavePageRequest) error {
	errs := validation.Errors{}
	add := func(key string, err error) {
		if err != nil {
			errs[key] = err
		}
	}

	add("title", validation.Validate(strings.TrimSpace(req.Title),
		validation.Required,
		validation.RuneLength(1, MaxTitleLength),
	))
	if req.Slug != nil {
		add("slug", validation.Validate(strings.TrimSpace(*req.Slug), validation.Required))
	}
	add("status", validation.Validate(req.Status, statusRule))

	for i, section := range req.Sections {
		prefix := fmt.Sprintf("sections.%d", i)
		add(prefix+".layout.columns_count", validation.Validate(section.Layout.ColumnsCount,
			validation.Min(0),
			validation.Max(MaxColumns),
		))
		for j, column := range section.Layout.Columns {
			columnKey := fmt.Sprintf("%s.layout.columns.%d", prefix, j)
			add(columnKey+".index", validation.Validate(column.Index,
				validation.Min(0),
				validation.Max(maxColumnIndex),
			))
			for k, block := range column.Blocks {
				blockKey := fmt.Sprintf("%s.blocks.%d", columnKey, k)
				contentType := strings.ToLower(strings.TrimSpace(block.ContentType))
				add(blockKey+".contentType", validation.Validate(contentType,
					validation.Required,
					validation.RuneLength(1, MaxContentType),
				))
				if (contentType == domain.ContentTypePost || contentType == domain.ContentTypeMedia) &&
					(block.ContentID == nil || *block.ContentID == uuid.Nil) {
					errs[blockKey+".contentId"] = validation.NewError("validation_content_id_required", contentIDMessage)
				}
			}
		}
	}
	return errs.Filter()
}

var statusRule = validation.By(func(value any) error {
	raw, _ := value.(string)
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	if !domain.ParseStatus(raw).Valid() {
		return validation.NewError("validation_status_invalid", "must be one of draft, review or published")
	}
	return nil
})
