package agentmark

import (
	"errors"
	"testing"

	"github.com/itsatony/go-cuserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metadata(t *testing.T, err error, key string) string {
	t.Helper()
	var customErr *cuserr.CustomError
	require.True(t, errors.As(err, &customErr))
	val, ok := customErr.GetMetadata(key)
	require.True(t, ok, "missing metadata %q", key)
	return val
}

func TestExtractionErrors(t *testing.T) {
	t.Run("placement", func(t *testing.T) {
		err := NewPlacementError(TagFileAttachment)
		assert.True(t, errors.Is(err, ErrPlacement))
		assert.Contains(t, err.Error(), ErrMsgAttachmentPlacement)
		assert.Equal(t, TagFileAttachment, metadata(t, err, MetaKeyTag))
	})

	t.Run("missing required field", func(t *testing.T) {
		err := NewMissingRequiredFieldError(ErrMsgImageAttachmentProp, TagImageAttachment, AttrImage)
		assert.True(t, errors.Is(err, ErrMissingRequiredField))
		assert.Equal(t, AttrImage, metadata(t, err, MetaKeyField))
	})

	t.Run("ordering", func(t *testing.T) {
		err := NewOrderingError("be brief")
		assert.True(t, errors.Is(err, ErrOrdering))
		assert.Contains(t, err.Error(), "System message may only be the first message: be brief")
	})

	t.Run("invalid tag", func(t *testing.T) {
		err := NewInvalidTagError(TagUser, KindImage)
		assert.True(t, errors.Is(err, ErrInvalidTag))
		assert.Contains(t, err.Error(), `Invalid role tag: "User" in config type: image_config.`)
		assert.Equal(t, string(KindImage), metadata(t, err, MetaKeyKind))
	})
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("text_config.model_name", ErrMsgRequiredField)

	assert.True(t, errors.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), "invalid text_config.model_name: field is required")
	assert.Equal(t, "text_config.model_name", metadata(t, err, MetaKeyField))
}

func TestTemplateError(t *testing.T) {
	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("unexpected token")
		err := NewTemplateError(ErrMsgTemplateParse, cause)

		assert.True(t, errors.Is(err, ErrTemplate))
		assert.True(t, errors.Is(err, cause))
		assert.Contains(t, err.Error(), "template parsing failed: unexpected token")
	})

	t.Run("without cause", func(t *testing.T) {
		err := NewTemplateError(ErrMsgInvalidDocument, nil)
		assert.True(t, errors.Is(err, ErrTemplate))
		assert.Contains(t, err.Error(), ErrMsgInvalidDocument)
	})

	t.Run("source position", func(t *testing.T) {
		err := NewSourceError(7, 3, errors.New("unclosed element"))
		assert.True(t, errors.Is(err, ErrTemplate))
		assert.Equal(t, "7", metadata(t, err, MetaKeyLine))
		assert.Equal(t, "3", metadata(t, err, MetaKeyColumn))
	})
}

func TestLoaderErrors(t *testing.T) {
	notFound := NewNotFoundError(ErrMsgPromptNotFound, "a/b.prompt.mdx")
	assert.True(t, errors.Is(notFound, ErrNotFound))
	assert.Equal(t, "a/b.prompt.mdx", metadata(t, notFound, MetaKeyPath))

	closed := NewLoaderClosedError(LoaderDriverMemory)
	assert.True(t, errors.Is(closed, ErrLoaderClosed))
	assert.Equal(t, LoaderDriverMemory, metadata(t, closed, MetaKeyDriver))

	cause := errors.New("disk on fire")
	wrapped := NewLoaderError(ErrMsgLoaderRead, "x", cause)
	assert.True(t, errors.Is(wrapped, cause))
}
