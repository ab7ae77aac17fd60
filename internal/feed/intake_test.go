package feed

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/feed-api/internal/apperr"
)

func TestImageName(t *testing.T) {
	tests := []struct {
		original string
		suffix   string
	}{
		{"photo.png", "-photo.png"},
		{"my summer photo.jpg", "-my-summer-photo.jpg"},
		{"../../etc/passwd", "-passwd"},
		{`C:\Users\me\pic.png`, "-pic.png"},
		{"", "-image"},
		{"..", "-image"},
	}
	for _, tt := range tests {
		t.Run(tt.original, func(t *testing.T) {
			name := imageName(tt.original)
			assert.True(t, strings.HasSuffix(name, tt.suffix), name)
			assert.Len(t, name, 36+len(tt.suffix))
			assert.NotContains(t, name, "/")
		})
	}
	assert.NotEqual(t, imageName("a.png"), imageName("a.png"))
}

func TestParsePostForm_JSON(t *testing.T) {
	req := jsonRequest(t, http.MethodPut, "/feed/post/1",
		map[string]string{"title": " Hello ", "content": "World ", "image": "/images/a.png"})

	form, err := parsePostForm(httptest.NewRecorder(), req, 1<<20)
	require.NoError(t, err)
	defer form.cleanup()

	assert.Equal(t, "Hello", form.Title)
	assert.Equal(t, "World", form.Content)
	assert.Equal(t, "images/a.png", form.ImageRef)
	assert.Nil(t, form.file)
}

func TestParsePostForm_Multipart(t *testing.T) {
	req := multipartRequest(t, http.MethodPost, "/feed/post",
		map[string]string{"title": "Hello", "content": "World"}, pngUpload("a.png"))

	form, err := parsePostForm(httptest.NewRecorder(), req, 1<<20)
	require.NoError(t, err)
	defer form.cleanup()

	assert.Equal(t, "Hello", form.Title)
	require.NotNil(t, form.file)
	assert.Equal(t, "a.png", form.file.Filename)

	img, err := inspectImage(form.file)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.contentType)
}

func TestParsePostForm_InvalidBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/feed/post", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")

	_, err := parsePostForm(httptest.NewRecorder(), req, 1<<20)

	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestInspectImage_Missing(t *testing.T) {
	_, err := inspectImage(nil)
	assert.ErrorIs(t, err, errNoImage)
}
