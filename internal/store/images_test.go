package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImageName(t *testing.T) {
	tests := []struct {
		ref     string
		want    string
		wantErr bool
	}{
		{ref: "images/abc-cat.png", want: "abc-cat.png"},
		{ref: "/images/abc-cat.png", want: "abc-cat.png"},
		{ref: "abc-cat.png", want: "abc-cat.png"},
		{ref: "images/../etc/passwd", wantErr: true},
		{ref: "images/sub/cat.png", wantErr: true},
		{ref: `images/..\cat.png`, wantErr: true},
		{ref: "images/", wantErr: true},
		{ref: "images/..", wantErr: true},
		{ref: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := ImageName(tt.ref)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidImageRef)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestImageRef(t *testing.T) {
	assert.Equal(t, "images/abc-cat.png", ImageRef("abc-cat.png"))
}
