package cloudinary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want Asset
	}{
		{
			name: "image with version and folder",
			url:  "https://res.cloudinary.com/demo/image/upload/v1718000000/Notes-app-images/01J0ABCDEF.png",
			want: Asset{Cloud: "demo", ResourceType: "image", PublicID: "Notes-app-images/01J0ABCDEF"},
		},
		{
			name: "audio is stored as video",
			url:  "https://res.cloudinary.com/demo/video/upload/v1/Notes-app-audio/01J0XYZ.mp3",
			want: Asset{Cloud: "demo", ResourceType: "video", PublicID: "Notes-app-audio/01J0XYZ"},
		},
		{
			name: "transformations before version",
			url:  "https://res.cloudinary.com/demo/image/upload/c_fill,w_200/q_auto/v12/a/b/c.jpg",
			want: Asset{Cloud: "demo", ResourceType: "image", PublicID: "a/b/c"},
		},
		{
			name: "transformations without version",
			url:  "https://res.cloudinary.com/demo/image/upload/w_100,h_100/sample.jpg",
			want: Asset{Cloud: "demo", ResourceType: "image", PublicID: "sample"},
		},
		{
			name: "no version no folder",
			url:  "http://res.cloudinary.com/demo/image/upload/sample.webp",
			want: Asset{Cloud: "demo", ResourceType: "image", PublicID: "sample"},
		},
		{
			name: "raw keeps extension",
			url:  "https://res.cloudinary.com/demo/raw/upload/v3/docs/readme.txt",
			want: Asset{Cloud: "demo", ResourceType: "raw", PublicID: "docs/readme.txt"},
		},
		{
			name: "escaped public id",
			url:  "https://res.cloudinary.com/demo/image/upload/v3/my%20folder/pic.png",
			want: Asset{Cloud: "demo", ResourceType: "image", PublicID: "my folder/pic"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseURL(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseURLRejects(t *testing.T) {
	for _, raw := range []string{
		"https://example.com/demo/image/upload/v1/a.png",
		"https://res.cloudinary.com/demo/image/upload",
		"https://res.cloudinary.com/demo/audio/upload/v1/a.mp3",
		"https://res.cloudinary.com/demo/image/fetch/v1/a.png",
		"https://res.cloudinary.com/demo/image/upload/v1/",
		"::not a url",
	} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseURL(raw)
			assert.ErrorIs(t, err, ErrNotCloudinaryURL)
		})
	}
}
