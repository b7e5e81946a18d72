package randx

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtension(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"a.png", ".png"},
		{"archive.tar.gz", ".gz"},
		{"photo.JPG", ".JPG"},
		{`C:\Users\me\report.pdf`, ".pdf"},
		{"dir.v2/readme", ""},
		{"noext", ""},
		{".bashrc", ""},
		{"trailing.", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extension(tt.name))
		})
	}
}

func TestObjectKey(t *testing.T) {
	a, err := ObjectKey("a.png")
	require.NoError(t, err)
	b, err := ObjectKey("a.png")
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(a, ".png"))
	assert.NotEqual(t, a, b)
	assert.True(t, IsObjectKey(a))
	assert.Len(t, a, 36+len(".png"))
}

func TestObjectKey_MissingExtension(t *testing.T) {
	_, err := ObjectKey("README")
	assert.ErrorIs(t, err, ErrMissingExtension)
}

func TestIsObjectKey(t *testing.T) {
	assert.False(t, IsObjectKey("a.png"))
	assert.False(t, IsObjectKey("not-a-uuid-but-thirty-six-characters.png"))
	assert.False(t, IsObjectKey("3f0c2a4e-1b2c-4d5e-8f90-0123456789ab"))
	assert.True(t, IsObjectKey("3f0c2a4e-1b2c-4d5e-8f90-0123456789ab.txt"))
}
