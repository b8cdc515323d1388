package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFullFormat(t *testing.T) {
	assert.NotEmpty(t, Commit)
	assert.Equal(t, AppName+"/"+Commit, Full())
}

func TestShortenCapsAtEightChars(t *testing.T) {
	assert.Equal(t, "a3f8c2d1", shorten("a3f8c2d1e9b70456"))
	assert.Equal(t, "dev", shorten("dev"))
}
