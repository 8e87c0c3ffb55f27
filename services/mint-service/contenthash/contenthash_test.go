package contenthash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashIsStable(t *testing.T) {
	first := Hash("Linear Equations 101")
	second := Hash("Linear Equations 101")

	require.Len(t, first, 64)
	assert.Equal(t, first, second)
	assert.True(t, Valid(first))
	assert.Regexp(t, "^[0-9a-f]{64}$", first)
}

func TestHashKnownVector(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Hash(""))
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", Hash("abc"))
}

func TestHashDoesNotNormalize(t *testing.T) {
	base := Hash("Linear Equations 101")
	for _, variant := range []string{
		"linear equations 101",
		"Linear Equations 101 ",
		"Linear  Equations 101",
		"Linear Equations 101\n",
	} {
		assert.NotEqual(t, base, Hash(variant), "variant %q", variant)
	}
}

func TestVerify(t *testing.T) {
	h := Hash("photosynthesis")
	assert.True(t, Verify("photosynthesis", h))
	assert.True(t, Verify("photosynthesis", " "+string([]byte(h))+" "))
	assert.False(t, Verify("Photosynthesis", h))
}

func TestValid(t *testing.T) {
	assert.False(t, Valid(""))
	assert.False(t, Valid("abc"))
	assert.False(t, Valid("zz"+Hash("x")[2:]))
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 0, WordCount(""))
	assert.Equal(t, 0, WordCount("   \n\t"))
	assert.Equal(t, 3, WordCount("Linear Equations 101"))
	assert.Equal(t, 4, WordCount("  one\ttwo\nthree   four  "))
}
