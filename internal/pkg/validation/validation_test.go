package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidAddress(t *testing.T) {
	assert.True(t, IsValidAddress("0xabc123"))
	assert.True(t, IsValidAddress("sensor:plant-7"))
	assert.False(t, IsValidAddress(""))
	assert.False(t, IsValidAddress("has space"))
	assert.False(t, IsValidAddress("0x\n1"))
}

func TestIsValidPassword(t *testing.T) {
	assert.True(t, IsValidPassword("s3cret!pass"))
	assert.False(t, IsValidPassword("short1!"))
	assert.False(t, IsValidPassword("nodigits!!"))
	assert.False(t, IsValidPassword("nospecial12"))
}
