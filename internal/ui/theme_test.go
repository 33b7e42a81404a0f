package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBar(t *testing.T) {
	assert.Equal(t, "[#####-----]", Bar(50, 100, 10))
	assert.Equal(t, "[----------]", Bar(-3, 100, 10))
	assert.Equal(t, "[##########]", Bar(150, 100, 10))
	assert.Equal(t, "[---]", Bar(0, 0, 1))
}

func TestStatIcon(t *testing.T) {
	assert.Equal(t, "🎯", StatIcon("Focus"))
	assert.Equal(t, "⭐", StatIcon("level"))
	assert.Equal(t, "•", StatIcon("luck"))
}
