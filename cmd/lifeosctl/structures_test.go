package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitLevels(t *testing.T) {
	assert.Equal(t, []string{"Shelf", "Book", "Chapter"}, splitLevels([]string{"Shelf,Book", "Chapter"}))
	assert.Nil(t, splitLevels(nil))
}
