package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type keyTranslator struct{}

func (keyTranslator) T(key string) string { return key }
func (keyTranslator) Lang() string        { return "ru" }

func TestMainMenu(t *testing.T) {
	rows := MainMenu(keyTranslator{})

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"menu.find", "menu.pick"}, rows[0])
	assert.Equal(t, []string{"menu.advanced"}, rows[2])
}

func TestRatings(t *testing.T) {
	rows := Ratings()

	require.Len(t, rows, 2)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, rows[0])
	assert.Equal(t, []string{"6", "7", "8", "9", "10"}, rows[1])
}

func TestRows(t *testing.T) {
	rows := Rows([]string{"a", "b", "c", "d", "e"}, 2)

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"a", "b"}, rows[0])
	assert.Equal(t, []string{"e"}, rows[2])
}

func TestRows_Empty(t *testing.T) {
	assert.Nil(t, Rows(nil, 2))
}
