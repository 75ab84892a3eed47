package spellcheck

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDictionary = []string{"человек", "паук", "матрица", "начало"}

func TestCheck_ExactWordsAreValid(t *testing.T) {
	result := Check("человек паук", testDictionary)

	assert.True(t, result.Valid)
	assert.Empty(t, result.Fix)
}

func TestCheck_CorrectsCyrillicTypo(t *testing.T) {
	result := Check("человек spider поук", testDictionary)

	require.False(t, result.Valid)
	assert.Equal(t, "человек spider паук", result.Fix)
}

func TestCheck_PunctuationOnlyIsValid(t *testing.T) {
	result := Check("?!...,,,", testDictionary)

	assert.True(t, result.Valid)
}

func TestCheck_ShortTokensPassThrough(t *testing.T) {
	// Two runes is below the correction threshold even though the
	// dictionary has nothing like it.
	result := Check("ок", testDictionary)

	assert.True(t, result.Valid)
}

func TestCheck_LatinAndDigitsPassThrough(t *testing.T) {
	result := Check("matrix 1999", testDictionary)

	assert.True(t, result.Valid)
}

func TestCheck_MixedAlphabetTokenStaysUncorrected(t *testing.T) {
	// A token mixing Latin and Cyrillic is never corrected.
	result := Check("мaтрицa", testDictionary)

	assert.True(t, result.Valid)
}

func TestCheck_LowercasesBeforeComparing(t *testing.T) {
	result := Check("МАТРИЦА", testDictionary)

	assert.True(t, result.Valid)
}

func TestCheck_TieBreakPrefersEarlierEntry(t *testing.T) {
	// Both entries are at distance 1; the first one in slice order wins.
	result := Check("дам", []string{"дом", "дым"})

	require.False(t, result.Valid)
	assert.Equal(t, "дом", result.Fix)
}

func TestLoadDictionary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dictionary.txt")
	content := "# comment\nЧеловек\n\nпаук\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	words, err := LoadDictionary(path)

	require.NoError(t, err)
	assert.Equal(t, []string{"человек", "паук"}, words)
}

func TestLoadDictionary_MissingFile(t *testing.T) {
	_, err := LoadDictionary(filepath.Join(t.TempDir(), "absent.txt"))

	assert.Error(t, err)
}
