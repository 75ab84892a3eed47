package i18n

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLocales(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestLoadFromDir_FlattensNestedKeys(t *testing.T) {
	dir := writeLocales(t, map[string]string{
		"ru.yaml": "ru:\n  reply:\n    greeting: \"Привет\"\n  menu:\n    find: \"Найти фильм\"\n",
	})

	m, err := LoadFromDir(dir, "ru")
	require.NoError(t, err)

	tr := m.Translator("ru")
	assert.Equal(t, "Привет", tr.T("reply.greeting"))
	assert.Equal(t, "Найти фильм", tr.T("menu.find"))
}

func TestTranslator_MissingKeyReturnsKey(t *testing.T) {
	dir := writeLocales(t, map[string]string{
		"ru.yaml": "ru:\n  reply:\n    greeting: \"Привет\"\n",
	})

	m, err := LoadFromDir(dir, "ru")
	require.NoError(t, err)

	assert.Equal(t, "reply.absent", m.Translator("ru").T("reply.absent"))
}

func TestTranslator_UnknownLanguageFallsBack(t *testing.T) {
	dir := writeLocales(t, map[string]string{
		"ru.yaml": "ru:\n  reply:\n    greeting: \"Привет\"\n",
		"en.yaml": "en:\n  reply:\n    greeting: \"Hello\"\n",
	})

	m, err := LoadFromDir(dir, "ru")
	require.NoError(t, err)

	assert.Equal(t, "Привет", m.Translator("de").T("reply.greeting"))
	assert.Equal(t, "Hello", m.Translator("en").T("reply.greeting"))
}

func TestLoadFromDir_MissingDefaultLanguage(t *testing.T) {
	dir := writeLocales(t, map[string]string{
		"en.yaml": "en:\n  reply:\n    greeting: \"Hello\"\n",
	})

	_, err := LoadFromDir(dir, "ru")

	assert.Error(t, err)
}

func TestLoadFromDir_EmptyDir(t *testing.T) {
	_, err := LoadFromDir(t.TempDir(), "ru")

	assert.Error(t, err)
}

func TestBundledLocaleCoversBotKeys(t *testing.T) {
	m, err := LoadFromDir("locales", "ru")
	require.NoError(t, err)

	tr := m.Translator("ru")
	for _, key := range []string{
		"command.start",
		"menu.find", "menu.pick", "menu.rating", "menu.best", "menu.advanced",
		"search.by_title", "search.by_id", "search.random",
		"button.yes", "button.no", "button.restart", "button.more", "button.skip",
		"tactic.genre", "tactic.year", "tactic.director", "tactic.done",
		"tactic.year_before", "tactic.year_from",
		"card.title", "card.released_in", "card.genres", "card.directors",
		"card.more_info", "card.kinopoisk", "card.imdb", "card.no_rating",
		"reply.greeting", "reply.choose_search_type", "reply.enter_query",
		"reply.enter_numeric_id", "reply.searching", "reply.found_movie",
		"reply.found_abstract", "reply.found_rating", "reply.movies_found",
		"reply.no_results", "reply.unsupported_action", "reply.choose_genre",
		"reply.unknown_genre", "reply.choose_type", "reply.unknown_type",
		"reply.choose_rating", "reply.enter_favorite_movies", "reply.bad_comma_list",
		"reply.enter_favorite_genres", "reply.choose_min_rating", "reply.best_found",
		"reply.podcast_episode", "reply.choose_tactic", "reply.unknown_tactic",
		"reply.choose_year_half", "reply.choose_director", "reply.no_directors",
		"reply.facet_empty", "reply.did_you_mean", "reply.rate_limited",
	} {
		assert.NotEqual(t, key, tr.T(key), "locale is missing %s", key)
	}
}
