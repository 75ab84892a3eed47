// Package keyboard builds channel-agnostic reply keyboards as rows of
// button labels. Channels translate the rows into their own wire format.
package keyboard

import (
	"strconv"

	"github.com/kinoscout/movie-bot/internal/i18n"
)

// MainMenu lists the search modes the bot offers.
func MainMenu(t i18n.Translator) [][]string {
	return [][]string{
		{t.T("menu.find"), t.T("menu.pick")},
		{t.T("menu.rating"), t.T("menu.best")},
		{t.T("menu.advanced")},
	}
}

// SearchTypes offers the lookup modes of the find branch.
func SearchTypes(t i18n.Translator) [][]string {
	return [][]string{
		{t.T("search.by_title"), t.T("search.by_id")},
		{t.T("search.random")},
	}
}

// YesNo is the two-button confirmation keyboard.
func YesNo(t i18n.Translator) [][]string {
	return [][]string{
		{t.T("button.yes"), t.T("button.no")},
	}
}

// Ratings offers the 1 to 10 rating scale in two rows.
func Ratings() [][]string {
	rows := make([][]string, 2)
	for i := 1; i <= 10; i++ {
		row := (i - 1) / 5
		rows[row] = append(rows[row], strconv.Itoa(i))
	}
	return rows
}

// Rows lays arbitrary labels out with at most perRow buttons per row.
func Rows(labels []string, perRow int) [][]string {
	if perRow <= 0 {
		perRow = 2
	}

	var rows [][]string
	for start := 0; start < len(labels); start += perRow {
		end := start + perRow
		if end > len(labels) {
			end = len(labels)
		}
		rows = append(rows, labels[start:end])
	}
	return rows
}
