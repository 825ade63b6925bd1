package repository

import (
	"fmt"
	"time"
)

// Даты хранятся текстом RFC3339 в UTC в обоих движках - так сравнение
// next_due <= ? и выборки за период работают лексикографически одинаково
// в PostgreSQL и SQLite.

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("некорректная дата в базе данных %q: %w", s, err)
	}
	return t, nil
}
