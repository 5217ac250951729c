package services

import (
	"strconv"
	"strings"

	"taskmanager/internal/domain/models"
)

const csvHeader = "ID,Task Name,Description,Status,Priority,Due Date,Created Date,Updated Date\n"

// FormatCSV renders tasks with a fixed 8-column header. Free-text columns are
// always quoted; a missing description becomes an empty quoted field.
func FormatCSV(tasks []models.Task) []byte {
	var b strings.Builder
	b.WriteString(csvHeader)

	for i := range tasks {
		t := &tasks[i]
		description := ""
		if t.Description != nil {
			description = *t.Description
		}

		b.WriteString(strconv.FormatInt(t.ID, 10))
		b.WriteByte(',')
		b.WriteString(quoteCSV(t.Name))
		b.WriteByte(',')
		b.WriteString(quoteCSV(description))
		b.WriteByte(',')
		b.WriteString(string(t.Status))
		b.WriteByte(',')
		b.WriteString(string(t.Priority))
		b.WriteByte(',')
		b.WriteString(models.NewDate(t.DueDate).String())
		b.WriteByte(',')
		b.WriteString(models.DateTime{Time: t.CreatedAt}.String())
		b.WriteByte(',')
		b.WriteString(models.DateTime{Time: t.UpdatedAt}.String())
		b.WriteByte('\n')
	}

	return []byte(b.String())
}

func quoteCSV(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
