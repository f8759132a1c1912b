package domain

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidDateFormat é retornado quando o texto não é uma data ISO-8601.
var ErrInvalidDateFormat = errors.New("invalid ISO-8601 date")

// InvalidHarvestDateMessage é a mensagem pública para harvest_date mal formatado.
const InvalidHarvestDateMessage = "Invalid harvest_date format. Use ISO format (YYYY-MM-DDTHH:MM:SS)"

// Layouts com fuso explícito. O sufixo Z é normalizado para +00:00 antes do parse.
var offsetLayouts = []string{
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02T15:04-07:00",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04-07:00",
}

// Layouts sem fuso são interpretados como UTC.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseHarvestDate converte um texto ISO-8601 em time.Time.
func ParseHarvestDate(text string) (time.Time, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return time.Time{}, ErrInvalidDateFormat
	}
	if strings.HasSuffix(s, "Z") || strings.HasSuffix(s, "z") {
		s = s[:len(s)-1] + "+00:00"
	}

	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidDateFormat
}
