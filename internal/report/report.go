// Package report renders expense listings as downloadable documents.
package report

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

var monthNames = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// PeriodLabel renders t as "<Bulan> <tahun>", e.g. "Maret 2024".
func PeriodLabel(t time.Time) string {
	return fmt.Sprintf("%s %d", monthNames[t.Month()-1], t.Year())
}

// FileName builds "Laporan_<owner>_<YYYY_MM>.<ext>" with the owner name reduced to safe characters.
func FileName(owner string, at time.Time, ext string) string {
	var b strings.Builder
	for _, r := range owner {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('_')
		}
	}
	name := strings.Trim(b.String(), "_")
	if name == "" {
		name = "User"
	}
	return fmt.Sprintf("Laporan_%s_%s.%s", name, at.Format("2006_01"), ext)
}

// stripEmoji drops pictographs, dingbats and joiners, then trims spaces.
func stripEmoji(s string) string {
	var b strings.Builder
	for _, r := range s {
		if isEmoji(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

func isEmoji(r rune) bool {
	switch {
	case r >= 0x1F000 && r <= 0x1FAFF: // pictographs, emoticons, transport, supplemental symbols
		return true
	case r >= 0x2600 && r <= 0x27BF: // misc symbols, dingbats
		return true
	case r >= 0x24C2 && r <= 0x25FF:
		return true
	case r >= 0xFE00 && r <= 0xFE0F, r == 0x200D, r == 0x2B50:
		return true
	}
	return false
}

// truncate cuts s to limit runes, replacing the tail with "..." when it overflows.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}
