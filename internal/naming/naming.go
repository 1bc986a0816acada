package naming

import (
	"fmt"
	"time"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Suffix converts a zero-based index to its spreadsheet-column style label:
// 0 -> "A", 25 -> "Z", 26 -> "AA", 27 -> "AB". This is bijective base-26
// over the letters A-Z, not positional base-26 with a zero digit.
func Suffix(index int) string {
	if index < 0 {
		return ""
	}
	suffix := ""
	for index >= len(alphabet) {
		suffix = string(alphabet[index%len(alphabet)]) + suffix
		index = index/len(alphabet) - 1
	}
	return string(alphabet[index]) + suffix
}

// Names generates count creative names for the given reference date. Every
// name shares the DDMM date stamp and names are strictly increasing by
// suffix, so a batch never collides with itself. Nothing prevents collisions
// across separate runs on the same day; the upload ledger is the guard for
// that.
func Names(count int, ref time.Time) []string {
	if count <= 0 {
		return nil
	}
	stamp := ref.Format("0201")
	names := make([]string, 0, count)
	for i := 0; i < count; i++ {
		names = append(names, fmt.Sprintf("%s%s", stamp, Suffix(i)))
	}
	return names
}
