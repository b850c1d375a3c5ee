package services

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// BuildMatricule derives the permanent driver matricule PREFIX-YEAR-NNNN.
// PREFIX is the first three alphanumeric characters of the company name,
// uppercased and padded with X; NNNN is the driver id zero-padded to four
// digits, or its last four when longer.
func BuildMatricule(companyName string, driverId int64) string {
	return fmt.Sprintf("%s-%d-%s", matriculePrefix(companyName), time.Now().Year(), matriculeSerial(driverId))
}

func matriculePrefix(companyName string) string {
	var b strings.Builder
	for _, r := range companyName {
		if r < 128 && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(unicode.ToUpper(r))
			if b.Len() >= 3 {
				break
			}
		}
	}
	prefix := b.String()
	for len(prefix) < 3 {
		prefix += "X"
	}
	return prefix
}

func matriculeSerial(driverId int64) string {
	serial := fmt.Sprintf("%04d", driverId)
	if len(serial) > 4 {
		serial = serial[len(serial)-4:]
	}
	return serial
}
