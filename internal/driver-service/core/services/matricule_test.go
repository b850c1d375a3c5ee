package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildMatricule(t *testing.T) {
	year := time.Now().Year()

	tests := []struct {
		company  string
		driverId int64
		want     string
	}{
		{"Global Express", 7, fmt.Sprintf("GLO-%d-0007", year)},
		{"Go 2 Logistics", 42, fmt.Sprintf("GO2-%d-0042", year)},
		{"AB", 1, fmt.Sprintf("ABX-%d-0001", year)},
		{"", 9, fmt.Sprintf("XXX-%d-0009", year)},
		{"--- Trans-Sahel ---", 12, fmt.Sprintf("TRA-%d-0012", year)},
		{"Global Express", 123456, fmt.Sprintf("GLO-%d-3456", year)},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, BuildMatricule(tc.company, tc.driverId), "company %q id %d", tc.company, tc.driverId)
	}
}
