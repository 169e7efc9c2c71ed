// Package report renders aggregation results: the human-readable table, raw
// machine-readable fields, CSV export, and the progress line.
package report

import (
	"fmt"
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
)

var (
	byteUnits  = []string{"B", "KiB", "MiB", "GiB", "TiB", "PiB", "EiB"}
	countUnits = []string{"", "K", "M", "B"}
)

// FormatSize renders n bytes with a binary unit and two decimals,
// e.g. 104857600 -> "100.00 MiB". Values below 1 KiB print as "N B".
func FormatSize(n int64) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	v := float64(n)
	i := 0
	for v >= 1024 && i < len(byteUnits)-1 {
		v /= 1024
		i++
	}
	// 1048575 B would otherwise print as "1024.00 KiB".
	if math.Round(v*100)/100 >= 1024 && i < len(byteUnits)-1 {
		v /= 1024
		i++
	}
	return fmt.Sprintf("%.2f %s", v, byteUnits[i])
}

// FormatDuration renders seconds as zero-padded HH:MM:SS. Hours grow past
// two digits instead of rolling over into days.
func FormatDuration(seconds float64) string {
	total := int64(math.Round(seconds))
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total%3600/60, total%60)
}

// FormatCount renders a count in short decimal form: 950, 1.2 K, 3.4 M, 5 B.
func FormatCount(n int64) string {
	if n < 1000 {
		return strconv.FormatInt(n, 10)
	}
	v := float64(n)
	i := 0
	for v >= 1000 && i < len(countUnits)-1 {
		v /= 1000
		i++
	}
	v = math.Round(v*10) / 10
	// 999999 would otherwise print as "1000 K".
	if v >= 1000 && i < len(countUnits)-1 {
		v = math.Round(v/1000*10) / 10
		i++
	}
	return humanize.FtoaWithDigits(v, 1) + " " + countUnits[i]
}

// FormatPercent renders a percentage with one decimal, e.g. "97.5%".
func FormatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', 1, 64) + "%"
}

// FormatSeconds renders a raw duration: integral values without a fraction.
func FormatSeconds(seconds float64) string {
	if seconds == math.Trunc(seconds) {
		return strconv.FormatFloat(seconds, 'f', 0, 64)
	}
	return strconv.FormatFloat(seconds, 'f', -1, 64)
}
