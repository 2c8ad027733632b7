package services

import (
	"strings"
	"time"
	"unicode/utf8"
)

// IsValidTimestamp reports whether s is a well-formed ISO-8601 timestamp.
// A literal "Z" is read as "+00:00".
//
// The date is YYYY-MM-DD, YYYYMMDD or an ISO week date (YYYY-Www[-D],
// YYYYWww[D]). Any single character may separate it from the time, which is
// HH[:MM[:SS]] or HH[MM[SS]] with an optional fraction after "." or ",".
// Fraction digits past microseconds are ignored. The offset uses the same
// clock grammar after "+" or "-" and must be under 24 hours.
func IsValidTimestamp(s string) bool {
	s = strings.ReplaceAll(s, "Z", "+00:00")
	if len(s) < 7 {
		return false
	}

	sep := dateTimeSeparator(s)
	if sep < 0 {
		return false
	}
	if sep >= len(s) {
		return validISODate(s)
	}
	if !validISODate(s[:sep]) {
		return false
	}

	_, width := utf8.DecodeRuneInString(s[sep:])
	return validISOTime(s[sep+width:])
}

// dateTimeSeparator returns the index where the date portion of s ends.
func dateTimeSeparator(s string) int {
	if len(s) == 7 {
		return 7
	}

	if s[4] == '-' {
		if s[5] != 'W' {
			return 10
		}
		if len(s) > 8 && s[8] == '-' {
			if len(s) == 9 {
				return -1
			}
			// YYYY-Www-D or YYYY-Www followed by a "-" separator.
			if len(s) > 10 && isDigit(s[10]) {
				return 8
			}
			return 10
		}
		return 8
	}

	if s[4] == 'W' {
		idx := 7
		for idx < len(s) && isDigit(s[idx]) {
			idx++
		}
		if idx < 9 {
			return idx
		}
		if idx%2 == 0 {
			return 7
		}
		return 8
	}
	return 8
}

func validISODate(d string) bool {
	year, ok := digitsAt(d, 0, 4)
	if !ok || len(d) < 5 {
		return false
	}

	pos := 4
	dashed := d[pos] == '-'
	if dashed {
		pos++
	}

	if pos < len(d) && d[pos] == 'W' {
		week, ok := digitsAt(d, pos+1, 2)
		if !ok {
			return false
		}
		pos += 3
		weekday := 1
		if pos < len(d) {
			if dashed {
				if d[pos] != '-' {
					return false
				}
				pos++
			}
			if weekday, ok = digitsAt(d, pos, 1); !ok {
				return false
			}
			pos++
		}
		return pos == len(d) && validISOWeek(year, week, weekday)
	}

	month, ok := digitsAt(d, pos, 2)
	if !ok {
		return false
	}
	pos += 2
	if dashed {
		if pos >= len(d) || d[pos] != '-' {
			return false
		}
		pos++
	}
	day, ok := digitsAt(d, pos, 2)
	if !ok {
		return false
	}
	pos += 2

	if pos != len(d) || year < 1 || month < 1 || month > 12 || day < 1 {
		return false
	}
	return day <= daysIn(year, time.Month(month))
}

func validISOWeek(year, week, weekday int) bool {
	if year < 1 || weekday < 1 || weekday > 7 || week < 1 || week > 53 {
		return false
	}
	if week == 53 {
		first := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).Weekday()
		if first != time.Thursday && !(first == time.Wednesday && isLeap(year)) {
			return false
		}
	}

	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	monday := jan4.AddDate(0, 0, -((int(jan4.Weekday()) + 6) % 7))
	date := monday.AddDate(0, 0, (week-1)*7+weekday-1)
	return date.Year() >= 1 && date.Year() <= 9999
}

func validISOTime(t string) bool {
	tz := strings.IndexAny(t, "+-")
	end := len(t)
	if tz >= 0 {
		end = tz
	}

	hour, minute, second, trailing, ok := parseClock(t, end)
	if !ok || hour > 23 || minute > 59 || second > 59 {
		return false
	}
	if tz < 0 {
		return !trailing
	}

	offset := t[tz+1:]
	oh, om, os, trailing, ok := parseClock(offset, len(offset))
	if !ok || trailing {
		return false
	}
	return oh*3600+om*60+os < 24*3600
}

// parseClock reads HH[:MM[:SS]] or HH[MM[SS]] with an optional fraction from
// s[:end]. trailing reports whether s continues past the parsed clock.
func parseClock(s string, end int) (hour, minute, second int, trailing, ok bool) {
	var fields [3]int
	p := 0
	colons := true

	for i := range fields {
		v, ok := digitsAt(s, p, 2)
		if !ok {
			return 0, 0, 0, false, false
		}
		fields[i] = v
		p += 2

		c := byteAt(s, p)
		p++
		if i == 0 {
			colons = c == ':'
		}
		if p >= end {
			return fields[0], fields[1], fields[2], c != 0, true
		}
		if colons && c == ':' {
			continue
		}
		if c == '.' || c == ',' {
			break
		}
		if colons {
			return 0, 0, 0, false, false
		}
		p--
	}

	n := min(end-p, 6)
	if n <= 0 {
		return 0, 0, 0, false, false
	}
	if _, ok := digitsAt(s, p, n); !ok {
		return 0, 0, 0, false, false
	}
	p += n
	for isDigit(byteAt(s, p)) {
		p++
	}
	return fields[0], fields[1], fields[2], byteAt(s, p) != 0, true
}

func digitsAt(s string, start, n int) (int, bool) {
	if start < 0 || start+n > len(s) {
		return 0, false
	}
	v := 0
	for i := start; i < start+n; i++ {
		if !isDigit(s[i]) {
			return 0, false
		}
		v = v*10 + int(s[i]-'0')
	}
	return v, true
}

func byteAt(s string, i int) byte {
	if i >= len(s) {
		return 0
	}
	return s[i]
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
