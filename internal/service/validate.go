package service

import (
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxPurposeLen = 200
	maxTitleLen   = 200
)

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, invalid("date must be YYYY-MM-DD")
	}
	return d, nil
}

func parseClock(s string) (string, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return "", invalid("time must be HH:MM")
	}
	return t.Format("15:04"), nil
}

func checkPurpose(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", invalid("purpose is required")
	}
	if utf8.RuneCountInString(s) > maxPurposeLen {
		return "", invalid("purpose must be at most %d characters", maxPurposeLen)
	}
	return s, nil
}

// checkMeetingLink accepts an empty link or an absolute http(s) URL.
func checkMeetingLink(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", invalid("meeting link must be an http(s) URL")
	}
	return s, nil
}
