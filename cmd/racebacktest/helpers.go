package main

import (
	"strings"
	"time"
)

func joinCombination(combination []string) string {
	return strings.Join(combination, "-")
}

func secondsToDuration(seconds int) time.Duration {
	if seconds <= 0 {
		seconds = 60
	}
	return time.Duration(seconds) * time.Second
}
