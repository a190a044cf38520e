package ratelimit

import "fmt"

// KeyForUser builds a limiter key scoped to an authenticated user.
func KeyForUser(userID uint64) string {
	if userID == 0 {
		return ""
	}
	return fmt.Sprintf("u:%d", userID)
}

// KeyForIP builds a limiter key scoped to a client address.
func KeyForIP(ip string) string {
	if ip == "" {
		return ""
	}
	return "ip:" + ip
}
