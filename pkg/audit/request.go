package audit

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ClientIP extracts the best-effort client address from proxy headers.
// Header order reflects trust priority of the reverse-proxy layers in
// front of the app; the first X-Forwarded-For entry is the original client.
func ClientIP(c *fiber.Ctx) string {
	if forwarded := c.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if realIP := c.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	if cfIP := c.Get("CF-Connecting-IP"); cfIP != "" {
		return cfIP
	}
	return "127.0.0.1"
}

// ParseDeviceInfo summarizes a user-agent string as "<Device> - <OS> - <Browser>".
// Ordered substring matching, first match wins per category. This is a coarse
// heuristic for audit display, not a full user-agent parser.
func ParseDeviceInfo(userAgent string) string {
	device := "Desktop"
	os := "Unknown"
	browser := "Unknown"

	switch {
	case strings.Contains(userAgent, "Mobile"):
		device = "Mobile"
	case strings.Contains(userAgent, "Tablet"), strings.Contains(userAgent, "iPad"):
		device = "Tablet"
	}

	// Android user agents also contain "Linux", so check Android first
	switch {
	case strings.Contains(userAgent, "Windows"):
		os = "Windows"
	case strings.Contains(userAgent, "Mac"):
		os = "macOS"
	case strings.Contains(userAgent, "Android"):
		os = "Android"
	case strings.Contains(userAgent, "iPhone"), strings.Contains(userAgent, "iPad"), strings.Contains(userAgent, "iOS"):
		os = "iOS"
	case strings.Contains(userAgent, "Linux"):
		os = "Linux"
	}

	switch {
	case strings.Contains(userAgent, "Chrome"):
		browser = "Chrome"
	case strings.Contains(userAgent, "Firefox"):
		browser = "Firefox"
	case strings.Contains(userAgent, "Safari"):
		browser = "Safari"
	case strings.Contains(userAgent, "Edge"):
		browser = "Edge"
	case strings.Contains(userAgent, "Opera"), strings.Contains(userAgent, "OPR"):
		browser = "Opera"
	}

	return fmt.Sprintf("%s - %s - %s", device, os, browser)
}
