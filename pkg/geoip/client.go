package geoip

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	LocalDevelopment = "Local Development"
	UnknownLocation  = "Unknown Location"
)

// Client resolves an IP address to a coarse human-readable location
// using an ip-api.com style JSON endpoint. Lookups are best-effort:
// every failure path degrades to a sentinel string so the login flow
// is never blocked by geolocation trouble.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type apiResponse struct {
	Status     string `json:"status"`
	City       string `json:"city"`
	RegionName string `json:"regionName"`
	Country    string `json:"country"`
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Lookup returns "City, Region, Country" for a public IP, "Local Development"
// for private/loopback addresses (without a network call) and "Unknown Location"
// when the upstream service cannot resolve the address.
func (c *Client) Lookup(ip string) string {
	if isPrivateIP(ip) {
		return LocalDevelopment
	}

	resp, err := c.httpClient.Get(fmt.Sprintf("%s/%s", c.baseURL, ip))
	if err != nil {
		return UnknownLocation
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return UnknownLocation
	}

	var data apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return UnknownLocation
	}

	if data.Status != "success" {
		return UnknownLocation
	}

	parts := make([]string, 0, 3)
	for _, p := range []string{data.City, data.RegionName, data.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return UnknownLocation
	}

	return strings.Join(parts, ", ")
}

func isPrivateIP(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	return parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsLinkLocalUnicast() || parsed.IsUnspecified()
}
