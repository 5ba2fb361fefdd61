package polygonutil

import (
	"fmt"
	"strings"
)

// ValidateRPCURL checks that raw looks like a usable provider URL.
func ValidateRPCURL(raw string) (string, error) {
	rpcURL := strings.TrimSpace(raw)
	if rpcURL == "" {
		return "", fmt.Errorf("RPC_URL or RPC_WS_URL required (set RPC_URL in .env)")
	}
	if !strings.HasPrefix(rpcURL, "ws") && !strings.HasPrefix(rpcURL, "http") {
		return "", fmt.Errorf("polygon RPC URL must be ws(s)://... or http(s)://..., got %q", rpcURL)
	}
	if strings.Contains(rpcURL, "YOUR_KEY") {
		return "", fmt.Errorf("polygon RPC URL still contains placeholder YOUR_KEY. Set RPC_URL/RPC_WS_URL to your provider URL")
	}
	return rpcURL, nil
}
