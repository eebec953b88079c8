package client

import (
	"net/url"
	"strings"
)

// ImageURL rewrites images hosted on hotlink-protected hosts so they are
// fetched through the service's image proxy. Other URLs are returned as is.
func (c *Client) ImageURL(raw string) string {
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}

	for _, h := range c.proxyHosts {
		if h != "" && (u.Hostname() == h || strings.HasSuffix(u.Hostname(), "."+h)) {
			return c.baseURL.String() + "/api/proxy/image?" + url.Values{"url": {raw}}.Encode()
		}
	}

	return raw
}
