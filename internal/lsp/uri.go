package lsp

import (
	"fmt"
	"net/url"
	"strings"

	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
)

// fileURI converts an absolute path to a file:// document URI
func fileURI(path string) protocol.DocumentURI {
	return protocol.DocumentURI(uri.File(path))
}

// uriPath converts a file:// document URI back to a local path
func uriPath(u protocol.DocumentURI) (string, error) {
	raw := string(u)
	if !strings.HasPrefix(raw, uri.FileScheme+"://") {
		return "", fmt.Errorf("unsupported URI %q", raw)
	}
	// Filename panics on URIs it cannot parse
	if _, err := url.ParseRequestURI(raw); err != nil {
		return "", err
	}
	return uri.URI(u).Filename(), nil
}
