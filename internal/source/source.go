// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source implements clients for the public book catalogs the
// pipeline aggregates: archive.org (paginated search plus per-item
// metadata) and Project Gutenberg (feed discovery plus per-item RDF
// descriptors). Clients return normalized Book records and never fail a
// whole call for one bad item: page- and item-level errors are logged
// and the partial result is returned.
package source

import "strings"

const defaultLanguage = "en"

// cleanStrings trims each entry and drops empties, preserving order.
func cleanStrings(in []string) []string {
	var out []string
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
