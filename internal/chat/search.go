// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/jeranaias/chatbot/internal/backend"
)

// Command prefixes recognised in user input. Matching ignores ASCII case.
const (
	PrefixSearch = "/search "
	PrefixWiki   = "/wiki "
)

// Route says which endpoint a text turn goes to.
type Route int

const (
	RouteChat Route = iota
	RouteSearch
	RouteWiki
)

func (r Route) String() string {
	switch r {
	case RouteSearch:
		return "search"
	case RouteWiki:
		return "wiki"
	default:
		return "chat"
	}
}

// ParseInput decides the route for trimmed input and returns the text to
// send: the remainder after the prefix for searches, or the whole input.
func ParseInput(text string) (Route, string) {
	switch {
	case hasPrefixFold(text, PrefixSearch):
		return RouteSearch, text[len(PrefixSearch):]
	case hasPrefixFold(text, PrefixWiki):
		return RouteWiki, text[len(PrefixWiki):]
	default:
		return RouteChat, text
	}
}

// hasPrefixFold is strings.HasPrefix with ASCII case folding. The prefixes
// are ASCII, so slicing at len(prefix) stays on a rune boundary.
func hasPrefixFold(s, prefix string) bool {
	if len(s) < len(prefix) {
		return false
	}
	for i := 0; i < len(prefix); i++ {
		c := s[i]
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c != prefix[i] {
			return false
		}
	}
	return true
}

// FormatSearchResults renders web search hits as markdown.
func FormatSearchResults(query string, results []backend.SearchResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🔍 **Web Search Results for:** \"%s\"\n\n", query)
	if len(results) == 0 {
		sb.WriteString("No results found for your search query.")
	}
	for i, r := range results {
		fmt.Fprintf(&sb, "**%d. %s**\n", i+1, r.Title)
		sb.WriteString(r.Snippet + "\n")
		if r.URL != "" {
			fmt.Fprintf(&sb, "🔗 %s\n\n", r.URL)
		}
	}
	sb.WriteString("\n💡 *Tip: This is a demo search. In a real implementation, this would show actual web results.*")
	return sb.String()
}

// FormatWikiResults renders Wikipedia hits as markdown. A "#" URL means the
// server had no article link.
func FormatWikiResults(query string, results []backend.WikiResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📚 **Wikipedia Results for:** \"%s\"\n\n", query)
	if len(results) == 0 {
		sb.WriteString("No Wikipedia articles found for your search query.")
	}
	for i, r := range results {
		fmt.Fprintf(&sb, "**%d. %s**\n", i+1, r.Title)
		sb.WriteString(r.Summary + "\n")
		if r.URL != "" && r.URL != "#" {
			fmt.Fprintf(&sb, "🔗 Read more: %s\n\n", r.URL)
		} else {
			sb.WriteString("\n")
		}
	}
	sb.WriteString("\n💡 *Tip: Use `/wiki [topic]` to search Wikipedia for any topic.*")
	return sb.String()
}

func searchFailed(err error) string {
	return "❌ Search failed: " + lookupReason("Search failed", err) + ". Please try again."
}

func wikiFailed(err error) string {
	return "❌ Wikipedia search failed: " + lookupReason("Wikipedia search failed", err) + ". Please try again."
}

// lookupReason reports a non-2xx reply by its bare status code, ignoring any
// server message.
func lookupReason(label string, err error) string {
	if status, ok := backend.StatusCode(err); ok {
		return fmt.Sprintf("%s: %d", label, status)
	}
	return err.Error()
}
