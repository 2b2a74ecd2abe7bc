// Package docs embeds the rebal reference pages: one markdown file per
// topic, plus readme.md as the index. The topic command and the trading
// desk agents read them through Topic.
package docs

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed *.md
var pages embed.FS

// catalogue lists the topics in reading order, from the portfolio document
// down to the shared state file. readme.md is the index, not a topic.
var catalogue = []string{
	"portfolio",
	"pricing",
	"trading",
	"operations",
	"capabilities",
	"state",
}

// Topics returns the topic names in reading order.
func Topics() []string {
	return append([]string(nil), catalogue...)
}

// Topic returns the markdown content of one page. The name "*" expands to
// the whole catalogue.
func Topic(name string) (string, error) {
	if name == "*" {
		return Join(catalogue...)
	}
	content, err := pages.ReadFile(name + ".md")
	if err != nil {
		return "", fmt.Errorf("unknown topic %q: pick one of %s", name, strings.Join(catalogue, ", "))
	}
	return string(content), nil
}

// Join concatenates the requested pages into one markdown document.
func Join(names ...string) (string, error) {
	var b strings.Builder
	for _, name := range names {
		content, err := Topic(name)
		if err != nil {
			return "", err
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	return b.String(), nil
}
