package docs

import (
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

func TestCatalogueMatchesPages(t *testing.T) {
	// The catalogue and the embedded pages must stay in sync: every topic
	// loads, and every page except the readme index is a topic.
	topics := Topics()
	for _, topic := range topics {
		if _, err := Topic(topic); err != nil {
			t.Errorf("Topic(%q) error = %v", topic, err)
		}
	}

	files, err := filepath.Glob("*.md")
	if err != nil {
		t.Fatalf("glob *.md: %v", err)
	}
	for _, file := range files {
		base := strings.TrimSuffix(filepath.Base(file), ".md")
		if base == "readme" {
			continue
		}
		if !slices.Contains(topics, base) {
			t.Errorf("page %q is not in the catalogue", base)
		}
	}
}

func TestReadmeListsEveryTopic(t *testing.T) {
	index, err := Topic("readme")
	if err != nil {
		t.Fatalf("Topic(readme) error = %v", err)
	}
	for _, topic := range Topics() {
		if !strings.Contains(index, "* "+topic+":") {
			t.Errorf("readme does not list topic %q", topic)
		}
	}
}

func TestTopicWildcardAndErrors(t *testing.T) {
	all, err := Topic("*")
	if err != nil {
		t.Fatalf("Topic(*) error = %v", err)
	}
	for _, topic := range Topics() {
		content, err := Topic(topic)
		if err != nil {
			t.Fatalf("Topic(%q) error = %v", topic, err)
		}
		if !strings.Contains(all, content) {
			t.Errorf("wildcard expansion misses topic %q", topic)
		}
	}

	if _, err := Topic("nope"); err == nil || !strings.Contains(err.Error(), "portfolio") {
		t.Errorf("Topic(nope) error = %v, want it to list the catalogue", err)
	}
}

func TestTopicStructure(t *testing.T) {
	// Every topic must parse as markdown and open with a level-1 heading
	// naming the topic, that is what the topic command displays as title.
	md := goldmark.New()
	for _, topic := range Topics() {
		t.Run(topic, func(t *testing.T) {
			content, err := Topic(topic)
			if err != nil {
				t.Fatal(err)
			}
			source := []byte(content)
			doc := md.Parser().Parse(text.NewReader(source))

			first := doc.FirstChild()
			heading, ok := first.(*ast.Heading)
			if !ok {
				t.Fatalf("topic %q does not start with a heading", topic)
			}
			if heading.Level != 1 {
				t.Errorf("topic %q opens with a level %d heading, want 1", topic, heading.Level)
			}
			title := string(heading.Lines().Value(source))
			if !strings.Contains(title, topic) {
				t.Errorf("topic %q heading is %q, want it to name the topic", topic, title)
			}
		})
	}
}
