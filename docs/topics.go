// Package docs embeds the user documentation of gfi, organized in topics.
package docs

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed *.md
var docs embed.FS

// Topic returns the markdown content of a documentation topic. The "readme"
// topic is the index of the others.
func Topic(topic string) (string, error) {
	content, err := docs.ReadFile(topic + ".md")
	if err != nil {
		return "", fmt.Errorf("topic %q not found, use one of %s", topic, strings.Join(mustTopics(), ", "))
	}
	return string(content), nil
}

// Topics returns the content of several topics, one after the other.
// "*" stands for every topic.
func Topics(topics ...string) (string, error) {
	var b strings.Builder
	for _, topic := range topics {
		names := []string{topic}
		if topic == "*" {
			names = mustTopics()
		}
		for _, name := range names {
			content, err := Topic(name)
			if err != nil {
				return "", err
			}
			b.WriteString(content)
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}

// All returns the names of the topics, the index excluded, sorted.
func All() ([]string, error) {
	entries, err := fs.ReadDir(docs, ".")
	if err != nil {
		return nil, err
	}
	var topics []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		base := strings.TrimSuffix(e.Name(), path.Ext(e.Name()))
		if base == "readme" {
			continue
		}
		topics = append(topics, base)
	}
	sort.Strings(topics)
	return topics, nil
}

// mustTopics is All for the embedded files, which are always readable.
func mustTopics() []string {
	topics, err := All()
	if err != nil {
		panic(err)
	}
	return topics
}
