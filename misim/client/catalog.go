package client

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed topics.yaml
var defaultTopicsYAML []byte

const genericTopicDescription = "When discussing {topic}, the counselor may talk about how {behavior} relates to {topic} in your life, and how {goal} could make a difference there."

// TopicCatalog maps engagement topic names to description templates.
type TopicCatalog struct {
	descriptions map[string]string
}

type topicFile struct {
	Topics []struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
	} `yaml:"topics"`
}

// ParseTopicCatalog reads a YAML catalog. Later entries win over earlier ones.
func ParseTopicCatalog(data []byte) (*TopicCatalog, error) {
	var f topicFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse topic catalog: %w", err)
	}
	c := &TopicCatalog{descriptions: make(map[string]string, len(f.Topics))}
	for _, t := range f.Topics {
		if t.Name == "" {
			return nil, fmt.Errorf("parse topic catalog: entry with empty name")
		}
		c.descriptions[strings.ToLower(t.Name)] = t.Description
	}
	return c, nil
}

// DefaultTopicCatalog returns the built-in catalog. It is read-only and
// shared between conversations.
var DefaultTopicCatalog = sync.OnceValue(func() *TopicCatalog {
	c, err := ParseTopicCatalog(defaultTopicsYAML)
	if err != nil {
		panic(err)
	}
	return c
})

// Len returns the number of known topics.
func (c *TopicCatalog) Len() int { return len(c.descriptions) }

// Describe renders the description of topic for a behavior and goal.
// Unknown topics get a generic description.
func (c *TopicCatalog) Describe(topic, behavior, goal string) string {
	tmpl, ok := c.descriptions[strings.ToLower(strings.TrimSpace(topic))]
	if !ok {
		tmpl = genericTopicDescription
	}
	return strings.NewReplacer(
		"{topic}", topic,
		"{behavior}", behavior,
		"{goal}", goal,
	).Replace(tmpl)
}
