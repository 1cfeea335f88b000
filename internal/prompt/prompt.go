// Package prompt holds the instructions sent to the language model. They are
// kept in an embedded YAML catalogue and rendered with text/template.
package prompt

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var catalogueYAML []byte

type Pair struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

type Catalogue struct {
	Chatbot struct {
		System      string `yaml:"system"`
		Acknowledge string `yaml:"acknowledge"`
	} `yaml:"chatbot"`
	ConceptToTask Pair `yaml:"concept_to_task"`
	EmailToTask   Pair `yaml:"email_to_task"`
}

// Default parses the embedded catalogue. It panics on a malformed file since
// the file ships with the binary.
func Default() *Catalogue {
	c, err := Parse(catalogueYAML)
	if err != nil {
		panic(err)
	}
	return c
}

func Parse(data []byte) (*Catalogue, error) {
	var c Catalogue
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse prompts: %w", err)
	}
	if c.Chatbot.System == "" {
		return nil, fmt.Errorf("parse prompts: chatbot.system is empty")
	}
	return &c, nil
}

// Render executes text as a template against data.
func Render(text string, data any) (string, error) {
	tmpl, err := template.New("prompt").Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return buf.String(), nil
}
