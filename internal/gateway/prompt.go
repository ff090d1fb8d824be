package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"text/template"
)

const systemPromptTemplate = `You are a professional localization translator. Translate the values of the JSON document from {{.SourceLanguage}} to {{.TargetLanguage}}.
Preserve the JSON structure and field names exactly. Preserve formatting markup, proper nouns, numbers, embedded code and URLs verbatim.
{{- if .Context}}
Context for this content: {{.Context}}
{{- end}}
{{- if .Glossary}}
Use these preferred translations:
{{- range .Glossary}}
{{.Term}} -> {{.Translation}}
{{- end}}
{{- end}}
Respond with only the translated JSON object. No commentary, no explanations.`

const userPromptTemplate = `Translate this document:
{{.Content}}`

var (
	systemTpl = template.Must(template.New("system").Parse(systemPromptTemplate))
	userTpl   = template.Must(template.New("user").Parse(userPromptTemplate))
)

type glossaryPair struct {
	Term        string
	Translation string
}

type systemPromptData struct {
	SourceLanguage string
	TargetLanguage string
	Context        string
	Glossary       []glossaryPair
}

// BuildPrompts renders the system and user prompts for one translation
// request. The content map is presented as a single JSON block.
func BuildPrompts(content map[string]any, opts Options) (system, user string, err error) {
	source := opts.SourceLanguage
	if source == "" {
		source = "the source language"
	}

	pairs := make([]glossaryPair, 0, len(opts.Glossary))
	for term, translation := range opts.Glossary {
		pairs = append(pairs, glossaryPair{Term: term, Translation: translation})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Term < pairs[j].Term })

	var sysBuf bytes.Buffer
	if err := systemTpl.Execute(&sysBuf, systemPromptData{
		SourceLanguage: source,
		TargetLanguage: opts.TargetLanguage,
		Context:        opts.PromptContext,
		Glossary:       pairs,
	}); err != nil {
		return "", "", fmt.Errorf("failed to render system prompt: %w", err)
	}

	block, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("failed to serialize content: %w", err)
	}
	var userBuf bytes.Buffer
	if err := userTpl.Execute(&userBuf, struct{ Content string }{Content: string(block)}); err != nil {
		return "", "", fmt.Errorf("failed to render user prompt: %w", err)
	}

	return sysBuf.String(), userBuf.String(), nil
}
