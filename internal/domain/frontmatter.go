package domain

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// ArticleMeta is the key-value header embedded at the top of every stored
// article, delimited by "---" lines, with the Markdown body below it.
type ArticleMeta struct {
	Title     string     `yaml:"title"`
	Slug      string     `yaml:"slug,omitempty"`
	Theme     string     `yaml:"theme,omitempty"`
	SubThemes []string   `yaml:"subThemes,omitempty"`
	WeekLabel string     `yaml:"weekLabel,omitempty"`
	Date      string     `yaml:"date,omitempty"`
	Author    string     `yaml:"author,omitempty"`
	Status    string     `yaml:"status,omitempty"`
	Sources   []Citation `yaml:"sources,omitempty"`
}

const metaDelimiter = "---"

var statusLineExpr = regexp.MustCompile(`(?m)^status:.*$`)

// EncodeFrontMatter renders meta as a YAML header followed by body.
func EncodeFrontMatter(meta ArticleMeta, body string) (string, error) {
	raw, err := yaml.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("marshal front matter: %w", err)
	}

	var b strings.Builder
	b.WriteString(metaDelimiter)
	b.WriteByte('\n')
	b.Write(raw)
	b.WriteString(metaDelimiter)
	b.WriteString("\n\n")
	b.WriteString(body)
	return b.String(), nil
}

// ParseFrontMatter splits a stored document into its metadata header and
// Markdown body. A document without a header yields zero meta and the
// full text as body.
func ParseFrontMatter(doc string) (ArticleMeta, string, error) {
	var meta ArticleMeta

	trimmed := strings.TrimPrefix(doc, "\uFEFF")
	if !strings.HasPrefix(trimmed, metaDelimiter+"\n") {
		return meta, doc, nil
	}

	rest := trimmed[len(metaDelimiter)+1:]
	end := strings.Index(rest, "\n"+metaDelimiter)
	if end < 0 {
		return meta, doc, nil
	}

	header := rest[:end]
	body := rest[end+len(metaDelimiter)+1:]
	body = strings.TrimPrefix(body, "\n")
	body = strings.TrimPrefix(body, "\n")

	if err := yaml.Unmarshal([]byte(header), &meta); err != nil {
		return ArticleMeta{}, "", fmt.Errorf("parse front matter: %w", err)
	}
	return meta, body, nil
}

// SetStatus rewrites the first status line of a raw document, inserting
// one before the closing header delimiter when the document never had it.
// Only the first match is touched: the header precedes the body, so a
// "status:" line inside the Markdown body stays untouched.
func SetStatus(doc, status string) string {
	if loc := statusLineExpr.FindStringIndex(doc); loc != nil {
		return doc[:loc[0]] + "status: " + status + doc[loc[1]:]
	}

	if strings.HasPrefix(doc, metaDelimiter+"\n") {
		rest := doc[len(metaDelimiter)+1:]
		if end := strings.Index(rest, "\n"+metaDelimiter); end >= 0 {
			head := doc[:len(metaDelimiter)+1+end]
			return head + "\nstatus: " + status + rest[end:]
		}
	}
	return doc
}
