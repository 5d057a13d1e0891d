// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package i18n holds the site's translation table and language matching.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed locales
var localesFS embed.FS

// DefaultLanguage is used when nothing better matches.
const DefaultLanguage = "en"

// SupportedLanguages lists the site languages. The first entry is the default.
var SupportedLanguages = []string{"en", "fr", "it"}

// Message is one entry of a locale file.
type Message struct {
	ID          string `json:"id"`
	Message     string `json:"message"`
	Translation string `json:"translation"`
}

// MessageFile is the layout of locales/<lang>/messages.json.
type MessageFile struct {
	Language string    `json:"language"`
	Messages []Message `json:"messages"`
}

// bundle is the loaded table. It is never mutated after load.
type bundle struct {
	text     map[string]map[string]string // lang -> id -> text
	printers map[string]*message.Printer
	tags     []language.Tag
	matcher  language.Matcher
}

var (
	loaded  *bundle
	loadErr error
	once    sync.Once
)

// Init loads the embedded locales once. Later calls return the first result.
// T and MatchLanguage call it on first use.
func Init(logger *slog.Logger) error {
	once.Do(func() {
		loaded, loadErr = loadBundle()
		if loadErr == nil && logger != nil {
			logger.Info("i18n initialized", "languages", SupportedLanguages)
		}
	})
	return loadErr
}

func loadBundle() (*bundle, error) {
	b := &bundle{
		text:     make(map[string]map[string]string, len(SupportedLanguages)),
		printers: make(map[string]*message.Printer, len(SupportedLanguages)),
	}
	for _, lang := range SupportedLanguages {
		tag := language.MustParse(lang)
		b.tags = append(b.tags, tag)
		b.printers[lang] = message.NewPrinter(tag)

		mf, err := readLocale(lang)
		if err != nil {
			return nil, err
		}
		table := make(map[string]string, len(mf.Messages))
		for _, m := range mf.Messages {
			table[m.ID] = m.Translation
		}
		b.text[lang] = table
	}
	b.matcher = language.NewMatcher(b.tags)
	return b, nil
}

func readLocale(lang string) (MessageFile, error) {
	var mf MessageFile
	name := path.Join("locales", lang, "messages.json")
	data, err := localesFS.ReadFile(name)
	if err != nil {
		return mf, fmt.Errorf("reading %s: %w", name, err)
	}
	if err := json.Unmarshal(data, &mf); err != nil {
		return mf, fmt.Errorf("parsing %s: %w", name, err)
	}
	return mf, nil
}

func table() *bundle {
	_ = Init(nil)
	return loaded
}

// lookup finds key in lang, then in the default language.
func (b *bundle) lookup(lang, key string) (string, string, bool) {
	if s, ok := b.text[lang][key]; ok {
		return s, lang, true
	}
	s, ok := b.text[DefaultLanguage][key]
	return s, DefaultLanguage, ok
}

// T translates key into lang, falling back to the default language and then
// to key itself. Args are formatted with lang's number conventions.
func T(lang, key string, args ...any) string {
	b := table()
	if b == nil {
		return key
	}
	s, found, ok := b.lookup(lang, key)
	switch {
	case !ok:
		return key
	case len(args) == 0:
		return s
	default:
		return b.printers[found].Sprintf(s, args...)
	}
}

// Has reports whether key exists in the default language.
func Has(key string) bool {
	b := table()
	if b == nil {
		return false
	}
	_, ok := b.text[DefaultLanguage][key]
	return ok
}

// MatchLanguage picks the best site language for an Accept-Language header
// or a bare language code.
func MatchLanguage(accept string) string {
	b := table()
	if b == nil || strings.TrimSpace(accept) == "" {
		return DefaultLanguage
	}

	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		tag, err := language.Parse(accept)
		if err != nil {
			return DefaultLanguage
		}
		tags = []language.Tag{tag}
	}

	if _, idx, conf := b.matcher.Match(tags...); conf != language.No && idx < len(b.tags) {
		return SupportedLanguages[idx]
	}
	return DefaultLanguage
}

// IsSupported reports whether lang is a site language. Case is ignored.
func IsSupported(lang string) bool {
	return slices.Contains(SupportedLanguages, strings.ToLower(lang))
}

// TranslationCount returns the number of entries loaded for lang.
func TranslationCount(lang string) int {
	if b := table(); b != nil {
		return len(b.text[lang])
	}
	return 0
}
