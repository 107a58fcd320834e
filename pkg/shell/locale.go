package shell

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/aretw0/islands/pkg/core"
)

// rtlScripts are the scripts written right to left.
var rtlScripts = map[string]bool{
	"Arab": true, "Hebr": true, "Thaa": true, "Syrc": true,
	"Nkoo": true, "Adlm": true, "Rohg": true, "Mand": true, "Samr": true,
}

// Locales resolves the locale from the first route segment.
type Locales struct {
	supported map[string]core.Locale
	fallback  string
}

// NewLocales accepts BCP 47 tags; the first one is the default locale.
func NewLocales(tags ...string) (*Locales, error) {
	if len(tags) == 0 {
		return nil, fmt.Errorf("at least one locale is required")
	}
	l := &Locales{supported: make(map[string]core.Locale, len(tags))}
	for i, raw := range tags {
		tag, err := language.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse locale %q: %w", raw, err)
		}
		key := strings.ToLower(tag.String())
		l.supported[key] = core.Locale{Tag: tag.String(), Direction: Direction(tag)}
		if i == 0 {
			l.fallback = key
		}
	}
	return l, nil
}

// Direction derives the text direction from the tag's likely script.
func Direction(tag language.Tag) core.Direction {
	script, _ := tag.Script()
	if rtlScripts[script.String()] {
		return core.DirRTL
	}
	return core.DirLTR
}

// Default returns the default locale.
func (l *Locales) Default() core.Locale {
	return l.supported[l.fallback]
}

// Resolve implements core.LocaleResolver.
func (l *Locales) Resolve(route string) (core.Locale, error) {
	segment, _, _ := strings.Cut(strings.TrimPrefix(route, "/"), "/")
	if segment == "" {
		return core.Locale{}, fmt.Errorf("%w: %q has no locale segment", core.ErrLocaleUnresolved, route)
	}
	tag, err := language.Parse(segment)
	if err != nil {
		return core.Locale{}, fmt.Errorf("%w: %q: %v", core.ErrLocaleUnresolved, route, err)
	}
	loc, ok := l.supported[strings.ToLower(tag.String())]
	if !ok {
		return core.Locale{}, fmt.Errorf("%w: %s is not supported", core.ErrLocaleUnresolved, tag)
	}
	return loc, nil
}

var _ core.LocaleResolver = (*Locales)(nil)
