package shell

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/aretw0/islands/pkg/core"
)

var consentPattern = regexp.MustCompile(`window\.` + core.InitialConsentGlobal + `\s*=\s*(true|false)\s*;`)

// Page is what a client learns from a rendered shell.
type Page struct {
	// Attrs are the server-guessed <html> attributes.
	Attrs   map[string]string
	HasMain bool
	Heading string
	// Consent is the handed-off initial consent; nil when absent.
	Consent *core.ConsentSnapshot
	// ConsentBeforeBundle is true when the handoff script precedes the bundle tag.
	ConsentBeforeBundle bool
	BundleDeferred      bool
	BundleSrc           string
}

// Inspect parses a rendered shell.
func Inspect(r io.Reader) (Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return Page{}, fmt.Errorf("parse shell: %w", err)
	}

	p := Page{Attrs: make(map[string]string)}
	consentSeen := false

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Html:
				for _, a := range n.Attr {
					p.Attrs[a.Key] = a.Val
				}
			case atom.Main:
				p.HasMain = true
			case atom.H1:
				if p.Heading == "" {
					p.Heading = strings.TrimSpace(text(n))
				}
			case atom.Script:
				if src, ok := attr(n, "src"); ok {
					if src == core.DeferredBundlePath {
						p.BundleSrc = src
						_, p.BundleDeferred = attr(n, "defer")
						p.ConsentBeforeBundle = consentSeen
					}
				} else if m := consentPattern.FindStringSubmatch(text(n)); m != nil {
					consentSeen = true
					p.Consent = &core.ConsentSnapshot{AnalyticsAllowed: m[1] == "true"}
				}
			}
			if role, ok := attr(n, "role"); ok && role == "main" {
				p.HasMain = true
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return p, nil
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
