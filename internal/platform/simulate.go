package platform

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/islands/pkg/adapters/consentfile"
	"github.com/aretw0/islands/pkg/adapters/memory"
	"github.com/aretw0/islands/pkg/core"
	"github.com/aretw0/islands/pkg/deferred"
	"github.com/aretw0/islands/pkg/page"
)

// Script drives one simulated page session against the in-memory host.
type Script struct {
	Route         string  `yaml:"route"`
	Offset        float64 `yaml:"offset"`
	DarkScheme    bool    `yaml:"dark_scheme"`
	ReducedMotion bool    `yaml:"reduced_motion"`
	Steps         []Step  `yaml:"steps"`
}

// Step is one host interaction. Exactly one field should be set.
type Step struct {
	Navigate      string   `yaml:"navigate,omitempty"`
	Consent       *bool    `yaml:"consent,omitempty"`
	OpenBrief     bool     `yaml:"open_brief,omitempty"`
	Engage        string   `yaml:"engage,omitempty"`
	Interactive   bool     `yaml:"interactive,omitempty"`
	Scroll        *float64 `yaml:"scroll,omitempty"`
	ReducedMotion *bool    `yaml:"reduced_motion,omitempty"`
	Mount         bool     `yaml:"mount,omitempty"`
	Unmount       bool     `yaml:"unmount,omitempty"`
}

// StepResult is what one step did.
type StepResult struct {
	Action     string            `json:"action"`
	Outcome    string            `json:"outcome,omitempty"`
	Attributes map[string]string `json:"attributes"`
}

// Transcript is the record of a simulated session.
type Transcript struct {
	Steps []StepResult `json:"steps"`
	Page  any          `json:"page"`
}

// LoadScript reads a YAML script.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse script %s: %w", path, err)
	}
	return &s, nil
}

// DefaultScript visits a book, opens the brief before and after granting
// consent, activates the deferred bundle and remounts.
func DefaultScript(locale string) *Script {
	yes := true
	far := 120.0
	return &Script{
		Route: "/" + locale,
		Steps: []Step{
			{Navigate: "/" + locale + "/books/foo"},
			{Navigate: "/" + locale + "/books/foo"},
			{OpenBrief: true},
			{Consent: &yes},
			{OpenBrief: true},
			{Interactive: true},
			{Scroll: &far},
			{Engage: "atlas"},
			{Unmount: true},
			{Mount: true},
			{OpenBrief: true},
		},
	}
}

// Simulate runs script on a fresh in-memory host wired to site.
func Simulate(ctx context.Context, site *Site, script *Script) (*Transcript, error) {
	if script.Route == "" {
		script.Route = "/" + site.locales.Default().Tag
	}

	var queries []string
	if script.DarkScheme {
		queries = append(queries, core.QueryDarkScheme)
	}
	if script.ReducedMotion {
		queries = append(queries, core.QueryReducedMotion)
	}
	locale, err := site.locales.Resolve(script.Route)
	if err != nil {
		locale = site.locales.Default()
	}
	signal := memory.NewSignal()
	media := memory.NewMedia(queries...)
	scroll := memory.NewScroll(script.Offset)
	doc := memory.NewDocument(map[string]string{
		"lang":       locale.Tag,
		"dir":        string(locale.Direction),
		"data-theme": string(core.ThemeLight),
	})

	p, err := site.NewPage(page.Host{
		Signal:   signal,
		Media:    media,
		Scroll:   scroll,
		Document: doc,
	}, script.Route, site.Loader("").Activate)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	if err := p.Mount(ctx); err != nil {
		return nil, err
	}

	t := &Transcript{}
	record := func(action, outcome string) {
		t.Steps = append(t.Steps, StepResult{Action: action, Outcome: outcome, Attributes: doc.Attributes()})
	}
	record("mount "+script.Route, "")

	for i, step := range script.Steps {
		switch {
		case step.Navigate != "":
			record("navigate "+step.Navigate, p.Navigate(step.Navigate).String())
		case step.Consent != nil:
			if err := decide(site.consent, *step.Consent); err != nil {
				return t, fmt.Errorf("step %d: %w", i, err)
			}
			record(fmt.Sprintf("consent %t", *step.Consent), "")
		case step.OpenBrief:
			record("open brief", p.OpenBrief().String())
		case step.Engage != "":
			record("engage "+step.Engage, p.Engage(step.Engage).String())
		case step.Interactive:
			signal.Fire()
			outcome := "no deferred activation"
			if a := p.Deferred(); a != nil {
				select {
				case <-a.Done():
				case <-ctx.Done():
					return t, ctx.Err()
				}
				outcome = string(a.Status())
			}
			record("interactive", outcome)
		case step.Scroll != nil:
			scroll.ScrollTo(*step.Scroll)
			record(fmt.Sprintf("scroll %.0f", *step.Scroll), p.Scroll().String())
		case step.ReducedMotion != nil:
			media.Set(core.QueryReducedMotion, *step.ReducedMotion)
			record(fmt.Sprintf("reduced motion %t", *step.ReducedMotion), p.Scroll().String())
		case step.Mount:
			if err := p.Mount(ctx); err != nil {
				return t, fmt.Errorf("step %d: %w", i, err)
			}
			// An interactive host activates the new instance during Mount.
			outcome := ""
			if a := p.Deferred(); a != nil && a.Status() != deferred.StatusScheduled {
				select {
				case <-a.Done():
				case <-ctx.Done():
					return t, ctx.Err()
				}
				outcome = string(a.Status())
			}
			record("mount", outcome)
		case step.Unmount:
			p.Unmount()
			record("unmount", "")
		default:
			return t, fmt.Errorf("step %d: empty step", i)
		}
	}

	t.Page = p.State()
	return t, nil
}

func decide(src core.ConsentSource, allowed bool) error {
	switch c := src.(type) {
	case *memory.Consent:
		c.Decide(allowed)
		return nil
	case *consentfile.Source:
		_, err := c.Decide(allowed)
		return err
	default:
		return fmt.Errorf("consent source %T cannot record decisions", src)
	}
}
