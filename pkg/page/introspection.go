package page

import "github.com/aretw0/introspection"

// PageState aggregates the state of every component of the page.
type PageState struct {
	ID            string `json:"id"`
	Route         string `json:"route"`
	Locale        string `json:"locale,omitempty"`
	Mounted       bool   `json:"mounted"`
	Mounts        int    `json:"mounts"`
	Document      any    `json:"document"`
	Scroll        any    `json:"scroll"`
	Deferred      any    `json:"deferred,omitempty"`
	Gate          any    `json:"gate"`
	RouteObserver any    `json:"route_observer"`
	Brief         any    `json:"brief_observer,omitempty"`
	Engagement    any    `json:"engagement_observer,omitempty"`
}

// State implements introspection.Introspectable.
func (p *Page) State() any {
	p.mu.Lock()
	st := PageState{
		ID:      p.id,
		Route:   p.path,
		Locale:  p.locale.Tag,
		Mounted: p.mounted,
		Mounts:  p.mounts,
	}
	activator, brief, engagement := p.activator, p.brief, p.engagement
	p.mu.Unlock()

	st.Document = p.doc.State()
	st.Scroll = p.scroll.State()
	st.Gate = p.gate.State()
	st.RouteObserver = p.route.State()
	if activator != nil {
		st.Deferred = activator.State()
	}
	if brief != nil {
		st.Brief = brief.State()
	}
	if engagement != nil {
		st.Engagement = engagement.State()
	}
	return st
}

// ComponentType implements introspection.Component.
func (p *Page) ComponentType() string {
	return "page"
}

var _ introspection.Introspectable = (*Page)(nil)
var _ introspection.Component = (*Page)(nil)
