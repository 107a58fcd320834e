package islands_test

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"

	"github.com/aretw0/islands"
	"github.com/aretw0/islands/pkg/adapters/memory"
	"github.com/aretw0/islands/pkg/adapters/transport"
	"github.com/aretw0/islands/pkg/page"
)

// Example_basic mounts a page on an in-memory host and shows how consent
// gates route_view and brief_open.
func Example_basic() {
	consent := memory.NewConsent(nil)
	recorder := transport.NewRecorder()

	site, err := islands.New(
		islands.WithLocales("en", "ar"),
		islands.WithConsentSource(consent),
		islands.WithTransport(recorder),
		islands.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		log.Fatal(err)
	}

	host := page.Host{
		Signal:   memory.NewSignal(),
		Media:    memory.NewMedia(),
		Scroll:   memory.NewScroll(0),
		Document: memory.NewDocument(nil),
	}
	p, err := site.NewPage(host, "/en", nil)
	if err != nil {
		log.Fatal(err)
	}
	defer p.Close()

	if err := p.Mount(context.Background()); err != nil {
		log.Fatal(err)
	}

	// No decision yet: the navigation waits for consent.
	fmt.Println(p.Navigate("/en/books/foo"))

	// Granting consent delivers the waiting navigation.
	consent.Decide(true)

	// A re-render of the same path is not a new navigation.
	fmt.Println(p.Navigate("/en/books/foo"))
	fmt.Println(p.OpenBrief())

	for _, r := range recorder.Records() {
		fmt.Println(r)
	}

	// Output:
	// skipped(consent_denied)
	// skipped(already_fired)
	// dispatched
	// route_view{locale=en,pathname=/en/books/foo}
	// brief_open{locale=en}
}

// Example_locales resolves locales and exposes dispatched events as a lifecycle source.
func Example_locales() {
	site, err := islands.New(
		islands.WithLocales("pt-BR", "he"),
		islands.WithInitialConsent(false),
		islands.WithTransports("feed"),
		islands.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		log.Fatal(err)
	}
	loc, err := site.Locales().Resolve("/he/about")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(site.Locales().Default().Tag, loc.Tag, loc.Direction)
	fmt.Println(site.Events() != nil)

	// Output:
	// pt-BR he rtl
	// true
}
