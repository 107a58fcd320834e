// Package islands is the composition root of the islands coordinator.
//
// A page is server-rendered as a critical shell: correct without JavaScript,
// carrying server-guessed lang, dir and data-theme attributes and a one-time
// handoff of the visitor's analytics consent. Everything else is a deferred
// island, activated once the shell is interactive.
//
// The coordinator keeps four promises:
//
//   - Telemetry is consent-gated and fires at most once per occurrence. A
//     denied attempt never latches its guard.
//   - The deferred bundle runs at most once per page instance, strictly after
//     the interactive signal, and its failure never touches the shell.
//   - Document attributes converge on the true client values with no
//     redundant writes and a single writer per attribute.
//   - The masthead scroll state is correct before the first scroll and is
//     always "below" under reduced motion.
//
// Usage:
//
//	site, err := islands.New(
//		islands.WithLocales("en", "ar"),
//		islands.WithConsentFile("consent.yaml"),
//		islands.WithWatch(true),
//		islands.WithTransports("log", "http"),
//		islands.WithCollector("https://collector.example/events", nil),
//	)
//
//	// Serve the critical shell and the deferred bundle
//	http.ListenAndServe(":8080", site.Handler())
//
//	// Coordinate a page against a host
//	p, err := site.NewPage(host, "/en/books/foo", site.Loader("").Activate)
//	err = p.Mount(ctx)
//	defer p.Close()
package islands
