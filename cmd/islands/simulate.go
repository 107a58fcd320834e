package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/islands"
)

var (
	simulateJSON    bool
	simulateConsent string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate [script.yaml]",
	Short: "Run a scripted page session against an in-memory host",
	Long: `simulate mounts a page on an in-memory host and replays a script of
navigations, consent decisions, brief opens, engagements, scrolls and
remounts, printing what each step did. Without a script a built-in session
is replayed.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fatal("Error loading configuration", err)
		}
		// The simulation keeps consent in memory and records telemetry.
		cfg.Consent.File = ""
		switch simulateConsent {
		case "granted", "denied":
			allowed := simulateConsent == "granted"
			cfg.Consent.Initial = &allowed
		case "":
		default:
			fatal("Error parsing --consent", fmt.Errorf("%w: want granted or denied, got %q", errUsage, simulateConsent))
		}
		cfg.Telemetry.Transports = []string{"log"}
		cfg.Telemetry.Collector = ""

		site, err := openSite(cfg)
		if err != nil {
			fatal("Error initializing site", err)
		}

		script := islands.DefaultScript(site.Locales().Default().Tag)
		if len(args) == 1 {
			if script, err = islands.LoadScript(args[0]); err != nil {
				fatal("Error loading script", err)
			}
		}

		transcript, err := islands.Simulate(context.Background(), site, script)
		if err != nil {
			fatal("Error simulating", err)
		}

		if simulateJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(transcript); err != nil {
				fatal("Error encoding transcript", err)
			}
			return
		}
		for i, step := range transcript.Steps {
			if step.Outcome != "" {
				fmt.Printf("%2d  %-28s %s\n", i, step.Action, step.Outcome)
			} else {
				fmt.Printf("%2d  %s\n", i, step.Action)
			}
		}
		fmt.Printf("\ngate: %+v\n", site.Gate().State())
	},
}

func init() {
	simulateCmd.Flags().BoolVar(&simulateJSON, "json", false, "Print the transcript as JSON")
	simulateCmd.Flags().StringVar(&simulateConsent, "consent", "", "Initial consent: granted or denied (default: undecided)")
	rootCmd.AddCommand(simulateCmd)
}
