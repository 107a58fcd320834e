package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/islands"
)

var consentFile string

var consentCmd = &cobra.Command{
	Use:   "consent [show|grant|deny|clear]",
	Short: "Show or record the analytics consent decision",
	Long: `consent reads or writes the consent file a running "serve" watches.
Writes are atomic, so a watching server never sees a partial decision.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"show", "grant", "deny", "clear"},
	Run: func(cmd *cobra.Command, args []string) {
		path := consentFile
		if path == "" {
			cfg, err := loadConfig()
			if err != nil {
				fatal("Error loading configuration", err)
			}
			path = cfg.Consent.File
		}
		if path == "" {
			fatal("Error resolving consent file", fmt.Errorf("%w: set --file or consent.file in the configuration", errUsage))
		}

		action := "show"
		if len(args) == 1 {
			action = args[0]
		}

		var allowed *bool
		switch action {
		case "show":
			snap, err := islands.ReadConsent(path)
			if err != nil {
				fatal("Error reading consent", err)
			}
			if snap == nil {
				fmt.Println("undecided")
				return
			}
			fmt.Printf("analytics_allowed=%t decided_at=%s\n", snap.AnalyticsAllowed, snap.DecidedAt.Format("2006-01-02T15:04:05Z07:00"))
			return
		case "grant", "deny":
			v := action == "grant"
			allowed = &v
		case "clear":
		default:
			fatal("Error parsing action", fmt.Errorf("%w: unknown action %q", errUsage, action))
		}

		snap, err := islands.WriteConsent(path, allowed)
		if err != nil {
			fatal("Error writing consent", err)
		}
		if snap == nil {
			fmt.Println("consent cleared")
			return
		}
		fmt.Printf("analytics_allowed=%t\n", snap.AnalyticsAllowed)
	},
}

func init() {
	consentCmd.Flags().StringVarP(&consentFile, "file", "f", "", "Consent file (default: consent.file from the configuration)")
	rootCmd.AddCommand(consentCmd)
}
