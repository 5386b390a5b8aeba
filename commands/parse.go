// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/danielhkuo/fieldcode/compose"
	"github.com/danielhkuo/fieldcode/handlers"
	"github.com/danielhkuo/fieldcode/models"
)

var parseReceived string

var parseCmd = &cobra.Command{
	Use:   "parse MESSAGE...",
	Short: "Parse a message without storing it",
	Long: `Run a message through normalization, envelope matching, date resolution
and response extraction, and show the reply it would get. Nothing is stored
and observers and locations are not looked up.

Examples:
  fieldcode parse -c catalog.yml "1234PB15PS42 AAB5 AC12"
  fieldcode parse -c catalog.yml --received 2021-03-10 "1234PB15PS42AB5"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		received := time.Now()
		if parseReceived != "" {
			t, err := parseReceivedAt(parseReceived)
			if err != nil {
				return err
			}
			received = t
		}

		cat, err := loadCatalog(cfg)
		if err != nil {
			return err
		}
		h, err := handlers.NewMessageHandler(cat, nil, nil, cfg)
		if err != nil {
			return err
		}
		renderer, err := compose.NewRenderer(nil)
		if err != nil {
			return err
		}

		res, err := h.Parse(models.Message{Text: strings.Join(args, " "), ReceivedAt: received})
		if err != nil {
			return err
		}
		replies, err := renderer.Render(res.Reply)
		if err != nil {
			return err
		}

		printParse(cmd.OutOrStdout(), res, replies)
		return nil
	},
}

// parseReceivedAt accepts RFC3339 or a bare YYYY-MM-DD date.
func parseReceivedAt(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	d, err := models.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --received value %q (use RFC3339 or YYYY-MM-DD)", s)
	}
	return d.Time(), nil
}

func init() {
	parseCmd.Flags().StringVar(&parseReceived, "received", "", "Receipt time (RFC3339 or YYYY-MM-DD, default now)")
	rootCmd.AddCommand(parseCmd)
}
