// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/danielhkuo/fieldcode/db"
	"github.com/danielhkuo/fieldcode/ident"
	"github.com/danielhkuo/fieldcode/models"
)

// Roster is the observer and location import file.
type Roster struct {
	Locations []RosterLocation `yaml:"locations"`
	Observers []RosterObserver `yaml:"observers"`
}

type RosterLocation struct {
	ID       string `yaml:"id,omitempty"`
	TypeCode string `yaml:"type_code"`
	Code     string `yaml:"code"`
	Name     string `yaml:"name"`
}

type RosterObserver struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Role string `yaml:"role"`
	// Location is the type code followed by the location code, e.g. PS42.
	Location string `yaml:"location,omitempty"`
}

var rosterCmd = &cobra.Command{
	Use:   "roster FILE",
	Short: "Import observers and locations",
	Long: `Insert or update observers and locations from a YAML file:

  locations:
    - {type_code: PS, code: "42", name: Central school}
  observers:
    - {id: "1234", name: A. Observer, role: observer, location: PS42}

Locations are keyed by type code and code; observers by id. The import runs
in one transaction.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read roster: %w", err)
		}

		store, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		locations, observers, err := importRoster(cmd.Context(), store, data)
		if err != nil {
			return err
		}

		printSuccess(cmd.OutOrStdout(), "Imported %d locations and %d observers", locations, observers)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rosterCmd)
}

// importRoster upserts every roster entry in one transaction.
func importRoster(ctx context.Context, store *db.Store, data []byte) (int, int, error) {
	var roster Roster
	if err := yaml.Unmarshal(data, &roster); err != nil {
		return 0, 0, fmt.Errorf("failed to parse roster YAML: %w", err)
	}

	err := store.InTx(ctx, func(q *db.Queries) error {
		// type code + code → stored id
		ids := make(map[string]string, len(roster.Locations))
		for _, rl := range roster.Locations {
			if rl.TypeCode == "" || rl.Code == "" {
				return fmt.Errorf("location %q: type_code and code are required", rl.Name)
			}
			loc := &models.Location{
				ID:       rl.ID,
				TypeCode: strings.ToUpper(rl.TypeCode),
				Code:     rl.Code,
				Name:     rl.Name,
			}
			if loc.ID == "" {
				loc.ID = ident.NewID()
			}
			if err := q.UpsertLocation(ctx, loc); err != nil {
				return err
			}
			ids[loc.TypeCode+loc.Code] = loc.ID
		}

		for _, ro := range roster.Observers {
			if ro.ID == "" {
				return fmt.Errorf("observer %q: id is required", ro.Name)
			}
			obs := &models.Observer{ID: ro.ID, Name: ro.Name, Role: ro.Role}
			if ro.Location != "" {
				id, ok := ids[strings.ToUpper(ro.Location)]
				if !ok {
					return fmt.Errorf("observer %s: location %s is not in the roster", ro.ID, ro.Location)
				}
				obs.LocationID = id
			}
			if err := q.UpsertObserver(ctx, obs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to import roster: %w", err)
	}

	return len(roster.Locations), len(roster.Observers), nil
}
