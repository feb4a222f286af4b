package commands

import (
	"github.com/leapstack-labs/leapyear/internal/calendar"
	"github.com/leapstack-labs/leapyear/internal/cli/config"
	"github.com/leapstack-labs/leapyear/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewCalendarCommand creates the calendar command.
func NewCalendarCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "calendar",
		Short: "Preview the weeks of a year",
		Long: `Print the Sunday-to-Saturday weeks that run would create for the year,
each with the month whose row it links to. Nothing is sent to the workspace.`,
		Example: `  leapyear calendar --year 2028`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.GetConfig(cmd.Context())
			year := cfg.Year

			weeks := calendar.Weeks(year)
			rows := make([]output.CalendarRow, len(weeks))
			for i, w := range weeks {
				rows[i] = output.CalendarRow{Week: w, Month: calendar.AssignWeekToMonth(w, year)}
			}
			return getRenderer(cmd).Calendar(year, rows)
		},
	}
}
