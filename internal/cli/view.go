package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chaspy/outlook-agent/internal/calendar"
	"github.com/chaspy/outlook-agent/internal/config"
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Show upcoming calendar events",
	RunE:  runView,
}

func init() {
	viewCmd.Flags().String("date", "", "Date to show (YYYY-MM-DD, default today)")
	viewCmd.Flags().Int("days", 1, "Days ahead to show")
	viewCmd.Flags().Bool("json", false, "Print events as JSON")
}

type viewEvent struct {
	ID             string `json:"id"`
	Subject        string `json:"subject"`
	Start          string `json:"start"`
	End            string `json:"end"`
	Organizer      string `json:"organizer,omitempty"`
	AttendeeCount  int    `json:"attendeesCount"`
	ResponseStatus string `json:"responseStatus"`
	IsAllDay       bool   `json:"isAllDay,omitempty"`
	Location       string `json:"location,omitempty"`
}

func runView(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dateFlag, _ := cmd.Flags().GetString("date")
	days, _ := cmd.Flags().GetInt("days")
	jsonMode, _ := cmd.Flags().GetBool("json")

	rt := config.RuntimeFromEnv()

	client := calendar.NewMgcClient()
	if err := checkAuth(ctx, client, jsonMode); err != nil {
		return err
	}

	start, err := startDate(dateFlag, rt.Location)
	if err != nil {
		return emitError(jsonMode, err)
	}

	events, err := client.GetUpcomingEvents(ctx, start, days)
	if err != nil {
		return emitError(jsonMode, fmt.Errorf("fetch events: %w", err))
	}

	if jsonMode {
		out := make([]viewEvent, 0, len(events))
		for _, e := range events {
			out = append(out, viewEvent{
				ID:             e.ID,
				Subject:        e.Subject,
				Start:          e.Start.Format(time.RFC3339),
				End:            e.End.Format(time.RFC3339),
				Organizer:      e.Organizer,
				AttendeeCount:  e.AttendeeCount,
				ResponseStatus: e.ResponseStatus,
				IsAllDay:       e.IsAllDay,
				Location:       e.Location,
			})
		}
		return printJSON(out)
	}

	if len(events) == 0 {
		fmt.Printf("No events on %s.\n", start.Format("2006-01-02 (Mon)"))
		return nil
	}

	bold := color.New(color.Bold)
	var currentDay string
	for _, e := range events {
		day := e.Start.In(rt.Location).Format("2006-01-02 (Mon)")
		if day != currentDay {
			currentDay = day
			bold.Printf("\n%s\n", day)
		}

		if e.IsAllDay {
			fmt.Printf("  all day        %s\n", e.Subject)
			continue
		}
		fmt.Printf("  %s - %s  %s\n",
			e.Start.In(rt.Location).Format("15:04"),
			e.End.In(rt.Location).Format("15:04"),
			e.Subject)
		if e.Location != "" {
			fmt.Printf("                 @ %s\n", e.Location)
		}
	}
	fmt.Println()
	return nil
}
