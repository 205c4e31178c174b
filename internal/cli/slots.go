package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chaspy/outlook-agent/internal/calendar"
	"github.com/chaspy/outlook-agent/internal/config"
	"github.com/chaspy/outlook-agent/internal/scheduler"
)

var slotsCmd = &cobra.Command{
	Use:   "slots",
	Short: "List free time slots for a day",
	RunE:  runSlots,
}

func init() {
	slotsCmd.Flags().String("date", "", "Date to search (YYYY-MM-DD, default today)")
	slotsCmd.Flags().Duration("duration", 30*time.Minute, "Minimum slot length")
	slotsCmd.Flags().String("prefer", "", "Preferred time of day: morning, afternoon, evening")
	slotsCmd.Flags().String("work-start", "09:00", "Working hours start (HH:MM)")
	slotsCmd.Flags().String("work-end", "18:00", "Working hours end (HH:MM)")
	slotsCmd.Flags().Bool("json", false, "Print slots as JSON")
}

type slotPayload struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Best  bool   `json:"best,omitempty"`
}

func runSlots(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dateFlag, _ := cmd.Flags().GetString("date")
	duration, _ := cmd.Flags().GetDuration("duration")
	prefer, _ := cmd.Flags().GetString("prefer")
	workStart, _ := cmd.Flags().GetString("work-start")
	workEnd, _ := cmd.Flags().GetString("work-end")
	jsonMode, _ := cmd.Flags().GetBool("json")

	rt := config.RuntimeFromEnv()

	client := calendar.NewMgcClient()
	if err := checkAuth(ctx, client, jsonMode); err != nil {
		return err
	}

	date, err := startDate(dateFlag, rt.Location)
	if err != nil {
		return emitError(jsonMode, err)
	}

	events, err := client.GetUpcomingEvents(ctx, date, 1)
	if err != nil {
		return emitError(jsonMode, fmt.Errorf("fetch events: %w", err))
	}

	opts := scheduler.AvailabilityOptions{
		WorkStart:       workStart,
		WorkEnd:         workEnd,
		Duration:        duration,
		ExcludeWeekends: true,
	}
	slots, err := scheduler.FindAvailableSlots(events, date, opts)
	if err != nil {
		return emitError(jsonMode, err)
	}

	var best *calendar.TimeSlot
	if prefer != "" {
		best = scheduler.FindBestSlot(slots, prefer)
	}

	if jsonMode {
		out := make([]slotPayload, 0, len(slots))
		for _, s := range slots {
			out = append(out, slotPayload{
				Start: s.Start.Format(time.RFC3339),
				End:   s.End.Format(time.RFC3339),
				Best:  best != nil && s.Start.Equal(best.Start),
			})
		}
		return printJSON(out)
	}

	if len(slots) == 0 {
		fmt.Printf("No free slots of %s on %s.\n", duration, date.Format("2006-01-02 (Mon)"))
		return nil
	}

	color.New(color.Bold).Printf("Free slots on %s:\n", date.Format("2006-01-02 (Mon)"))
	for _, s := range slots {
		marker := " "
		if best != nil && s.Start.Equal(best.Start) {
			marker = "*"
		}
		fmt.Printf("  %s %s - %s\n", marker,
			s.Start.In(rt.Location).Format("15:04"),
			s.End.In(rt.Location).Format("15:04"))
	}
	if best != nil {
		fmt.Printf("\n* best match for %q\n", prefer)
	}
	return nil
}
