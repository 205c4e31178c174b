package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// MgcClient implements Client by shelling out to the mgc CLI
// (Microsoft Graph CLI). mgc handles authentication and token storage;
// this client only builds requests and decodes JSON responses.
type MgcClient struct {
	binary string
	runner func(ctx context.Context, args ...string) ([]byte, error)
}

// NewMgcClient creates a client that invokes the mgc binary from PATH.
func NewMgcClient() *MgcClient {
	c := &MgcClient{binary: "mgc"}
	c.runner = c.run
	return c
}

// CheckAuth reports whether mgc has a usable login.
func (c *MgcClient) CheckAuth(ctx context.Context) error {
	if _, err := exec.LookPath(c.binary); err != nil {
		return fmt.Errorf("mgc not found in PATH. Install from: https://github.com/microsoftgraph/msgraph-cli")
	}
	if _, err := c.runner(ctx, "users", "me", "get", "--select", "id"); err != nil {
		return fmt.Errorf("not authenticated. Please run: mgc login")
	}
	return nil
}

func (c *MgcClient) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("mgc %s: %s", args[0], msg)
	}
	return stdout.Bytes(), nil
}

// Graph wire shapes. Only the fields this client reads are declared.

type graphDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type graphEmailAddress struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

type graphAttendee struct {
	EmailAddress graphEmailAddress `json:"emailAddress"`
	Status       *struct {
		Response string `json:"response"`
	} `json:"status"`
}

type graphEvent struct {
	ID        string        `json:"id"`
	Subject   string        `json:"subject"`
	Start     graphDateTime `json:"start"`
	End       graphDateTime `json:"end"`
	IsAllDay  bool          `json:"isAllDay"`
	Organizer *struct {
		EmailAddress graphEmailAddress `json:"emailAddress"`
	} `json:"organizer"`
	Attendees      []graphAttendee `json:"attendees"`
	ResponseStatus *struct {
		Response string `json:"response"`
	} `json:"responseStatus"`
	Location *struct {
		DisplayName string `json:"displayName"`
	} `json:"location"`
}

type graphEventList struct {
	Value []graphEvent `json:"value"`
}

type graphMeetingTimes struct {
	MeetingTimeSuggestions []struct {
		MeetingTimeSlot struct {
			Start graphDateTime `json:"start"`
			End   graphDateTime `json:"end"`
		} `json:"meetingTimeSlot"`
	} `json:"meetingTimeSuggestions"`
}

// graphZone returns t and a timezone identifier Graph accepts for it.
// Go's time.Local stringifies as "Local", which is not a valid Graph
// zone name, so such times are converted to UTC first.
func graphZone(t time.Time) (time.Time, string) {
	name := t.Location().String()
	if name == "" || name == "Local" {
		return t.UTC(), "UTC"
	}
	return t, name
}

// graphTime parses a Graph dateTime/timeZone pair. Graph omits the
// offset from dateTime, so the zone name decides the location.
func graphTime(dt graphDateTime) (time.Time, error) {
	loc, err := time.LoadLocation(dt.TimeZone)
	if err != nil {
		loc = time.UTC
	}
	for _, layout := range []string{"2006-01-02T15:04:05.0000000", "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, dt.DateTime, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable graph time %q", dt.DateTime)
}

func decodeEvent(ge graphEvent) (Event, error) {
	start, err := graphTime(ge.Start)
	if err != nil {
		return Event{}, err
	}
	end, err := graphTime(ge.End)
	if err != nil {
		return Event{}, err
	}
	e := Event{
		ID:             ge.ID,
		Subject:        ge.Subject,
		AttendeeCount:  len(ge.Attendees),
		ResponseStatus: "none",
		Start:          start,
		End:            end,
		TimeZone:       ge.Start.TimeZone,
		IsAllDay:       ge.IsAllDay,
	}
	if ge.Organizer != nil {
		e.Organizer = ge.Organizer.EmailAddress.Address
	}
	if ge.ResponseStatus != nil && ge.ResponseStatus.Response != "" {
		e.ResponseStatus = ge.ResponseStatus.Response
	}
	if ge.Location != nil {
		e.Location = ge.Location.DisplayName
	}
	return e, nil
}

// GetUpcomingEvents lists calendar-view events in [start, start+days).
func (c *MgcClient) GetUpcomingEvents(ctx context.Context, start time.Time, days int) ([]Event, error) {
	end := start.AddDate(0, 0, days)
	out, err := c.runner(ctx,
		"users", "me", "calendar-view", "list",
		"--start-date-time", start.UTC().Format(time.RFC3339),
		"--end-date-time", end.UTC().Format(time.RFC3339),
		"--orderby", "start/dateTime",
		"--top", "200",
	)
	if err != nil {
		return nil, err
	}

	var list graphEventList
	if err := json.Unmarshal(out, &list); err != nil {
		return nil, fmt.Errorf("decode calendar view: %w", err)
	}

	events := make([]Event, 0, len(list.Value))
	for _, ge := range list.Value {
		e, err := decodeEvent(ge)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}

// GetEvent fetches a single event with its attendee list.
func (c *MgcClient) GetEvent(ctx context.Context, id string) (*EventDetail, error) {
	out, err := c.runner(ctx, "users", "me", "events", "get", "--event-id", id)
	if err != nil {
		return nil, err
	}

	var ge graphEvent
	if err := json.Unmarshal(out, &ge); err != nil {
		return nil, fmt.Errorf("decode event %s: %w", id, err)
	}
	e, err := decodeEvent(ge)
	if err != nil {
		return nil, err
	}

	detail := &EventDetail{Event: e}
	for _, a := range ge.Attendees {
		detail.Attendees = append(detail.Attendees, Attendee{
			Email: a.EmailAddress.Address,
			Name:  a.EmailAddress.Name,
		})
	}
	return detail, nil
}

// UpdateEvent patches an event's start and end.
func (c *MgcClient) UpdateEvent(ctx context.Context, id string, slot TimeSlot) error {
	start, startZone := graphZone(slot.Start)
	end, endZone := graphZone(slot.End)
	body, err := json.Marshal(map[string]any{
		"start": map[string]string{
			"dateTime": start.Format("2006-01-02T15:04:05"),
			"timeZone": startZone,
		},
		"end": map[string]string{
			"dateTime": end.Format("2006-01-02T15:04:05"),
			"timeZone": endZone,
		},
	})
	if err != nil {
		return fmt.Errorf("marshal update: %w", err)
	}

	_, err = c.runner(ctx, "users", "me", "events", "patch", "--event-id", id, "--body", string(body))
	return err
}

// UpdateEventResponse answers an invitation, e.g. response "decline".
func (c *MgcClient) UpdateEventResponse(ctx context.Context, id string, response string) error {
	_, err := c.runner(ctx,
		"users", "me", "events", response, "post",
		"--event-id", id,
		"--body", `{"sendResponse": true}`,
	)
	return err
}

// FindMeetingTimes queries free/busy-based suggestions for the attendees.
func (c *MgcClient) FindMeetingTimes(ctx context.Context, req MeetingTimeRequest) ([]TimeSlot, error) {
	attendees := make([]map[string]any, 0, len(req.Attendees))
	for _, email := range req.Attendees {
		attendees = append(attendees, map[string]any{
			"emailAddress": map[string]string{"address": email},
		})
	}

	windowStart, startZone := graphZone(req.WindowStart)
	windowEnd, endZone := graphZone(req.WindowEnd)
	body, err := json.Marshal(map[string]any{
		"attendees": attendees,
		"timeConstraint": map[string]any{
			"timeslots": []map[string]any{{
				"start": map[string]string{
					"dateTime": windowStart.Format("2006-01-02T15:04:05"),
					"timeZone": startZone,
				},
				"end": map[string]string{
					"dateTime": windowEnd.Format("2006-01-02T15:04:05"),
					"timeZone": endZone,
				},
			}},
		},
		"meetingDuration": isoDuration(req.Duration),
		"maxCandidates":   req.MaxCandidates,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal find-meeting-times: %w", err)
	}

	out, err := c.runner(ctx, "users", "me", "find-meeting-times", "post", "--body", string(body))
	if err != nil {
		return nil, err
	}

	var mt graphMeetingTimes
	if err := json.Unmarshal(out, &mt); err != nil {
		return nil, fmt.Errorf("decode find-meeting-times: %w", err)
	}

	slots := make([]TimeSlot, 0, len(mt.MeetingTimeSuggestions))
	for _, s := range mt.MeetingTimeSuggestions {
		start, err := graphTime(s.MeetingTimeSlot.Start)
		if err != nil {
			return nil, err
		}
		end, err := graphTime(s.MeetingTimeSlot.End)
		if err != nil {
			return nil, err
		}
		slots = append(slots, TimeSlot{Start: start, End: end})
	}
	return slots, nil
}

// isoDuration renders a duration in the ISO-8601 form Graph expects
// (PT30M, PT1H, PT1H30M).
func isoDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("PT%dH%dM", h, m)
	case h > 0:
		return fmt.Sprintf("PT%dH", h)
	default:
		return fmt.Sprintf("PT%dM", m)
	}
}
