package ctl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nwhitfield/chime/internal/event"
)

// EventsOptions configures the events command.
type EventsOptions struct {
	Delete int64 // delete the event with this id instead of listing
	JSON   bool
}

// Events lists the stored events, or deletes one with --delete.
func Events(baseURL string, opts EventsOptions) error {
	baseURL = strings.TrimRight(baseURL, "/")

	if opts.Delete != 0 {
		var result struct {
			OK bool `json:"ok"`
		}
		path := "/api/events/" + strconv.FormatInt(opts.Delete, 10)
		if err := deleteJSON(baseURL, path, &result); err != nil {
			return err
		}
		if opts.JSON {
			return printJSON(result)
		}
		fmt.Printf("\n  %s  event %d deleted\n\n", colorize(green, "DELETED"), opts.Delete)
		return nil
	}

	var resp struct {
		Events []event.Event `json:"events"`
	}
	if err := getJSON(baseURL, "/api/events", &resp); err != nil {
		return err
	}

	if opts.JSON {
		return printJSON(resp)
	}

	fmt.Println()
	fmt.Println(header("  EVENTS"))
	fmt.Println(colorize(dim, "  "+strings.Repeat("─", 64)))

	if len(resp.Events) == 0 {
		fmt.Println("  No events defined.")
	} else {
		fmt.Printf("  %s %s %s %s\n",
			colorize(dim, padRight("TIME", 7)),
			colorize(dim, padRight("NAME", 22)),
			colorize(dim, padRight("REPEATS", 20)),
			colorize(dim, "ID"),
		)
		for _, ev := range resp.Events {
			name := ev.Name
			if !ev.Enabled {
				name += " (off)"
			}
			name = padRight(name, 22)
			if !ev.Enabled {
				name = colorize(dim, name)
			}
			fmt.Printf("  %s %s %s %d\n",
				colorize(cyan, padRight(ev.Time, 7)),
				name,
				padRight(ev.Recurrence.Describe(), 20),
				ev.ID,
			)
		}
	}
	fmt.Println()
	return nil
}
