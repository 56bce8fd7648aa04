// Chimectl is the command-line client for monitoring and controlling a
// running chimed instance. It connects over HTTP and WebSocket to query
// status, manage events, and stream live triggers from the daemon.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/nwhitfield/chime/internal/ctl"
)

func main() {
	var (
		host    = pflag.StringP("host", "H", "http://127.0.0.1:8080", "Chime daemon URL (e.g. http://192.168.8.1:8080)")
		jsonOut = pflag.Bool("json", false, "Output raw JSON instead of formatted text")
		filter  = pflag.StringSlice("filter", nil, "Event types to show in watch (e.g. --filter state,log)")
	)

	// Stop parsing global flags at the first non-flag argument (the command
	// name), so subcommand-specific flags like --speed are not rejected.
	pflag.CommandLine.SetInterspersed(false)
	pflag.Parse()

	if pflag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cmd := pflag.Arg(0)
	subArgs := pflag.Args()[1:]

	var err error
	switch cmd {
	// ── Query commands ────────────────────────────────────────────
	case "status":
		err = ctl.Status(*host, *jsonOut)

	case "health":
		err = ctl.Health(*host, *jsonOut)

	case "version":
		err = ctl.VersionInfo(*host, *jsonOut)

	case "events":
		opts := ctl.EventsOptions{JSON: *jsonOut}
		evFlags := pflag.NewFlagSet("events", pflag.ContinueOnError)
		evFlags.Int64Var(&opts.Delete, "delete", 0, "Delete the event with this id")
		_ = evFlags.Parse(subArgs)
		err = ctl.Events(*host, opts)

	case "settings":
		err = ctl.Settings(*host, *jsonOut)

	case "logs":
		opts := ctl.LogsOptions{JSON: *jsonOut}
		logFlags := pflag.NewFlagSet("logs", pflag.ContinueOnError)
		logFlags.StringVar(&opts.Level, "level", "", "Filter by log level (info, error, warn)")
		logFlags.IntVar(&opts.Limit, "limit", 0, "Limit number of log entries shown")
		logFlags.BoolVar(&opts.Tail, "tail", false, "Stream live log events (like watch --filter log)")
		_ = logFlags.Parse(subArgs)
		err = ctl.Logs(*host, opts)

	// ── Control commands ──────────────────────────────────────────
	case "trigger":
		opts := ctl.TriggerOptions{JSON: *jsonOut}
		triggerFlags := pflag.NewFlagSet("trigger", pflag.ContinueOnError)
		triggerFlags.Int64Var(&opts.ID, "id", 0, "Event id to fire")
		_ = triggerFlags.Parse(subArgs)
		if opts.ID == 0 && triggerFlags.NArg() > 0 {
			_, _ = fmt.Sscan(triggerFlags.Arg(0), &opts.ID)
		}
		err = ctl.Trigger(*host, opts)

	case "debug":
		opts := ctl.DebugOptions{JSON: *jsonOut, Speed: 60}
		debugFlags := pflag.NewFlagSet("debug", pflag.ContinueOnError)
		debugFlags.Float64Var(&opts.Speed, "speed", 60, "Simulated clock multiplier")
		_ = debugFlags.Parse(subArgs)
		switch debugFlags.Arg(0) {
		case "on":
			opts.Enable = true
		case "off":
			opts.Enable = false
		default:
			err = fmt.Errorf("debug needs 'on' or 'off'")
		}
		if err == nil {
			err = ctl.Debug(*host, opts)
		}

	case "pause":
		err = ctl.Pause(*host, *jsonOut)

	case "resume":
		err = ctl.Resume(*host, *jsonOut)

	case "import":
		opts := ctl.ImportOptions{JSON: *jsonOut}
		importFlags := pflag.NewFlagSet("import", pflag.ContinueOnError)
		importFlags.BoolVar(&opts.DryRun, "dry-run", false, "Parse and list events without creating them")
		_ = importFlags.Parse(subArgs)
		if importFlags.NArg() < 1 {
			err = fmt.Errorf("import needs a file argument")
		} else {
			err = ctl.Import(*host, importFlags.Arg(0), opts)
		}

	// ── Live streaming ────────────────────────────────────────────
	case "watch":
		err = ctl.Watch(*host, ctl.WatchOptions{
			Filter: *filter,
			JSON:   *jsonOut,
		})

	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Print(`
  chimectl — chime daemon control CLI

  USAGE
    chimectl [flags] <command> [command-flags]

  COMMANDS (query)
    status          Show daemon state, clock, and uptime
    health          Check daemon liveness
    version         Show CLI and daemon version information
    events          List scheduled events
    settings        Show the settings document
    logs            Show recent daemon log messages

  COMMANDS (control)
    trigger         Fire an event immediately by id
    debug           Switch the simulated clock on or off
    pause           Pause event evaluation
    resume          Resume event evaluation
    import          Create events from a YAML or ICS file

  COMMANDS (live)
    watch           Stream live events from the daemon (Ctrl-C to stop)

  GLOBAL FLAGS
    -H, --host URL      Daemon base URL (default: http://127.0.0.1:8080)
        --json          Output raw JSON instead of formatted text
        --filter TYPE   Event types to show in watch (comma-separated)

  COMMAND FLAGS
    events:
        --delete ID         Delete the event with this id

    trigger:
        --id ID             Event id to fire (or pass as argument)

    debug:
        --speed N           Simulated clock multiplier (default: 60)

    logs:
        --level LEVEL       Filter by log level (info, error, warn)
        --limit N           Limit number of log entries shown
        --tail              Stream live log events

    import:
        --dry-run           Parse and list events without creating them

  EXAMPLES
    chimectl status
    chimectl --json status
    chimectl --host http://192.168.8.1:8080 watch
    chimectl events
    chimectl events --delete 1756375201000
    chimectl settings
    chimectl trigger 1756375201000
    chimectl debug on --speed 120
    chimectl debug off
    chimectl pause
    chimectl resume
    chimectl import schedule.yaml
    chimectl import calendar.ics --dry-run
    chimectl logs --level error --limit 20
    chimectl watch --filter event_due,hourly_announcement

`)
}
