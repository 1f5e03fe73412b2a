// Bmictl is the command-line client for monitoring and controlling a
// running bmistationd instance. It connects over HTTP and WebSocket to
// query the session, trigger saves, and stream live events.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/muhammadaliwebase/BMICalculator.New/internal/ctl"
)

func main() {
	var (
		host    = pflag.StringP("host", "H", "http://127.0.0.1:9090", "Station daemon URL (e.g. http://192.168.1.50:9090)")
		jsonOut = pflag.Bool("json", false, "Output raw JSON instead of formatted text")
		filter  = pflag.StringSlice("filter", nil, "Event types to show in watch (e.g. --filter scan,saved)")
	)

	// Stop parsing global flags at the first non-flag argument (the command
	// name), so subcommand-specific flags like --limit are not rejected.
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
	case "status":
		err = ctl.Status(*host, *jsonOut)

	case "health":
		err = ctl.Health(*host, *jsonOut)

	case "version":
		err = ctl.VersionInfo(*host, *jsonOut)

	case "session":
		err = ctl.Session(*host, *jsonOut)

	case "save":
		err = ctl.Save(*host, *jsonOut)

	case "clear":
		err = ctl.Clear(*host, *jsonOut)

	case "history":
		var (
			person string
			limit  int
		)
		histFlags := pflag.NewFlagSet("history", pflag.ContinueOnError)
		histFlags.StringVar(&person, "person", "", "Person id to fetch history for")
		histFlags.IntVar(&limit, "limit", 0, "Limit number of entries shown")
		_ = histFlags.Parse(subArgs)
		if histFlags.NArg() > 0 && person == "" {
			person = histFlags.Arg(0)
		}
		err = ctl.History(*host, person, limit, *jsonOut)

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
  bmictl - BMI station control CLI

  USAGE
    bmictl [flags] <command> [command-flags]

  COMMANDS (query)
    status          Show daemon state, uptime, and attached hardware
    health          Check daemon liveness
    version         Show CLI and daemon version information
    session         Show the current person session and measurement
    history         List stored measurements

  COMMANDS (control)
    save            Save the current session's measurement
    clear           Clear the current session

  COMMANDS (live)
    watch           Stream live events from the daemon (Ctrl-C to stop)

  GLOBAL FLAGS
    -H, --host URL      Daemon base URL (default: http://127.0.0.1:9090)
        --json          Output raw JSON instead of formatted text
        --filter TYPE   Event types to show in watch (comma-separated)

  COMMAND FLAGS
    history:
        --person ID     Person id to fetch history for
        --limit N       Limit number of entries shown

  EXAMPLES
    bmictl status
    bmictl --json session
    bmictl --host http://192.168.1.50:9090 watch
    bmictl history --person E1042 --limit 10
    bmictl history
    bmictl save
    bmictl clear
    bmictl watch --filter scan,measurement,saved

`)
}
