// Command agentforge serves the multi-agent orchestration API and provides
// operator subcommands for one-off runs, migrations and event tailing.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := dispatch(os.Args[1:]); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

// dispatch runs the named subcommand. Without one, or when the first
// argument is a flag, it serves.
func dispatch(args []string) error {
	cmd := "serve"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "serve":
		return serve(args)
	case "run":
		return runOnce(args)
	case "check":
		return runCheck(args)
	case "agents":
		return runAgents(args)
	case "sessions":
		return runSessions(args)
	case "migrate":
		return runMigrate(args)
	case "events":
		return runEvents(args)
	case "version":
		fmt.Println(version)
		return nil
	case "help", "--help", "-h":
		printHelp()
		return nil
	default:
		printHelp()
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func printHelp() {
	fmt.Fprintf(os.Stderr, `Usage: agentforge <command> [options]

Commands:
  serve      Start the HTTP, WebSocket and MCP server (default)
  run        Run one orchestration and print the deliverable
  check      Report whether a message warrants orchestration
  agents     List catalog agents
  sessions   List a requester's recent sessions (PostgreSQL only)
  migrate    Apply or roll back database migrations
  events     Tail orchestration events from NATS
  version    Print the build version

Examples:
  agentforge serve -c agentforge.yaml -p 8080
  agentforge run --hint essay "Write an essay on the history of printing"
  agentforge check "Create a presentation about servant leadership"
  agentforge agents --capability research
  agentforge migrate down --steps 1
  agentforge events --subject orchestration.session.status
`)
}
