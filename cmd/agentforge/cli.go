package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"github.com/Strob0t/AgentForge/internal/adapter/catalog"
	cfnats "github.com/Strob0t/AgentForge/internal/adapter/nats"
	"github.com/Strob0t/AgentForge/internal/adapter/postgres"
	"github.com/Strob0t/AgentForge/internal/domain/agent"
	"github.com/Strob0t/AgentForge/internal/domain/orchestration"
	"github.com/Strob0t/AgentForge/internal/port/messagequeue"
)

// splitArgs separates subcommand flags from the serve flags understood by
// config.ParseFlags, which follow a literal "--".
func splitArgs(args []string) (own, cfgArgs []string) {
	for i, a := range args {
		if a == "--" {
			return args[:i], args[i+1:]
		}
	}
	return args, nil
}

func runOnce(args []string) error {
	own, cfgArgs := splitArgs(args)
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	hint := fs.String("hint", "", "deliverable hint (presentation|essay|article|sermon|course|general)")
	forced := fs.String("agent", "", "run a single catalog agent instead of a workflow")
	requester := fs.String("requester", defaultRequester(), "requester id recorded on the session")
	quality := fs.String("quality", "", "draft|standard|premium")
	noGrounding := fs.Bool("no-grounding", false, "disable grounded model calls")
	asJSON := fs.Bool("json", false, "print the full result as JSON")
	if err := fs.Parse(own); err != nil {
		return err
	}
	task := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if task == "" {
		return fmt.Errorf("a task is required, e.g. agentforge run \"Write an essay on hope\"")
	}

	cfg, logCloser, err := loadConfig(cfgArgs)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := buildCore(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.close()

	req := &orchestration.Request{
		RequesterID:     *requester,
		Task:            task,
		DeliverableHint: orchestration.DeliverableType(*hint),
	}
	req.Context.ForcedAgentID = *forced
	req.Preferences.Quality = orchestration.Quality(*quality)
	if *noGrounding {
		off := false
		req.Preferences.Grounding = &off
	}

	res, err := c.orchestrator.Orchestrate(ctx, req)
	if err != nil {
		var oe *orchestration.Error
		if errors.As(err, &oe) {
			return fmt.Errorf("session %s failed at %s: %w", oe.SessionID, oe.Stage, oe.Err)
		}
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Println(res.Deliverable.Content)
	if len(res.Deliverable.Items) > 0 {
		for _, it := range res.Deliverable.Items {
			fmt.Printf("## %s\n\n%s\n\n", it.AgentName, it.Output)
		}
	}
	if res.Deliverable.Warning != "" {
		fmt.Fprintf(os.Stderr, "warning: %s\n", res.Deliverable.Warning)
	}
	fmt.Fprintf(os.Stderr, "session %s: %s, %d executions (%d failed), $%.4f in %s\n",
		res.SessionID, res.DeliverableType, len(res.Executions), countFailedExecs(res.Executions),
		res.Cost.Total, res.Duration.Round(time.Millisecond))
	return nil
}

func runCheck(args []string) error {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return fmt.Errorf("usage: agentforge check <text>")
	}
	fmt.Printf("should_orchestrate=%t explicit_presentation=%t\n",
		orchestration.ShouldOrchestrate(text),
		orchestration.IsExplicitPresentationRequest(text))
	return nil
}

func runAgents(args []string) error {
	fs := flag.NewFlagSet("agents", flag.ContinueOnError)
	capability := fs.String("capability", "", "only list agents with this capability")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cat, err := catalog.Default()
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	agents := cat.All()
	if *capability != "" {
		c := agent.Capability(*capability)
		if !c.Valid() {
			return fmt.Errorf("unknown capability %q", *capability)
		}
		agents = cat.ByCapability(c)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tCAPABILITIES")
	for i := range agents {
		a := &agents[i]
		caps := make([]string, len(a.Capabilities))
		for j, c := range a.Capabilities {
			caps[j] = string(c)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.ID, a.Name, a.Category, strings.Join(caps, ","))
	}
	return w.Flush()
}

func runSessions(args []string) error {
	own, cfgArgs := splitArgs(args)
	fs := flag.NewFlagSet("sessions", flag.ContinueOnError)
	requester := fs.String("requester", defaultRequester(), "requester id")
	limit := fs.Int("limit", 20, "maximum sessions to list")
	if err := fs.Parse(own); err != nil {
		return err
	}

	cfg, logCloser, err := loadConfig(cfgArgs)
	if err != nil {
		return err
	}
	defer logCloser.Close()
	if cfg.Postgres.DSN == "" {
		return fmt.Errorf("sessions requires postgres.dsn; the in-memory store does not outlive the server")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	sessions, err := postgres.NewStore(pool).ListByRequester(ctx, *requester, *limit)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("No sessions found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTATUS\tDELIVERABLE\tEXECUTIONS\tCREATED")
	for i := range sessions {
		s := &sessions[i]
		var dt orchestration.DeliverableType
		if s.Analysis != nil {
			dt = s.Analysis.DeliverableType
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			s.ID, s.Status, dt, len(s.Executions), s.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func runMigrate(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: agentforge migrate up|down|version [options] [-- serve flags]")
	}
	action := args[0]
	own, cfgArgs := splitArgs(args[1:])
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	steps := fs.Int("steps", 1, "migrations to roll back (down only)")
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	if err := fs.Parse(own); err != nil {
		return err
	}

	cfg, logCloser, err := loadConfig(cfgArgs)
	if err != nil {
		return err
	}
	defer logCloser.Close()
	if cfg.Postgres.DSN == "" {
		return fmt.Errorf("postgres.dsn is not configured")
	}
	ctx := context.Background()

	switch action {
	case "up":
		if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
			return err
		}
	case "down":
		if *steps < 1 {
			return fmt.Errorf("--steps must be >= 1")
		}
		if !*yes {
			ok, err := confirm(fmt.Sprintf("Roll back %d migration(s)? Session data may be lost. [y/N] ", *steps))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(os.Stderr, "Aborted.")
				return nil
			}
		}
		if err := postgres.RollbackMigrations(ctx, cfg.Postgres.DSN, *steps); err != nil {
			return err
		}
	case "version":
	default:
		return fmt.Errorf("unknown migrate action: %s", action)
	}

	v, err := postgres.MigrationVersion(ctx, cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Schema version: %d\n", v)
	return nil
}

func runEvents(args []string) error {
	own, cfgArgs := splitArgs(args)
	fs := flag.NewFlagSet("events", flag.ContinueOnError)
	subject := fs.String("subject", messagequeue.SubjectAll, "subject filter")
	if err := fs.Parse(own); err != nil {
		return err
	}

	cfg, logCloser, err := loadConfig(cfgArgs)
	if err != nil {
		return err
	}
	defer logCloser.Close()
	if cfg.NATS.URL == "" {
		return fmt.Errorf("nats.url is not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	q, err := cfnats.Connect(ctx, cfg.NATS.URL, cfg.NATS.Stream)
	if err != nil {
		return err
	}
	defer func() { _ = q.Close() }()

	cancel, err := q.Subscribe(ctx, *subject, func(_ context.Context, subj string, data []byte) error {
		fmt.Printf("%s %s\n", subj, data)
		return nil
	})
	if err != nil {
		return err
	}
	defer cancel()

	fmt.Fprintf(os.Stderr, "Listening on %s (Ctrl-C to stop)\n", *subject)
	<-ctx.Done()
	return nil
}

// confirm asks a yes/no question on an interactive terminal. Non-interactive
// input is refused so scripts must pass --yes explicitly.
func confirm(prompt string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) { //nolint:gosec // fd fits in int
		return false, fmt.Errorf("stdin is not a terminal; pass --yes to confirm")
	}
	fmt.Fprint(os.Stderr, prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func defaultRequester() string {
	if u := os.Getenv("USER"); u != "" {
		return "cli:" + u
	}
	return "cli"
}

func countFailedExecs(execs []orchestration.Execution) int {
	n := 0
	for i := range execs {
		if !execs[i].Success {
			n++
		}
	}
	return n
}

