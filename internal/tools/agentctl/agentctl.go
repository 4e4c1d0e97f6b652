// Package agentctl executes agent lifecycle commands against a local journal.
package agentctl

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/fleetmind/agentcore/internal/domain/agent"
	"github.com/fleetmind/agentcore/internal/domain/command"
	"github.com/fleetmind/agentcore/internal/engine"
	"github.com/fleetmind/agentcore/internal/repository"
	"github.com/fleetmind/agentcore/internal/storage/sqlite"
)

// conflictRetries bounds load-decide-save attempts when writers race.
const conflictRetries = 3

// Config holds agentctl configuration.
type Config struct {
	DBPath            string `env:"AGENTCORE_DB_PATH" envDefault:"agentcore.db"`
	SnapshotFrequency uint64 `env:"AGENTCORE_SNAPSHOT_FREQUENCY" envDefault:"100"`
	ActorID           string `env:"AGENTCORE_ACTOR_ID"`
}

// ParseConfig loads environment defaults into a Config.
func ParseConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Run dispatches a subcommand against the journal at cfg.DBPath.
func Run(ctx context.Context, cfg Config, args []string, out, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	if len(args) == 0 {
		printUsage(errOut)
		return fmt.Errorf("subcommand required")
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open journal %s: %w", cfg.DBPath, err)
	}
	defer store.Close()

	registry, err := agent.NewRegistry()
	if err != nil {
		return err
	}
	repo := repository.New(store, store)
	if cfg.SnapshotFrequency > 0 {
		repo.SnapshotFrequency = cfg.SnapshotFrequency
	}
	app := &runner{
		cfg:     cfg,
		handler: engine.Handler{Commands: registry, Repo: repo},
		repo:    repo,
		store:   store,
		out:     out,
	}

	subcommand := args[0]
	rest := args[1:]
	switch subcommand {
	case "deploy":
		return app.deploy(ctx, rest)
	case "activate":
		return app.transition(ctx, rest, agent.CommandTypeActivate, nil)
	case "offline":
		return app.transition(ctx, rest, agent.CommandTypeGoOffline, nil)
	case "suspend":
		return app.suspend(ctx, rest)
	case "decommission":
		return app.decommission(ctx, rest)
	case "capabilities":
		return app.capabilities(ctx, rest)
	case "grant":
		return app.permissions(ctx, rest, agent.CommandTypeGrantPermissions)
	case "revoke":
		return app.permissions(ctx, rest, agent.CommandTypeRevokePermissions)
	case "tools":
		return app.tools(ctx, rest)
	case "config":
		return app.configure(ctx, rest)
	case "show":
		return app.show(ctx, rest)
	case "events":
		return app.events(ctx, rest)
	case "-h", "--help", "help":
		printUsage(out)
		return nil
	default:
		printUsage(errOut)
		return fmt.Errorf("unknown subcommand: %q", subcommand)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `Usage: agentctl <subcommand> [flags]

Subcommands:
  deploy        Deploy a new agent
  activate      Activate a deployed, suspended, or offline agent
  suspend       Suspend an active agent (requires -reason)
  offline       Mark an active or suspended agent offline
  decommission  Permanently decommission an agent
  capabilities  Add or remove capabilities
  grant         Grant permissions
  revoke        Revoke permissions
  tools         Enable or disable tools
  config        Set or unset configuration keys
  show          Print the agent's current state
  events        Print the agent's event stream

Run 'agentctl <subcommand> -h' for subcommand flags.
`)
}

type runner struct {
	cfg     Config
	handler engine.Handler
	repo    *repository.Repository
	store   *sqlite.Store
	out     io.Writer
}

func (r *runner) execute(ctx context.Context, cmd command.Command) error {
	cmd.ActorID = r.cfg.ActorID
	var result engine.Result
	var err error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		result, err = r.handler.Execute(ctx, cmd)
		if err == nil || !engine.IsConflict(err) {
			break
		}
	}
	if err != nil {
		return engine.ConflictStatusError(err)
	}
	if result.Rejected() {
		rejection := result.Decision.Rejections[0]
		return fmt.Errorf("%s: %s", rejection.Code, rejection.Message)
	}
	fmt.Fprintf(r.out, "%s: version %d, status %s\n", cmd.AgentID, result.Version, result.State.Status)
	return nil
}

func (r *runner) command(agentID string, cmdType command.Type, payload any) (command.Command, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return command.Command{}, fmt.Errorf("encode payload: %w", err)
	}
	return command.Command{AgentID: agentID, Type: cmdType, PayloadJSON: raw}, nil
}

func newFlagSet(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	agentID := fs.String("agent", "", "agent id (required)")
	return fs, agentID
}

func requireAgentID(agentID string) error {
	if strings.TrimSpace(agentID) == "" {
		return fmt.Errorf("-agent is required")
	}
	return nil
}

func (r *runner) deploy(ctx context.Context, args []string) error {
	fs, agentID := newFlagSet("deploy")
	name := fs.String("name", "", "agent name (required)")
	description := fs.String("description", "", "agent description")
	version := fs.String("version", "", "agent software version (required)")
	owner := fs.String("owner", "", "owning principal")
	category := fs.String("category", "user", "agent category (system|integration|ai|user|workflow|knowledge)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireAgentID(*agentID); err != nil {
		return err
	}
	cmd, err := r.command(*agentID, agent.CommandTypeDeploy, agent.DeployPayload{
		Name:        *name,
		Description: *description,
		Version:     *version,
		Owner:       *owner,
		Category:    *category,
	})
	if err != nil {
		return err
	}
	return r.execute(ctx, cmd)
}

func (r *runner) transition(ctx context.Context, args []string, cmdType command.Type, payload any) error {
	fs, agentID := newFlagSet(string(cmdType))
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireAgentID(*agentID); err != nil {
		return err
	}
	if payload == nil {
		payload = struct{}{}
	}
	cmd, err := r.command(*agentID, cmdType, payload)
	if err != nil {
		return err
	}
	return r.execute(ctx, cmd)
}

func (r *runner) suspend(ctx context.Context, args []string) error {
	fs, agentID := newFlagSet("suspend")
	reason := fs.String("reason", "", "suspension reason (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireAgentID(*agentID); err != nil {
		return err
	}
	cmd, err := r.command(*agentID, agent.CommandTypeSuspend, agent.SuspendPayload{Reason: *reason})
	if err != nil {
		return err
	}
	return r.execute(ctx, cmd)
}

func (r *runner) decommission(ctx context.Context, args []string) error {
	fs, agentID := newFlagSet("decommission")
	reason := fs.String("reason", "", "decommission reason")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireAgentID(*agentID); err != nil {
		return err
	}
	cmd, err := r.command(*agentID, agent.CommandTypeDecommission, agent.DecommissionPayload{Reason: *reason})
	if err != nil {
		return err
	}
	return r.execute(ctx, cmd)
}

func (r *runner) capabilities(ctx context.Context, args []string) error {
	fs, agentID := newFlagSet("capabilities")
	add := fs.String("add", "", "comma-separated capabilities to add")
	remove := fs.String("remove", "", "comma-separated capabilities to remove")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireAgentID(*agentID); err != nil {
		return err
	}
	cmd, err := r.command(*agentID, agent.CommandTypeUpdateCapabilities, agent.CapabilitiesPayload{
		Add:    splitList(*add),
		Remove: splitList(*remove),
	})
	if err != nil {
		return err
	}
	return r.execute(ctx, cmd)
}

func (r *runner) permissions(ctx context.Context, args []string, cmdType command.Type) error {
	fs, agentID := newFlagSet(string(cmdType))
	permissions := fs.String("permissions", "", "comma-separated permissions")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireAgentID(*agentID); err != nil {
		return err
	}
	cmd, err := r.command(*agentID, cmdType, agent.PermissionsPayload{
		Permissions: splitList(*permissions),
	})
	if err != nil {
		return err
	}
	return r.execute(ctx, cmd)
}

func (r *runner) tools(ctx context.Context, args []string) error {
	fs, agentID := newFlagSet("tools")
	enable := fs.String("enable", "", "comma-separated tools to enable")
	disable := fs.String("disable", "", "comma-separated tools to disable")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireAgentID(*agentID); err != nil {
		return err
	}
	enableList := splitList(*enable)
	disableList := splitList(*disable)
	if len(enableList) > 0 && len(disableList) > 0 {
		return fmt.Errorf("-enable and -disable cannot be combined")
	}
	cmdType := agent.CommandTypeEnableTools
	toolList := enableList
	if len(disableList) > 0 {
		cmdType = agent.CommandTypeDisableTools
		toolList = disableList
	}
	cmd, err := r.command(*agentID, cmdType, agent.ToolsPayload{Tools: toolList})
	if err != nil {
		return err
	}
	return r.execute(ctx, cmd)
}

func (r *runner) configure(ctx context.Context, args []string) error {
	fs, agentID := newFlagSet("config")
	set := fs.String("set", "", "comma-separated key=value pairs to set")
	unset := fs.String("unset", "", "comma-separated keys to unset")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireAgentID(*agentID); err != nil {
		return err
	}
	pairs, err := splitPairs(*set)
	if err != nil {
		return err
	}
	cmd, err := r.command(*agentID, agent.CommandTypeUpdateConfiguration, agent.ConfigurationPayload{
		Set:   pairs,
		Unset: splitList(*unset),
	})
	if err != nil {
		return err
	}
	return r.execute(ctx, cmd)
}

func (r *runner) show(ctx context.Context, args []string) error {
	fs, agentID := newFlagSet("show")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireAgentID(*agentID); err != nil {
		return err
	}
	state, found, err := r.repo.Load(ctx, *agentID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("agent %s not found", *agentID)
	}
	encoded, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, string(encoded))
	return nil
}

func (r *runner) events(ctx context.Context, args []string) error {
	fs, agentID := newFlagSet("events")
	fromSeq := fs.Uint64("from", 1, "first sequence to print")
	limit := fs.Int("limit", 0, "max events to print (0 = all)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireAgentID(*agentID); err != nil {
		return err
	}
	envelopes, err := r.store.ReadEvents(ctx, *agentID, *fromSeq, *limit)
	if err != nil {
		return err
	}
	if len(envelopes) == 0 {
		return fmt.Errorf("agent %s has no events at or after seq %d", *agentID, *fromSeq)
	}
	for _, env := range envelopes {
		fmt.Fprintf(r.out, "%d\t%s\t%s\t%s\n", env.Seq, env.Type, env.Timestamp.UTC().Format("2006-01-02T15:04:05Z"), env.PayloadJSON)
	}
	return nil
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func splitPairs(raw string) (map[string]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	pairs := make(map[string]string)
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		key, value, ok := strings.Cut(trimmed, "=")
		if !ok {
			return nil, fmt.Errorf("invalid pair %q, want key=value", trimmed)
		}
		pairs[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return pairs, nil
}
