// Command bastionctl lints global policy tables and evaluates what-if
// authorization decisions offline.
//
// Usage:
//
//	bastionctl lint [file]
//	bastionctl dump
//	bastionctl check --role vendor-admin --tenant acme \
//	    --resource quotes --action write \
//	    --grant quotes.create --require quotes.create
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/xraph/bastion"
	"github.com/xraph/bastion/assignment"
	"github.com/xraph/bastion/policy"
	"github.com/xraph/bastion/principal"
	"github.com/xraph/bastion/store/memory"
	"github.com/xraph/bastion/tenantrole"
)

const usage = `usage: bastionctl <command> [flags]

commands:
  lint [file]   validate a policy file (default: $BASTION_POLICY_FILE)
  dump          print the effective policy table as YAML
  check         evaluate a decision against an in-memory tenant role
`

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "bastionctl: config: %v\n", err)
		return 2
	}
	logger := newLogger(cfg, stderr)

	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	switch args[0] {
	case "lint":
		err = lint(cfg, args[1:], stdout)
	case "dump":
		err = dump(cfg, stdout)
	case "check":
		err = check(ctx, cfg, logger, args[1:], stdout)
	default:
		fmt.Fprint(stderr, usage)
		return 2
	}

	var denied *deniedError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &denied):
		return 1
	case errors.Is(err, pflag.ErrHelp):
		return 0
	default:
		logger.Error("bastionctl failed", "command", args[0], "error", err)
		return 2
	}
}

// deniedError signals a well-formed check that came back denied.
type deniedError struct{ reason string }

func (e *deniedError) Error() string { return e.reason }

func loadPolicy(path string) (*policy.Table, error) {
	if path == "" {
		return policy.Default(), nil
	}
	return policy.LoadFile(path)
}

func lint(cfg *config, args []string, stdout io.Writer) error {
	path := cfg.PolicyFile
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		return errors.New("lint: no policy file given")
	}
	t, err := policy.LoadFile(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s: ok (%d entries)\n", path, t.Len())
	return nil
}

func dump(cfg *config, stdout io.Writer) error {
	t, err := loadPolicy(cfg.PolicyFile)
	if err != nil {
		return err
	}
	out, err := policy.Marshal(t)
	if err != nil {
		return err
	}
	_, err = stdout.Write(out)
	return err
}

func check(ctx context.Context, cfg *config, logger *slog.Logger, args []string, stdout io.Writer) error {
	fs := pflag.NewFlagSet("check", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		policyFile = fs.String("policy", cfg.PolicyFile, "policy file (default: built-in table)")
		role       = fs.String("role", "", "global role of the actor")
		tenant     = fs.String("tenant", "", "tenant of the actor")
		user       = fs.String("user", "cli", "user id of the actor")
		resource   = fs.String("resource", "", "resource class")
		action     = fs.String("action", "", "action")
		grants     = fs.StringSlice("grant", nil, "permissions held by the actor's tenant role")
		require    = fs.StringSlice("require", nil, "tenant permissions the operation requires")
		inactive   = fs.Bool("inactive", false, "mark the tenant role inactive")
	)
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("check: %w", err)
	}

	gr, err := principal.ParseGlobalRole(*role)
	if err != nil {
		return fmt.Errorf("check: %w", err)
	}
	pol, err := loadPolicy(*policyFile)
	if err != nil {
		return err
	}

	eng, err := bastion.NewEngine(
		bastion.WithStore(memory.New()),
		bastion.WithPolicy(pol),
		bastion.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	actor := &bastion.Actor{UserID: *user, Role: gr, TenantID: *tenant}
	if fs.Changed("grant") || *inactive {
		r, err := eng.Roles().CreateRole(ctx, &bastion.CreateRoleInput{
			TenantID:    *tenant,
			Name:        "what-if",
			Permissions: *grants,
			CreatedBy:   *user,
		})
		if err != nil {
			return fmt.Errorf("check: seed role: %w", err)
		}
		if *inactive {
			off := false
			if _, err := eng.Roles().UpdateRole(ctx, r.ID, &tenantrole.Update{IsActive: &off}); err != nil {
				return fmt.Errorf("check: seed role: %w", err)
			}
		}
		actor.Assignment = assignment.AssignedRole(r.ID)
	}

	result, err := eng.Authorize(ctx, &bastion.Request{
		Actor:       actor,
		Resource:    *resource,
		Action:      *action,
		Permissions: *require,
	})
	if err != nil {
		return fmt.Errorf("check: %w", err)
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return err
	}
	if !result.Allowed {
		return &deniedError{reason: result.Reason}
	}
	return nil
}
