package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iudanet/gamesync/internal/client/sync"
	"github.com/iudanet/gamesync/internal/models"
)

func (c *Cli) syncCommand() *cobra.Command {
	var domain string
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize local data with the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.io.Println("=== Synchronization ===")

			future := c.app.Orchestrator.SyncAll()
			if domain != "" {
				d, err := parseDomain(domain)
				if err != nil {
					return err
				}
				future = c.app.Orchestrator.SyncDomain(d)
			}

			report, err := future.Wait(cmd.Context())
			if err != nil {
				return err
			}
			c.printReport(report)
			return report.Err()
		},
	}
	cmd.Flags().StringVar(&domain, "domain", "", "Sync only one domain: highscores, stats or resources")
	return cmd
}

func (c *Cli) resolveCommand() *cobra.Command {
	var keep string
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve resource conflicts by keeping the client or the server copies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var keepClient bool
			switch keep {
			case "client":
				keepClient = true
			case "server":
			default:
				return fmt.Errorf("--keep must be client or server, got %q", keep)
			}
			return c.runResolve(cmd.Context(), keepClient)
		},
	}
	cmd.Flags().StringVar(&keep, "keep", "", "Which copies win: client or server")
	_ = cmd.MarkFlagRequired("keep")
	return cmd
}

func (c *Cli) runResolve(ctx context.Context, keepClient bool) error {
	// конфликты не хранятся локально: свежий проход ресурсов возвращает их заново
	report, err := c.app.Orchestrator.SyncDomain(models.DomainResources).Wait(ctx)
	if err != nil {
		return err
	}
	if err := report.Err(); err != nil {
		return err
	}

	conflicts := report.Conflicts()
	if len(conflicts) == 0 {
		c.io.Println("No conflicts to resolve.")
		return nil
	}

	resolution, err := c.app.Orchestrator.Resolve(ctx, keepClient, conflicts)
	if err != nil {
		if errors.Is(err, sync.ErrConflictChanged) {
			c.io.Println("Server data changed while resolving. A full sync was started; run resolve again if conflicts remain.")
			return nil
		}
		return err
	}

	c.io.Printf("✓ Resolved %d conflict(s): kept %d local, took %d from server, removed %d\n",
		len(conflicts), len(resolution.Accepted), len(resolution.Replaced), len(resolution.Removed))
	return nil
}

func (c *Cli) watchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep syncing in the background until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.io.Printf("Syncing every %s, press Ctrl+C to stop\n", c.cfg.SyncInterval)
			err := c.app.Scheduler.Run(cmd.Context())
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

// conflictPolicy спрашивает пользователя только с флагом --ask
func (c *Cli) conflictPolicy() sync.ConflictPolicy {
	if !c.flags.ask {
		return nil
	}
	return sync.ConflictPolicyFunc(c.askConflicts)
}

func (c *Cli) askConflicts(ctx context.Context, conflicts map[string]models.ConflictRecord) (bool, bool) {
	c.io.Printf("\n%d resource(s) were changed both here and on another device:\n", len(conflicts))
	for id, conflict := range conflicts {
		c.io.Printf("  %s (server changed since revision %d, %s)\n",
			id, conflict.FromRevision, conflict.LatestServerDate.Local().Format("2006-01-02 15:04"))
	}

	answer, err := c.io.ReadInput("Keep [c]lient copies, take [s]erver copies, or decide [l]ater? ")
	if err != nil {
		return false, false
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "c", "client":
		return true, true
	case "s", "server":
		return false, true
	default:
		return false, false
	}
}

func (c *Cli) printReport(report sync.Report) {
	c.io.Println()
	for _, d := range models.Domains() {
		out, ok := report.Outcomes[d]
		if !ok {
			continue
		}

		switch out.Status {
		case sync.OutcomeSucceeded:
			c.io.Printf("✓ %-10s sent %d, received %d\n", d, out.Sent, out.Merged)
		case sync.OutcomeConflicted:
			c.io.Printf("⚠️  %-10s %d conflict(s); run 'gamesync resolve --keep=client|server'\n", d, len(out.Conflicts))
		default:
			c.io.Printf("✗ %-10s %v (data kept for the next attempt)\n", d, out.Err)
		}
	}
}

func parseDomain(s string) (models.Domain, error) {
	for _, d := range models.Domains() {
		if string(d) == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown domain %q", s)
}
