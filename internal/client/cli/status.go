package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	clientapi "github.com/iudanet/gamesync/internal/client/api"
)

type statusView struct {
	ExpiresAt         time.Time
	Username          string
	LoggedIn          bool
	Online            bool
	PendingHighscores int
	PendingStats      int
	PendingResources  int
}

func (v statusView) Pending() int {
	return v.PendingHighscores + v.PendingStats + v.PendingResources
}

func (c *Cli) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show session, connectivity and data waiting to be synchronized",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			view := statusView{}

			session, err := c.app.Session.Current(ctx)
			switch {
			case err == nil:
				view.LoggedIn = true
				view.Username = session.Username
				view.ExpiresAt = session.ExpiresAt
			case !errors.Is(err, clientapi.ErrNotLoggedIn):
				return err
			}

			view.Online = c.app.Session.Probe(ctx)

			highscores, err := c.app.Highscores.List(ctx)
			if err != nil {
				return err
			}
			for _, h := range highscores {
				if !h.Synced {
					view.PendingHighscores++
				}
			}

			stats, err := c.app.Stats.List(ctx)
			if err != nil {
				return err
			}
			for _, s := range stats {
				if !s.Synced {
					view.PendingStats++
				}
			}

			resources, err := c.app.Resources.List(ctx)
			if err != nil {
				return err
			}
			for _, r := range resources {
				if !r.Synced {
					view.PendingResources++
				}
			}

			return c.render(statusTmpl, view)
		},
	}
}
