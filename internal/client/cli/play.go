package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/iudanet/gamesync/internal/models"
)

func (c *Cli) playCommand() *cobra.Command {
	var (
		score int64
		event string
	)
	cmd := &cobra.Command{
		Use:   "play <level>",
		Short: "Record a play of a level, optionally with its score",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			levelID := args[0]

			stat, err := c.app.Stats.IncreasePlayCount(ctx, levelID)
			if err != nil {
				return err
			}
			c.io.Printf("Level %s played %d time(s)\n", levelID, stat.Plays.Total)

			if event != "" {
				if _, err := c.app.Stats.RecordEvent(ctx, levelID, event); err != nil {
					return err
				}
			}

			if !cmd.Flags().Changed("score") {
				return nil
			}

			written, err := c.app.SetHighscore(ctx, levelID, score)
			if err != nil {
				return err
			}
			if written {
				c.io.Printf("🏆 New highscore on %s: %d\n", levelID, score)
			} else {
				c.io.Printf("Score %d does not beat the highscore\n", score)
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&score, "score", 0, "Score reached")
	cmd.Flags().StringVar(&event, "event", "", "Tag the play with an event (e.g. completed)")
	return cmd
}

func (c *Cli) dieCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "die <level>",
		Short: "Record a death on a level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stat, err := c.app.Stats.IncreaseDeathCount(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			c.io.Printf("Deaths on %s: %d\n", args[0], stat.Deaths.Total)
			return nil
		},
	}
}

func (c *Cli) bookmarkCommand() *cobra.Command {
	var remove bool
	cmd := &cobra.Command{
		Use:   "bookmark <level>",
		Short: "Bookmark a level (or remove the bookmark)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			delta := int64(1)
			if remove {
				delta = -1
			}
			stat, err := c.app.Stats.AdjustBookmarks(cmd.Context(), args[0], delta)
			if err != nil {
				return err
			}
			c.io.Printf("Bookmarks on %s: %d\n", args[0], stat.Bookmarks.Total)
			return nil
		},
	}
	cmd.Flags().BoolVar(&remove, "remove", false, "Remove the bookmark")
	return cmd
}

func (c *Cli) highscoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "highscore [level [score]]",
		Short: "List highscores, or check whether a score would be a new highscore",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			switch len(args) {
			case 2:
				score, err := strconv.ParseInt(args[1], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid score %q: %w", args[1], err)
				}
				isNew, err := c.app.Highscores.IsNewHighscore(ctx, args[0], score)
				if err != nil {
					return err
				}
				if isNew {
					c.io.Printf("%d would be a new highscore on %s\n", score, args[0])
				} else {
					c.io.Printf("%d would not beat the highscore on %s\n", score, args[0])
				}
				return nil
			case 1:
				h, err := c.app.Highscores.Get(ctx, args[0])
				if err != nil {
					return err
				}
				return c.render(highscoreListTmpl, []*models.Highscore{h})
			default:
				list, err := c.app.Highscores.List(ctx)
				if err != nil {
					return err
				}
				return c.render(highscoreListTmpl, list)
			}
		},
	}
}
