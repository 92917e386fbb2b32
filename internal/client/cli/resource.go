package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/iudanet/gamesync/internal/client/storage"
	"github.com/iudanet/gamesync/internal/models"
)

func (c *Cli) resourceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "resource",
		Aliases: []string{"res"},
		Short:   "Manage user-created levels and actors",
	}
	cmd.AddCommand(
		c.resourceCreateCommand(),
		c.resourceUpdateCommand(),
		c.resourceDeleteCommand(),
		c.resourceListCommand(),
	)
	return cmd
}

func (c *Cli) resourceCreateCommand() *cobra.Command {
	var kind, name, file string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a level or an actor from a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readContent(file)
			if err != nil {
				return err
			}

			res, err := c.app.Resources.Create(cmd.Context(), models.ResourceKind(kind), name, content)
			if err != nil {
				return err
			}
			c.io.Printf("✓ Created %s %q\nID: %s\n", res.Kind, res.Name, res.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(models.ResourceKindLevel), "Resource kind: level or actor")
	cmd.Flags().StringVar(&name, "name", "", "Resource name")
	cmd.Flags().StringVar(&file, "file", "", "File with the resource content ('-' for stdin)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func (c *Cli) resourceUpdateCommand() *cobra.Command {
	var name, file string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace the name and/or content of a resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			current, err := c.app.Resources.Get(ctx, args[0])
			if err != nil {
				return resourceError(args[0], err)
			}

			if cmd.Flags().Changed("name") {
				current.Name = name
			}
			if cmd.Flags().Changed("file") {
				if current.Content, err = readContent(file); err != nil {
					return err
				}
			}

			res, err := c.app.Resources.Update(ctx, current.ID, current.Name, current.Content)
			if err != nil {
				return resourceError(args[0], err)
			}
			c.io.Printf("✓ Updated %q (local revision %d)\n", res.Name, res.Revision)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&file, "file", "", "File with the new content ('-' for stdin)")
	return cmd
}

func (c *Cli) resourceDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a resource on every device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Resources.Delete(cmd.Context(), args[0]); err != nil {
				return resourceError(args[0], err)
			}
			c.io.Println("✓ Resource deleted")
			return nil
		},
	}
}

func (c *Cli) resourceListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List resources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := c.app.Resources.List(cmd.Context())
			if err != nil {
				return err
			}
			return c.render(resourceListTmpl, list)
		},
	}
}

func readContent(file string) ([]byte, error) {
	switch file {
	case "":
		return nil, nil
	case "-":
		return io.ReadAll(os.Stdin)
	default:
		content, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
		return content, nil
	}
}

func resourceError(id string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("resource %s not found", id)
	}
	return err
}
