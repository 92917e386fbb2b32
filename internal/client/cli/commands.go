package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iudanet/gamesync/internal/client/app"
)

func (c *Cli) registerCommand() *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new player",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRegister(cmd.Context(), username)
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Player name")
	c.addPasswordFlags(cmd)
	return cmd
}

func (c *Cli) loginCommand() *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and pull data from other devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLogin(cmd.Context(), username)
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Player name")
	c.addPasswordFlags(cmd)
	return cmd
}

func (c *Cli) logoutCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Clear all local data and log out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLogout(cmd.Context(), yes)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func (c *Cli) runRegister(ctx context.Context, username string) error {
	c.io.Println("=== Registration ===")

	username, err := c.username(username)
	if err != nil {
		return err
	}
	password, err := c.getPassword("Password: ")
	if err != nil {
		return err
	}

	userID, err := c.app.Session.Register(ctx, username, password)
	if err != nil {
		return err
	}

	c.io.Println("✓ Registration successful!")
	c.io.Printf("User ID: %s\n", userID)
	c.io.Println("Run 'gamesync login' to start syncing.")
	return nil
}

func (c *Cli) runLogin(ctx context.Context, username string) error {
	c.io.Println("=== Login ===")

	username, err := c.username(username)
	if err != nil {
		return err
	}
	password, err := c.getPassword("Password: ")
	if err != nil {
		return err
	}

	session, err := c.app.Session.Login(ctx, username, password)
	if err != nil {
		return err
	}

	c.io.Println("✓ Login successful!")
	c.io.Printf("Username: %s\n", session.Username)
	if !session.ExpiresAt.IsZero() {
		c.io.Printf("Session expires: %s\n", session.ExpiresAt.Local().Format("2006-01-02 15:04"))
	}

	report, err := c.app.Orchestrator.SyncAll().Wait(ctx)
	if err != nil {
		return err
	}
	c.printReport(report)
	return nil
}

func (c *Cli) runLogout(ctx context.Context, yes bool) error {
	c.io.Println("=== Logout ===")

	confirmed := yes
	if !confirmed {
		c.io.Println("All local highscores, stats and resources will be deleted.")
		c.io.Println("Data not yet synchronized with the server will be lost.")
		var err error
		confirmed, err = c.io.Confirm("Clear local data and log out?")
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
	}

	if err := c.app.ClearDataAndLogout(ctx, confirmed); err != nil {
		if errors.Is(err, app.ErrNotConfirmed) {
			c.io.Println("Cancelled. Nothing was deleted.")
			return nil
		}
		return err
	}

	c.io.Println("✓ Local data cleared, you are logged out.")
	return nil
}
