package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iudanet/gamesync/internal/client/app"
	"github.com/iudanet/gamesync/internal/client/iocli"
	"github.com/iudanet/gamesync/internal/config"
)

// PasswordEnv переменная окружения с паролем игрока
const PasswordEnv = config.EnvPrefix + "PASSWORD"

type Passwords struct {
	FromFile string
	FromArgs string
}

// globalFlags переопределяют конфигурацию, если заданы явно
type globalFlags struct {
	configPath string
	serverURL  string
	dataDir    string
	logLevel   string
	ask        bool
}

// Cli команды игрового клиента поверх app.App
type Cli struct {
	io        iocli.IO
	app       *app.App
	cfg       *config.Client
	logger    *slog.Logger
	logOutput io.Writer
	flags     globalFlags
	passwords Passwords
	version   string
}

func New(io iocli.IO) *Cli {
	return &Cli{
		io:        io,
		logOutput: os.Stderr,
	}
}

// SetVersion sets the text printed by --version
func (c *Cli) SetVersion(version string) {
	c.version = version
}

// Execute runs the command line against a fresh command tree
func (c *Cli) Execute(ctx context.Context, args []string) error {
	root := c.Command()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)

	// PostRun не вызывается при ошибке команды, поэтому клиент закрывается здесь
	return errors.Join(err, c.teardown())
}

// Command builds the command tree
func (c *Cli) Command() *cobra.Command {
	root := &cobra.Command{
		Use:           "gamesync",
		Short:         "Game client shell with offline-first sync of highscores, stats and user content",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       c.version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}
	root.SetOut(c.io)
	root.SetErr(c.io)

	pf := root.PersistentFlags()
	pf.StringVar(&c.flags.configPath, "config", "gamesync.yaml", "Path to YAML config file")
	pf.StringVar(&c.flags.serverURL, "server", "", "Server URL")
	pf.StringVar(&c.flags.dataDir, "data-dir", "", "Directory for local databases")
	pf.StringVar(&c.flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.BoolVar(&c.flags.ask, "ask", false, "Ask how to resolve resource conflicts as soon as they appear")

	root.AddCommand(
		c.registerCommand(),
		c.loginCommand(),
		c.logoutCommand(),
		c.statusCommand(),
		c.playCommand(),
		c.dieCommand(),
		c.highscoreCommand(),
		c.bookmarkCommand(),
		c.resourceCommand(),
		c.syncCommand(),
		c.resolveCommand(),
		c.watchCommand(),
	)

	return root
}

// setup loads the configuration and opens the client
func (c *Cli) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadClient(c.flags.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("server") {
		cfg.ServerURL = c.flags.serverURL
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = c.flags.dataDir
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = c.flags.logLevel
	}
	c.cfg = cfg
	c.logger = config.NewLogger(c.logOutput, cfg.LogLevel)

	a, err := app.New(cmd.Context(), cfg, c.conflictPolicy(), c.logger)
	if err != nil {
		return err
	}
	c.app = a
	return nil
}

func (c *Cli) teardown() error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	c.app = nil
	return err
}

// getPassword retrieves the password with priority:
// 1. Environment variable GAMESYNC_PASSWORD
// 2. File given by --password-file
// 3. --password parameter
// 4. Interactive prompt (fallback)
func (c *Cli) getPassword(prompt string) (string, error) {
	// Priority 1: Environment variable
	if envPassword := os.Getenv(PasswordEnv); envPassword != "" {
		return envPassword, nil
	}

	// Priority 2: File
	if c.passwords.FromFile != "" {
		content, err := os.ReadFile(c.passwords.FromFile)
		if err != nil {
			return "", fmt.Errorf("failed to read password file: %w", err)
		}
		// Убираем trailing newline/whitespace
		password := strings.TrimSpace(string(content))
		if password == "" {
			return "", errors.New("password file is empty")
		}
		return password, nil
	}

	// Priority 3: CLI parameter
	if c.passwords.FromArgs != "" {
		return c.passwords.FromArgs, nil
	}

	// Priority 4: Interactive prompt (fallback)
	password, err := c.io.ReadPassword(prompt)
	if err != nil {
		return "", fmt.Errorf("failed to read password from stdin: %w", err)
	}
	if password == "" {
		return "", errors.New("password cannot be empty")
	}

	return password, nil
}

func (c *Cli) addPasswordFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&c.passwords.FromArgs, "password", "", "Password (not recommended, use env var or file)")
	cmd.Flags().StringVar(&c.passwords.FromFile, "password-file", "", "Path to file containing the password")
}

// username берется из флага или запрашивается
func (c *Cli) username(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	username, err := c.io.ReadInput("Username: ")
	if err != nil {
		return "", fmt.Errorf("failed to read username: %w", err)
	}
	return username, nil
}
