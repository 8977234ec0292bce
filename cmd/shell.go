package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/EO-DataHub/eodhp-activity-signup/internal/app"
	"github.com/google/shlex"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shellHelp = `Commands:
  list                          refresh and show activities
  show                          show the page without refreshing
  menu                          open or close the login menu
  login <username> <password>   log in as a teacher
  logout                        log out
  whoami                        show the logged in user
  signup <email> <activity>     register a student
  unregister <activity> <email> remove a student
  help                          show this help
  quit                          leave the shell
Quote names that contain spaces, e.g. signup a@b.com "Chess Club".`

var errQuit = errors.New("quit")

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive session: each line is handled as one page event",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		a, err := commonSetUp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		return runShell(ctx, a, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func runShell(ctx context.Context, a *app.App, in io.Reader, out io.Writer) error {
	if err := a.Render(out); err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\n> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields, err := shlex.Split(line)
		if err != nil {
			fmt.Fprintf(out, "cannot parse command: %v\n", err)
			continue
		}

		render, err := dispatch(ctx, a, fields, out)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			log.Debug().Err(err).Str("command", fields[0]).Msg("command failed")
		}
		if render {
			if err := a.Render(out); err != nil {
				return err
			}
		}
	}
}

// dispatch runs one shell command and reports whether the page should be
// printed afterwards. Failures are already reflected on the page.
func dispatch(ctx context.Context, a *app.App, fields []string, out io.Writer) (bool, error) {
	name, args := fields[0], fields[1:]

	usage := func(u string) (bool, error) {
		fmt.Fprintf(out, "usage: %s\n", u)
		return false, nil
	}

	switch name {
	case "list", "refresh":
		return true, a.Activities.FetchActivities(ctx)
	case "show":
		return true, nil
	case "menu":
		a.View.ToggleAuthMenu()
		return true, nil
	case "login":
		if len(args) != 2 {
			return usage("login <username> <password>")
		}
		return true, a.Session.Login(ctx, args[0], args[1])
	case "logout":
		a.Session.Logout()
		return true, nil
	case "whoami":
		return false, printIdentity(out, a.Session)
	case "signup":
		if len(args) != 2 {
			return usage("signup <email> <activity>")
		}
		return true, a.Activities.Signup(ctx, args[0], args[1])
	case "unregister":
		if len(args) != 2 {
			return usage("unregister <activity> <email>")
		}
		return true, a.Activities.Unregister(ctx, args[0], args[1])
	case "help", "?":
		fmt.Fprintln(out, shellHelp)
		return false, nil
	case "quit", "exit":
		return false, errQuit
	default:
		a.View.CloseAuthMenu()
		fmt.Fprintf(out, "unknown command %q, type help for a list\n", name)
		return false, nil
	}
}

func init() {
	rootCmd.AddCommand(shellCmd)
}
