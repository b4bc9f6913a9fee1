// Command cli is a terminal client for a Taskbox server. It caches the
// access token in a local file so one login covers subsequent commands.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"taskbox/pkg/client"
)

var (
	flagURL       string
	flagTokenFile string
)

func main() {
	root := &cobra.Command{
		Use:           "taskbox-cli",
		Short:         "Talk to a Taskbox server from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagURL, "url", envOr("TASKBOX_URL", "http://127.0.0.1:8080"), "server base URL")
	root.PersistentFlags().StringVar(&flagTokenFile, "token-file", defaultTokenFile(), "path of the cached access token")

	root.AddCommand(
		signupCmd(),
		loginCmd(),
		logoutCmd(),
		whoamiCmd(),
		addCmd(),
		listCmd(),
		getCmd(),
		doneCmd(),
		editCmd(),
		rmCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".taskbox-token"
	}
	return filepath.Join(home, ".taskbox", "token")
}

func newClient() *client.Client {
	c := client.New(flagURL)
	if tok, err := os.ReadFile(flagTokenFile); err == nil {
		c.SetToken(strings.TrimSpace(string(tok)))
	}
	return c
}

func saveToken(tok string) error {
	if err := os.MkdirAll(filepath.Dir(flagTokenFile), 0o700); err != nil {
		return err
	}
	return os.WriteFile(flagTokenFile, []byte(tok), 0o600)
}

// readPassword prompts without echoing when stdin is a terminal.
func readPassword() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		fmt.Fprint(os.Stderr, "password: ")
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}

	var pass string
	if _, err := fmt.Scanln(&pass); err != nil {
		return "", err
	}
	return pass, nil
}

func cmdContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

func signupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signup <username>",
		Short: "Create an account and store its token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pass, err := readPassword()
			if err != nil {
				return err
			}

			ctx, cancel := cmdContext()
			defer cancel()

			tok, err := newClient().Signup(ctx, args[0], pass)
			if err != nil {
				return err
			}
			if err := saveToken(tok.AccessToken); err != nil {
				return err
			}
			fmt.Printf("account %s created, token stored in %s\n", args[0], flagTokenFile)
			return nil
		},
	}
}

func loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <username>",
		Short: "Log in and store the token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pass, err := readPassword()
			if err != nil {
				return err
			}

			ctx, cancel := cmdContext()
			defer cancel()

			tok, err := newClient().Login(ctx, args[0], pass)
			if err != nil {
				return err
			}
			if err := saveToken(tok.AccessToken); err != nil {
				return err
			}
			fmt.Printf("logged in as %s, token stored in %s\n", args[0], flagTokenFile)
			return nil
		},
	}
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := os.Remove(flagTokenFile); err != nil && !os.IsNotExist(err) {
				return err
			}
			fmt.Println("logged out")
			return nil
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the account behind the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := cmdContext()
			defer cancel()

			u, err := newClient().Whoami(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("%s (id %d, since %s)\n", u.Username, u.ID, u.CreatedAt.Format("2006-01-02"))
			return nil
		},
	}
}

func addCmd() *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext()
			defer cancel()

			var desc *string
			if cmd.Flags().Changed("description") {
				desc = &description
			}

			t, err := newClient().CreateTodo(ctx, args[0], desc)
			if err != nil {
				return err
			}
			fmt.Printf("added #%d %s\n", t.ID, t.Title)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "optional description")
	return cmd
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your todos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := cmdContext()
			defer cancel()

			todos, err := newClient().ListTodos(ctx)
			if err != nil {
				return err
			}
			if len(todos) == 0 {
				fmt.Println("nothing to do")
				return nil
			}
			for _, t := range todos {
				fmt.Println(formatTodoLine(t))
			}
			return nil
		},
	}
}

func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := cmdContext()
			defer cancel()

			t, err := newClient().GetTodo(ctx, id)
			if err != nil {
				return err
			}
			fmt.Println(formatTodoLine(t))
			if t.Description != nil && *t.Description != "" {
				fmt.Println("  " + *t.Description)
			}
			return nil
		},
	}
}

func doneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a todo completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := cmdContext()
			defer cancel()

			completed := true
			t, err := newClient().UpdateTodo(ctx, id, client.TodoPatch{Completed: &completed})
			if err != nil {
				return err
			}
			fmt.Printf("done #%d %s\n", t.ID, t.Title)
			return nil
		},
	}
}

func editCmd() *cobra.Command {
	var (
		title       string
		description string
		completed   bool
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change title, description, or completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var patch client.TodoPatch
			if cmd.Flags().Changed("title") {
				patch.Title = &title
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}
			if cmd.Flags().Changed("completed") {
				patch.Completed = &completed
			}
			if patch.Title == nil && patch.Description == nil && patch.Completed == nil {
				return fmt.Errorf("nothing to change; pass --title, --description, or --completed")
			}

			ctx, cancel := cmdContext()
			defer cancel()

			t, err := newClient().UpdateTodo(ctx, id, patch)
			if err != nil {
				return err
			}
			fmt.Println(formatTodoLine(t))
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	cmd.Flags().BoolVarP(&completed, "completed", "c", false, "completion state")
	return cmd
}

func rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := cmdContext()
			defer cancel()

			msg, err := newClient().DeleteTodo(ctx, id)
			if err != nil {
				return err
			}
			fmt.Println(msg)
			return nil
		},
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid todo id %q", raw)
	}
	return id, nil
}

func formatTodoLine(t client.Todo) string {
	mark := " "
	if t.Completed {
		mark = "x"
	}
	return fmt.Sprintf("[%s] #%d %s", mark, t.ID, t.Title)
}
