package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// sessionCommand creates the session management command.
func (c *CLI) sessionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect and delete stored selections",
	}

	cmd.AddCommand(c.sessionShowCommand())
	cmd.AddCommand(c.sessionDeleteCommand())
	cmd.AddCommand(c.sessionCleanupCommand())

	return cmd
}

// sessionShowCommand creates the "session show" subcommand.
func (c *CLI) sessionShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			sess, err := loadSession(ctx, store, args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			printKeyValue(w, "id", sess.ID)
			printKeyValue(w, "graph", shortHash(sess.Graph))
			printKeyValue(w, "selected", fmt.Sprintf("%d", len(sess.Selected)))
			if len(sess.Selected) > 0 {
				printDetail(w, "%s", strings.Join(sess.Selected, " "))
			}
			printKeyValue(w, "updated", sess.UpdatedAt.Local().Format(time.DateTime))
			printKeyValue(w, "expires", sess.ExpiresAt.Local().Format(time.DateTime))
			return nil
		},
	}
}

// sessionDeleteCommand creates the "session delete" subcommand.
func (c *CLI) sessionDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if _, err := loadSession(ctx, store, args[0]); err != nil {
				return err
			}
			if err := store.Delete(ctx, args[0]); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Deleted session %s", args[0])
			return nil
		},
	}
}

// sessionCleanupCommand creates the "session cleanup" subcommand.
func (c *CLI) sessionCleanupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove expired sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Cleanup(ctx); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Removed expired sessions")
			return nil
		},
	}
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
