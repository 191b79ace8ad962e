package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"invoicer/internal/core"
	applog "invoicer/internal/log"
)

const minPasswordLength = 8

func userCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	cmd.AddCommand(userAddCmd(a))
	return cmd
}

func userAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <username>",
		Short: "Create a user; the password is prompted for or read from stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := strings.TrimSpace(args[0])
			if username == "" {
				return errors.New("username cannot be empty")
			}

			repo, err := a.openRepo()
			if err != nil {
				return err
			}
			defer a.closeRepo(repo)

			ctx := cmd.Context()
			if _, err := repo.GetUserByUsername(ctx, username); err == nil {
				return fmt.Errorf("user %s already exists", username)
			} else if !errors.Is(err, core.ErrNotFound) {
				return err
			}

			fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
			password, err := readPassword(cmd.InOrStdin())
			fmt.Fprintln(cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			if len(password) < minPasswordLength {
				return fmt.Errorf("password must be at least %d characters", minPasswordLength)
			}

			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}

			user, err := repo.CreateUser(ctx, username, string(hash))
			if err != nil {
				return err
			}
			a.logger.Info("User created", applog.FieldUserID, user.ID, "username", user.Username)
			fmt.Fprintf(cmd.OutOrStdout(), "User %s created with ID %d\n", user.Username, user.ID)
			return nil
		},
	}
}

// readPassword reads without echo from a terminal, otherwise takes the
// first line of stdin so the command can be scripted.
func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return strings.TrimRight(scanner.Text(), "\r"), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
