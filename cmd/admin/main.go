// Package main provides admin management utilities for DevConnect.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"devconnect/internal/config"
	"devconnect/internal/database"
	"devconnect/internal/models"
	"devconnect/internal/repository"
)

var errUsage = errors.New(`usage:
  go run ./cmd/admin promote <user_id|email>   - Promote user to admin
  go run ./cmd/admin demote <user_id|email>    - Demote user to member
  go run ./cmd/admin list-admins               - List all admins`)

func main() {
	if len(os.Args) < 2 {
		fmt.Println(errUsage)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	users := repository.NewUserRepository(db)
	if err := run(context.Background(), users, os.Args[1:], os.Stdout); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func run(ctx context.Context, users repository.UserRepository, args []string, out io.Writer) error {
	switch args[0] {
	case "promote", "demote":
		if len(args) < 2 {
			return errUsage
		}
		role := models.RoleAdmin
		if args[0] == "demote" {
			role = models.RoleMember
		}
		return setRole(ctx, users, args[1], role, out)
	case "list-admins":
		return listAdmins(ctx, users, out)
	default:
		return fmt.Errorf("unknown command: %s\n%w", args[0], errUsage)
	}
}

func lookup(ctx context.Context, users repository.UserRepository, ref string) (*models.User, error) {
	if id, err := strconv.ParseUint(ref, 10, 0); err == nil {
		return users.GetByID(ctx, uint(id))
	}
	u, err := users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(ref)))
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user %s not found", ref)
	}
	return u, nil
}

func setRole(ctx context.Context, users repository.UserRepository, ref string, role models.Role, out io.Writer) error {
	user, err := lookup(ctx, users, ref)
	if err != nil {
		return err
	}
	if user.Role == role {
		_, _ = fmt.Fprintf(out, "User %s (ID: %d) is already %s\n", user.Name, user.ID, role)
		return nil
	}
	if err := users.SetRole(ctx, user.ID, role); err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Changed %s (ID: %d) from %s to %s\n", user.Name, user.ID, user.Role, role)
	return nil
}

func listAdmins(ctx context.Context, users repository.UserRepository, out io.Writer) error {
	admins, err := users.ListByRole(ctx, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("fetch admins: %w", err)
	}
	if len(admins) == 0 {
		_, _ = fmt.Fprintln(out, "No admins found in the system")
		return nil
	}
	_, _ = fmt.Fprintf(out, "Admins (%d):\n", len(admins))
	for _, a := range admins {
		_, _ = fmt.Fprintf(out, "  %d\t%s\t%s\n", a.ID, a.Name, a.Email)
	}
	return nil
}
