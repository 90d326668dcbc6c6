package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/poyrazK/hostsdns/internal/adapters/repository"
	"github.com/poyrazK/hostsdns/internal/core/ports"
	"github.com/poyrazK/hostsdns/internal/core/services"
	"github.com/spf13/cobra"
)

type keyStore interface {
	ports.UserRepository
	ports.APIKeyRepository
}

// connectFunc opens the store and returns a function releasing it.
type connectFunc func() (keyStore, func(), error)

func main() {
	if err := newRootCmd(connectPostgres, os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func connectPostgres() (keyStore, func(), error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("failed to load .env: %w", err)
	}
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, nil, errors.New("DATABASE_URL is required")
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			log.Printf("failed to close database: %v", err)
		}
	}
	return repository.NewPostgresRepository(db), closeDB, nil
}

func newRootCmd(connect connectFunc, out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "apikey",
		Short:        "Manage API keys for hostsdns accounts",
		SilenceUsage: true,
	}
	cmd.SetOut(out)
	cmd.AddCommand(createCmd(connect), listCmd(connect), revokeCmd(connect))
	return cmd
}

func createCmd(connect connectFunc) *cobra.Command {
	var owner, name string
	var days int

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a key; the value is printed once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, release, err := connect()
			if err != nil {
				return err
			}
			defer release()
			return generateKey(cmd.Context(), repo, owner, name, days, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "Email of the account owning the key")
	cmd.Flags().StringVar(&name, "name", "generic-key", "Description of the key")
	cmd.Flags().IntVar(&days, "days", 365, "Validity in days")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func listCmd(connect connectFunc) *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the keys of an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, release, err := connect()
			if err != nil {
				return err
			}
			defer release()
			return listKeys(cmd.Context(), repo, owner, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "Email of the account")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func revokeCmd(connect connectFunc) *cobra.Command {
	var owner, id string

	cmd := &cobra.Command{
		Use:   "revoke",
		Short: "Delete a key",
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, release, err := connect()
			if err != nil {
				return err
			}
			defer release()
			return revokeKey(cmd.Context(), repo, owner, id, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "Email of the account owning the key")
	cmd.Flags().StringVar(&id, "id", "", "API key UUID to revoke")
	_ = cmd.MarkFlagRequired("owner")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func ownerID(ctx context.Context, repo keyStore, email string) (uuid.UUID, error) {
	user, err := repo.GetUserByEmail(ctx, email)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return uuid.Nil, fmt.Errorf("no account with email %s", email)
	}
	return user.ID, nil
}

func generateKey(ctx context.Context, repo keyStore, owner, name string, days int, out io.Writer) error {
	if days <= 0 {
		return fmt.Errorf("days must be positive, got %d", days)
	}
	id, err := ownerID(ctx, repo, owner)
	if err != nil {
		return err
	}

	raw, key, err := services.NewAPIKeyResolver(repo).Issue(ctx, id, name, time.Duration(days)*24*time.Hour)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "API Key Created Successfully!\n")
	fmt.Fprintf(out, "---------------------------\n")
	fmt.Fprintf(out, "ID:         %s\n", key.ID)
	fmt.Fprintf(out, "Owner:      %s\n", owner)
	fmt.Fprintf(out, "Expires:    %v\n", key.ExpiresAt.Format(time.RFC3339))
	fmt.Fprintf(out, "VALUE:      %s\n", raw)
	fmt.Fprintf(out, "---------------------------\n")
	fmt.Fprintf(out, "CAUTION: This is the only time the key will be shown.\n")
	return nil
}

func listKeys(ctx context.Context, repo keyStore, owner string, out io.Writer) error {
	id, err := ownerID(ctx, repo, owner)
	if err != nil {
		return err
	}
	keys, err := repo.ListAPIKeys(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now()
	fmt.Fprintf(out, "API Keys for: %s\n", owner)
	fmt.Fprintf(out, "%-36s %-15s %-8s %-25s %-7s\n", "ID", "Name", "Prefix", "Expires", "Status")
	for _, k := range keys {
		status := "active"
		if !k.ExpiresAt.After(now) {
			status = "expired"
		}
		fmt.Fprintf(out, "%-36s %-15s %-8s %-25s %-7s\n", k.ID, k.Name, k.KeyPrefix, k.ExpiresAt.Format(time.RFC3339), status)
	}
	return nil
}

func revokeKey(ctx context.Context, repo keyStore, owner, keyID string, out io.Writer) error {
	id, err := uuid.Parse(keyID)
	if err != nil {
		return fmt.Errorf("invalid key id %q: %w", keyID, err)
	}
	ownerUUID, err := ownerID(ctx, repo, owner)
	if err != nil {
		return err
	}
	if err := repo.DeleteAPIKey(ctx, ownerUUID, id); err != nil {
		return err
	}
	fmt.Fprintf(out, "API Key %s revoked (deleted)\n", id)
	return nil
}
