// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package main

import (
	"bufio"
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/inkpress/inkpress/internal/auth"
	authpg "github.com/inkpress/inkpress/internal/auth/postgres"
	"github.com/inkpress/inkpress/internal/config"
	"github.com/inkpress/inkpress/internal/store"
)

const defaultUserAddTimeout = 30 * time.Second

// NewUserAddCmd creates the useradd subcommand.
func NewUserAddCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "useradd <username>",
		Short: "Create a user account",
		Long: `Create a user account that can log in and publish issues.
The password is read from the first line of stdin so it never appears
in the process list or shell history.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserAdd(cmd, args[0], timeout)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", defaultUserAddTimeout, "timeout for database operations")

	return cmd
}

func runUserAdd(cmd *cobra.Command, username string, timeout time.Duration) error {
	if strings.TrimSpace(username) == "" {
		return oops.Code("INVALID_USERNAME").Errorf("username must not be blank")
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return oops.Code("PASSWORD_READ_FAILED").Errorf("failed to read password from stdin")
	}
	password := strings.TrimRight(line, "\r\n")

	if n := utf8.RuneCountInString(password); n < auth.MinPasswordLength || n > auth.MaxPasswordLength {
		return oops.Code("INVALID_PASSWORD").
			Errorf("password must be between %d and %d characters",
				auth.MinPasswordLength, auth.MaxPasswordLength)
	}

	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database.url is required")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	hash, err := auth.NewArgon2idHasher().Hash(auth.NewSecret(password))
	if err != nil {
		return oops.Code("HASH_FAILED").Wrap(err)
	}

	pool, err := store.Connect(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	cred := &auth.StoredCredential{
		UserID:       uuid.New(),
		Username:     username,
		PasswordHash: hash,
	}
	if err := authpg.NewCredentialRepository(pool).Create(ctx, cred); err != nil {
		return err
	}

	cmd.Printf("Created user %s (%s)\n", username, cred.UserID)
	return nil
}
