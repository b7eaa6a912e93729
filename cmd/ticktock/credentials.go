package ticktock

import (
	"fmt"
	"os"

	"github.com/igorsilveira/ticktock/pkg/config"
	"github.com/igorsilveira/ticktock/pkg/credentials"
	"github.com/igorsilveira/ticktock/pkg/store"
	"github.com/spf13/cobra"
)

var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Manage encrypted responder credentials",
	Long:  "Secrets are sealed with the key in " + credentials.MasterKeyEnv + ". The serve command reads the credential named by responder.credential when no API key variable is set.",
}

var credentialsSetCmd = &cobra.Command{
	Use:   "set NAME VALUE",
	Short: "Store a credential",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCredentials(cmd, func(s *credentials.Store) error {
			if err := s.Set(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored %s\n", args[0])
			return nil
		})
	},
}

var credentialsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored credential names",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCredentials(cmd, func(s *credentials.Store) error {
			names, err := s.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		})
	},
}

var credentialsDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete a credential",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCredentials(cmd, func(s *credentials.Store) error {
			return s.Delete(cmd.Context(), args[0])
		})
	},
}

func init() {
	credentialsCmd.AddCommand(credentialsSetCmd, credentialsListCmd, credentialsDeleteCmd)
	rootCmd.AddCommand(credentialsCmd)
}

func withCredentials(cmd *cobra.Command, fn func(*credentials.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	masterKey := os.Getenv(credentials.MasterKeyEnv)
	if masterKey == "" {
		return fmt.Errorf("%s is not set", credentials.MasterKeyEnv)
	}
	if err := config.EnsureDataDir(); err != nil {
		return err
	}
	db, err := store.New(cfg.Store.DSN)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() { _ = db.Close() }()

	s, err := credentials.New(db.DB(), masterKey)
	if err != nil {
		return err
	}
	return fn(s)
}
