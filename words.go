package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/robalobadob/epiwordle/internal/words"
)

func newWordsCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "words",
		Short: "Manage the dictionary",
	}

	var inactive bool
	importCmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Load a word list (one word per line) into the dictionary",
		Long: "Words are normalized (lowercase, accents stripped) and upserted. " +
			"Lines that are not 5-letter words are skipped. --inactive imports them " +
			"as non-guessable, or retires words already present.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			conn, err := openDatabase(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer conn.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			n, rejected, err := importWords(cmd.Context(), words.NewSQLDictionary(conn), f, !inactive)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d words (%d rejected)\n", n, rejected)
			return nil
		},
	}
	importCmd.Flags().BoolVar(&inactive, "inactive", false, "mark imported words as not guessable")

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Count active and total dictionary words",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			conn, err := openDatabase(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer conn.Close()

			active, total, err := words.NewSQLDictionary(conn).Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "active: %d\ntotal:  %d\n", active, total)
			return nil
		},
	}

	cmd.AddCommand(importCmd, statsCmd)
	return cmd
}
