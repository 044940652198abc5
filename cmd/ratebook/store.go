package main

import (
	"errors"
	"fmt"
	"slices"

	"github.com/rgehrsitz/ratebook/internal/repository"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load and validate every rule-set document",
		RunE: func(cmd *cobra.Command, args []string) error {
			familyName, _ := cmd.Flags().GetString("family")

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			names, err := a.familyNames(familyName)
			if err != nil {
				return err
			}

			var failed []error
			for _, name := range names {
				ruleSets, err := a.store(name).LoadAll(cmd.Context())
				if err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: %v\n", name, err)
					failed = append(failed, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "OK   %s: %d rule-sets\n", name, len(ruleSets))
			}
			if familyName == "" {
				a.reportUnconfigured(cmd, names)
			}
			if len(failed) > 0 {
				return fmt.Errorf("%d of %d families failed validation: %w", len(failed), len(names), errors.Join(failed...))
			}
			return nil
		},
	}
	cmd.Flags().String("family", "", "Validate only this family")
	return cmd
}

// reportUnconfigured lists stored families that no configured family reads
func (a *app) reportUnconfigured(cmd *cobra.Command, configured []string) {
	var (
		stored []string
		err    error
	)
	if a.sqlite != nil {
		stored, err = a.sqlite.Families(cmd.Context())
	} else {
		stored, err = repository.ListFamilies(a.cfg.Store.DataRoot)
	}
	if err != nil {
		a.logger.Warn("Could not list stored families", zap.Error(err))
		return
	}
	for _, name := range stored {
		if !slices.Contains(configured, name) {
			fmt.Fprintf(cmd.OutOrStdout(), "SKIP %s: not a configured family\n", name)
		}
	}
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy rule-sets from the file store into a SQLite database",
		Example: `  ratebook import --data ./data --db ratebook.db
  ratebook import --data ./data --db ratebook.db --family sss`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, _ := cmd.Flags().GetString("db")
			familyName, _ := cmd.Flags().GetString("family")
			if dbPath == "" {
				return fmt.Errorf("--db is required")
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			names, err := a.familyNames(familyName)
			if err != nil {
				return err
			}

			target, err := repository.OpenSQLite(dbPath)
			if err != nil {
				return err
			}
			defer target.Close()

			for _, name := range names {
				source := repository.NewFileRepository(a.cfg.Store.DataRoot, name)
				ruleSets, err := source.LoadAll(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", name, err)
				}
				if err := target.ReplaceFamily(cmd.Context(), name, ruleSets); err != nil {
					return fmt.Errorf("failed to import %s: %w", name, err)
				}
				a.logger.Info("Imported family", zap.String("family", name), zap.Int("rule_sets", len(ruleSets)), zap.String("db", dbPath))
				fmt.Fprintf(cmd.OutOrStdout(), "imported %s: %d rule-sets\n", name, len(ruleSets))
			}
			return nil
		},
	}
	cmd.Flags().String("db", "", "SQLite database file to write")
	cmd.Flags().String("family", "", "Import only this family")
	return cmd
}

func flushCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flush-cache",
		Short: "Drop cached rule-sets from Redis",
		RunE: func(cmd *cobra.Command, args []string) error {
			familyName, _ := cmd.Flags().GetString("family")

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.redis == nil {
				return fmt.Errorf("cache is not enabled or Redis is unreachable")
			}
			names, err := a.familyNames(familyName)
			if err != nil {
				return err
			}
			for _, name := range names {
				cached, _ := a.cached(name)
				n, err := cached.Invalidate(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "flushed %s: %d keys\n", name, n)
			}
			return nil
		},
	}
	cmd.Flags().String("family", "", "Flush only this family")
	return cmd
}
