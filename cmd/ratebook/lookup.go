package main

import (
	"strings"

	"github.com/rgehrsitz/ratebook/internal/domain"
	"github.com/rgehrsitz/ratebook/internal/output"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func resolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Compute the breakdown of a value on a date",
		Example: `  ratebook resolve --family tax --date 2024-03-15 --value 500000
  ratebook resolve --family sss --value 25000 --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			familyName, _ := cmd.Flags().GetString("family")
			dateStr, _ := cmd.Flags().GetString("date")
			valueStr, _ := cmd.Flags().GetString("value")
			format, _ := cmd.Flags().GetString("format")

			asOf, err := parseAsOf(dateStr)
			if err != nil {
				return err
			}
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			value, err := decimal.NewFromString(strings.TrimSpace(valueStr))
			if err != nil {
				a.logger.Warn("Unparseable value treated as zero", zap.String("value", valueStr))
				value = decimal.Zero
			}

			engine, err := a.engine(familyName)
			if err != nil {
				return err
			}
			result, err := engine.Resolve(cmd.Context(), asOf, value)
			if err != nil {
				return err
			}
			return output.Write(cmd.OutOrStdout(), format, func(f output.Formatter) ([]byte, error) {
				return f.FormatBreakdown(result, engine.Family)
			})
		},
	}
	cmd.Flags().String("family", domain.FamilyTax, "Rule family")
	cmd.Flags().String("date", "", "As-of date (YYYY-MM-DD, default today)")
	cmd.Flags().String("value", "0", "Salary or taxable amount; negative values count as zero")
	cmd.Flags().String("format", "console", "Output format: console, json, csv")
	return cmd
}

func datesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dates",
		Short: "List the effective dates of a family's rule-sets",
		RunE: func(cmd *cobra.Command, args []string) error {
			familyName, _ := cmd.Flags().GetString("family")
			format, _ := cmd.Flags().GetString("format")

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			engine, err := a.engine(familyName)
			if err != nil {
				return err
			}
			dates, err := engine.SelectableDates(cmd.Context())
			if err != nil {
				return err
			}
			return output.Write(cmd.OutOrStdout(), format, func(f output.Formatter) ([]byte, error) {
				return f.FormatDates(dates)
			})
		},
	}
	cmd.Flags().String("family", domain.FamilyTax, "Rule family")
	cmd.Flags().String("format", "console", "Output format: console, json, csv")
	return cmd
}

func tableCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Print the labelled bracket table in force on a date",
		Example: `  ratebook table --family tax --date 2020-06-30
  ratebook table --family sss --effective 2025-01-01 --format csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			familyName, _ := cmd.Flags().GetString("family")
			dateStr, _ := cmd.Flags().GetString("date")
			effectiveStr, _ := cmd.Flags().GetString("effective")
			format, _ := cmd.Flags().GetString("format")

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			engine, err := a.engine(familyName)
			if err != nil {
				return err
			}

			var table *domain.RuleTable
			if effectiveStr != "" {
				start, err := domain.ParseDate(effectiveStr)
				if err != nil {
					return err
				}
				table, err = engine.RuleSet(cmd.Context(), start)
				if err != nil {
					return err
				}
			} else {
				asOf, err := parseAsOf(dateStr)
				if err != nil {
					return err
				}
				table, err = engine.Table(cmd.Context(), asOf)
				if err != nil {
					return err
				}
			}

			return output.Write(cmd.OutOrStdout(), format, func(f output.Formatter) ([]byte, error) {
				return f.FormatTable(table, engine.Family)
			})
		},
	}
	cmd.Flags().String("family", domain.FamilyTax, "Rule family")
	cmd.Flags().String("date", "", "As-of date (YYYY-MM-DD, default today)")
	cmd.Flags().String("effective", "", "Exact effective start of a rule-set; overrides --date")
	cmd.Flags().String("format", "console", "Output format: console, json, csv")
	return cmd
}
