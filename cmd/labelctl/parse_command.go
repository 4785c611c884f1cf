package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"label-intake-api/internal/models"
	"label-intake-api/internal/resolve"
	"label-intake-api/pkg/extractor"
)

type parseResult struct {
	Fields         models.ExtractedFields `json:"fields"`
	Classification models.Classification  `json:"classification"`
	Key            string                 `json:"key"`
}

func newParseCommand(format *string) *cobra.Command {
	var rulesPath string
	var qrValue string

	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Extract label fields from recognized text",
		Long:  "Reads label text from a file, or stdin when no file or \"-\" is given, and prints the extracted fields, the classification and the lookup key an entry would use.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			rules, err := extractor.LoadRuleSet(rulesPath)
			if err != nil {
				return err
			}
			ex, err := extractor.New(rules)
			if err != nil {
				return err
			}

			var code *string
			if v := strings.TrimSpace(qrValue); v != "" {
				code = &v
			}
			fields := ex.Extract(raw)
			result := parseResult{
				Fields:         fields,
				Classification: ex.Classify(raw),
				Key:            resolve.Build(nil, code, &fields).String(),
			}

			asTable, err := useTable(cmd, *format)
			if err != nil {
				return err
			}
			if !asTable {
				return writeJSON(cmd, result)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderPairs([][2]string{
				{"Manufacturer", orDash(fields.Manufacturer)},
				{"Model", orDash(fields.Model)},
				{"Serial", orDash(fields.Serial)},
				{"Part number", orDash(fields.PartNumber)},
				{"Item type", result.Classification.ItemType},
				{"Category", result.Classification.Category},
				{"Key", result.Key},
			}))
			return nil
		},
	}

	cmd.Flags().StringVar(&rulesPath, "rules", os.Getenv("LABEL_RULES_PATH"), "Label rule table (defaults to the built-in table)")
	cmd.Flags().StringVar(&qrValue, "qr", "", "Decoded QR value to include in the lookup key")
	return cmd
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("read %s: %w", args[0], err)
	}
	return string(data), nil
}
