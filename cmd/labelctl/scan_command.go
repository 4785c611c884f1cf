package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"label-intake-api/internal/models"
	"label-intake-api/internal/qrcode"
)

func newScanCommand(format *string) *cobra.Command {
	return &cobra.Command{
		Use:   "scan-qr <image>",
		Short: "Decode a QR code from an image file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			value, err := qrcode.NewDecoder(nil).Decode(cmd.Context(), data)
			if err != nil {
				return err
			}

			asTable, err := useTable(cmd, *format)
			if err != nil {
				return err
			}
			if !asTable {
				return writeJSON(cmd, models.ScanResult{QRValue: value})
			}
			if value == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No code found")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderPairs([][2]string{{"QR value", *value}}))
			return nil
		},
	}
}
