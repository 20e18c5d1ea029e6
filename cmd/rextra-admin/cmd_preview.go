// cmd/rextra-admin/cmd_preview.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"rextra/internal/clients"
	"rextra/internal/membership"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	pricingFile string
	serverURL   string
	outputJSON  bool
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Show the price and token table of a membership config",
	Long: `Reads a membership config from a YAML or JSON file and prints the
per-duration price and token table, rewards and review flag. With --server
the preview is computed by a running rextra-admin instead.`,
	RunE: runPreview,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a membership config against the save rules",
	RunE:  runValidate,
}

func init() {
	for _, c := range []*cobra.Command{previewCmd, validateCmd} {
		c.Flags().StringVarP(&pricingFile, "file", "f", "", "membership config file (YAML or JSON)")
		_ = c.MarkFlagRequired("file")
	}
	previewCmd.Flags().StringVar(&serverURL, "server", "", "base URL of a running rextra-admin")
	previewCmd.Flags().BoolVar(&outputJSON, "json", false, "print the preview as JSON")
}

// readPricing decodes path over DefaultConfig. YAML is a superset of JSON, so
// one decoder serves both.
func readPricing(path string) (membership.Config, error) {
	pricing := membership.DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return pricing, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &pricing); err != nil {
		return pricing, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return pricing, nil
}

func runPreview(cmd *cobra.Command, args []string) error {
	pricing, err := readPricing(pricingFile)
	if err != nil {
		return err
	}

	var res *membership.PreviewResult
	if serverURL != "" {
		res, err = clients.NewAdminClient(serverURL).Preview(cmd.Context(), pricing)
		if err != nil {
			return fmt.Errorf("remote preview: %w", err)
		}
	} else {
		rows := membership.Calculate(pricing)
		res = &membership.PreviewResult{
			Rows:    rows,
			Review:  membership.ReviewConfig(pricing, rows),
			Rewards: membership.Rewards(pricing, rows),
			Errors:  membership.Validate(pricing),
		}
	}

	out := cmd.OutOrStdout()
	if outputJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	printPreview(out, pricing, res)
	return nil
}

func printPreview(out io.Writer, pricing membership.Config, res *membership.PreviewResult) {
	if pricing.Mode == membership.ModeManual {
		fmt.Fprintln(out, "Mode manual: harga dan token diisi per durasi, tidak ada tabel otomatis.")
	} else {
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "Durasi\tTotal Harga\tHarga/Bulan\tTotal Token\tToken/Bulan\t")
		for _, r := range res.Rows {
			fmt.Fprintf(tw, "%d bulan\t%d\t%d\t%d\t%.1f\t\n", r.Duration, r.TotalPrice, r.PricePerMonth, r.TotalToken, r.TokenPerMonth)
		}
		tw.Flush()
	}

	for _, r := range res.Rewards {
		fmt.Fprintf(out, "Poin reward %d bulan: %d\n", r.Duration, r.Points)
	}
	if res.Review.NeedsReview {
		fmt.Fprintf(out, "Perlu review: harga turun %.1f%%, token naik %.1f%%\n",
			res.Review.PriceDropPercent, res.Review.TokenBoostPercent)
	}
	printErrors(out, res.Errors)
}

func printErrors(out io.Writer, errs membership.ValidationErrors) {
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "%s: %s\n", k, errs[k])
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	pricing, err := readPricing(pricingFile)
	if err != nil {
		return err
	}
	errs := membership.Validate(pricing)
	if len(errs) > 0 {
		printErrors(cmd.OutOrStdout(), errs)
		return errs
	}
	fmt.Fprintln(cmd.OutOrStdout(), "ok")
	return nil
}
