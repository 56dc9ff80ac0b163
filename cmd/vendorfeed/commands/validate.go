package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/vendorfeed/internal/logger"
	"github.com/jmylchreest/vendorfeed/pkg/vendor"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a vendors file without fetching anything",
	Long: `Load the vendors file, check every vendor and print a summary.

Checks cover required fields, absolute domains, known strategies and
description formats, and that every selector compiles.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	initLogger()

	path := viper.GetString("vendors")
	logger.Debug("validating vendors file", "path", path)

	file, err := vendor.FromFile(path)
	if err != nil {
		logError("%v", err)
		return err
	}

	out := cmd.OutOrStdout()
	if err := file.Validate(); err != nil {
		var verrs vendor.ValidationErrors
		if errors.As(err, &verrs) {
			for _, e := range verrs {
				_, _ = fmt.Fprintf(out, "  ✗ %s\n", e.Error())
			}
		}
		logError("%s: %v", path, firstLine(err))
		return err
	}

	printVendorSummary(out, file.Vendors)
	_, _ = fmt.Fprintf(out, "%s: %d vendors OK\n", path, len(file.Vendors))
	return nil
}

func printVendorSummary(w io.Writer, vendors []vendor.Vendor) {
	for _, v := range vendors {
		format := v.DescriptionFormat
		if format == "" {
			format = "text"
		}
		cookie := "no"
		if v.CookieHeader != "" || v.CookieEnv != "" {
			cookie = "yes"
		}
		_, _ = fmt.Fprintf(w, "  ✓ %-20s strategy=%-7s listing_urls=%d description=%s cookie=%s\n",
			v.Name, v.EffectiveStrategy(), len(v.ListingURLs()), format, cookie)
	}
}

func firstLine(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, "; "); i >= 0 {
		return msg[:i] + " (and more)"
	}
	return msg
}
