package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"search-server/internal/app/services"
	"search-server/pkg/config"
)

var (
	askMode    string
	askScholar bool
	askFormat  string
)

var askCmd = &cobra.Command{
	Use:   "ask <query>",
	Short: "Run one Metaso search and print the answer with references",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootstrap(); err != nil {
			return err
		}
		defer teardown()

		model, err := services.ResolveModel(askMode, askScholar)
		if err != nil {
			return err
		}
		if err := services.RateLimiter.Allow(cmd.Context(), config.ProviderMetaso); err != nil {
			return err
		}
		result, err := services.Metaso.Complete(cmd.Context(), strings.Join(args, " "), model)
		if err != nil {
			return err
		}
		var text string
		switch askFormat {
		case "markdown":
			text, err = services.FormatMetasoMarkdown(result)
		case "text":
			text, err = services.FormatMetasoResult(result)
		default:
			return fmt.Errorf("unknown format %q", askFormat)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askMode, "mode", "m", services.DefaultMode, "Search mode: concise, detail or research")
	askCmd.Flags().BoolVar(&askScholar, "scholar", false, "Search academic sources")
	askCmd.Flags().StringVarP(&askFormat, "format", "f", "text", "Output format: text or markdown")
}
