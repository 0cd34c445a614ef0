package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/aiopenclawbot-jpg/skill-scanner/internal/rules"
	"github.com/aiopenclawbot-jpg/skill-scanner/pkg/models"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// rulesCmd lists the rule catalog
func rulesCmd() *cobra.Command {
	var layer string

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List every rule code the scanner can report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := rules.Default()

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header([]string{"Code", "Severity", "Layer", "Message"})

			count := 0
			for _, e := range catalog.Entries() {
				if layer != "" && !strings.EqualFold(string(e.Layer), layer) {
					continue
				}
				if err := table.Append([]string{string(e.Code), severityLabel(e.Severity), string(e.Layer), e.Message}); err != nil {
					return err
				}
				count++
			}
			if err := table.Render(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", gray(fmt.Sprintf("Total: %d rules (catalog v%d)", count, catalog.Version)))
			for _, problem := range catalog.Problems {
				fmt.Fprintf(os.Stderr, "%s %v\n", yellow("⚠"), problem)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&layer, "layer", "", "Only list one layer: signature, structural, shell, engine")

	return cmd
}

func severityLabel(s models.Severity) string {
	label := strings.ToUpper(s.String())
	switch s {
	case models.SeverityCritical:
		return red(label)
	case models.SeverityWarning:
		return yellow(label)
	default:
		return label
	}
}
