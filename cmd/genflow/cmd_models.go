package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/aescanero/genflow/pkg/domain"
	"github.com/spf13/cobra"
)

var modelsFlags struct {
	category string
	json     bool
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the selectable text, image and video models",
	RunE:  runModels,
}

func init() {
	f := modelsCmd.Flags()
	f.StringVar(&modelsFlags.category, "category", "", "Only list one category: text, image or video")
	f.BoolVar(&modelsFlags.json, "json", false, "Print JSON instead of a table")
}

func runModels(cmd *cobra.Command, _ []string) error {
	categories := []domain.ModelCategory{domain.CategoryText, domain.CategoryImage, domain.CategoryVideo}
	if modelsFlags.category != "" {
		c := domain.ModelCategory(modelsFlags.category)
		if domain.ModelsByCategory(c) == nil {
			return fmt.Errorf("unknown model category: %s", modelsFlags.category)
		}
		categories = []domain.ModelCategory{c}
	}

	out := cmd.OutOrStdout()
	if modelsFlags.json {
		catalogue := make(map[domain.ModelCategory][]domain.ModelInfo, len(categories))
		for _, c := range categories {
			catalogue[c] = domain.ModelsByCategory(c)
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(catalogue)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tID\tNAME\tPRICING\tTAGS")
	for _, c := range categories {
		for _, m := range domain.ModelsByCategory(c) {
			tags := make([]string, len(m.Tags))
			for i, t := range m.Tags {
				tags[i] = string(t)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c, m.ID, m.Name, m.Pricing, strings.Join(tags, ","))
		}
	}
	return w.Flush()
}
