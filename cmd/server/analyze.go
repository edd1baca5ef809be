package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hazyhaar/wardrobe/pkg/engine"
	"github.com/hazyhaar/wardrobe/pkg/intent"
)

var (
	labelColor = color.New(color.FgCyan)
	emptyColor = color.New(color.Faint)
	scoreColor = color.New(color.FgGreen, color.Bold)
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "analyze <query>",
		Short: "Print the intent extracted from a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.newProvider()
			if err != nil {
				return err
			}
			e := p.Current()
			an := e.Analyze(strings.Join(args, " "))
			if asJSON {
				return writeIndented(cmd.OutOrStdout(), struct {
					engine.Analysis
					Params map[string]string `json:"params"`
				}{an, e.FilterParameters(an.Intent)})
			}
			printAnalysis(cmd.OutOrStdout(), an)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newSearchCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the configured catalog and print the scored results",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.newProvider()
			if err != nil {
				return err
			}
			conn, err := a.openCatalog(cmd.Context(), p)
			if err != nil {
				return err
			}
			defer conn.Close()
			if conn.fetcher == nil {
				return fmt.Errorf("search needs catalog.db or catalog.url")
			}

			res, err := p.Current().Search(cmd.Context(), strings.Join(args, " "), conn.fetcher)
			if err != nil {
				return err
			}
			if asJSON {
				return writeIndented(cmd.OutOrStdout(), res)
			}
			printSearch(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printField(w io.Writer, name, value string) {
	labelColor.Fprintf(w, "%-9s", name)
	if value == "" {
		emptyColor.Fprintln(w, "-")
		return
	}
	fmt.Fprintln(w, value)
}

func printAnalysis(w io.Writer, an engine.Analysis) {
	printField(w, "tokens", strings.Join(an.Tokens, " "))
	for _, r := range an.Resolutions {
		fix := fmt.Sprintf("%s -> %s (%s)", r.From, r.To, r.Kind)
		if r.Kind == intent.ResolvedFuzzy {
			fix = fmt.Sprintf("%s -> %s (%s %.2f)", r.From, r.To, r.Kind, r.Similarity)
		}
		printField(w, "resolved", fix)
	}
	in := an.Intent
	printField(w, "items", strings.Join(in.ItemTypes, ", "))
	printField(w, "colors", strings.Join(in.Colors, ", "))
	printField(w, "price", string(in.PriceBand))
	printField(w, "occasion", string(in.Occasion))
	printField(w, "season", string(in.Season))
	printField(w, "quality", string(in.Quality))
	outfit := ""
	if in.WantsCompleteOutfit {
		outfit = "yes"
	}
	printField(w, "outfit", outfit)
}

func printSearch(w io.Writer, res *engine.SearchResult) {
	printAnalysis(w, res.Analysis)
	fmt.Fprintln(w)
	fmt.Fprintln(w, res.Message)
	fmt.Fprintln(w)
	for i, r := range res.Results {
		factors := make([]string, len(r.Factors))
		for j, f := range r.Factors {
			factors[j] = fmt.Sprintf("%s%+.1f", f.Name, f.Delta)
		}
		fmt.Fprintf(w, "%2d. ", i+1)
		scoreColor.Fprintf(w, "%5.2f", r.Score)
		fmt.Fprintf(w, "  %-12s %s  [%s]\n", r.ID, r.Name, strings.Join(factors, " "))
	}
	emptyColor.Fprintf(w, "%d fetched, %d kept\n", res.Fetched, len(res.Results))
}
