package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mmcdole/suasor/internal/domain"
	"github.com/mmcdole/suasor/internal/search"
	"github.com/mmcdole/suasor/internal/tui"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var plain bool
	var mediaType string
	var sources []string

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the library, media clients and metadata providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			if err := a.requireLogin(); err != nil {
				return err
			}

			engine := search.New(a.client, a.kv, a.storeOptions())
			defer engine.Close()
			engine.Initialize()

			if len(sources) == 0 {
				sources = a.cfg.Search.Sources
			}
			filters, err := searchFilters(sources, mediaType, a.cfg.Search.Limit)
			if err != nil {
				return err
			}
			engine.SetFilters(func(f *domain.SearchFilters) { *f = filters })

			query := strings.Join(args, " ")
			if plain || !isTerminal(os.Stdout) {
				return runPlainSearch(cmd, engine, query)
			}

			chosen, err := tui.Run(cmd.Context(), engine, query)
			if err != nil {
				return err
			}
			if chosen != nil {
				printItem(cmd, *chosen)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "Print results as a table instead of the interactive view")
	cmd.Flags().StringVarP(&mediaType, "type", "t", "", "Only show one media type (movie, series, album, artist, track)")
	cmd.Flags().StringSliceVarP(&sources, "source", "s", nil, "Sources to query (local, client, metadata)")
	return cmd
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// searchFilters builds the starting filters from flags and config
func searchFilters(sources []string, mediaType string, limit int) (domain.SearchFilters, error) {
	f := domain.DefaultSearchFilters()
	f.Limit = limit

	if mediaType != "" {
		mt := domain.MediaType(strings.ToLower(mediaType))
		if mt != domain.MediaTypeAll && !mt.Valid() {
			return f, fmt.Errorf("unknown media type %q", mediaType)
		}
		f.MediaType = mt
	}

	if len(sources) > 0 {
		f.Sources = make([]domain.SearchSource, 0, len(sources))
		for _, s := range sources {
			src := domain.SearchSource(strings.ToLower(strings.TrimSpace(s)))
			switch src {
			case domain.SourceLocal, domain.SourceClient, domain.SourceMetadata:
				f.Sources = append(f.Sources, src)
			default:
				return f, fmt.Errorf("unknown search source %q", s)
			}
		}
	}
	return f, nil
}

func runPlainSearch(cmd *cobra.Command, engine *search.Engine, query string) error {
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("a query is required with --plain")
	}

	engine.SetQuery(query)
	engine.Search(cmd.Context())
	if err := cmd.Context().Err(); err != nil {
		return err
	}
	engine.SaveRecentSearch(query)

	out := cmd.OutOrStdout()
	st := engine.State().Data()
	for _, src := range domain.SearchSources {
		if b := st.Bucket(src); b.Error != "" {
			fmt.Fprintf(out, "! %s: %s\n", src, b.Error)
		}
	}

	results := engine.AllResults()
	if len(results) == 0 {
		fmt.Fprintln(out, "No matches found")
		return nil
	}

	rows := make([][]string, 0, len(results))
	for _, it := range results {
		year := ""
		if it.Year > 0 {
			year = strconv.Itoa(it.Year)
		}
		rows = append(rows, []string{
			string(it.Source),
			string(it.Type),
			it.Title,
			year,
			yesNo(it.IsInLibrary()),
			it.Subtitle,
		})
	}
	headers := []string{"Source", "Type", "Title", "Year", "Owned", "Detail"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft}
	fmt.Fprintln(out, renderTable(headers, rows, aligns))
	return nil
}

func printItem(cmd *cobra.Command, it domain.SearchResultItem) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s", it.Title)
	if it.Year > 0 {
		fmt.Fprintf(out, " (%d)", it.Year)
	}
	fmt.Fprintf(out, " [%s, %s]\n", it.Type, it.Source)
	if it.Subtitle != "" {
		fmt.Fprintln(out, it.Subtitle)
	}
}
