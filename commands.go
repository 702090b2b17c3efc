package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"baseball-vector-search/application"
	"baseball-vector-search/domain"
	"baseball-vector-search/infrastructure/config"
	"baseball-vector-search/infrastructure/embedding"
	"baseball-vector-search/infrastructure/schema"

	"github.com/spf13/cobra"
)

func wranglingService() (*application.WranglingService, error) {
	enc, err := domain.NewFeatureEncoder(domain.Algorithm(current.cfg.Embedding.Algorithm))
	if err != nil {
		return nil, err
	}
	return application.NewWranglingService(current.cfg.Data, enc, current.logger, current.metrics), nil
}

var wrangleCmd = &cobra.Command{
	Use:   "wrangle",
	Short: "Build the documents file from the databank CSVs",
}

func wrangleStep(use, short string, step func(*application.WranglingService, context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := wranglingService()
			if err != nil {
				return err
			}
			return step(svc, cmd.Context())
		},
	}
}

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Embed documents with the configured provider",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		minYear := current.cfg.Embedding.MinDebutYear
		if cmd.Flags().Changed("min-debut-year") {
			minYear, _ = cmd.Flags().GetInt("min-debut-year")
		}
		client, err := embedding.NewOpenAIEmbeddingClient(current.cfg.Embedding)
		if err != nil {
			return fmt.Errorf("failed to create embedding client: %w", err)
		}
		svc := application.NewEmbeddingService(client, current.cfg.Data, current.cfg.Embedding, current.logger, current.metrics)
		_, err = svc.EmbedFile(cmd.Context(), minYear)
		return err
	},
}

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "Inspect and reshape document files",
}

var documentsScanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Count documents by category and debut decade",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		summary, err := application.NewDocumentService(current.cfg.Data, current.logger).Scan()
		if err != nil {
			return err
		}
		return printJSON(summary)
	},
}

var documentsFilterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Write the small documents subset",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := domain.DefaultFilter
		c.MinBirthYear, _ = cmd.Flags().GetInt("min-birth-year")
		c.MinGames, _ = cmd.Flags().GetInt("min-games")
		_, err := application.NewDocumentService(current.cfg.Data, current.logger).Filter(c)
		return err
	},
}

var documentsFlattenCmd = &cobra.Command{
	Use:   "flatten",
	Short: "Write the embedded documents as JSON lines",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := application.NewDocumentService(current.cfg.Data, current.logger)
		if toStdout, _ := cmd.Flags().GetBool("stdout"); toStdout {
			_, err := svc.Flatten(cmd.OutOrStdout())
			return err
		}
		_, err := svc.Flatten(nil)
		return err
	},
}

var loadCmd = &cobra.Command{
	Use:       "load <backend>",
	Short:     "Upsert embedded documents into a backend",
	Args:      cobra.ExactArgs(1),
	ValidArgs: config.KnownBackends,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		defer store.Close()

		path, _ := cmd.Flags().GetString("file")
		if path == "" {
			path = current.cfg.Data.EmbeddedDocumentsFile()
		}
		svc := application.NewLoadingService(store, current.cfg.Embedding.Dimensions, current.logger, current.metrics)
		_, err = svc.LoadFile(cmd.Context(), path)
		return err
	},
}

var searchCmd = &cobra.Command{
	Use:       "search <backend> [player-id...]",
	Short:     "Search a backend for players like each given player",
	Args:      cobra.MinimumNArgs(1),
	ValidArgs: config.KnownBackends,
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := args[1:]
		if len(ids) == 0 {
			ids = current.cfg.Search.QueryIDs
		}
		k := current.cfg.Search.K
		if cmd.Flags().Changed("k") {
			k, _ = cmd.Flags().GetInt("k")
		}
		if k <= 0 {
			return fmt.Errorf("k must be positive, got %d", k)
		}

		store, err := openStore(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		defer store.Close()

		svc := application.NewSearchService(store, current.cfg.Data, current.cfg.Embedding.Dimensions, k, current.logger)
		_, err = svc.SearchFile(cmd.Context(), ids)
		return err
	},
}

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Collect and compare search results across backends",
}

func resultsService() *application.ResultsService {
	return application.NewResultsService(current.cfg.Data, current.cfg.Search.Backends, current.logger)
}

var resultsCollectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Gather every backend's result files into one file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := resultsService().Collect(current.cfg.Search.QueryIDs)
		return err
	},
}

var resultsCompareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Write the side-by-side comparison CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := resultsService().Compare()
		return err
	},
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of a player document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printJSON(schema.Document())
	},
}

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Show which configuration variables are set",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range config.EnvVars {
			fmt.Fprintf(cmd.OutOrStdout(), "%-40s %s\n", name, mask(os.Getenv(name)))
		}
		return nil
	},
}

// mask hides all but the last four characters of a secret.
func mask(v string) string {
	switch {
	case v == "":
		return "(unset)"
	case len(v) <= 4:
		return "****"
	default:
		return "****" + v[len(v)-4:]
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	wrangleCmd.AddCommand(
		wrangleStep("prune", "Select columns and sum stats per player", (*application.WranglingService).Prune),
		wrangleStep("calc", "Derive team, position and rate summaries", (*application.WranglingService).Calc),
		wrangleStep("build", "Assemble and encode the documents", (*application.WranglingService).Build),
		wrangleStep("all", "Run prune, calc and build", (*application.WranglingService).All),
	)

	embedCmd.Flags().Int("min-debut-year", 0, "embed only players who debuted in or after this year")

	documentsFilterCmd.Flags().Int("min-birth-year", domain.DefaultFilter.MinBirthYear, "keep players born in or after this year")
	documentsFilterCmd.Flags().Int("min-games", domain.DefaultFilter.MinGames, "keep players with more total games than this")
	documentsFlattenCmd.Flags().Bool("stdout", false, "write to stdout instead of the flat documents file")
	documentsCmd.AddCommand(documentsScanCmd, documentsFilterCmd, documentsFlattenCmd)

	loadCmd.Flags().String("file", "", "documents file to load (default the embedded documents file)")
	searchCmd.Flags().Int("k", 0, "number of results per query (default from config)")

	resultsCmd.AddCommand(resultsCollectCmd, resultsCompareCmd)

	rootCmd.AddCommand(wrangleCmd, embedCmd, documentsCmd, loadCmd, searchCmd, resultsCmd, schemaCmd, envCmd)
}
