package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"growthcheck/internal/analysis"
	"growthcheck/internal/config"
	"growthcheck/internal/jobs"
	"growthcheck/internal/logging"
	"growthcheck/internal/mcp"
	"growthcheck/internal/who"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig

	repo    jobs.Repository
	service *analysis.Service
)

var rootCmd = &cobra.Command{
	Use:   "growthcheck",
	Short: "growthcheck validates posyandu child growth workbooks",
	Long: `Validates monthly weight and height records of children under five against the
WHO Child Growth Standards and produces an Excel audit workbook plus a text report.
Without a subcommand it runs as an MCP server on stdio.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)

		var err error
		cfg, err = config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}

		table := who.DefaultTable
		if cfg.WHOReferencePath != "" {
			table, err = who.LoadTable(cfg.WHOReferencePath)
			if err != nil {
				log.Fatal().Err(err).Str("path", cfg.WHOReferencePath).Msg("Failed to load WHO reference table")
			}
		}

		repo, err = jobs.Open(cmd.Context(), cfg)
		if err != nil {
			log.Fatal().Err(err).Str("store", cfg.JobStore).Msg("Failed to open job store")
		}
		service = analysis.NewService(repo, table, cfg.OutputDir, cfg.Workers)

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Str("store", cfg.JobStore).
			Str("reference", table.Name()).
			Msg("growthcheck starting")
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if repo != nil {
			if err := repo.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close job store")
			}
		}
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server on stdio",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Msg("MCP Server starting Stdio loop")
	return mcp.NewServer(service, cfg, Version).Serve(ctx)
}

func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.AddCommand(serveCmd, analyzeCmd, jobsCmd, referenceCmd)
}
