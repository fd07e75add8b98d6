package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/OtotaO/rainmaker-sub002/internal/cli/config"
	"github.com/OtotaO/rainmaker-sub002/internal/cli/logging"
	"github.com/OtotaO/rainmaker-sub002/internal/cli/ui"
	"github.com/OtotaO/rainmaker-sub002/internal/generator"
	"github.com/OtotaO/rainmaker-sub002/internal/loader"
	"github.com/OtotaO/rainmaker-sub002/internal/schema"
	"github.com/OtotaO/rainmaker-sub002/internal/watch"
)

var (
	generateJSON   bool
	generateSchema string
	generateOutput string
	generateWatch  bool
)

func init() {
	generateCmd.Flags().BoolVar(&generateJSON, "json", false, "Output errors in JSON format")
	generateCmd.Flags().StringVar(&generateSchema, "schema", "", "Schema definition file (overrides config)")
	generateCmd.Flags().StringVar(&generateOutput, "output", "", "Output file (overrides config)")
	generateCmd.Flags().BoolVar(&generateWatch, "watch", false, "Regenerate whenever the schema file changes")
}

// diagnostic is the machine-readable error shape for --json output.
type diagnostic struct {
	Phase   string `json:"phase"`
	Model   string `json:"model,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Compile the schema definitions and write the data-model document",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if generateSchema != "" {
			cfg.SchemaPath = generateSchema
		}
		if generateOutput != "" {
			cfg.OutputPath = generateOutput
		}

		logger, err := logging.New(cfg.LogLevel)
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		if err := runGenerate(cmd, cfg, logger); err != nil {
			return err
		}
		if !generateWatch {
			return nil
		}

		watcher, err := watch.New(cfg.SchemaPath, func() error {
			// Watch mode reports failures and keeps going; only the first
			// generation is fatal.
			return runGenerate(cmd, cfg, logger)
		}, logger)
		if err != nil {
			return err
		}
		if err := watcher.Start(); err != nil {
			return err
		}
		defer watcher.Stop() //nolint:errcheck

		fmt.Printf("Watching %s; press Ctrl+C to stop\n", cfg.SchemaPath)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		return nil
	},
}

// runGenerate performs one load-compile-write cycle.
func runGenerate(cmd *cobra.Command, cfg *config.Config, logger *zap.Logger) error {
	startTime := time.Now()

	schemas, meta, err := loader.Load(cfg.SchemaPath)
	if err != nil {
		return reportError(cmd, "schema load", err)
	}

	output, err := generator.Compile(schemas, meta, generator.Options{
		ValidateSchema:    cfg.ValidateSchema,
		ValidateRelations: cfg.ValidateRelations,
		DefaultSchema:     cfg.DefaultSchema,
		Include:           cfg.Include,
		Exclude:           cfg.Exclude,
		Logger:            logger,
	})
	if err != nil {
		return reportError(cmd, "generation", err)
	}

	if err := os.WriteFile(cfg.OutputPath, []byte(output), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", cfg.OutputPath, err)
	}

	logger.Debug("generation finished",
		zap.String("output", cfg.OutputPath),
		zap.Duration("elapsed", time.Since(startTime)))
	ui.PrintSuccess(fmt.Sprintf("Wrote %s (%d models) in %s",
		cfg.OutputPath, schemas.Len(), time.Since(startTime).Round(time.Millisecond)))
	return nil
}

// reportError prints a diagnostic in the selected format and returns a silent
// error so cobra exits non-zero without double-printing.
func reportError(cmd *cobra.Command, phase string, err error) error {
	if generateJSON || validateJSON {
		d := diagnostic{Phase: phase, Message: err.Error()}
		var ve *schema.ValidationError
		var ge *generator.GenerationError
		switch {
		case errors.As(err, &ve):
			d.Model, d.Field, d.Message = ve.Model, ve.Field, ve.Message
		case errors.As(err, &ge):
			d.Model, d.Field, d.Message = ge.Model, ge.Field, ge.Message
		}
		encoded, encErr := json.MarshalIndent(d, "", "  ")
		if encErr != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
	} else {
		ui.PrintError(phase, err)
	}
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return err
}
