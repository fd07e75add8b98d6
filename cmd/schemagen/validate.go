package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OtotaO/rainmaker-sub002/internal/cli/config"
	"github.com/OtotaO/rainmaker-sub002/internal/cli/ui"
	"github.com/OtotaO/rainmaker-sub002/internal/loader"
	"github.com/OtotaO/rainmaker-sub002/internal/schema"
)

var (
	validateJSON   bool
	validateSchema string
)

func init() {
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Output errors in JSON format")
	validateCmd.Flags().StringVar(&validateSchema, "schema", "", "Schema definition file (overrides config)")
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the schema definitions without generating output",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if validateSchema != "" {
			cfg.SchemaPath = validateSchema
		}

		schemas, meta, err := loader.Load(cfg.SchemaPath)
		if err != nil {
			return reportError(cmd, "schema load", err)
		}

		for _, name := range schemas.Names() {
			node, _ := schemas.Get(name)
			if err := schema.ValidateSchema(node, name); err != nil {
				return reportError(cmd, "schema validation", err)
			}
			if err := schema.ValidateRelations(node, schemas, meta, name); err != nil {
				return reportError(cmd, "relation validation", err)
			}
		}

		table := ui.NewTable(cmd.OutOrStdout(), []string{"SCHEMA", "FIELDS"}, nil)
		for _, name := range schemas.Names() {
			node, _ := schemas.Get(name)
			root, _ := node.Unwrap(make(map[schema.Handle]bool))
			table.AddRow(name, fmt.Sprintf("%d", len(root.Fields())))
		}
		table.Render()

		ui.PrintSuccess(fmt.Sprintf("%d schemas valid", schemas.Len()))
		return nil
	},
}
