package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/OtotaO/rainmaker-sub002/internal/cli/ui"
	stringutil "github.com/OtotaO/rainmaker-sub002/internal/util/strings"
)

const configTemplate = `log_level: info
schema_path: schema.json
output_path: schema.prisma
validate_schema: true
validate_relations: true
`

const schemaTemplate = `{
  "%s": {
    "kind": "object",
    "meta": { "map": "%s" },
    "fields": [
      { "name": "id", "schema": { "kind": "uuid" }, "meta": { "id": true } },
      { "name": "name", "schema": { "kind": "string" } },
      { "name": "createdAt", "schema": { "kind": "dateString" } }
    ]
  }
}
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a schemagen config and starter schema in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat("schemagen.yml"); err == nil {
			return fmt.Errorf("schemagen.yml already exists")
		}

		modelName := "Item"
		prompt := &survey.Input{
			Message: "Name of your first model:",
			Default: modelName,
		}
		if err := survey.AskOne(prompt, &modelName, survey.WithValidator(survey.Required)); err != nil {
			return err
		}
		modelName = stringutil.Capitalize(strings.TrimSpace(modelName))
		if strings.ContainsAny(modelName, " \t/\\") {
			return fmt.Errorf("model name %q must not contain spaces or path separators", modelName)
		}

		if err := os.WriteFile("schemagen.yml", []byte(configTemplate), 0644); err != nil {
			return fmt.Errorf("writing schemagen.yml: %w", err)
		}
		if _, err := os.Stat("schema.json"); os.IsNotExist(err) {
			starter := fmt.Sprintf(schemaTemplate, modelName, stringutil.ToSnakeCase(modelName)+"s")
			if err := os.WriteFile("schema.json", []byte(starter), 0644); err != nil {
				return fmt.Errorf("writing schema.json: %w", err)
			}
		}

		ui.PrintSuccess("Created schemagen.yml and schema.json")
		fmt.Println("Next: edit schema.json, then run `schemagen generate`")
		return nil
	},
}
