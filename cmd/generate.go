package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"postcraft/internal/app"
	"postcraft/internal/llm"
	"postcraft/pkg/config"

	"github.com/spf13/cobra"
)

var (
	generateType   string
	generateFields string
	generateOut    string
	generateDryRun bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a single post or blog article",
	Long: `Generate one piece of content from a JSON file of form fields and print it.
Use "-" as the fields file to read from stdin.`,
	Example: `  postcraft generate --type social --fields call.json
  postcraft generate -t blog -f call.json --out output/
  cat call.json | postcraft generate -t social -f - --dry-run`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&generateType, "type", "t", string(app.ContentSocial), "Content type: social or blog")
	generateCmd.Flags().StringVarP(&generateFields, "fields", "f", "", "JSON file with form fields")
	generateCmd.Flags().StringVarP(&generateOut, "out", "o", "", "Also save the result into this directory")
	generateCmd.Flags().BoolVar(&generateDryRun, "dry-run", false, "Use canned content instead of calling a provider")
	_ = generateCmd.MarkFlagRequired("fields")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	contentType, err := app.ParseContentType(generateType)
	if err != nil {
		return err
	}

	data, err := readFields(cmd.InOrStdin(), generateFields)
	if err != nil {
		return err
	}
	fields, err := app.ParseFields(data)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	if generateDryRun {
		useStubProvider()
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	service, err := app.BuildService(ctx, cfg, app.BuildOptions{DryRun: generateDryRun})
	if err != nil {
		return err
	}

	slog.Info("Generating content", "type", contentType, "fields", len(fields))
	result, err := service.Pipeline().Generate(ctx, contentType, fields)
	if err != nil {
		var genErr *llm.GenerationError
		if errors.As(err, &genErr) {
			slog.Error("Model never produced valid content", "attempts", genErr.Attempts, "last_error", genErr.Err)
		}
		return err
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(result); err != nil {
		return fmt.Errorf("write result: %w", err)
	}

	if generateOut != "" {
		path, err := app.SaveResult(generateOut, result, time.Now())
		if err != nil {
			return err
		}
		slog.Info("Result saved", "path", path)
	}

	return nil
}

func readFields(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read fields from stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fields file: %w", err)
	}
	return data, nil
}

// useStubProvider makes config validation accept a missing API key for
// offline runs.
func useStubProvider() {
	_ = os.Setenv("LLM_PROVIDER", string(llm.KindStub))
}
