// Command invoke runs the conversion handler once against the configured
// bucket, the way the Lambda runtime would.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/local/pdf2webp/internal/app"
	"github.com/local/pdf2webp/internal/config"
	"github.com/local/pdf2webp/internal/event"
	"github.com/local/pdf2webp/internal/logger"
)

var (
	envFile      string
	pdfKey       string
	outputPrefix string
	httpEvent    bool
	useBase64    bool
)

var rootCmd = &cobra.Command{
	Use:   "invoke",
	Short: "Invoke the PDF to WebP handler locally",
	Long: `Builds a direct or HTTP-style event for the given source key and output
prefix, runs the handler in-process against the configured bucket and prints
the response with its JSON body expanded.`,
	SilenceUsage: true,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if useBase64 && !httpEvent {
			return errors.New("--base64 requires --http-event")
		}
		return nil
	},
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file to load if present")
	rootCmd.Flags().StringVar(&pdfKey, "pdf-key", "", "S3 key of source PDF (e.g., path/to/document.pdf)")
	rootCmd.Flags().StringVar(&outputPrefix, "output-prefix", "", "output prefix ending with '/' (e.g., converted/document/)")
	rootCmd.Flags().BoolVar(&httpEvent, "http-event", false, "wrap payload as HTTP-style event with body")
	rootCmd.Flags().BoolVar(&useBase64, "base64", false, "base64-encode the HTTP body (only with --http-event)")
	_ = rootCmd.MarkFlagRequired("pdf-key")
	_ = rootCmd.MarkFlagRequired("output-prefix")
}

func run(cmd *cobra.Command, args []string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := config.FromEnv()
	_ = app.InitLogging(cfg)
	defer logger.Close()

	req := event.Request{PDFKey: pdfKey, OutputPrefix: outputPrefix}
	var raw []byte
	var err error
	if httpEvent {
		raw, err = event.BuildHTTP(req, useBase64)
	} else {
		raw, err = event.BuildDirect(req)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Invoking handler with event:")
	if err := printJSON(out, json.RawMessage(raw)); err != nil {
		return err
	}

	ctx := context.Background()
	h, err := app.NewHandler(ctx, cfg)
	if err != nil {
		return err
	}
	resp, _ := h.Handle(ctx, raw)

	pretty := map[string]any{
		"statusCode": resp.StatusCode,
		"headers":    resp.Headers,
		"body":       resp.Body,
	}
	var body any
	if json.Unmarshal([]byte(resp.Body), &body) == nil {
		pretty["body"] = body
	}

	fmt.Fprintln(out, "\nResponse:")
	return printJSON(out, pretty)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
