/*
 * Copyright 2024 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/openeo-go/openeo/builder"
	"github.com/openeo-go/openeo/catalog"
	"github.com/openeo-go/openeo/client"
	"github.com/openeo-go/openeo/internal/log"
	"github.com/openeo-go/openeo/render"
	"github.com/openeo-go/openeo/schema"
)

type app struct {
	envFiles    []string
	logLevel    string
	catalogFile string
}

// NewRootCommand returns the root command with all subcommands attached.
func NewRootCommand(ctx context.Context) *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:           "pgraph",
		Short:         "Build, inspect and validate openEO process graphs.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if a.logLevel != "" {
				log.SetLevel(a.logLevel)
			}
		},
	}
	rootCmd.PersistentFlags().StringSliceVar(&a.envFiles, "env-file", nil,
		"dotenv files with OPENEO_* settings, used for variables missing from the environment")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&a.catalogFile, "catalog", "",
		"process listing JSON file; the back-end catalog is fetched when empty")

	rootCmd.AddCommand(newFormulaCommand(ctx, a))
	rootCmd.AddCommand(newProcessesCommand(ctx, a))
	rootCmd.AddCommand(newRenderCommand(a))
	rootCmd.AddCommand(newValidateCommand(ctx, a))
	return rootCmd
}

func (a *app) connect() (*client.Connection, error) {
	cfg, err := client.LoadConfig(a.envFiles...)
	if err != nil {
		return nil, err
	}
	if a.logLevel == "" {
		log.SetLevel(cfg.LogLevel)
	}
	if cfg.Token == "" {
		log.Warnf("no access token configured, requests to %s are sent unauthenticated", cfg.URL)
	}
	return client.NewConnection(cfg)
}

func (a *app) loadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	if a.catalogFile != "" {
		data, err := os.ReadFile(a.catalogFile)
		if err != nil {
			return nil, err
		}
		log.Debugf("reading process catalog from %s", a.catalogFile)
		return catalog.FromJSON(data)
	}
	conn, err := a.connect()
	if err != nil {
		return nil, err
	}
	cat, err := conn.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	log.Infof("fetched %d processes from the back-end", cat.Len())
	return cat, nil
}

func newFormulaCommand(ctx context.Context, a *app) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "formula EXPRESSION",
		Short: "Compile an arithmetic formula into a process graph",
		Example: `  pgraph formula --catalog processes.json "x * 2 + offset"
  pgraph formula "(nir - red) / (nir + red)"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.loadCatalog(ctx)
			if err != nil {
				return err
			}
			b, err := builder.New(cat, builder.WithStrict(strict), builder.WithLogger(log.Nop))
			if err != nil {
				return err
			}
			if _, err = b.CompileFormula(args[0]); err != nil {
				return err
			}
			for _, d := range b.Diagnostics() {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", d)
			}
			return writeJSON(cmd.OutOrStdout(), b)
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "fail on processes missing from the catalog")
	return cmd
}

func newProcessesCommand(ctx context.Context, a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "processes",
		Short: "List the processes of the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.loadCatalog(ctx)
			if err != nil {
				return err
			}
			for _, p := range cat.Processes() {
				if p.Summary == "" {
					fmt.Fprintln(cmd.OutOrStdout(), p.ID)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p.ID, p.Summary)
			}
			return nil
		},
	}
}

func newRenderCommand(a *app) *cobra.Command {
	var (
		html     bool
		format   string
		template string
	)
	formats := map[string]render.FormatType{
		"fstring": render.FString,
		"go":      render.GoTemplate,
		"jinja2":  render.Jinja2,
	}

	cmd := &cobra.Command{
		Use:   "render FILE",
		Short: "Render a process graph file as text or HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			up, err := readUserProcess(args[0])
			if err != nil {
				return err
			}
			var out string
			if html {
				out, err = render.HTML(up)
			} else {
				formatType, ok := formats[format]
				if !ok {
					return fmt.Errorf("unknown template format '%s'", format)
				}
				out, err = render.Summary(up, formatType, template)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&html, "html", false, "render an HTML table")
	cmd.Flags().StringVar(&format, "format", "fstring", "template format: fstring, go or jinja2")
	cmd.Flags().StringVar(&template, "template", render.DefaultSummary, "summary template")
	return cmd
}

func newValidateCommand(ctx context.Context, a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate a process graph file against the back-end",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			up, err := readUserProcess(args[0])
			if err != nil {
				return err
			}
			conn, err := a.connect()
			if err != nil {
				return err
			}
			problems, err := conn.ValidateProcessGraph(ctx, up)
			if err != nil {
				return err
			}
			for _, p := range problems {
				fmt.Fprintln(cmd.OutOrStdout(), p.Error())
			}
			if len(problems) > 0 {
				return fmt.Errorf("process graph has %d validation errors", len(problems))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "valid")
			return nil
		},
	}
}

func readUserProcess(path string) (*schema.UserProcess, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	up := &schema.UserProcess{}
	if err = sonic.Unmarshal(data, up); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if up.ProcessGraph == nil {
		return nil, fmt.Errorf("%s has no process_graph", path)
	}
	return up, nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err = json.Indent(&buf, data, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err = buf.WriteTo(w)
	return err
}
