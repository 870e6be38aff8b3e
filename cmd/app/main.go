package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/koukeneko/blogd/internal"
	"github.com/koukeneko/blogd/internal/markdown"
	"github.com/koukeneko/blogd/internal/render"
	"github.com/koukeneko/blogd/internal/transcode"
	pkgconfig "github.com/koukeneko/blogd/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg))
}

func initDB(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	report, err := internal.InitDB(ctx, internal.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("init db: %w", err)
	}
	enc := json.NewEncoder(cmd.Root().Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// readInput reads the file named by the first argument, or stdin when there
// is none or it is "-".
func readInput(cmd *cli.Command) (string, error) {
	name := cmd.Args().First()
	if name == "" || name == "-" {
		data, err := io.ReadAll(cmd.Root().Reader)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return string(data), nil
}

func writeTOC(w io.Writer, toc []markdown.Heading) error {
	for _, h := range toc {
		indent := strings.Repeat("  ", h.Level-1)
		if _, err := fmt.Fprintf(w, "%s- [%s](#%s)\n", indent, h.Text, h.ID); err != nil {
			return err
		}
	}
	return nil
}

func transcodeFile(_ context.Context, cmd *cli.Command) error {
	src, err := readInput(cmd)
	if err != nil {
		return err
	}

	opts := transcode.Options{UniqueIDs: cmd.Bool("unique-ids")}
	if cmd.Bool("html") {
		opts.Renderer = render.New(render.WithUniqueIDs(opts.UniqueIDs))
	}
	res, err := transcode.Run(src, opts)
	if err != nil {
		return err
	}

	w := cmd.Root().Writer
	if cmd.Bool("toc") && len(res.TOC) > 0 {
		if err := writeTOC(w, res.TOC); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	if cmd.Bool("html") {
		_, err = io.WriteString(w, res.HTML)
		return err
	}
	_, err = io.WriteString(w, res.Content)
	return err
}

func printTOC(_ context.Context, cmd *cli.Command) error {
	src, err := readInput(cmd)
	if err != nil {
		return err
	}
	res, err := transcode.Run(src, transcode.Options{UniqueIDs: cmd.Bool("unique-ids")})
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return json.NewEncoder(cmd.Root().Writer).Encode(res.TOC)
	}
	return writeTOC(cmd.Root().Writer, res.TOC)
}

func uniqueIDsFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "unique-ids",
		Usage: "Number repeated heading ids (intro, intro-2, ...)",
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:   "blogd",
		Usage:  "Blog backend that serves HackMD notes with canonical call-outs and outlines",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP server (default)",
				Action: serve,
			},
			{
				Name:      "transcode",
				Usage:     "Rewrite call-outs in a markdown file into canonical form",
				ArgsUsage: "[file]",
				Action:    transcodeFile,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "html", Usage: "Render the result to HTML"},
					&cli.BoolFlag{Name: "toc", Usage: "Print the outline before the output"},
					uniqueIDsFlag(),
				},
			},
			{
				Name:      "toc",
				Usage:     "Print the heading outline of a markdown file",
				ArgsUsage: "[file]",
				Action:    printTOC,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Print the outline as JSON"},
					uniqueIDsFlag(),
				},
			},
			{
				Name:   "mcp",
				Usage:  "Serve the markdown tools over MCP stdio",
				Action: serveMCP,
			},
			{
				Name:   "init-db",
				Usage:  "Create any missing posts tables",
				Action: initDB,
			},
		},
	}
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
