// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/poiesic/ragkit"
	"github.com/poiesic/ragkit/ai"
	"github.com/poiesic/ragkit/document"
	"github.com/poiesic/ragkit/loaders"
	"github.com/poiesic/ragkit/vectorstore"
	"github.com/urfave/cli/v2"
)

// storageFlags and aiFlags are shared by every command that opens a client.
var storageFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "storage-path",
		Usage:   "Path to the local BadgerDB vector store directory",
		EnvVars: []string{"RAGKIT_STORAGE_PATH"},
	},
	&cli.StringFlag{
		Name:    "qdrant",
		Usage:   "Qdrant gRPC address (e.g. localhost:6334); overrides local storage",
		EnvVars: []string{"RAGKIT_QDRANT_ADDR"},
	},
	&cli.StringFlag{
		Name:    "namespace",
		Aliases: []string{"n"},
		Usage:   "Vector store namespace",
		Value:   vectorstore.DefaultNamespace,
		EnvVars: []string{"RAGKIT_NAMESPACE"},
	},
}

var aiFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "embedding-host",
		Usage:   "Embedding service host URL",
		Value:   "https://api.openai.com/v1",
		EnvVars: []string{"RAGKIT_EMBEDDING_HOST"},
	},
	&cli.StringFlag{
		Name:    "embedding-model",
		Usage:   "Embedding model name",
		Value:   "text-embedding-3-small",
		EnvVars: []string{"RAGKIT_EMBEDDING_MODEL"},
	},
	&cli.StringFlag{
		Name:    "chat-host",
		Usage:   "Chat-completion host URL used for keyword extraction",
		Value:   "https://api.openai.com/v1",
		EnvVars: []string{"RAGKIT_CHAT_HOST"},
	},
	&cli.StringFlag{
		Name:    "chat-model",
		Usage:   "Chat model name used for keyword extraction",
		Value:   "gpt-4o-mini",
		EnvVars: []string{"RAGKIT_CHAT_MODEL"},
	},
	&cli.StringFlag{
		Name:    "api-key",
		Usage:   "API key for the embedding and chat services",
		EnvVars: []string{"OPENAI_API_KEY"},
	},
}

var ingestFlags = []cli.Flag{
	&cli.IntFlag{
		Name:  "chunk-tokens",
		Usage: "Token size of each excerpt chunk",
		Value: document.DefaultChunkTokens,
	},
	&cli.Float64Flag{
		Name:  "chunk-overlap",
		Usage: "Fractional token overlap between consecutive chunks",
		Value: document.DefaultChunkOverlap,
	},
	&cli.BoolFlag{
		Name:  "keywords",
		Usage: "Extract keywords for each excerpt via the chat model",
	},
	&cli.BoolFlag{
		Name:  "skip-errors",
		Usage: "Keep upserting remaining batches when a batch fails",
	},
	&cli.IntFlag{
		Name:  "batch-size",
		Usage: "Number of documents per upsert batch",
		Value: vectorstore.DefaultBatchSize,
	},
}

func main() {
	app := &cli.App{
		Name:  "ragkit",
		Usage: "Ingest documents into a vector store and query them",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"RAGKIT_LOG_LEVEL"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:  "ingest",
				Usage: "Load documents from a source and upsert them",
				Subcommands: []*cli.Command{
					{
						Name:      "url",
						Usage:     "Ingest one or more URLs",
						ArgsUsage: "URL [URL ...]",
						Action:    ingestURLCommand,
						Flags: joinFlags(storageFlags, aiFlags, ingestFlags, []cli.Flag{
							&cli.BoolFlag{
								Name:  "raw",
								Usage: "Keep raw page bodies instead of extracting text from HTML",
							},
							&cli.Float64Flag{
								Name:  "rate-limit",
								Usage: "Maximum requests per second (0 disables limiting)",
							},
						}),
					},
					{
						Name:      "sitemap",
						Usage:     "Ingest every page listed in a sitemap",
						ArgsUsage: "SITEMAP_URL [SITEMAP_URL ...]",
						Action:    ingestSitemapCommand,
						Flags: joinFlags(storageFlags, aiFlags, ingestFlags, []cli.Flag{
							&cli.StringFlag{
								Name:  "include",
								Usage: "Only keep URLs matching this regular expression",
							},
							&cli.StringFlag{
								Name:  "exclude",
								Usage: "Drop URLs matching this regular expression",
							},
						}),
					},
					{
						Name:      "github-issues",
						Usage:     "Ingest issues from a GitHub repository",
						ArgsUsage: "OWNER/REPO",
						Action:    ingestGitHubIssuesCommand,
						Flags: joinFlags(storageFlags, aiFlags, ingestFlags, []cli.Flag{
							&cli.StringFlag{
								Name:    "token",
								Usage:   "GitHub API token",
								EnvVars: []string{"GITHUB_TOKEN"},
							},
							&cli.IntFlag{
								Name:  "issues",
								Usage: "Maximum number of issues to load",
								Value: loaders.DefaultIssueCount,
							},
							&cli.BoolFlag{
								Name:  "comments",
								Usage: "Include issue comments",
							},
						}),
					},
					{
						Name:      "github-repo",
						Usage:     "Ingest files from a GitHub repository",
						ArgsUsage: "OWNER/REPO",
						Action:    ingestGitHubRepoCommand,
						Flags: joinFlags(storageFlags, aiFlags, ingestFlags, []cli.Flag{
							&cli.StringSliceFlag{
								Name:  "include-glob",
								Usage: "Only keep files matching this glob (repeatable)",
							},
							&cli.StringSliceFlag{
								Name:  "exclude-glob",
								Usage: "Drop files matching this glob (repeatable)",
							},
						}),
					},
					{
						Name:      "pdf",
						Usage:     "Ingest a PDF from a file path or URL",
						ArgsUsage: "PATH_OR_URL",
						Action:    ingestPDFCommand,
						Flags:     joinFlags(storageFlags, aiFlags, ingestFlags),
					},
				},
			},
			{
				Name:      "query",
				Usage:     "Query the vector store and print the assembled context",
				ArgsUsage: "QUERY [QUERY ...]",
				Action:    queryCommand,
				Flags: joinFlags(storageFlags, aiFlags, []cli.Flag{
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Number of hits to retrieve per query",
						Value: vectorstore.DefaultTopK,
					},
					&cli.IntFlag{
						Name:  "max-tokens",
						Usage: "Token budget for the assembled context",
					},
				}),
			},
			{
				Name:   "reset",
				Usage:  "Delete every vector in the namespace",
				Action: resetCommand,
				Flags:  joinFlags(storageFlags, aiFlags),
			},
			{
				Name:   "status",
				Usage:  "Report whether the namespace exists and holds vectors",
				Action: statusCommand,
				Flags:  joinFlags(storageFlags, aiFlags),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func joinFlags(groups ...[]cli.Flag) []cli.Flag {
	var flags []cli.Flag
	for _, g := range groups {
		flags = append(flags, g...)
	}
	return flags
}

func openClient(c *cli.Context) (*ragkit.Client, error) {
	cfg := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithChatHost(c.String("chat-host")),
		ai.WithChatModel(c.String("chat-model")),
	)
	if key := c.String("api-key"); key != "" {
		cfg.APIKey = key
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	opts := []ragkit.ClientOption{ragkit.WithAIConfig(cfg)}
	switch {
	case c.String("qdrant") != "":
		opts = append(opts, ragkit.WithQdrant(c.String("qdrant")))
	case c.String("storage-path") != "":
		opts = append(opts, ragkit.WithStoragePath(c.String("storage-path")))
	}
	return ragkit.NewClient(opts...)
}

// excerptBuilder builds the chunker shared by all ingest subcommands.
// Keyword extraction is opt-in because it costs a chat completion per chunk.
func excerptBuilder(c *cli.Context, client *ragkit.Client) (*document.ExcerptBuilder, error) {
	opts := []document.BuilderOption{
		document.WithChunkTokens(c.Int("chunk-tokens")),
		document.WithChunkOverlap(c.Float64("chunk-overlap")),
	}
	if c.Bool("keywords") {
		return client.NewExcerptBuilder(opts...)
	}
	return document.NewExcerptBuilder(opts...)
}

func ingest(c *cli.Context, client *ragkit.Client, loader loaders.Loader) error {
	ctx := context.Background()

	docs, err := loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading documents: %w", err)
	}
	if len(docs) == 0 {
		fmt.Fprintln(os.Stderr, "No documents loaded")
		return nil
	}

	ns, err := client.Namespace(c.String("namespace"))
	if err != nil {
		return err
	}

	batchOpts := []vectorstore.BatchOption{
		vectorstore.WithBatchSize(c.Int("batch-size")),
	}
	if c.Bool("skip-errors") {
		batchOpts = append(batchOpts, vectorstore.WithSkipErrors())
	}
	if err := ns.UpsertBatched(ctx, docs, batchOpts...); err != nil {
		return fmt.Errorf("upserting documents: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Upserted %d documents into namespace %q\n", len(docs), ns.Name())
	return nil
}

func ingestURLCommand(c *cli.Context) error {
	urls := c.Args().Slice()
	if len(urls) == 0 {
		return fmt.Errorf("at least one URL is required")
	}

	client, err := openClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	builder, err := excerptBuilder(c, client)
	if err != nil {
		return err
	}

	webOpts := []loaders.WebOption{loaders.WithExcerptBuilder(builder)}
	if rps := c.Float64("rate-limit"); rps > 0 {
		webOpts = append(webOpts, loaders.WithRateLimit(rps))
	}

	var loader loaders.Loader
	if c.Bool("raw") {
		loader, err = loaders.NewURLLoader(urls, webOpts...)
	} else {
		loader, err = loaders.NewHTMLLoader(urls, webOpts...)
	}
	if err != nil {
		return err
	}
	return ingest(c, client, loader)
}

func ingestSitemapCommand(c *cli.Context) error {
	sitemaps := c.Args().Slice()
	if len(sitemaps) == 0 {
		return fmt.Errorf("at least one sitemap URL is required")
	}

	client, err := openClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	builder, err := excerptBuilder(c, client)
	if err != nil {
		return err
	}

	opts := []loaders.SitemapOption{
		loaders.WithWebOptions(loaders.WithExcerptBuilder(builder)),
	}
	if pattern := c.String("include"); pattern != "" {
		re, err := compilePattern("include", pattern)
		if err != nil {
			return err
		}
		opts = append(opts, loaders.WithInclude(re))
	}
	if pattern := c.String("exclude"); pattern != "" {
		re, err := compilePattern("exclude", pattern)
		if err != nil {
			return err
		}
		opts = append(opts, loaders.WithExclude(re))
	}

	loader, err := loaders.NewSitemapLoader(sitemaps, opts...)
	if err != nil {
		return err
	}
	return ingest(c, client, loader)
}

func compilePattern(flag, pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid %s pattern: %w", flag, err)
	}
	return re, nil
}

func ingestGitHubIssuesCommand(c *cli.Context) error {
	repo := c.Args().First()
	if repo == "" {
		return fmt.Errorf("repository argument is required (owner/repo)")
	}

	client, err := openClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	builder, err := excerptBuilder(c, client)
	if err != nil {
		return err
	}

	githubOpts := []loaders.GitHubOption{
		loaders.WithGitHubExcerptBuilder(builder),
	}
	if token := c.String("token"); token != "" {
		githubOpts = append(githubOpts, loaders.WithToken(token))
	}

	issueOpts := []loaders.IssueOption{
		loaders.WithIssueCount(c.Int("issues")),
	}
	if c.Bool("comments") {
		issueOpts = append(issueOpts, loaders.WithComments())
	}

	loader, err := loaders.NewGitHubIssueLoader(repo, githubOpts, issueOpts...)
	if err != nil {
		return err
	}
	return ingest(c, client, loader)
}

func ingestGitHubRepoCommand(c *cli.Context) error {
	repo := c.Args().First()
	if repo == "" {
		return fmt.Errorf("repository argument is required (owner/repo)")
	}

	client, err := openClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	builder, err := excerptBuilder(c, client)
	if err != nil {
		return err
	}

	loader, err := loaders.NewGitHubRepoLoader(repo,
		[]loaders.GitHubOption{loaders.WithGitHubExcerptBuilder(builder)},
		loaders.WithIncludeGlobs(c.StringSlice("include-glob")...),
		loaders.WithExcludeGlobs(c.StringSlice("exclude-glob")...),
	)
	if err != nil {
		return err
	}
	return ingest(c, client, loader)
}

func ingestPDFCommand(c *cli.Context) error {
	source := c.Args().First()
	if source == "" {
		return fmt.Errorf("a PDF path or URL is required")
	}

	client, err := openClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	builder, err := excerptBuilder(c, client)
	if err != nil {
		return err
	}

	loader := loaders.NewPDFLoader(source, loaders.WithPDFExcerptBuilder(builder))
	return ingest(c, client, loader)
}

func queryCommand(c *cli.Context) error {
	queries := c.Args().Slice()
	if len(queries) == 0 {
		return fmt.Errorf("at least one query is required")
	}

	ctx := context.Background()

	client, err := openClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	ns, err := client.Namespace(c.String("namespace"))
	if err != nil {
		return err
	}

	opts := []vectorstore.QueryOption{
		vectorstore.WithTopK(c.Int("top-k")),
	}
	if budget := c.Int("max-tokens"); budget > 0 {
		opts = append(opts, vectorstore.WithMaxTokens(budget))
	}

	var result string
	if len(queries) == 1 {
		result, err = vectorstore.QueryNamespace(ctx, ns, queries[0], opts...)
	} else {
		result, err = vectorstore.MultiQuery(ctx, ns, queries, opts...)
	}
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	fmt.Println(result)
	return nil
}

func resetCommand(c *cli.Context) error {
	ctx := context.Background()

	client, err := openClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	ns, err := client.Namespace(c.String("namespace"))
	if err != nil {
		return err
	}
	if err := ns.Reset(ctx); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Namespace %q reset\n", ns.Name())
	return nil
}

func statusCommand(c *cli.Context) error {
	ctx := context.Background()

	client, err := openClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	ns, err := client.Namespace(c.String("namespace"))
	if err != nil {
		return err
	}

	ok, err := ns.Ok(ctx)
	if err != nil {
		return fmt.Errorf("status check failed: %w", err)
	}
	if ok {
		fmt.Printf("Namespace %q exists and holds vectors\n", ns.Name())
	} else {
		fmt.Printf("Namespace %q is empty\n", ns.Name())
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
