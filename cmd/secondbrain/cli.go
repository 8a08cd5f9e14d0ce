package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/dotsetgreg/secondbrain/pkg/brain"
	"github.com/dotsetgreg/secondbrain/pkg/memory"
	"github.com/spf13/cobra"
)

func executeCLI() error {
	return buildRootCommand().Execute()
}

func buildRootCommand() *cobra.Command {
	var (
		showVersion bool
		cfgPath     string
		userID      string
	)

	root := &cobra.Command{
		Use:   "secondbrain",
		Short: "Personal RAG assistant with document ingestion and structured memory",
		Long: strings.TrimSpace(`secondbrain is a local-first personal assistant.

Ingest documents into a persistent vector index, store personal facts with
natural-language commands ("memorize my phone number as ..."), and ask
questions that are answered from your own data.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				printVersion()
				return nil
			}
			_ = cmd.Help()
			return fmt.Errorf("a subcommand is required")
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.Flags().BoolVarP(&showVersion, "version", "v", false, "Show build/version metadata")
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Path to config.json (default ~/.secondbrain/config.json)")
	root.PersistentFlags().StringVarP(&userID, "user", "u", "", "User id for multi-tenant data (default from config)")

	root.AddCommand(newChatCommand(&cfgPath, &userID))
	root.AddCommand(newIngestCommand(&cfgPath, &userID))
	root.AddCommand(newMemoriesCommand(&cfgPath, &userID))
	root.AddCommand(newForgetCommand(&cfgPath, &userID))
	root.AddCommand(newStatusCommand(&cfgPath, &userID))
	root.AddCommand(newVersionCommand())

	return root
}

// resolveUser prefers the --user flag over the configured default.
func resolveUser(a *app, flag string) string {
	if strings.TrimSpace(flag) != "" {
		return flag
	}
	return a.cfg.UserID
}

func newChatCommand(cfgPath, userID *string) *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat session (or one-shot with --message)",
		Example: strings.Join([]string{
			"  secondbrain chat",
			"  secondbrain chat --message \"what is my phone number?\"",
		}, "\n"),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(*cfgPath)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if a.auto != nil {
				go a.auto.Run(ctx)
			}

			user := resolveUser(a, *userID)
			if strings.TrimSpace(message) != "" {
				resp, err := a.brain.HandleQuery(ctx, user, message, false)
				if err != nil {
					return err
				}
				printResponse(resp)
				return nil
			}

			fmt.Printf("%s Interactive mode (Ctrl+C to exit)\n", appName)
			fmt.Println(`Commands: ingest <path>, forget <key>, delete <filename>, show memories, show data, clear, exit`)
			fmt.Println()
			interactiveMode(ctx, a.brain, user, a.cfg.Chat.UseHistory)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "One-shot question to ask")
	return cmd
}

func interactiveMode(ctx context.Context, b *brain.Brain, userID string, useHistory bool) {
	prompt := fmt.Sprintf("%s You: ", appName)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     filepath.Join(os.TempDir(), ".secondbrain_history"),
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Printf("Error initializing readline: %v\n", err)
		fmt.Println("Falling back to simple input mode...")
		simpleInteractiveMode(ctx, b, userID, useHistory)
		return
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				fmt.Println("\nGoodbye!")
				return
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}
		if !handleChatLine(ctx, b, userID, useHistory, line) {
			return
		}
	}
}

func simpleInteractiveMode(ctx context.Context, b *brain.Brain, userID string, useHistory bool) {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Printf("%s You: ", appName)
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				fmt.Println("\nGoodbye!")
				return
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}
		if !handleChatLine(ctx, b, userID, useHistory, line) {
			return
		}
	}
}

// handleChatLine dispatches one REPL line. It returns false when the session
// should end.
func handleChatLine(ctx context.Context, b *brain.Brain, userID string, useHistory bool, line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return true
	}

	lower := strings.ToLower(input)
	switch {
	case lower == "exit" || lower == "quit" || lower == "bye":
		fmt.Println("Goodbye!")
		return false

	case lower == "clear":
		b.History().Clear(userID)
		fmt.Println("Conversation history cleared.")
		return true

	case lower == "show memories":
		printMemories(ctx, b.Memory(), userID)
		return true

	case lower == "show data":
		printDocuments(ctx, b, userID)
		return true

	case strings.HasPrefix(lower, "ingest "):
		path := strings.TrimSpace(input[len("ingest "):])
		result, err := b.Ingest(ctx, userID, path)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return true
		}
		fmt.Printf("Ingested %s (%d chunks)\n", result.FileName, result.Chunks)
		if result.Preview != "" {
			fmt.Printf("Preview: %s\n", result.Preview)
		}
		return true

	case strings.HasPrefix(lower, "delete "):
		name := strings.TrimSpace(input[len("delete "):])
		if err := b.DeleteDocument(ctx, userID, name); err != nil {
			fmt.Printf("Error: %v\n", err)
			return true
		}
		fmt.Printf("Deleted %s from the knowledge base.\n", name)
		return true

	case strings.HasPrefix(lower, "forget "):
		key := strings.TrimSpace(input[len("forget "):])
		if b.Memory().Forget(ctx, userID, key, "") {
			fmt.Printf("Forgotten: %s\n", key)
		} else {
			fmt.Printf("No memory found with key %q. Forget needs the exact key; try \"show memories\".\n", key)
		}
		return true
	}

	resp, err := b.HandleQuery(ctx, userID, input, useHistory)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return true
	}
	fmt.Println()
	printResponse(resp)
	fmt.Println()
	return true
}

func printResponse(resp brain.Response) {
	fmt.Printf("%s %s\n", appName, resp.Response)
	if len(resp.Sources) > 0 {
		fmt.Printf("  Sources: %s\n", strings.Join(resp.Sources, ", "))
	}
	fmt.Printf("  Confidence: %.1f\n", resp.Confidence)
}

func printMemories(ctx context.Context, m *memory.Manager, userID string) {
	snap, err := m.List(ctx, userID, "")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if snap.Total() == 0 {
		fmt.Println("No memories stored yet.")
		return
	}
	for _, cat := range memory.Categories() {
		entries := m.ListByCategory(ctx, userID, cat)
		if len(entries) == 0 {
			continue
		}
		fmt.Printf("\n%s:\n", strings.ToUpper(strings.ReplaceAll(string(cat), "_", " ")))
		for _, e := range entries {
			line := fmt.Sprintf("  %s: %s", e.OriginalKey, e.Record.Value)
			if e.Record.Description != "" {
				line += " (" + e.Record.Description + ")"
			}
			fmt.Println(line)
		}
	}
	fmt.Println()
}

func printDocuments(ctx context.Context, b *brain.Brain, userID string) {
	docs, err := b.Documents(ctx, userID)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if len(docs) == 0 {
		fmt.Println("No documents ingested this session.")
		return
	}
	fmt.Println("Ingested documents:")
	for _, d := range docs {
		fmt.Printf("  %s (%s, %d chunks, added %s)\n",
			d.FileName, d.FileType, d.Chunks, d.IngestedAt.Format("15:04:05"))
	}
}

func newIngestCommand(cfgPath, userID *string) *cobra.Command {
	return &cobra.Command{
		Use:     "ingest <path>...",
		Short:   "Add documents (.txt, .md, .json, .csv) to the knowledge base",
		Example: "  secondbrain ingest notes.md budget.csv",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(*cfgPath)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := context.Background()
			user := resolveUser(a, *userID)
			for _, path := range args {
				result, err := a.brain.Ingest(ctx, user, path)
				if err != nil {
					return fmt.Errorf("ingest %s: %w", path, err)
				}
				fmt.Printf("Ingested %s (%d chunks)\n", result.FileName, result.Chunks)
			}
			return nil
		},
	}
}

func newMemoriesCommand(cfgPath, userID *string) *cobra.Command {
	return &cobra.Command{
		Use:     "memories",
		Short:   "List all stored personal memories by category",
		Example: "  secondbrain memories",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(*cfgPath)
			if err != nil {
				return err
			}
			defer a.close()

			printMemories(context.Background(), a.brain.Memory(), resolveUser(a, *userID))
			return nil
		},
	}
}

func newForgetCommand(cfgPath, userID *string) *cobra.Command {
	return &cobra.Command{
		Use:     "forget <key>",
		Short:   "Delete one memory by its exact key",
		Example: "  secondbrain forget \"phone number\"",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(*cfgPath)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := context.Background()
			user := resolveUser(a, *userID)
			if !a.brain.Memory().Forget(ctx, user, args[0], "") {
				return fmt.Errorf("no memory found with key %q", args[0])
			}
			fmt.Printf("Forgotten: %s\n", args[0])
			return nil
		},
	}
}

func newStatusCommand(cfgPath, userID *string) *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Short:   "Show knowledge base and memory store counts",
		Example: "  secondbrain status",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(*cfgPath)
			if err != nil {
				return err
			}
			defer a.close()

			st, err := a.brain.Status(context.Background(), resolveUser(a, *userID))
			if err != nil {
				return err
			}
			fmt.Printf("Document chunks: %d\n", st.DocumentChunks)
			fmt.Printf("Stored memories: %d\n", st.TotalMemories)
			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			printVersion()
			return nil
		},
	}
}
