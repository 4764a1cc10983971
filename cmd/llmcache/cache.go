package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chengyuehsha/langchain-cache-gcs/pkg/cache"
	"github.com/chengyuehsha/langchain-cache-gcs/pkg/mcp"
	"github.com/chengyuehsha/langchain-cache-gcs/pkg/models"
)

// entryFlags are the flags that identify one cache entry.
type entryFlags struct {
	prompt    string
	llmString string
}

func (f *entryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.prompt, "prompt", "p", "", "prompt text")
	cmd.Flags().StringVarP(&f.llmString, "llm-string", "l", "", "model/configuration identity string")
	_ = cmd.MarkFlagRequired("prompt")
}

func newKeyCmd(a *app) *cobra.Command {
	var f entryFlags
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Print the object key for a prompt and model configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := models.DefaultPrefix
			if a.cfg.Store.Prefix != "" {
				prefix = cache.NormalizePrefix(a.cfg.Store.Prefix)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cache.Key(prefix, f.prompt, f.llmString))
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newGetCmd(a *app) *cobra.Command {
	var f entryFlags
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print the cached responses for a prompt and model configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, closeFn, err := a.openCache(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = closeFn() }()

			gens, ok := c.Lookup(ctx, f.prompt, f.llmString)
			if !ok {
				fmt.Println("No cached entry.")
				return nil
			}
			for i, g := range gens {
				fmt.Printf("[%d] %s\n", i+1, g.Text())
			}
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newPutCmd(a *app) *cobra.Command {
	var (
		f         entryFlags
		responses []string
	)
	cmd := &cobra.Command{
		Use:   "put",
		Short: "Store responses for a prompt and model configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, closeFn, err := a.openCache(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = closeFn() }()

			values := make([]any, len(responses))
			for i, r := range responses {
				values[i] = r
			}
			if err := c.Update(ctx, f.prompt, f.llmString, values); err != nil {
				return fmt.Errorf("update cache: %w", err)
			}
			fmt.Println(c.Key(f.prompt, f.llmString))
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().StringArrayVarP(&responses, "response", "r", nil, "response text (repeatable)")
	return cmd
}

func newClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every cache entry under the configured prefix",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, closeFn, err := a.openCache(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = closeFn() }()

			err = c.Clear(ctx)
			var clearErr *cache.ClearError
			if errors.As(err, &clearErr) {
				fmt.Printf("Deleted %d entries, %d failed.\n", clearErr.Deleted, clearErr.Failed)
				return err
			}
			if err != nil {
				return err
			}
			fmt.Printf("All cache entries under %s cleared.\n", c.Prefix())
			return nil
		},
	}
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, closeFn, err := a.openCache(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = closeFn() }()

			stats, err := c.Stats(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Backend:\t%s\n", a.cfg.Store.Backend)
			fmt.Fprintf(w, "Bucket:\t%s\n", a.cfg.Store.Bucket)
			fmt.Fprintf(w, "Prefix:\t%s\n", c.Prefix())
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Print(mcp.FormatCacheStats(stats))
			return nil
		},
	}
}
