package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/chengyuehsha/langchain-cache-gcs/pkg/config"
	"github.com/chengyuehsha/langchain-cache-gcs/pkg/llm"
)

func newInvokeCmd(a *app) *cobra.Command {
	var (
		prompt string
		repeat int
	)
	cmd := &cobra.Command{
		Use:   "invoke",
		Short: "Send a prompt to the configured model through the cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			mc := a.cfg.Model
			if mc.Name == "" {
				return fmt.Errorf("model.name is required")
			}
			provider, err := a.cfg.Provider(mc.Provider)
			if err != nil {
				return err
			}

			c, closeFn, err := a.openCache(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = closeFn() }()

			model := &llm.CachedModel{
				Chatter:  llm.NewClient(provider, mc.Timeout, mc.MaxRetries, a.log),
				Cache:    c,
				Provider: provider.Name,
				Model:    mc.Name,
				Params:   modelParams(mc),
			}

			for i := 1; i <= repeat; i++ {
				start := time.Now()
				gen, cached, err := model.Invoke(ctx, prompt)
				if err != nil {
					return err
				}
				source := "model"
				if cached {
					source = "cache"
				}
				fmt.Println(gen.Text())
				fmt.Printf("Call %d (%s): %.3f seconds\n", i, source, time.Since(start).Seconds())
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "prompt text")
	cmd.Flags().IntVarP(&repeat, "repeat", "n", 2, "number of times to send the prompt")
	_ = cmd.MarkFlagRequired("prompt")
	return cmd
}

// modelParams collects the generation parameters that are part of the
// model's cache identity.
func modelParams(mc config.ModelConfig) llm.Params {
	params := llm.Params{}
	if mc.Temperature != nil {
		params["temperature"] = *mc.Temperature
	}
	if mc.MaxTokens != nil {
		params["max_tokens"] = *mc.MaxTokens
	}
	return params
}
