package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spetersoncode/quizsolver"
	"github.com/spetersoncode/quizsolver/bus"
	"github.com/spetersoncode/quizsolver/coordinator"
	"github.com/spetersoncode/quizsolver/foreground"
	"github.com/spetersoncode/quizsolver/store"
)

// errReported marks a failure the renderer has already shown.
var errReported = errors.New("failed")

func newSolveCmd() *cobra.Command {
	var (
		mode    string
		prompt  string
		image   string
		options []string
	)

	cmd := &cobra.Command{
		Use:   "solve [question]",
		Short: "Solve a question given as an argument or on stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			question, err := questionText(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			images, err := parseImages(image, options)
			if err != nil {
				return err
			}
			if mode == "" {
				mode = cfg.Mode
			}
			if prompt == "" {
				prompt = cfg.Prompt
			}

			a, err := newApp(cmd.Context(), cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			req := quizsolver.Request{
				QuestionText: question,
				Images:       images,
				CustomPrompt: prompt,
				Mode:         quizsolver.Mode(mode).Normalize(),
			}
			if _, err := a.agent.Solve(cmd.Context(), req); err != nil {
				return errReported
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "", "generation mode (qa or coding)")
	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "instructions placed before the question")
	cmd.Flags().StringVar(&image, "image", "", "URL of an image attached to the question")
	cmd.Flags().StringArrayVar(&options, "option", nil, "option image as LETTER=URL (repeatable)")

	return cmd
}

func newSelectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select <text>",
		Short: "Hand a text selection to the agent, as a context menu would",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			if err := a.coordinator.SolveSelection(cmd.Context(), agentTarget, args[0]); err != nil {
				return errors.New(quizsolver.UserMessage(err))
			}
			a.agent.Wait()
			return nil
		},
	}
}

func newProbeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe <endpoint> [question]",
		Short: "Discover how a custom endpoint answers and print its reply",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			question := "Reply with the single word: ready"
			if len(args) == 2 {
				question = args[1]
			}
			msg, err := bus.NewMessage(bus.ActionCallCustomEndpoint, coordinator.EndpointPayload{
				Request:  quizsolver.Request{QuestionText: question, Mode: quizsolver.ModeQA},
				Endpoint: args[0],
			})
			if err != nil {
				return err
			}

			resp, err := a.agentBus.Await(cmd.Context(), coordinator.Target, a.agentBus.StartTimeout(msg, foreground.DefaultRelayTimeout))
			if err != nil {
				return errors.New(quizsolver.UserMessage(err))
			}
			var result quizsolver.AnswerResult
			if err := resp.Decode(&result); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Text)
			return nil
		},
	}
}

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the stored API key or endpoint",
	}

	var provider string
	setCmd := &cobra.Command{
		Use:   "set <value>",
		Short: "Store an API key, or an endpoint URL for a custom provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			cred := quizsolver.NewCredential(args[0], quizsolver.ParseProvider(provider))
			if err := store.Save(cmd.Context(), st, cred.Raw, cred.Provider); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", cred)
			return nil
		},
	}
	setCmd.Flags().StringVar(&provider, "provider", string(quizsolver.DefaultProvider), "provider the key belongs to (gemini or chatgpt)")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the stored credential, masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			settings, err := store.Load(cmd.Context(), st)
			if err != nil {
				return err
			}
			if settings.Credential.Empty() {
				fmt.Fprintln(cmd.OutOrStdout(), quizsolver.MsgMissingKey)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), settings.Credential)
			return nil
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove",
		Short: "Delete the stored credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return st.Remove(cmd.Context(), store.KeyAPIKey, store.KeyProvider)
		},
	}

	cmd.AddCommand(setCmd, showCmd, removeCmd)
	return cmd
}

// questionText returns the argument, or stdin when there is none.
func questionText(stdin io.Reader, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read question: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// parseImages builds image references from the --image and --option flags.
func parseImages(question string, options []string) (*quizsolver.ImageRefs, error) {
	refs := &quizsolver.ImageRefs{QuestionImage: strings.TrimSpace(question)}
	for _, o := range options {
		letter, src, ok := strings.Cut(o, "=")
		letter, src = strings.TrimSpace(letter), strings.TrimSpace(src)
		if !ok || letter == "" || src == "" {
			return nil, fmt.Errorf("invalid --option %q (want LETTER=URL)", o)
		}
		refs.OptionImages = append(refs.OptionImages, quizsolver.OptionImage{Option: letter, Src: src})
	}
	if refs.Empty() {
		return nil, nil
	}
	return refs, nil
}
