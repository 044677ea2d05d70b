package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pdiddy/patent-rank/internal/output"
	"github.com/pdiddy/patent-rank/internal/pipeline"
	"github.com/pdiddy/patent-rank/internal/server"
	"github.com/pdiddy/patent-rank/pkg/types"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Ask questions interactively with one set of OPS credentials",
	Long: `Shell prompts for the OPS Client ID and Client Secret (input is hidden)
unless they are already configured, then reads one question per line.
Each question is an independent search; an error is printed and the
session continues. The embedding model is loaded on the first question
and reused afterwards. End the session with "exit", "quit" or Ctrl-D.`,
	RunE: runShell,
}

func init() {
	shellCmd.Flags().String("client-id", "", "OPS client identifier")
	shellCmd.Flags().String("client-secret", "", "OPS client secret")
	shellCmd.Flags().Int("max-results", 5, "number of search hits to fetch (1-100)")
	shellCmd.Flags().Int("top-k", 3, "number of ranked results to show")
	shellCmd.Flags().Int("excerpt", 160, "maximum characters of title and abstract per table cell (0 = full)")

	rootCmd.AddCommand(shellCmd)
}

func runShell(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd, map[string]string{
		keyOPSMaxResults: "max-results",
		keyRankTopK:      "top-k",
		keyOutputExcerpt: "excerpt",
	}); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	in := bufio.NewReader(cmd.InOrStdin())
	prompt := cmd.ErrOrStderr()
	creds, err := promptCredentials(in, cmd.InOrStdin(), prompt, resolveCredentials(cmd))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	return questionLoop(ctx, in, prompt, newPipeline(cfg, log), creds, printer, cfg.Output.Excerpt)
}

// promptCredentials asks for whichever credential is still missing. When
// stdin is a terminal the input is not echoed.
func promptCredentials(in *bufio.Reader, stdin io.Reader, w io.Writer, creds types.Credentials) (types.Credentials, error) {
	var err error
	if creds.ClientID == "" {
		if creds.ClientID, err = readSecret(in, stdin, w, "Client ID EPO: "); err != nil {
			return creds, err
		}
	}
	if creds.ClientSecret == "" {
		if creds.ClientSecret, err = readSecret(in, stdin, w, "Client Secret EPO: "); err != nil {
			return creds, err
		}
	}
	if !creds.IsComplete() {
		return creds, pipeline.ErrIncompleteInput
	}
	return creds, nil
}

func readSecret(in *bufio.Reader, stdin io.Reader, w io.Writer, label string) (string, error) {
	fmt.Fprint(w, label)
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(w)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", strings.TrimSuffix(label, ": "), err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading %s: %w", strings.TrimSuffix(label, ": "), err)
	}
	return strings.TrimSpace(line), nil
}

type lineResult struct {
	line string
	err  error
}

// readLine reads one line from in, giving up when ctx is cancelled. The
// pending read is abandoned and in must not be read again after that.
func readLine(ctx context.Context, in *bufio.Reader) (string, error) {
	ch := make(chan lineResult, 1)
	go func() {
		line, err := in.ReadString('\n')
		ch <- lineResult{line, err}
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		return r.line, r.err
	}
}

// questionLoop runs one search per input line until EOF, "exit" or
// "quit", or ctx is cancelled. Search errors are printed, not returned.
func questionLoop(ctx context.Context, in *bufio.Reader, prompt io.Writer, s server.Searcher, creds types.Credentials, p *output.Printer, excerpt int) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(prompt, "Domanda> ")
		line, err := readLine(ctx, in)
		if ctx.Err() != nil {
			fmt.Fprintln(prompt)
			return nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("reading question: %w", err)
		}
		question := strings.TrimSpace(line)
		switch question {
		case "exit", "quit":
			return nil
		case "":
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(prompt)
				return nil
			}
			continue
		}

		rep, runErr := s.Run(ctx, pipeline.Request{Credentials: creds, Question: question})
		if runErr != nil {
			p.Error(runErr)
		} else if rerr := p.Report(rep, types.OutputTable, excerpt); rerr != nil {
			p.Error(rerr)
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
	}
}
