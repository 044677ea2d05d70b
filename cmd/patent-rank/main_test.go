// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/patent-rank/internal/output"
	"github.com/pdiddy/patent-rank/internal/pipeline"
	"github.com/pdiddy/patent-rank/internal/secrets"
	"github.com/pdiddy/patent-rank/pkg/types"
)

func resetConfig(t *testing.T) {
	t.Helper()
	viper.Reset()
	setDefaults()
	loadedSecrets = nil
	t.Cleanup(func() {
		viper.Reset()
		loadedSecrets = nil
	})
}

func credsCommand(id, secret string) *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("client-id", "", "")
	cmd.Flags().String("client-secret", "", "")
	if id != "" {
		_ = cmd.Flags().Set("client-id", id)
	}
	if secret != "" {
		_ = cmd.Flags().Set("client-secret", secret)
	}
	return cmd
}

func TestLoadConfig_Defaults(t *testing.T) {
	resetConfig(t)

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, types.DefaultOPSBaseURL, cfg.OPS.BaseURL)
	assert.Equal(t, types.DefaultOPSBaseURL+"/auth/accesstoken", cfg.OPS.TokenURL)
	assert.Equal(t, 5, cfg.OPS.MaxResults)
	assert.Equal(t, 3, cfg.Rank.TopK)
	assert.Equal(t, types.OutputTable, cfg.Output.Format)
	assert.Equal(t, types.ProviderOpenAI, cfg.Embedding.Provider)
	assert.Equal(t, types.DefaultEmbeddingModel, cfg.Embedding.Model)
	assert.Equal(t, 30*time.Second, cfg.OPS.Timeout)
	assert.Equal(t, "patent-rank/"+version, cfg.Embedding.UserAgent)
}

func TestLoadConfig_Overrides(t *testing.T) {
	resetConfig(t)
	viper.Set(keyOPSMaxResults, 20)
	viper.Set(keyRankTopK, 5)
	viper.Set(keyOutputFormat, "yaml")
	viper.Set(keyEmbeddingProvider, "ollama")
	viper.Set(keyHTTPTimeout, "5s")
	loadedSecrets = secrets.Store{secrets.KeyEmbeddingAPIKey: "sk-file"}

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.OPS.MaxResults)
	assert.Equal(t, 5, cfg.Rank.TopK)
	assert.Equal(t, types.OutputYAML, cfg.Output.Format)
	assert.Equal(t, types.ProviderOllama, cfg.Embedding.Provider)
	assert.Equal(t, 5*time.Second, cfg.Embedding.Timeout)
	assert.Equal(t, "sk-file", cfg.Embedding.APIKey)
}

func TestLoadConfig_BadFormat(t *testing.T) {
	resetConfig(t)
	viper.Set(keyOutputFormat, "csv")

	_, err := loadConfig()
	assert.Error(t, err)
}

func TestServeExcerptFlagMatchesEffectiveDefault(t *testing.T) {
	resetConfig(t)
	require.NoError(t, bindFlags(serveCmd, map[string]string{keyOutputExcerpt: "excerpt"}))

	cfg, err := loadConfig()
	require.NoError(t, err)
	def, err := serveCmd.Flags().GetInt("excerpt")
	require.NoError(t, err)
	assert.Equal(t, def, cfg.Output.Excerpt)
	assert.Equal(t, types.DefaultExcerpt, cfg.Output.Excerpt)
}

func TestResolveCredentials(t *testing.T) {
	tests := []struct {
		name    string
		flagID  string
		flagSec string
		config  map[string]string
		store   secrets.Store
		want    types.Credentials
	}{
		{
			name:    "flags win",
			flagID:  "flag-id",
			flagSec: "flag-secret",
			config:  map[string]string{keyOPSClientID: "cfg-id"},
			store:   secrets.Store{secrets.KeyClientID: "file-id"},
			want:    types.Credentials{ClientID: "flag-id", ClientSecret: "flag-secret"},
		},
		{
			name:   "config before secrets file",
			config: map[string]string{keyOPSClientID: "cfg-id"},
			store:  secrets.Store{secrets.KeyClientID: "file-id", secrets.KeyClientSecret: "file-secret"},
			want:   types.Credentials{ClientID: "cfg-id", ClientSecret: "file-secret"},
		},
		{
			name: "nothing set",
			want: types.Credentials{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetConfig(t)
			for k, v := range tt.config {
				viper.Set(k, v)
			}
			loadedSecrets = tt.store

			assert.Equal(t, tt.want, resolveCredentials(credsCommand(tt.flagID, tt.flagSec)))
		})
	}
}

func TestPromptCredentials(t *testing.T) {
	input := "my-id\nmy-secret\n"
	var prompt bytes.Buffer

	creds, err := promptCredentials(bufio.NewReader(strings.NewReader(input)), strings.NewReader(""), &prompt, types.Credentials{})
	require.NoError(t, err)
	assert.Equal(t, types.Credentials{ClientID: "my-id", ClientSecret: "my-secret"}, creds)
	assert.Contains(t, prompt.String(), "Client ID EPO: ")
	assert.Contains(t, prompt.String(), "Client Secret EPO: ")
	assert.NotContains(t, prompt.String(), "my-secret")
}

func TestPromptCredentials_OnlyMissing(t *testing.T) {
	var prompt bytes.Buffer
	creds, err := promptCredentials(bufio.NewReader(strings.NewReader("typed-secret\n")), nil, &prompt,
		types.Credentials{ClientID: "known-id"})
	require.NoError(t, err)
	assert.Equal(t, "typed-secret", creds.ClientSecret)
	assert.NotContains(t, prompt.String(), "Client ID EPO")
}

func TestPromptCredentials_Empty(t *testing.T) {
	_, err := promptCredentials(bufio.NewReader(strings.NewReader("\n\n")), nil, &bytes.Buffer{}, types.Credentials{})
	assert.ErrorIs(t, err, pipeline.ErrIncompleteInput)
}

type scriptedSearcher struct {
	questions []string
	fail      map[string]error
}

func (s *scriptedSearcher) Run(_ context.Context, req pipeline.Request) (types.SearchReport, error) {
	s.questions = append(s.questions, req.Question)
	if err := s.fail[req.Question]; err != nil {
		return types.SearchReport{}, err
	}
	return types.SearchReport{
		Question: req.Question,
		Results: []types.RankedResult{{
			Reference: types.DocumentReference{Country: "EP", Number: "1", Kind: "A1"},
			Title:     "T",
			Abstract:  "answer to " + req.Question,
			Score:     0.5,
		}},
	}, nil
}

func TestQuestionLoop(t *testing.T) {
	s := &scriptedSearcher{fail: map[string]error{"broken": errors.New("OPS search returned HTTP 500")}}
	var out, errw, prompt bytes.Buffer
	p := output.NewPrinterWithWriters(&out, &errw, false)
	in := bufio.NewReader(strings.NewReader("first\n\nbroken\nsecond\nexit\nignored\n"))

	err := questionLoop(context.Background(), in, &prompt, s, types.Credentials{ClientID: "i", ClientSecret: "s"}, p, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "broken", "second"}, s.questions, "blank lines skipped, errors do not end the session")
	assert.Contains(t, out.String(), "answer to first")
	assert.Contains(t, out.String(), "answer to second")
	assert.Contains(t, errw.String(), "Errore: OPS search returned HTTP 500")
	assert.Contains(t, prompt.String(), "Domanda> ")
}

func TestQuestionLoop_EOFWithoutNewline(t *testing.T) {
	s := &scriptedSearcher{}
	p := output.NewPrinterWithWriters(&bytes.Buffer{}, &bytes.Buffer{}, false)

	err := questionLoop(context.Background(), bufio.NewReader(strings.NewReader("last question")), &bytes.Buffer{}, s,
		types.Credentials{ClientID: "i", ClientSecret: "s"}, p, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"last question"}, s.questions)
}

func TestQuestionLoop_CancelAtIdlePrompt(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	s := &scriptedSearcher{}
	p := output.NewPrinterWithWriters(&bytes.Buffer{}, &bytes.Buffer{}, false)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- questionLoop(ctx, bufio.NewReader(pr), &bytes.Buffer{}, s, types.Credentials{ClientID: "i", ClientSecret: "s"}, p, 0)
	}()
	time.AfterFunc(20*time.Millisecond, cancel)

	select {
	case err := <-done:
		assert.NoError(t, err)
		assert.Empty(t, s.questions)
	case <-time.After(2 * time.Second):
		t.Fatal("questionLoop still blocked on input after cancel")
	}
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)
	assert.Equal(t, "patent-rank "+version+"\n", buf.String())
}
