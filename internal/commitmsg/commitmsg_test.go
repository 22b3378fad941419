package commitmsg_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/petasbytes/review-agent/internal/commitmsg"
	"github.com/petasbytes/review-agent/internal/gitdiff"
	"github.com/petasbytes/review-agent/internal/metrics"
	"github.com/petasbytes/review-agent/internal/provider"
	"github.com/petasbytes/review-agent/internal/provider/providertest"
)

var twoFiles = []gitdiff.Record{
	{File: "src/a.ts", Diff: "-x\n+y"},
	{File: "src/b.ts", Diff: "+z"},
}

func TestGenerate_EmptyInputSkipsModel(t *testing.T) {
	client := providertest.New()
	rec := metrics.NewRecorder()
	g := commitmsg.New(client, commitmsg.WithRecorder(rec))

	require.Equal(t, "chore: no changes detected", g.Generate(context.Background(), nil))
	require.Equal(t, "chore: no changes detected", g.Generate(context.Background(), []gitdiff.Record{}))
	require.Zero(t, client.Calls())
	require.Equal(t, 2.0, rec.CommitMessages(metrics.SourceNoChanges))
}

func TestGenerate_ModelReplyIsTrimmed(t *testing.T) {
	client := providertest.New(providertest.Text("  feat: add widget\n"))
	rec := metrics.NewRecorder()
	g := commitmsg.New(client, commitmsg.WithModel("m1"), commitmsg.WithMaxTokens(256), commitmsg.WithRecorder(rec))

	require.Equal(t, "feat: add widget", g.Generate(context.Background(), twoFiles))
	require.Equal(t, 1.0, rec.CommitMessages(metrics.SourceModel))

	reqs := client.Requests()
	require.Len(t, reqs, 1)
	require.Equal(t, "m1", reqs[0].Model)
	require.Equal(t, int64(256), reqs[0].MaxTokens)
	require.Empty(t, reqs[0].Tools)
	require.Len(t, reqs[0].Messages, 1)
	prompt := reqs[0].Messages[0].Text
	require.Contains(t, prompt, "File: src/a.ts\n-x\n+y\n\nFile: src/b.ts\n+z")
	require.Contains(t, prompt, "Keep it under 100 characters.")
}

func TestGenerate_FallbackOnTransportError(t *testing.T) {
	client := providertest.New(providertest.Turn{Err: &provider.TransportError{Provider: "fake", Err: errors.New("503")}})
	rec := metrics.NewRecorder()
	g := commitmsg.New(client, commitmsg.WithRecorder(rec))

	require.Equal(t, "chore: update src/a.ts, src/b.ts", g.Generate(context.Background(), twoFiles))
	require.Equal(t, 1.0, rec.CommitMessages(metrics.SourceFallback))
	require.Equal(t, 0.0, rec.CommitMessages(metrics.SourceModel))
}

func TestGenerate_FallbackOnBlankReply(t *testing.T) {
	g := commitmsg.New(providertest.New(providertest.Text("  \n\t")))
	require.Equal(t, "chore: update src/a.ts, src/b.ts", g.Generate(context.Background(), twoFiles))
}

func TestGenerate_NilClientFallsBack(t *testing.T) {
	g := commitmsg.New(nil)
	require.Equal(t, "chore: update src/a.ts, src/b.ts", g.Generate(context.Background(), twoFiles))
}

func TestComplete_Errors(t *testing.T) {
	cause := &provider.TransportError{Provider: "fake", Err: errors.New("boom")}
	_, err := commitmsg.New(providertest.New(providertest.Turn{Err: cause})).Complete(context.Background(), twoFiles)
	var te *provider.TransportError
	require.ErrorAs(t, err, &te)

	_, err = commitmsg.New(providertest.New(providertest.Text(""))).Complete(context.Background(), twoFiles)
	require.ErrorIs(t, err, commitmsg.ErrEmptyMessage)

	_, err = commitmsg.New(nil).Complete(context.Background(), twoFiles)
	require.ErrorIs(t, err, commitmsg.ErrNoClient)
}

func TestWithMaxLength_ZeroOmitsHint(t *testing.T) {
	client := providertest.New(providertest.Text("fix: x"))
	commitmsg.New(client, commitmsg.WithMaxLength(0)).Generate(context.Background(), twoFiles)
	require.NotContains(t, client.Requests()[0].Messages[0].Text, "Keep it under")
}

func TestFallback(t *testing.T) {
	tests := []struct {
		name  string
		diffs []gitdiff.Record
		want  string
	}{
		{"empty", nil, "chore: no changes detected"},
		{"single", []gitdiff.Record{{File: "README.md"}}, "chore: update README.md"},
		{"record order kept", []gitdiff.Record{{File: "z.go"}, {File: "a.go"}}, "chore: update z.go, a.go"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, commitmsg.Fallback(tt.diffs))
		})
	}
}
