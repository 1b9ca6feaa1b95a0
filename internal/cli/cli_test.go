package cli

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/nornoe/skyavatar/pkg/avatar"
	"github.com/nornoe/skyavatar/pkg/draft"
	"github.com/nornoe/skyavatar/pkg/errors"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()

	paths := [][]string{
		{"serve"},
		{"render"},
		{"publish"},
		{"archive", "list"},
		{"archive", "browse"},
		{"draft", "save"},
		{"draft", "show"},
		{"draft", "clear"},
		{"shapes"},
		{"options"},
		{"journal"},
		{"cache", "clear"},
		{"cache", "path"},
		{"completion"},
	}
	for _, p := range paths {
		cmd, _, err := root.Find(p)
		if err != nil {
			t.Errorf("Find(%v) error: %v", p, err)
			continue
		}
		if cmd == root {
			t.Errorf("Find(%v) returned the root command", p)
		}
	}

	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("root command has no --config flag")
	}
}

func paramCommand(t *testing.T, args ...string) (*cobra.Command, *paramFlags) {
	t.Helper()
	var f paramFlags
	cmd := &cobra.Command{Use: "test"}
	f.register(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags(%v) error: %v", args, err)
	}
	return cmd, &f
}

func TestParamFlagsDefaults(t *testing.T) {
	cmd, f := paramCommand(t)
	got, err := f.resolve(context.Background(), cmd, nil)
	if err != nil {
		t.Fatalf("resolve() error: %v", err)
	}
	if got != defaultParams {
		t.Errorf("resolve() = %+v, want %+v", got, defaultParams)
	}
	if err := got.Validate(nil); err != nil {
		t.Errorf("default params do not validate: %v", err)
	}
}

func TestParamFlagsFromDraft(t *testing.T) {
	ctx := context.Background()
	store, err := draft.NewFileStore(t.TempDir(), log.New(io.Discard))
	if err != nil {
		t.Fatal(err)
	}

	cmd, f := paramCommand(t, "--draft", "--eyes", "wink")
	if _, err := f.resolve(ctx, cmd, store); err == nil {
		t.Fatal("resolve() with --draft and no saved draft should fail")
	}

	saved := avatar.Params{
		Background: avatar.BackgroundLight, Shape: "heart", Eyes: "round", Mouth: "open", Color: "#00ff00", Rotation: 90,
	}
	if err := store.Save(ctx, saved); err != nil {
		t.Fatal(err)
	}

	got, err := f.resolve(ctx, cmd, store)
	if err != nil {
		t.Fatalf("resolve() error: %v", err)
	}
	want := saved
	want.Eyes = "wink"
	if got != want {
		t.Errorf("resolve() = %+v, want %+v", got, want)
	}
}

func TestMergeFlags(t *testing.T) {
	base := avatar.Params{
		Background: avatar.BackgroundBlack, Shape: "circle", Eyes: "round", Mouth: "smile", Color: "#ff0000", Rotation: 10,
	}

	tests := []struct {
		name string
		args []string
		want avatar.Params
	}{
		{"none", nil, base},
		{
			"shape and rotation",
			[]string{"--shape", "diamond", "--rotation", "180"},
			avatar.Params{Background: "#000", Shape: "diamond", Eyes: "round", Mouth: "smile", Color: "#ff0000", Rotation: 180},
		},
		{
			"explicit default still wins",
			[]string{"--rotation", "0", "--background", "#ccc"},
			avatar.Params{Background: "#ccc", Shape: "circle", Eyes: "round", Mouth: "smile", Color: "#ff0000", Rotation: 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, f := paramCommand(t, tt.args...)
			if got := mergeFlags(base, f.values, cmd.Flags()); got != tt.want {
				t.Errorf("mergeFlags() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParamArgs(t *testing.T) {
	p := avatar.Params{Background: "#ccc", Shape: "heart", Eyes: "wink", Mouth: "open", Color: "#123456", Rotation: 22.5}
	got := paramArgs(p)
	for _, want := range []string{`--background "#ccc"`, "--shape heart", "--eyes wink", "--mouth open", `--color "#123456"`, "--rotation 22.5"} {
		if !strings.Contains(got, want) {
			t.Errorf("paramArgs() = %q, missing %q", got, want)
		}
	}
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{-time.Second, "0s"},
		{time.Millisecond, "1s"},
		{1500 * time.Millisecond, "2s"},
		{59*time.Second + 100*time.Millisecond, "1m0s"},
		{4 * time.Minute, "4m0s"},
	}
	for _, tt := range tests {
		if got := formatRemaining(tt.in); got != tt.want {
			t.Errorf("formatRemaining(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExplainPublishError(t *testing.T) {
	err := explainPublishError(&errors.RateLimitedError{RetryAfter: 60})
	if !strings.Contains(err.Error(), "1m0s") {
		t.Errorf("rate limited error = %q, want remaining time", err)
	}

	other := errors.New(errors.ErrCodeInvalidShape, "unknown shape")
	if got := explainPublishError(other); got != other {
		t.Errorf("explainPublishError() changed a non-publish error: %v", got)
	}
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{2 * 24 * time.Hour, "2d ago"},
	}
	for _, tt := range tests {
		if got := formatRelativeTime(now.Add(-tt.ago), now); got != tt.want {
			t.Errorf("formatRelativeTime(-%v) = %q, want %q", tt.ago, got, tt.want)
		}
	}
}

func TestSwatch(t *testing.T) {
	tests := []struct {
		in    string
		block bool
	}{
		{"#ff8800", true},
		{"#000", true},
		{"#ccc", true},
		{"red", false},
		{"", false},
	}
	for _, tt := range tests {
		got := swatch(tt.in)
		if strings.Contains(got, "██") != tt.block {
			t.Errorf("swatch(%q) = %q", tt.in, got)
		}
	}
}
