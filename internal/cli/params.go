package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nornoe/skyavatar/pkg/avatar"
	"github.com/nornoe/skyavatar/pkg/draft"
	"github.com/nornoe/skyavatar/pkg/render/overlay"
)

// defaultParams is used for any field neither a flag nor the draft sets.
var defaultParams = avatar.Params{
	Background: avatar.BackgroundBlack,
	Shape:      "circle",
	Eyes:       "round",
	Mouth:      "smile",
	Color:      "#1185fe",
	Rotation:   0,
}

// paramFlags binds the avatar parameter flags shared by render, publish and
// draft save.
type paramFlags struct {
	values    avatar.Params
	fromDraft bool
}

func (f *paramFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.values.Background, "background", defaultParams.Background, "background color ("+avatar.BackgroundBlack+" or "+avatar.BackgroundLight+")")
	fl.StringVar(&f.values.Shape, "shape", defaultParams.Shape, "shape name (see 'skyavatar shapes')")
	fl.StringVar(&f.values.Eyes, "eyes", defaultParams.Eyes, "eyes overlay name")
	fl.StringVar(&f.values.Mouth, "mouth", defaultParams.Mouth, "mouth overlay name")
	fl.StringVar(&f.values.Color, "color", defaultParams.Color, "shape fill color (#RRGGBB)")
	fl.Float64Var(&f.values.Rotation, "rotation", defaultParams.Rotation, "rotation in degrees [0, 360)")
	fl.BoolVar(&f.fromDraft, "draft", false, "start from the saved draft; explicit flags still win")

	assets := overlay.Default()
	completeFrom(cmd, "background", avatar.Backgrounds)
	completeFrom(cmd, "shape", avatar.ShapeNames())
	completeFrom(cmd, "eyes", assets.Names(overlay.Eyes))
	completeFrom(cmd, "mouth", assets.Names(overlay.Mouth))
}

// resolve returns the parameters for this invocation. With --draft the saved
// draft is the base and only flags given on the command line override it.
func (f *paramFlags) resolve(ctx context.Context, cmd *cobra.Command, store draft.Store) (avatar.Params, error) {
	if !f.fromDraft {
		return f.values, nil
	}
	saved, err := store.Load(ctx)
	if err != nil {
		return avatar.Params{}, err
	}
	if saved == nil {
		return avatar.Params{}, fmt.Errorf("no saved draft (run 'skyavatar draft save' first)")
	}
	return mergeFlags(*saved, f.values, cmd.Flags()), nil
}

// mergeFlags copies every field of set whose flag was given explicitly onto
// base.
func mergeFlags(base, set avatar.Params, flags *pflag.FlagSet) avatar.Params {
	if flags.Changed("background") {
		base.Background = set.Background
	}
	if flags.Changed("shape") {
		base.Shape = set.Shape
	}
	if flags.Changed("eyes") {
		base.Eyes = set.Eyes
	}
	if flags.Changed("mouth") {
		base.Mouth = set.Mouth
	}
	if flags.Changed("color") {
		base.Color = set.Color
	}
	if flags.Changed("rotation") {
		base.Rotation = set.Rotation
	}
	return base
}

func completeFrom(cmd *cobra.Command, flag string, values []string) {
	_ = cmd.RegisterFlagCompletionFunc(flag, func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	})
}

// newDraftStore opens the draft store in the default location.
func (c *CLI) newDraftStore() (*draft.FileStore, error) {
	return draft.NewFileStore("", c.Logger)
}

// describeParams renders p on one line for status output.
func describeParams(p avatar.Params) string {
	return fmt.Sprintf("%s %s with %s eyes and %s mouth on %s, rotated %s",
		p.Color, p.Shape, p.Eyes, p.Mouth, p.Background, formatRotation(p.Rotation))
}

func formatRotation(r float64) string {
	return strconv.FormatFloat(r, 'f', -1, 64) + "°"
}

// paramArgs returns the flags that reproduce p.
func paramArgs(p avatar.Params) string {
	args := []string{
		"--background", strconv.Quote(p.Background),
		"--shape", p.Shape,
		"--eyes", p.Eyes,
		"--mouth", p.Mouth,
		"--color", strconv.Quote(p.Color),
		"--rotation", strconv.FormatFloat(p.Rotation, 'f', -1, 64),
	}
	return strings.Join(args, " ")
}
