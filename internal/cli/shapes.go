package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nornoe/skyavatar/pkg/avatar"
	"github.com/nornoe/skyavatar/pkg/render/overlay"
)

// shapesCommand lists the values each avatar parameter accepts.
func (c *CLI) shapesCommand() *cobra.Command {
	var assetsDir string

	cmd := &cobra.Command{
		Use:     "shapes",
		Aliases: []string{"options"},
		Short:   "List shapes, overlays and backgrounds",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := overlay.WithDir(assetsDir)
			if err != nil {
				return err
			}
			printOptions(store)
			return nil
		},
	}

	cmd.Flags().StringVar(&assetsDir, "assets", "", "directory with extra eyes/ and mouth/ overlays")
	return cmd
}

func printOptions(store *overlay.Store) {
	fmt.Println(StyleTitle.Render("Avatar options"))
	printKeyValue("Backgrounds", strings.Join(avatar.Backgrounds, ", "))
	printKeyValue("Shapes", strings.Join(avatar.ShapeNames(), ", "))
	printKeyValue("Eyes", strings.Join(store.Names(overlay.Eyes), ", "))
	printKeyValue("Mouths", strings.Join(store.Names(overlay.Mouth), ", "))
	printKeyValue("Color", "#RRGGBB")
	printKeyValue("Rotation", "0 to 359.99 degrees")
}
