package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"deskshell/pkg/wm"
)

type slotView struct {
	ID       wm.SlotID `yaml:"id"`
	Geometry wm.Rect   `yaml:"geometry"`
}

type layoutView struct {
	ID    wm.LayoutID `yaml:"id"`
	Label string      `yaml:"label"`
	Slots []slotView  `yaml:"slots"`
}

// usableViewport applies the configured taskbar unless the flags gave a
// usable size directly.
func usableViewport(cmd *cobra.Command, width, height float64) (float64, float64, error) {
	if width > 0 && height > 0 {
		return width, height, nil
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return 0, 0, err
	}
	w, h := wm.NewScreen(cfg.Viewport.Width, cfg.Viewport.Height, cfg.Viewport.TaskbarHeight).Size()
	return w, h, nil
}

func newLayoutsCmd() *cobra.Command {
	var width, height float64
	cmd := &cobra.Command{
		Use:   "layouts [layout]",
		Short: "Print tiling layouts with slot geometry for a viewport",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vw, vh, err := usableViewport(cmd, width, height)
			if err != nil {
				return err
			}
			layouts := wm.Layouts()
			if len(args) == 1 {
				l, ok := wm.LookupLayout(wm.LayoutID(args[0]))
				if !ok {
					return fmt.Errorf("%w: %s", wm.ErrLayoutNotFound, args[0])
				}
				layouts = []wm.Layout{l}
			}
			views := make([]layoutView, 0, len(layouts))
			for _, l := range layouts {
				v := layoutView{ID: l.ID, Label: l.Label}
				for _, s := range l.Slots {
					v.Slots = append(v.Slots, slotView{ID: s.ID, Geometry: wm.ResolveSlotGeometry(s, vw, vh)})
				}
				views = append(views, v)
			}
			return writeYAML(cmd, views)
		},
	}
	cmd.Flags().Float64Var(&width, "width", 0, "usable viewport width (default from config)")
	cmd.Flags().Float64Var(&height, "height", 0, "usable viewport height (default from config)")
	return cmd
}

type zoneView struct {
	Zone     wm.Zone     `yaml:"zone"`
	Geometry *wm.Rect    `yaml:"geometry,omitempty"`
	LayoutID wm.LayoutID `yaml:"layoutId,omitempty"`
	SlotID   wm.SlotID   `yaml:"slotId,omitempty"`
}

func newZoneCmd() *cobra.Command {
	var width, height float64
	cmd := &cobra.Command{
		Use:   "zone X Y",
		Short: "Print the snap zone under a pointer position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid X %q: %w", args[0], err)
			}
			y, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid Y %q: %w", args[1], err)
			}
			vw, vh, err := usableViewport(cmd, width, height)
			if err != nil {
				return err
			}
			z, rect, ok := wm.ComputeSnapZone(x, y, vw, vh)
			view := zoneView{Zone: z}
			if ok {
				view.Geometry = &rect
				view.LayoutID, view.SlotID, _ = wm.InferLayoutFromZone(z)
			}
			return writeYAML(cmd, view)
		},
	}
	cmd.Flags().Float64Var(&width, "width", 0, "usable viewport width (default from config)")
	cmd.Flags().Float64Var(&height, "height", 0, "usable viewport height (default from config)")
	return cmd
}

func writeYAML(cmd *cobra.Command, v any) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
