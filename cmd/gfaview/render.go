package main

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/gogpu/gputypes"
	"github.com/spf13/cobra"

	"github.com/gfaview/gfaview"
	"github.com/gfaview/gfaview/internal/gpu"
	"github.com/gfaview/gfaview/overlay"
	"github.com/gfaview/gfaview/view"
)

func newRenderCmd(cfg *config) *cobra.Command {
	var (
		output      string
		overlayPath string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render one frame of the graph to a PNG",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := loadInputs(cfg)
			if err != nil {
				return err
			}

			backend := gpu.NewBackend()
			if err := backend.Init(); err != nil {
				return err
			}
			defer backend.Close()

			theme := overlay.LightDefault()
			if cfg.Dark {
				theme = overlay.DarkDefault()
			}
			r, err := gpu.NewRenderer(backend.Device(), backend.Queue(), in.graph, in.positions, theme)
			if err != nil {
				return err
			}
			defer r.Destroy()

			dims := view.ScreenDims{Width: float32(cfg.Width), Height: float32(cfg.Height)}
			v := view.DefaultView().
				FitRect(in.positions.BoundingBox(), dims).
				ClampScale(cfg.ScaleMin, cfg.ScaleMax)

			bg := theme.Background
			params := gpu.FrameParams{
				Width:         cfg.Width,
				Height:        cfg.Height,
				Clip:          v.ClipMatrix(dims),
				Scale:         v.Scale,
				NodeWidth:     cfg.NodeWidth,
				TexturePeriod: float32(len(theme.NodeColors)),
				OverlayMode:   gpu.NodeColorTheme,
				EdgeWidth:     cfg.EdgeWidth,
				EdgeColor:     gfaview.RGBA{R: 0.35, G: 0.35, B: 0.35, A: 1},
				Bow:           0.25,
				Background:    gputypes.Color{R: float64(bg.R), G: float64(bg.G), B: float64(bg.B), A: 1},
			}

			if len(in.annots) > 0 {
				ov, labels, err := buildAnnotationOverlay(in, overlayPath)
				if err != nil {
					return err
				}
				if err := r.UploadOverlay(ov); err != nil {
					return err
				}
				params.OverlayMode = gpu.NodeColorOverlayRGB
				if labels != nil {
					params.GUI = append(params.GUI, labelMesh(r.Atlas(), labels, in.positions, v, dims))
				}
			}

			if err := r.RenderFrame(params); err != nil {
				return err
			}
			pixels, err := r.ReadFrame()
			if err != nil {
				return err
			}

			img := image.NewRGBA(image.Rect(0, 0, int(cfg.Width), int(cfg.Height)))
			copy(img.Pix, pixels)

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("render: create %s: %w", output, err)
			}
			defer f.Close()
			if err := png.Encode(f, img); err != nil {
				return fmt.Errorf("render: encode %s: %w", output, err)
			}
			return f.Close()
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "gfaview.png", "output PNG path")
	cmd.Flags().StringVar(&overlayPath, "overlay-path", "", "path annotations map onto (default: first path)")
	return cmd
}
