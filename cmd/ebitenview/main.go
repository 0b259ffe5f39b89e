// Command ebitenview is a software-rendered Mandelbrot viewer built on ebiten.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/stewi1014/mandelview/config"
	"github.com/stewi1014/mandelview/input"
	"github.com/stewi1014/mandelview/logging"
	"github.com/stewi1014/mandelview/scene"
	"github.com/stewi1014/mandelview/software"
)

type Game struct {
	scene    *scene.Scene
	renderer *software.Renderer
	poller   input.Poller

	// dirty is set by the scene when the view needs rendering again.
	dirty bool

	canvas        *ebiten.Image
	width, height int
}

func NewGame(ctx context.Context, cfg config.Config) (*Game, error) {
	width, height := cfg.Size()
	g := &Game{
		renderer: software.New(ctx),
		width:    width,
		height:   height,
	}
	g.scene = scene.New(cfg.View, g.renderer, width, height, func() { g.dirty = true })
	g.renderer.Resize(width, height)

	program, err := cfg.LoadProgram()
	if err != nil {
		return nil, err
	}
	if err := g.scene.SetProgram(program); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Game) pollInput() input.Sample {
	mx, my := ebiten.CursorPosition()
	_, wheelY := ebiten.Wheel()

	return input.Sample{
		X:      float64(mx),
		Y:      float64(my),
		Down:   ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft),
		Inside: mx >= 0 && my >= 0 && mx < g.width && my < g.height,
		// ebiten reports scrolling up as positive.
		DeltaY: -wheelY,
	}
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.scene.Reset()
	}

	for _, ev := range g.poller.Events(g.pollInput()) {
		g.scene.HandleEvent(ev)
	}

	if g.dirty {
		g.dirty = false
		g.scene.Draw()
	}

	select {
	case frame := <-g.renderer.Frames():
		size := frame.Image.Bounds().Size()
		if g.canvas == nil || g.canvas.Bounds().Size() != size {
			if g.canvas != nil {
				g.canvas.Deallocate()
			}
			g.canvas = ebiten.NewImage(size.X, size.Y)
		}
		g.canvas.WritePixels(frame.Image.Pix)
	default:
	}

	return nil
}

// Draw stretches the last finished frame over the screen, so a frame rendered
// for an older window size still fills it until the next one arrives.
func (g *Game) Draw(screen *ebiten.Image) {
	if g.canvas == nil {
		return
	}

	op := &ebiten.DrawImageOptions{}
	cw, ch := g.canvas.Bounds().Dx(), g.canvas.Bounds().Dy()
	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	op.GeoM.Scale(float64(sw)/float64(cw), float64(sh)/float64(ch))
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(g.canvas, op)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != g.width || outsideHeight != g.height {
		g.width, g.height = outsideWidth, outsideHeight
		g.scene.Resize(outsideWidth, outsideHeight)
	}
	return outsideWidth, outsideHeight
}

func main() {
	cfg, err := config.ParseView(os.Args[0], os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logging.SetLogger(logging.New(os.Stderr, cfg.Debug))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	game, err := NewGame(ctx, cfg)
	if err != nil {
		logging.Logger().Error("ebitenview failed", "err", err)
		os.Exit(1)
	}

	width, height := cfg.Size()
	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowTitle("mandelview")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	err = ebiten.RunGame(game)
	game.renderer.Stop()
	if err != nil {
		logging.Logger().Error("ebitenview failed", "err", err)
		os.Exit(1)
	}
}
