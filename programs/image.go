package programs

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stewi1014/mandelview/logging"
)

func WrapWithProgress(img *image.Image) func() float64 {
	p := &ProgressImage{
		Image: *img,
	}

	*img = p
	return p.Progress
}

// ProgressImage counts the pixels read through it. It is safe to read from
// several goroutines at once.
type ProgressImage struct {
	image.Image
	count atomic.Int64
}

func (i *ProgressImage) At(x, y int) color.Color {
	i.count.Add(1)
	return i.Image.At(x, y)
}

func (i *ProgressImage) Progress() float64 {
	end := i.Bounds().Dx() * i.Bounds().Dy()
	if end == 0 {
		return 1
	}
	return float64(i.count.Load()) / float64(end)
}

func (i *ProgressImage) Opaque() bool {
	return true
}

// AntiAlias9x samples 9 positions for each sampled position,
// returning the average colour.
//
// antialias is the number of pixels apart the sampled locations are.
func AntiAlias9x(img Image, antialias float64) Image {
	if antialias == 0 {
		logging.Logger().Warn("image uselessly antialiased with distance of 0")
	}

	return &antialias9xImage{
		Image: img,
		offset: mgl64.Vec2{
			2 * antialias / float64(img.Bounds().Dx()),
			2 * antialias / float64(img.Bounds().Dy()),
		},
	}
}

type antialias9xImage struct {
	Image
	offset mgl64.Vec2
}

func (i *antialias9xImage) GetPixel(pos mgl64.Vec2) mgl32.Vec3 {
	avg := mgl32.Vec3{}
	for _, dx := range [3]float64{-i.offset[0], 0, i.offset[0]} {
		for _, dy := range [3]float64{-i.offset[1], 0, i.offset[1]} {
			avg = avg.Add(i.Image.GetPixel(mgl64.Vec2{pos[0] + dx, pos[1] + dy}))
		}
	}
	return avg.Mul(1 / float32(9))
}

// ToImage samples img at pixel centres, mapping the pixel grid onto
// normalised device coordinates the same way the viewport does.
func ToImage(img Image) image.Image {
	return &imageImage{
		Image:  img,
		width:  float64(img.Bounds().Dx()),
		height: float64(img.Bounds().Dy()),
	}
}

type imageImage struct {
	Image
	width, height float64
}

// PixelNDC returns the normalised device coordinate of the centre of pixel
// (x, y) in a width by height image.
func PixelNDC(x, y int, width, height float64) mgl64.Vec2 {
	return mgl64.Vec2{
		2 * ((float64(x)+0.5)/width - 0.5),
		2 * (0.5 - (float64(y)+0.5)/height),
	}
}

func (i *imageImage) At(x, y int) color.Color {
	return toNRGBA(i.GetPixel(PixelNDC(x, y, i.width, i.height)))
}

func (i *imageImage) ColorModel() color.Model {
	return color.NRGBAModel
}

func (i *imageImage) Opaque() bool {
	return true
}

func toNRGBA(c mgl32.Vec3) color.NRGBA {
	return color.NRGBA{
		R: channel(c[0]),
		G: channel(c[1]),
		B: channel(c[2]),
		A: 0xff,
	}
}

func channel(v float32) uint8 {
	switch {
	case v <= 0 || v != v:
		return 0
	case v >= 1:
		return 0xff
	}
	return uint8(v*255 + 0.5)
}

func BufferImage(img image.Image) *BufferedImage {
	return &BufferedImage{
		Image: img,
	}
}

// BufferedImage renders another image into memory in parallel.
// At must not be called before Buffer returns without error.
type BufferedImage struct {
	image.Image
	buff *image.NRGBA
}

func (b *BufferedImage) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.Image.Bounds().Dx(), b.Image.Bounds().Dy())
}

func (b *BufferedImage) At(x, y int) color.Color {
	return b.buff.NRGBAAt(x, y)
}

// NRGBA returns the rendered pixels.
func (b *BufferedImage) NRGBA() *image.NRGBA {
	return b.buff
}

// Buffer renders the wrapped image in column chunks, one goroutine per chunk
// up to GOMAXPROCS at a time. It stops early and returns the context's error
// when ctx is cancelled.
func (b *BufferedImage) Buffer(ctx context.Context) error {
	b.buff = image.NewNRGBA(b.Bounds())

	min, max := b.Image.Bounds().Min, b.Image.Bounds().Max
	chunkSize := 50
	sem := make(chan struct{}, runtime.GOMAXPROCS(0))
	var wg sync.WaitGroup

	for chunkMin := min.X; chunkMin < max.X; chunkMin += chunkSize {
		chunkMax := chunkMin + chunkSize
		if chunkMax > max.X {
			chunkMax = max.X
		}

		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			for x := chunkMin; x < chunkMax; x++ {
				if ctx.Err() != nil {
					return
				}

				for y := min.Y; y < max.Y; y++ {
					c := color.NRGBAModel.Convert(b.Image.At(x, y)).(color.NRGBA)
					b.buff.SetNRGBA(x-min.X, y-min.Y, c)
				}
			}
		}()
	}

	wg.Wait()

	return ctx.Err()
}

func (b *BufferedImage) Opaque() bool {
	return true
}

// Render evaluates program over a width by height pixel grid on the CPU.
func Render(ctx context.Context, program Program, uniforms Uniforms, width, height int) (*image.NRGBA, error) {
	img, err := program.GetImage(uniforms, width, height)
	if err != nil {
		return nil, err
	}

	buff := BufferImage(ToImage(img))
	if err := buff.Buffer(ctx); err != nil {
		return nil, err
	}
	return buff.NRGBA(), nil
}

type SaveOptions struct {
	Width, Height int
	Antialias     float64
	Multithread   bool

	// Progress, if set, is called with a function reporting how much of the
	// image has been rendered, from 0 to 1.
	Progress func(func() float64)
}

// EncodePNG renders program with uniforms and writes it to w as a PNG.
func EncodePNG(ctx context.Context, w io.Writer, program Program, uniforms Uniforms, opts SaveOptions) error {
	img, err := program.GetImage(uniforms, opts.Width, opts.Height)
	if err != nil {
		return err
	}

	if opts.Antialias > 0 {
		img = AntiAlias9x(img, opts.Antialias)
	}

	out := ToImage(img)
	progress := WrapWithProgress(&out)
	if opts.Progress != nil {
		opts.Progress(progress)
	}

	if opts.Multithread {
		buff := BufferImage(out)
		if err := buff.Buffer(ctx); err != nil {
			return err
		}
		out = buff
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	logging.Logger().Debug("encoding png", "width", opts.Width, "height", opts.Height, "antialias", opts.Antialias)
	return png.Encode(w, out)
}
