// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package aqbar draws an air quality reading as a 1D bar on the terminal
// (stdout) using ANSI color codes.
//
// The bar length follows the value and its color follows the band the value
// falls in, for example the PM2.5 breakpoints of the US EPA air quality
// index. The bar is also a display.Drawer so that any 1 pixel high image can
// be rendered on it.
package aqbar

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/display"
)

// Band colors values up to and including Max.
type Band struct {
	Max   float64
	Color color.NRGBA
}

var (
	// Off is the color of unlit cells.
	Off = color.NRGBA{0, 0, 0, 255}
	// Unknown fills the bar when the value is NaN.
	Unknown = color.NRGBA{0x60, 0x60, 0x60, 255}
)

// PM25 holds the US EPA AQI breakpoints for PM2.5 in µg/m³.
var PM25 = []Band{
	{12, color.NRGBA{0x00, 0xe4, 0x00, 255}},
	{35.4, color.NRGBA{0xff, 0xff, 0x00, 255}},
	{55.4, color.NRGBA{0xff, 0x7e, 0x00, 255}},
	{150.4, color.NRGBA{0xff, 0x00, 0x00, 255}},
	{250.4, color.NRGBA{0x8f, 0x3f, 0x97, 255}},
	{math.Inf(1), color.NRGBA{0x7e, 0x00, 0x23, 255}},
}

// Index holds bands for the Sensirion VOC and NOx indexes, 100 being the
// average of the last 24 hours.
var Index = []Band{
	{100, color.NRGBA{0x00, 0xe4, 0x00, 255}},
	{200, color.NRGBA{0xff, 0xff, 0x00, 255}},
	{300, color.NRGBA{0xff, 0x7e, 0x00, 255}},
	{math.Inf(1), color.NRGBA{0xff, 0x00, 0x00, 255}},
}

// Opts represents the options available for this display.
type Opts struct {
	// X is the number of cells of the bar.
	X int
	// Max is the value that lights the full bar.
	Max float64
	// Bands defaults to PM25.
	Bands []Band
	// Label is printed after the bar, followed by the value.
	Label   string
	Palette *ansi256.Palette
	// W defaults to a colorable stdout.
	W io.Writer

	_ struct{}
}

// Dev is a bar that outputs to the console.
type Dev struct {
	w       io.Writer
	l       int
	max     float64
	bands   []Band
	label   string
	palette ansi256.Palette

	text   string
	pixels []byte
	buf    bytes.Buffer
}

// New returns a Dev that displays at the console.
func New(opts *Opts) (*Dev, error) {
	if opts.X <= 0 {
		return nil, errors.New("aqbar: X must be positive")
	}
	if !(opts.Max > 0) {
		return nil, errors.New("aqbar: Max must be positive")
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	d := &Dev{
		w:       opts.W,
		l:       opts.X,
		max:     opts.Max,
		bands:   opts.Bands,
		label:   opts.Label,
		palette: *p,
		pixels:  make([]byte, 3*opts.X),
	}
	if d.w == nil {
		d.w = colorable.NewColorableStdout()
	}
	if d.bands == nil {
		d.bands = PM25
	}
	return d, nil
}

func (d *Dev) String() string {
	return "aqbar: " + d.label
}

// Halt implements conn.Resource.
//
// It resets the terminal colors and moves to the next line.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\n\033[0m"))
	return err
}

// BandColor returns the color of the band v falls in.
func (d *Dev) BandColor(v float64) color.NRGBA {
	if math.IsNaN(v) {
		return Unknown
	}
	for _, b := range d.bands {
		if v <= b.Max {
			return b.Color
		}
	}
	return d.bands[len(d.bands)-1].Color
}

// Show draws v. The number of lit cells is v/Max of the bar, rounded, with
// at least one cell lit for any positive value. NaN lights the whole bar in
// the Unknown color.
func (d *Dev) Show(v float64) error {
	img := image.NewNRGBA(d.Bounds())
	c := d.BandColor(v)
	lit := d.l
	if !math.IsNaN(v) {
		lit = int(math.Round(v / d.max * float64(d.l)))
		if lit > d.l {
			lit = d.l
		}
		if lit < 1 && v > 0 {
			lit = 1
		}
	}
	for x := range d.l {
		if x < lit {
			img.SetNRGBA(x, 0, c)
		} else {
			img.SetNRGBA(x, 0, Off)
		}
	}
	if math.IsNaN(v) {
		d.text = d.label + " n/a"
	} else {
		d.text = fmt.Sprintf("%s %.1f", d.label, v)
	}
	return d.Draw(d.Bounds(), img, image.Point{})
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return color.NRGBAModel
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return image.Rectangle{Max: image.Point{X: d.l, Y: 1}}
}

// Draw implements display.Drawer. Only the first row of src is used.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	r = r.Intersect(d.Bounds())
	srcR := src.Bounds()
	srcR.Min = srcR.Min.Add(sp)
	if dX := r.Dx(); dX < srcR.Dx() {
		srcR.Max.X = srcR.Min.X + dX
	}
	deltaX3 := 3 * (r.Min.X - srcR.Min.X)
	for sX := srcR.Min.X; sX < srcR.Max.X; sX++ {
		r16, g16, b16, _ := src.At(sX, srcR.Min.Y).RGBA()
		dX3 := 3*sX + deltaX3
		d.pixels[dX3] = byte(r16 >> 8)
		d.pixels[dX3+1] = byte(g16 >> 8)
		d.pixels[dX3+2] = byte(b16 >> 8)
	}
	return d.refresh()
}

func (d *Dev) refresh() error {
	d.buf.Reset()
	_, _ = d.buf.WriteString("\r\033[0m")
	for i := 0; i < len(d.pixels)/3; i++ {
		c := color.NRGBA{d.pixels[3*i], d.pixels[3*i+1], d.pixels[3*i+2], 255}
		_, _ = io.WriteString(&d.buf, d.palette.Block(c))
	}
	_, _ = d.buf.WriteString("\033[0m ")
	_, _ = d.buf.WriteString(d.text)
	_, err := d.buf.WriteTo(d.w)
	return err
}

var _ display.Drawer = &Dev{}
var _ fmt.Stringer = &Dev{}
