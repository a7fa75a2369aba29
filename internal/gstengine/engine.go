//go:build linux && cgo

// Package gstengine runs pipeline graphs on GStreamer through the go-gst
// bindings.
package gstengine

import (
	"context"
	"sync"
	"time"

	"github.com/go-gst/go-gst/gst"

	"snipcast.app/snipcast/pipeline"
)

var initOnce sync.Once

// New initialises GStreamer and returns an engine backed by it. The library
// is initialised once per process.
func New() (pipeline.Engine, error) {
	initOnce.Do(func() {
		gst.Init(nil)
	})
	return &engine{}, nil
}

type engine struct{}

func (e *engine) Registry() pipeline.Registry {
	return registry{}
}

func (e *engine) Launch(description string) (pipeline.Graph, error) {
	p, err := gst.NewPipelineFromString(description)
	if err != nil {
		return nil, err
	}
	return &graph{pipeline: p}, nil
}

// registry probes element availability by instantiating the factory, which
// also catches plugins that are listed but fail to load.
type registry struct{}

func (registry) CanCreate(element string) bool {
	el, err := gst.NewElement(element)
	if err != nil || el == nil {
		return false
	}
	return true
}

type graph struct {
	pipeline  *gst.Pipeline
	closeOnce sync.Once
	closeErr  error
}

func (g *graph) Play() error {
	return g.pipeline.SetState(gst.StatePlaying)
}

func (g *graph) Pause() error {
	return g.pipeline.SetState(gst.StatePaused)
}

func (g *graph) SendEOS() {
	g.pipeline.SendEvent(gst.NewEOSEvent())
}

// WaitEOS drains the bus in short slices so a cancelled context is noticed
// promptly. A bus error message ends the wait with that error.
func (g *graph) WaitEOS(ctx context.Context) error {
	bus := g.pipeline.GetPipelineBus()
	slice := gst.ClockTime(200 * time.Millisecond)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg := bus.TimedPopFiltered(slice, gst.MessageEOS|gst.MessageError)
		if msg == nil {
			continue
		}

		switch msg.Type() {
		case gst.MessageEOS:
			return nil
		case gst.MessageError:
			return msg.ParseError()
		}
	}
}

// VideoSize reads the negotiated caps off the first videoconvert's sink pad.
// Parse-launch names elements factory0, factory1, so the video branch's
// converter is always videoconvert0.
func (g *graph) VideoSize() (uint32, uint32, bool) {
	element, err := g.pipeline.GetElementByName("videoconvert0")
	if err != nil || element == nil {
		return 0, 0, false
	}

	pad := element.GetStaticPad("sink")
	if pad == nil {
		return 0, 0, false
	}

	caps := pad.GetCurrentCaps()
	if caps == nil || caps.GetSize() == 0 {
		return 0, 0, false
	}
	defer caps.Unref()

	structure := caps.GetStructureAt(0)
	if structure == nil {
		return 0, 0, false
	}

	widthVal, err := structure.GetValue("width")
	if err != nil {
		return 0, 0, false
	}
	heightVal, err := structure.GetValue("height")
	if err != nil {
		return 0, 0, false
	}

	width, wok := widthVal.(int)
	height, hok := heightVal.(int)
	if !wok || !hok || width <= 0 || height <= 0 {
		return 0, 0, false
	}

	return uint32(width), uint32(height), true
}

func (g *graph) Close() error {
	g.closeOnce.Do(func() {
		g.closeErr = g.pipeline.SetState(gst.StateNull)
	})
	return g.closeErr
}
