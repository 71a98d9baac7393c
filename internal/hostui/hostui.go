// Package hostui is the SDL2 host shell: window, texture upload, audio
// queue, and keyboard-to-gamepad translation. It sits outside the emulator
// core's tested contract; the core only sees controller updates and sinks.
package hostui

import (
	"errors"
	"fmt"
	"time"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/ktakagaki/nescore/internal/apu"
	"github.com/ktakagaki/nescore/internal/console"
	"github.com/ktakagaki/nescore/internal/input"
	"github.com/ktakagaki/nescore/internal/logx"
	"github.com/ktakagaki/nescore/internal/ppu"
)

// Shell owns the SDL resources for one emulator session.
type Shell struct {
	console  *console.Console
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	audio    sdl.AudioDeviceID
	paused   bool
}

// New creates the window, renderer, streaming texture and audio queue.
func New(c *console.Console, title string, scale int) (*Shell, error) {
	if scale < 1 {
		scale = 1
	}
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_AUDIO); err != nil {
		return nil, fmt.Errorf("hostui: sdl init: %w", err)
	}

	window, err := sdl.CreateWindow(title,
		sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(ppu.FrameWidth*scale), int32(ppu.FrameHeight*scale),
		sdl.WINDOW_SHOWN)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("hostui: create window: %w", err)
	}

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("hostui: create renderer: %w", err)
	}

	// The core emits ARGB8888 (B,G,R,A in memory on little-endian hosts),
	// so the texture consumes the frame buffer without conversion.
	texture, err := renderer.CreateTexture(sdl.PIXELFORMAT_ARGB8888,
		sdl.TEXTUREACCESS_STREAMING, ppu.FrameWidth, ppu.FrameHeight)
	if err != nil {
		renderer.Destroy()
		window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("hostui: create texture: %w", err)
	}

	spec := sdl.AudioSpec{
		Freq:     apu.SampleRate,
		Format:   sdl.AUDIO_U8,
		Channels: 1,
		Samples:  1024,
	}
	audio, err := sdl.OpenAudioDevice("", false, &spec, nil, 0)
	if err != nil {
		logx.Warnf("hostui: audio unavailable: %v", err)
		audio = 0
	} else {
		sdl.PauseAudioDevice(audio, false)
	}

	s := &Shell{
		console:  c,
		window:   window,
		renderer: renderer,
		texture:  texture,
		audio:    audio,
	}
	if audio != 0 {
		c.SetAudioSink(s.queueAudio)
	}
	return s, nil
}

// Destroy releases all SDL resources.
func (s *Shell) Destroy() {
	if s.audio != 0 {
		sdl.CloseAudioDevice(s.audio)
	}
	s.texture.Destroy()
	s.renderer.Destroy()
	s.window.Destroy()
	sdl.Quit()
}

func (s *Shell) queueAudio(samples []uint8) {
	if err := sdl.QueueAudio(s.audio, samples); err != nil {
		logx.Warnf("hostui: queue audio: %v", err)
	}
}

// Loop runs the emulator against wall time until the window closes or the
// core halts fatally.
func (s *Shell) Loop() error {
	last := time.Now()
	for {
		if quit := s.handleEvents(); quit {
			return nil
		}

		now := time.Now()
		elapsed := now.Sub(last)
		last = now

		if s.paused {
			sdl.Delay(16)
			continue
		}

		// Clamp long stalls (window drags, debugger pauses) so the core
		// doesn't try to catch up a whole stretch at once.
		if elapsed > 100*time.Millisecond {
			elapsed = 100 * time.Millisecond
		}

		frame, err := s.console.Run(uint64(elapsed.Microseconds()))
		if err != nil {
			if errors.Is(err, console.ErrCPUHalt) {
				return fmt.Errorf("hostui: emulation stopped: %w", err)
			}
			return err
		}
		if frame != nil {
			s.present(frame)
		} else {
			sdl.Delay(1)
		}
	}
}

func (s *Shell) present(frame []uint8) {
	if len(frame) == 0 {
		return
	}
	if err := s.texture.Update(nil, unsafe.Pointer(&frame[0]), ppu.FrameWidth*4); err != nil {
		logx.Warnf("hostui: texture update: %v", err)
		return
	}
	s.renderer.Copy(s.texture, nil, nil)
	s.renderer.Present()
}

func (s *Shell) handleEvents() (quit bool) {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			return true
		case *sdl.KeyboardEvent:
			if s.handleKey(e) {
				return true
			}
		}
	}
	return false
}

// handleKey translates the default mapping: arrows for directions, D=B,
// F=A, left control=Start, left alt=Select. Escape exits, R resets, space
// toggles pause.
func (s *Shell) handleKey(e *sdl.KeyboardEvent) (quit bool) {
	pressed := e.State == sdl.PRESSED
	switch e.Keysym.Sym {
	case sdl.K_UP:
		s.console.UpdateController(0, input.Up, pressed)
	case sdl.K_DOWN:
		s.console.UpdateController(0, input.Down, pressed)
	case sdl.K_LEFT:
		s.console.UpdateController(0, input.Left, pressed)
	case sdl.K_RIGHT:
		s.console.UpdateController(0, input.Right, pressed)
	case sdl.K_d:
		s.console.UpdateController(0, input.B, pressed)
	case sdl.K_f:
		s.console.UpdateController(0, input.A, pressed)
	case sdl.K_LCTRL:
		s.console.UpdateController(0, input.Start, pressed)
	case sdl.K_LALT:
		s.console.UpdateController(0, input.Select, pressed)
	case sdl.K_ESCAPE:
		if pressed {
			return true
		}
	case sdl.K_r:
		if pressed {
			s.console.Reset()
		}
	case sdl.K_SPACE:
		if pressed {
			s.paused = !s.paused
		}
	}
	return false
}
