package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unsafe"

	"github.com/cwbudde/enginesound/control"
	"github.com/cwbudde/enginesound/engine"
	"github.com/cwbudde/enginesound/preset"
	"github.com/ebitengine/oto/v3"
)

func main() {
	configPath := flag.String("config", "assets/presets/default.json", "Engine preset JSON file path")
	rpmOverride := flag.Float64("rpm", 0, "Override the preset's rpm (0 = use the preset's value)")
	sampleRate := flag.Int("sample-rate", 48000, "Playback sample rate in Hz")
	volume := flag.Float64("volume", 0.1, "Master volume applied on top of the preset's own master_volume")
	flag.Parse()

	record, err := preset.LoadJSON(*configPath, *sampleRate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading preset %q: %v\n", *configPath, err)
		os.Exit(1)
	}
	if *rpmOverride > 0 {
		record.RPM = *rpmOverride
	}
	record.MasterVolume *= *volume

	e, err := engine.NewEngine(*record)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building engine from %q: %v\n", *configPath, err)
		os.Exit(1)
	}

	handle := control.NewHandle(e)
	mailbox := control.NewMailbox(64)

	reader := &engineReader{handle: handle, mailbox: mailbox, sampleRate: *sampleRate}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   *sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   4,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening audio context: %v\n", err)
		os.Exit(1)
	}
	<-ready

	player := ctx.NewPlayer(reader)
	player.Play()
	defer player.Close()

	fmt.Printf("Playing %q live. Enter \"field=value\" (e.g. rpm=3200), \"reload <path>\", or \"quit\" on stdin, Ctrl-D to quit.\n", *configPath)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" {
			break
		}
		if rest, ok := strings.CutPrefix(line, "reload "); ok {
			go reloadPreset(handle, strings.TrimSpace(rest), *sampleRate)
			continue
		}
		field, value, ok := strings.Cut(line, "=")
		if !ok {
			fmt.Fprintf(os.Stderr, "unrecognized command %q (want field=value or reload <path>)\n", line)
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "bad value for %q: %v\n", field, err)
			continue
		}
		mailbox.Send(control.ParamMessage{Field: strings.TrimSpace(field), Value: v})
	}
}

// reloadPreset rebuilds the engine off-thread from a fresh preset file
// and atomically publishes it, leaving playback uninterrupted on a
// validation failure.
func reloadPreset(handle *control.Handle, path string, sampleRate int) {
	record, err := preset.LoadJSON(path, sampleRate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reload %s: %v\n", path, err)
		return
	}
	if err := handle.Rebuild(*record); err != nil {
		fmt.Fprintf(os.Stderr, "reload %s: %v\n", path, err)
		return
	}
	fmt.Printf("reloaded %s\n", path)
}

// engineReader adapts the control.Handle to oto's io.Reader callback: it
// drains the mailbox into SetParameter calls and pulls samples from
// whichever *engine.Engine is currently published, once per buffer.
type engineReader struct {
	handle     *control.Handle
	mailbox    *control.Mailbox
	sampleRate int
	scratch    []float32
}

func (r *engineReader) Read(p []byte) (int, error) {
	e := r.handle.Load()

	r.mailbox.Drain(func(msg control.ParamMessage) {
		if err := e.SetParameter(msg.Field, msg.Value); err != nil {
			fmt.Fprintf(os.Stderr, "set %s: %v\n", msg.Field, err)
		}
	})

	numSamples := len(p) / 4
	if numSamples == 0 {
		return 0, nil
	}
	if cap(r.scratch) < numSamples {
		r.scratch = make([]float32, numSamples)
	}
	samples := r.scratch[:numSamples]
	e.Pull(samples)

	copy(p, (*[1 << 30]byte)(unsafe.Pointer(&samples[0]))[:len(p)])
	return len(p), nil
}
