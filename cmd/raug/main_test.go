package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipelined/raug"
	"github.com/pipelined/raug/log"
	"github.com/pipelined/raug/wav"
)

const tone = `
sample_rate = 8000
block_size  = 64

param "freq" {
  value     = 440
  smoothing = "5ms"
}

param "gain" {
  value = 0.5
  min   = 0
  max   = 1
}

node "osc" {
  kind = "sine_osc"
}

node "amp" {
  kind = "mul"
}

connect {
  from = "freq"
  to   = "osc.frequency"
}

connect {
  from = "osc"
  to   = "amp.a"
}

connect {
  from = "gain"
  to   = "amp.b"
}

output "left" {
  from = "amp"
}

output "right" {
  from = "amp"
}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(&app{log: log.New(io.Discard)})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	root := newRootCmd(&app{})
	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	for _, name := range []string{"render", "play", "plan", "params"} {
		assert.Contains(t, names, name)
	}
}

func TestRender(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "tone.hcl", tone)
	out := filepath.Join(dir, "tone.wav")

	_, err := execute(t, "render", path, "-o", out, "-d", "100ms", "--bit-depth", "24")
	require.NoError(t, err)
	buf, sampleRate, err := wav.Load(out)
	require.NoError(t, err)
	assert.Equal(t, 8000.0, sampleRate)
	assert.Equal(t, 2, buf.NumChannels())
	// 12.5 blocks round up to 13
	assert.Equal(t, 13*64, buf.Size())
	for _, v := range buf[0] {
		assert.LessOrEqual(t, v, 0.51)
	}
}

func TestRenderConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "tone.hcl", tone)
	cfg := writeFile(t, dir, "raug.yaml", "sample_rate: 16000\nblock_size: 32\nbit_depth: 8\n")
	out := filepath.Join(dir, "tone.wav")

	_, err := execute(t, "--config", cfg, "render", path, "-o", out, "-d", "10ms")
	require.NoError(t, err)
	buf, sampleRate, err := wav.Load(out)
	require.NoError(t, err)
	assert.Equal(t, 16000.0, sampleRate)
	assert.Equal(t, 5*32, buf.Size())
}

func TestRenderErrors(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "tone.hcl", tone)
	bad := writeFile(t, dir, "bad.yaml", "bit_depth: 12\n")
	tests := []struct {
		name string
		args []string
	}{
		{name: "no output", args: []string{"render", path}},
		{name: "format", args: []string{"render", path, "-o", filepath.Join(dir, "tone.ogg")}},
		{name: "duration", args: []string{"render", path, "-o", filepath.Join(dir, "tone.wav"), "-d", "0s"}},
		{name: "bit depth", args: []string{"render", path, "-o", filepath.Join(dir, "tone.wav"), "--bit-depth", "12"}},
		{name: "missing patch", args: []string{"render", filepath.Join(dir, "missing.hcl"), "-o", filepath.Join(dir, "tone.wav")}},
		{name: "config", args: []string{"--config", bad, "render", path, "-o", filepath.Join(dir, "tone.wav")}},
	}
	for _, test := range tests {
		_, err := execute(t, test.args...)
		assert.Error(t, err, test.name)
	}
}

func TestPlan(t *testing.T) {
	path := writeFile(t, t.TempDir(), "tone.hcl", tone)
	out, err := execute(t, "plan", path)
	require.NoError(t, err)
	assert.Contains(t, out, "plan: 8000 Hz, 64 frames, 2 channels")
	assert.Contains(t, out, "osc")

	out, err = execute(t, "plan", path, "--dump")
	require.NoError(t, err)
	assert.Contains(t, out, "Kind:")
}

func TestParams(t *testing.T) {
	path := writeFile(t, t.TempDir(), "tone.hcl", tone)
	out, err := execute(t, "params", path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "freq"))
	assert.Contains(t, lines[1], "5ms")
	assert.Contains(t, lines[2], "[0, 1]")
}

func TestPlay(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "tone.hcl", tone)
	watch := writeFile(t, dir, "params.yaml", "gain: 0.25\n")
	_, err := execute(t, "play", path, "--null", "-d", "50ms", "--watch", watch)
	assert.NoError(t, err)
}

func TestREPL(t *testing.T) {
	path := writeFile(t, t.TempDir(), "tone.hcl", tone)
	a := &app{log: log.New(io.Discard)}
	r, err := a.build(path)
	require.NoError(t, err)

	in := strings.NewReader("freq 220\ngain 2\npan 1\nfreq b\nfreq x\n\nl\nhelp me please\nq\nfreq 110\n")
	var out bytes.Buffer
	require.NoError(t, repl(in, &out, r, false))

	freq, err := r.ParamNamed("freq")
	require.NoError(t, err)
	v, writes, bangs := freq.Snapshot()
	assert.Equal(t, 220.0, v)
	assert.Equal(t, uint64(1), writes)
	assert.Equal(t, uint64(1), bangs)

	text := out.String()
	assert.Contains(t, text, "out of range")
	assert.Contains(t, text, "unknown parameter")
	assert.Contains(t, text, `invalid value "x"`)
	assert.Contains(t, text, "freq = 220")
	assert.Contains(t, text, "gain = 0.5")
	assert.Contains(t, text, "commands:")
	assert.Equal(t, raug.Compiled, r.State())
}
