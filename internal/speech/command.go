package speech

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"github.com/max00189xp/homework/internal/config"
)

// baseWordsPerMinute is the rate both say and espeak treat as normal speed.
const baseWordsPerMinute = 175

// candidateCommands are probed in order when no command is configured.
var candidateCommands = []string{"say", "espeak-ng", "espeak"}

// sayVoices maps locales to stock macOS voices.
var sayVoices = map[string]string{
	"zh-TW": "Mei-Jia",
	"zh-CN": "Ting-Ting",
	"zh-HK": "Sin-ji",
	"en-US": "Samantha",
}

// CommandEngine speaks by running a local TTS command. The text is passed on
// stdin and the process is killed when the context is cancelled.
type CommandEngine struct {
	path string
}

// NewCommandEngine resolves command on PATH. An empty command auto-detects.
func NewCommandEngine(command string) (*CommandEngine, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		command = DetectCommand()
		if command == "" {
			return nil, fmt.Errorf("speech: no tts command found (tried %s)", strings.Join(candidateCommands, ", "))
		}
	}
	path, err := exec.LookPath(command)
	if err != nil {
		return nil, fmt.Errorf("speech: resolve %s: %w", command, err)
	}
	return &CommandEngine{path: path}, nil
}

// DetectCommand returns the first available TTS command, or "".
func DetectCommand() string {
	for _, name := range candidateCommands {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}

// Name is the command's base name.
func (e *CommandEngine) Name() string {
	return filepath.Base(e.path)
}

// Command builds the process for u without starting it.
func (e *CommandEngine) Command(ctx context.Context, u Utterance) *exec.Cmd {
	cmd := exec.CommandContext(ctx, e.path, commandArgs(e.Name(), u)...)
	cmd.Stdin = strings.NewReader(u.Text)
	return cmd
}

// Speak runs the command to completion.
func (e *CommandEngine) Speak(ctx context.Context, u Utterance) error {
	if err := e.Command(ctx, u).Run(); err != nil {
		return fmt.Errorf("speech: %s: %w", e.Name(), err)
	}
	return nil
}

func commandArgs(name string, u Utterance) []string {
	tag := language.Make(u.Locale)
	switch strings.TrimSuffix(name, ".exe") {
	case "say":
		var args []string
		if voice := sayVoice(tag); voice != "" {
			args = append(args, "-v", voice)
		}
		return append(args, "-r", strconv.Itoa(scaled(baseWordsPerMinute, u.Rate, 80, 450)), "-f", "-")
	case "espeak-ng", "espeak":
		return []string{
			"-v", espeakVoice(tag),
			"-s", strconv.Itoa(scaled(baseWordsPerMinute, u.Rate, 80, 450)),
			"-p", strconv.Itoa(scaled(50, u.Pitch, 0, 99)),
			"--stdin",
		}
	default:
		return nil
	}
}

func sayVoice(tag language.Tag) string {
	base, _ := tag.Base()
	region, _ := tag.Region()
	if voice, ok := sayVoices[base.String()+"-"+region.String()]; ok {
		return voice
	}
	return ""
}

// espeakVoice maps Chinese tags to espeak's Mandarin voice and everything
// else to the bare language code.
func espeakVoice(tag language.Tag) string {
	base, _ := tag.Base()
	switch base.String() {
	case "zh", "cmn":
		if region, _ := tag.Region(); region.String() == "HK" {
			return "yue"
		}
		return "cmn"
	case "und":
		return "en"
	default:
		return base.String()
	}
}

func scaled(base int, factor float64, lo, hi int) int {
	if factor <= 0 {
		factor = 1
	}
	v := int(math.Round(float64(base) * factor))
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// EngineFromConfig builds the configured engine, falling back to NopEngine
// when no TTS command is available. The returned error explains the fallback.
func EngineFromConfig(cfg config.SpeechConfig) (Engine, error) {
	engine, err := NewCommandEngine(cfg.Command)
	if err != nil {
		return NopEngine{}, err
	}
	return engine, nil
}

// PlayerOptions translates cfg into Player options.
func PlayerOptions(cfg config.SpeechConfig) []Option {
	return []Option{WithLocale(cfg.Locale), WithRate(cfg.Rate), WithPitch(cfg.Pitch)}
}
