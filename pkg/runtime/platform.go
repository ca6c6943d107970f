package runtime

import (
	"bufio"
	"math/rand"
	"os"
	"strings"
	"time"
)

// Platform abstracts the host facilities the prelude touches. The runtime
// itself owns no external resources; discarding a Runtime requires no
// cleanup beyond garbage collection.
type Platform interface {
	Print(text string)
	ReadLine() (string, error)
	Random() float64
	Now() time.Time
}

// OSPlatform binds the prelude to the real process environment.
type OSPlatform struct {
	stdin *bufio.Reader
}

// NewOSPlatform builds the standard host platform.
func NewOSPlatform() *OSPlatform {
	return &OSPlatform{stdin: bufio.NewReader(os.Stdin)}
}

func (p *OSPlatform) Print(text string) {
	os.Stdout.WriteString(text)
}

func (p *OSPlatform) ReadLine() (string, error) {
	line, err := p.stdin.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (p *OSPlatform) Random() float64 { return rand.Float64() }

func (p *OSPlatform) Now() time.Time { return time.Now() }

// RecordingPlatform captures output and serves scripted input; tests and the
// playground embed it.
type RecordingPlatform struct {
	Output strings.Builder
	Input  []string
	Seed   float64
}

func (p *RecordingPlatform) Print(text string) {
	p.Output.WriteString(text)
}

func (p *RecordingPlatform) ReadLine() (string, error) {
	if len(p.Input) == 0 {
		return "", nil
	}
	line := p.Input[0]
	p.Input = p.Input[1:]
	return line, nil
}

func (p *RecordingPlatform) Random() float64 { return p.Seed }

func (p *RecordingPlatform) Now() time.Time { return time.Unix(0, 0).UTC() }
