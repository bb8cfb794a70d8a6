package application

import (
	"fmt"
	"io"
	"sync"
)

// Console prints the human-readable conversation, separate from structured logs.
type Console struct {
	mu        sync.Mutex
	out       io.Writer
	assistant string
}

// A nil *Console discards everything.
func NewConsole(out io.Writer, assistantName string) *Console {
	if assistantName == "" {
		assistantName = "Jarvis"
	}
	return &Console{out: out, assistant: assistantName}
}

func (c *Console) Listening() {
	c.println("Listening...")
}

func (c *Console) User(text string) {
	c.println("You said: " + text)
}

func (c *Console) Assistant(text string) {
	if c == nil {
		return
	}
	c.println(c.assistant + ": " + text)
}

func (c *Console) System(text string) {
	c.println(text)
}

func (c *Console) println(line string) {
	if c == nil || c.out == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, line)
}
