// Package cli implements the streakline commands.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/julianstephens/streakline/internal/config"
	"github.com/julianstephens/streakline/internal/storage"
	"github.com/julianstephens/streakline/internal/tracker"
	"github.com/julianstephens/streakline/internal/utils"
)

type Context struct {
	Store   storage.Provider
	Tracker *tracker.Service
	Conn    config.Connection
	Format  Format
	Debug   bool

	Out io.Writer
	In  io.Reader
}

// NewContext builds a command context around an opened (not yet loaded) store.
func NewContext(store storage.Provider, conn config.Connection, format Format) *Context {
	return &Context{
		Store:   store,
		Tracker: tracker.New(store),
		Conn:    conn,
		Format:  format,
		Out:     os.Stdout,
		In:      os.Stdin,
	}
}

func (c *Context) Normalizer() *utils.Normalizer {
	return c.Store.Normalizer()
}

func (c *Context) printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}

func (c *Context) println(args ...any) {
	fmt.Fprintln(c.Out, args...)
}
