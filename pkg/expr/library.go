package expr

import (
	"strings"

	"github.com/pkg/errors"
)

// Library deduplicates expressions by their source text so that every formula
// is evaluated at most once per row and instance, however many fillers use it.
type Library struct {
	compile CompileFunc
	byText  map[string]*Cached
	ordered []*Cached
}

func NewLibrary(compile CompileFunc) *Library {
	return &Library{
		compile: compile,
		byText:  map[string]*Cached{},
	}
}

// Get returns the cached expression for text, compiling it on first use.
func (l *Library) Get(text string) (*Cached, error) {
	text = strings.TrimSpace(text)
	if c, ok := l.byText[text]; ok {
		return c, nil
	}

	e, err := l.compile(text)
	if err != nil {
		return nil, err
	}

	c := NewCached(e)
	l.byText[text] = c
	l.ordered = append(l.ordered, c)
	return c, nil
}

func (l *Library) Len() int {
	return len(l.ordered)
}

// Expressions returns the library content in insertion order.
func (l *Library) Expressions() []*Cached {
	return l.ordered
}

// Reset starts a new row. It returns the first evaluation error left by the
// previous row.
func (l *Library) Reset() error {
	var err error
	for _, c := range l.ordered {
		if err == nil {
			err = c.Err()
		}
		c.Reset()
	}
	return err
}

// Err returns the first evaluation error of any expression.
func (l *Library) Err() error {
	for _, c := range l.ordered {
		if err := c.Err(); err != nil {
			return err
		}
	}
	return nil
}

// Rebind refreshes the bindings of every expression after a partition change.
func (l *Library) Rebind() error {
	for _, c := range l.ordered {
		if err := c.Rebind(); err != nil {
			return errors.Wrap(err, "rebinding expressions")
		}
	}
	return nil
}
