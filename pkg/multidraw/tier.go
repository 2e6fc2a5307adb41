package multidraw

import (
	"fmt"

	"github.com/pkg/errors"
)

// Tier selects which selection a filler is gated by.
type Tier int

const (
	// Unconditional fillers see every row that survives prescaling.
	Unconditional Tier = iota
	// PostBase fillers see rows passing the baseline selection.
	PostBase
	// PostFull fillers see rows passing both selections.
	PostFull

	numTiers
)

func (t Tier) String() string {
	switch t {
	case Unconditional:
		return "unconditional"
	case PostBase:
		return "post_base"
	case PostFull:
		return "post_full"
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// ParseTier parses a tier name. An empty name selects PostBase.
func ParseTier(s string) (Tier, error) {
	switch s {
	case "unconditional":
		return Unconditional, nil
	case "post_base", "":
		return PostBase, nil
	case "post_full":
		return PostFull, nil
	}
	return 0, errors.Errorf("unknown tier %q", s)
}
