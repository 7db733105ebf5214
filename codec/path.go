package codec

import "strconv"

// maxPathElems caps how much of a path an error renders. Deeper paths keep
// their innermost elements behind a "..." marker.
const maxPathElems = 32

// pathElem is a parent-linked field path. It is only materialized into a
// slice when an error is reported, so the happy path never builds strings.
type pathElem struct {
	parent *pathElem
	name   string
	index  int
}

func (p *pathElem) child(name string) *pathElem {
	if name == "" {
		return p
	}
	return &pathElem{parent: p, name: name, index: -1}
}

func (p *pathElem) at(i int) *pathElem {
	return &pathElem{parent: p, index: i}
}

func (p *pathElem) slice() []string {
	n := 0
	for e := p; e != nil; e = e.parent {
		n++
	}
	if n == 0 {
		return nil
	}
	truncated := n > maxPathElems
	if truncated {
		n = maxPathElems
	}
	out := make([]string, n)
	for e := p; e != nil && n > 0; e = e.parent {
		n--
		if truncated && n == 0 {
			out[0] = "..."
			break
		}
		if e.index >= 0 {
			out[n] = "[" + strconv.Itoa(e.index) + "]"
		} else {
			out[n] = e.name
		}
	}
	return out
}
