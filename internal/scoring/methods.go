package scoring

import (
	"fmt"
	"sort"
	"strings"

	"github.com/papapumpkin/proteo/internal/edge"
	"github.com/papapumpkin/proteo/internal/feature"
)

// Mode selects what happens after node aggregation.
type Mode int

const (
	// ModeSum ranks proteins by their aggregated edge weight directly.
	ModeSum Mode = iota
	// ModePropagate feeds the aggregated weights into damped propagation
	// seeded by the orthology prior.
	ModePropagate
)

// String returns the lowercase name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeSum:
		return "sum"
	case ModePropagate:
		return "propagate"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Method is one scoring pipeline configuration: which per-edge composite
// is summed onto each endpoint and whether the sums are propagated.
type Method struct {
	Name        string
	Description string
	Combine     edge.Composite
	Mode        Mode
}

// CacheName is the key the method's composite is cached under.
func (m Method) CacheName() string {
	return m.Name
}

func tgso() Method {
	return Method{
		Name:        "tgso",
		Description: "ADN*(CLN+|CEN|) local significance propagated from the orthology prior",
		Mode:        ModePropagate,
		Combine: func(e *edge.Engine, u, v string) float64 {
			return e.ADN(u, v) * (e.CLN(u, v) + e.CEN(u, v, edge.Absolute))
		},
	}
}

func teo(aspect feature.Aspect) Method {
	return Method{
		Name:        "teo:" + string(aspect),
		Description: "ECC^3*(GO+PCC) summed over incident edges",
		Mode:        ModeSum,
		Combine: func(e *edge.Engine, u, v string) float64 {
			return e.ECC(u, v, edge.ECCCubic) * (e.GO(u, v, aspect) + e.PCC(u, v, edge.Signed))
		},
	}
}

func jdc() Method {
	return Method{
		Name:        "jdc",
		Description: "ECC*Jaccard of active expression points summed over incident edges",
		Mode:        ModeSum,
		Combine: func(e *edge.Engine, u, v string) float64 {
			return e.ECC(u, v, edge.ECCLinear) * e.ActivityJaccard(u, v)
		},
	}
}

func nc() Method {
	return Method{
		Name:        "nc",
		Description: "neighbourhood centrality, ECC summed over incident edges",
		Mode:        ModeSum,
		Combine: func(e *edge.Engine, u, v string) float64 {
			return e.ECC(u, v, edge.ECCLinear)
		},
	}
}

// Lookup returns the method registered under name. aspect selects the
// ontology branch for teo and is ignored by the other methods.
func Lookup(name string, aspect feature.Aspect) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "tgso":
		return tgso(), nil
	case "teo":
		if aspect == "" {
			aspect = feature.AspectBP
		}
		return teo(aspect), nil
	case "jdc":
		return jdc(), nil
	case "nc":
		return nc(), nil
	}
	return Method{}, fmt.Errorf("%w: %q", ErrUnknownMethod, name)
}

// Methods lists every registered method sorted by name, with teo on its
// default aspect.
func Methods() []Method {
	out := []Method{tgso(), teo(feature.AspectBP), jdc(), nc()}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
