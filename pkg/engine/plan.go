package engine

import (
	"fmt"
	"strings"
)

// StepKind names a scripted session action.
type StepKind string

const (
	StepDetect     StepKind = "detect"      // trace an image with the vision detector
	StepContours   StepKind = "contours"    // load a contour file
	StepThreshold  StepKind = "threshold"   // set the binarization threshold
	StepMinArea    StepKind = "min-area"    // set the minimum effective area
	StepCellSize   StepKind = "cell-size"   // set the grid cell size
	StepHeight     StepKind = "height"      // set the extrusion height
	StepKernel     StepKind = "kernel"      // select the membership backend
	StepCaps       StepKind = "caps"        // select base/top faces
	StepEnable     StepKind = "enable"      // enable listed regions
	StepDisable    StepKind = "disable"     // disable listed regions
	StepEnableAll  StepKind = "enable-all"  // enable every region
	StepDisableAll StepKind = "disable-all" // disable every region
	StepExtrude    StepKind = "extrude"     // extrude and write a mesh file
)

// Step is one recorded action. Only the fields relevant to Kind are set.
type Step struct {
	Kind StepKind

	Path      string   // detect, contours, extrude (output, empty = configured)
	Threshold *int     // detect
	Value     float64  // threshold, min-area, cell-size, height
	Name      string   // kernel
	Base, Top bool     // caps
	IDs       []int    // enable, disable, extrude (:only)
	CellSize  *float64 // extrude
	Height    *float64 // extrude
}

// String renders the step roughly as it was written.
func (s Step) String() string {
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(string(s.Kind))
	switch s.Kind {
	case StepDetect, StepContours:
		fmt.Fprintf(&b, " %q", s.Path)
		if s.Threshold != nil {
			fmt.Fprintf(&b, " :threshold %d", *s.Threshold)
		}
	case StepThreshold, StepMinArea, StepCellSize, StepHeight:
		fmt.Fprintf(&b, " %v", s.Value)
	case StepKernel:
		fmt.Fprintf(&b, " %q", s.Name)
	case StepCaps:
		fmt.Fprintf(&b, " :base %t :top %t", s.Base, s.Top)
	case StepEnable, StepDisable:
		for _, id := range s.IDs {
			fmt.Fprintf(&b, " %d", id)
		}
	case StepExtrude:
		if s.CellSize != nil {
			fmt.Fprintf(&b, " :cell %v", *s.CellSize)
		}
		if s.Height != nil {
			fmt.Fprintf(&b, " :height %v", *s.Height)
		}
		if s.IDs != nil {
			fmt.Fprintf(&b, " :only %v", s.IDs)
		}
		if s.Path != "" {
			fmt.Fprintf(&b, " :out %q", s.Path)
		}
	}
	b.WriteString(")")
	return b.String()
}

// Plan is the ordered list of steps a script recorded. Evaluation never
// touches a session or the filesystem; a Runner applies the plan.
type Plan struct {
	Steps []Step
}

// NewPlan returns an empty plan.
func NewPlan() *Plan {
	return &Plan{}
}

// Len returns the number of steps.
func (p *Plan) Len() int {
	return len(p.Steps)
}

func (p *Plan) add(s Step) {
	p.Steps = append(p.Steps, s)
}

// Exports returns the extrude steps of the plan.
func (p *Plan) Exports() []Step {
	var out []Step
	for _, s := range p.Steps {
		if s.Kind == StepExtrude {
			out = append(out, s)
		}
	}
	return out
}
