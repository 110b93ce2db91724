// Package session owns the state of one interactive relief session: the
// current contour set and its classification, per-region visibility, and
// the configuration used to extrude and export the enabled regions.
//
// Every mutating call reruns classification synchronously before it
// returns. A Session is safe for concurrent use, but calls are serialized.
package session

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/samber/lo"

	"github.com/chazu/relief/pkg/config"
	"github.com/chazu/relief/pkg/contour"
	"github.com/chazu/relief/pkg/extrude"
	"github.com/chazu/relief/pkg/geom"
	"github.com/chazu/relief/pkg/kernel"
	"github.com/chazu/relief/pkg/kernel/raster"
	"github.com/chazu/relief/pkg/kernel/sdfx"
	"github.com/chazu/relief/pkg/stl"
	"github.com/chazu/relief/pkg/visibility"
	"github.com/chazu/relief/pkg/vision"
)

// ErrNoContours is returned by operations that need a loaded contour set.
var ErrNoContours = errors.New("session: no contours loaded")

// Row is one entry of the region list. RegionID is the structural key;
// Label is for display only.
type Row struct {
	RegionID int     `json:"region_id"`
	Holes    []int   `json:"holes"`
	Area     float64 `json:"area"`
	Enabled  bool    `json:"enabled"`
	Label    string  `json:"label"`
}

// Session is the contour-to-mesh pipeline.
type Session struct {
	mu     sync.Mutex
	cfg    config.Config
	logger *slog.Logger
	store  *visibility.Store
	kernel kernel.Kernel

	detector vision.Detector
	source   string

	set *contour.Set
	cls *contour.Classification
}

// New creates a session. cfg is copied and validated; a nil cfg means
// config.DefaultConfig(). A nil logger discards output.
func New(cfg *config.Config, logger *slog.Logger) (*Session, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	c := *cfg
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	k, err := KernelByName(c.Kernel)
	if err != nil {
		return nil, err
	}
	return &Session{
		cfg:    c,
		logger: logger,
		store:  visibility.New(),
		kernel: k,
		cls:    contour.Classify(nil, nil, c.MinArea),
	}, nil
}

// KernelByName returns the membership backend registered under name.
func KernelByName(name string) (kernel.Kernel, error) {
	switch name {
	case raster.Name, "":
		return raster.New(), nil
	case sdfx.Name:
		return sdfx.New(), nil
	default:
		return nil, fmt.Errorf("%w: kernel %q", config.ErrInvalid, name)
	}
}

// Config returns a copy of the current configuration.
func (s *Session) Config() config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Kernel returns the membership backend in use.
func (s *Session) Kernel() kernel.Kernel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kernel
}

// Visibility returns the session's visibility store.
func (s *Session) Visibility() *visibility.Store {
	return s.store
}

// Loaded reports whether a contour set has been loaded.
func (s *Session) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set != nil
}

// Load replaces the contour set and reclassifies it. A nil set is treated
// as an empty detection pass.
func (s *Session) Load(set *contour.Set) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detector, s.source = nil, ""
	s.load(set)
}

// Detect runs d on the image at path with the configured threshold and
// loads the result. Later threshold changes rerun d on the same path.
func (s *Session) Detect(d vision.Detector, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detect(d, path)
}

// DetectAt sets the threshold and runs d on path once. Unlike SetThreshold
// followed by Detect, the previously attached detector is not rerun.
func (s *Session) DetectAt(d vision.Detector, path string, threshold int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.SetThreshold(threshold)
	return s.detect(d, path)
}

func (s *Session) detect(d vision.Detector, path string) error {
	if d == nil {
		return errors.New("session: nil detector")
	}
	set, err := d.Detect(path, s.cfg.Threshold)
	if err != nil {
		return fmt.Errorf("session: detect %s: %w", path, err)
	}
	s.detector, s.source = d, path
	s.load(set)
	return nil
}

func (s *Session) load(set *contour.Set) {
	if set == nil {
		set = &contour.Set{}
	}
	s.set = set
	s.logger.Debug("contours loaded",
		"contours", len(set.Contours),
		"hierarchy", len(set.Hierarchy),
		"source", s.source)
	s.reclassify()
}

// reclassify reruns the classifier and merges the new region ids into the
// visibility store. With stable ids enabled, flags follow regions whose
// outer contour fingerprint moved to a new index, and a vacated index that
// now holds a different region starts enabled.
func (s *Session) reclassify() {
	prev := s.cls
	s.cls = contour.ClassifySet(s.set, s.cfg.MinArea)

	for id := range s.cls.Excluded {
		s.logger.Debug("skipping small contour", "id", id, "min_area", s.cfg.MinArea)
	}

	if s.cfg.StableIDs && prev != nil {
		if moves := reconcile(prev.Regions, s.cls.Regions); len(moves) > 0 {
			s.logger.Debug("carrying visibility to moved regions", "moves", moves)
			s.store.Carry(moves)
			// A vacated id now names a different contour.
			dests := lo.Values(moves)
			for from := range moves {
				if !lo.Contains(dests, from) && s.cls.IsRegion(from) {
					s.store.Set(from, true)
				}
			}
		}
	}
	s.store.Merge(s.cls.IDs())

	s.logger.Debug("classified",
		"regions", s.cls.Len(),
		"excluded", len(s.cls.Excluded))
}

// reconcile pairs regions whose outer fingerprint is unique in both passes
// and whose id changed.
func reconcile(prev, next []contour.Region) map[int]int {
	unique := func(rs []contour.Region) map[contour.Fingerprint]int {
		counts := lo.CountValuesBy(rs, func(r contour.Region) contour.Fingerprint { return r.Key })
		out := make(map[contour.Fingerprint]int)
		for _, r := range rs {
			if counts[r.Key] == 1 {
				out[r.Key] = r.ID
			}
		}
		return out
	}
	before, after := unique(prev), unique(next)

	moves := make(map[int]int)
	for key, from := range before {
		if to, ok := after[key]; ok && to != from {
			moves[from] = to
		}
	}
	return moves
}

// SetThreshold changes the binarization threshold. If the current contours
// came from Detect, detection reruns with the new value.
func (s *Session) SetThreshold(v int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.SetThreshold(v)
	if s.detector == nil {
		return nil
	}
	set, err := s.detector.Detect(s.source, s.cfg.Threshold)
	if err != nil {
		return fmt.Errorf("session: detect %s: %w", s.source, err)
	}
	s.load(set)
	return nil
}

// SetMinArea changes the minimum effective area and reclassifies.
// Negative values are clamped to 0.
func (s *Session) SetMinArea(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.SetMinArea(v)
	if s.set != nil {
		s.reclassify()
	}
}

// SetCellSize changes the grid cell size used by Extrude.
func (s *Session) SetCellSize(v float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.SetCellSize(v)
}

// SetHeight changes the extrusion height used by Extrude.
func (s *Session) SetHeight(v float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.SetHeight(v)
}

// SetKernel switches the membership backend.
func (s *Session) SetKernel(name string) error {
	k, err := KernelByName(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Kernel = k.Name()
	s.kernel = k
	return nil
}

// SetCaps selects whether prisms carry base and top faces.
func (s *Session) SetCaps(base, top bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.FillBase, s.cfg.FillTop = base, top
}

// Classification returns the result of the latest classifier pass.
func (s *Session) Classification() *contour.Classification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cls
}

// Rows returns the region list in classification order.
func (s *Session) Rows() []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Map(s.cls.Regions, func(r contour.Region, _ int) Row {
		return Row{
			RegionID: r.ID,
			Holes:    r.Holes,
			Area:     r.Area,
			Enabled:  s.store.Get(r.ID),
			Label:    r.Label(),
		}
	})
}

// addressable reports whether id is a top-level contour of the current
// pass, whether or not it passed the area filter.
func (s *Session) addressable(id int) bool {
	return s.cls.IsRegion(id) || s.cls.Excluded[id]
}

// Toggle sets the enabled flag of region id. Unknown ids are ignored and
// Toggle reports false.
func (s *Session) Toggle(id int, enabled bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.addressable(id) {
		s.logger.Debug("ignoring toggle of unknown region", "id", id)
		return false
	}
	s.store.Set(id, enabled)
	s.logger.Debug("region toggled", "id", id, "enabled", enabled)
	return true
}

// SetAll enables or disables every region of the current pass.
func (s *Session) SetAll(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.cls.IDs() {
		s.store.Set(id, enabled)
	}
}

// Enabled reports the flag of region id. Unknown ids read as enabled.
func (s *Session) Enabled(id int) bool {
	return s.store.Get(id)
}

// EnabledIDs returns the enabled region ids in classification order.
func (s *Session) EnabledIDs() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabledIDs()
}

func (s *Session) enabledIDs() []int {
	return lo.Filter(s.cls.IDs(), func(id int, _ int) bool {
		return s.store.Get(id)
	})
}

// HighlightGroup returns the contour ids drawn together when id is
// selected: the region's outer contour followed by its holes. Disabled
// regions, hole ids and unknown ids return nil.
func (s *Session) HighlightGroup(id int) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.cls.Region(id)
	if !ok || !s.store.Get(id) {
		return nil
	}
	return append([]int{r.ID}, r.Holes...)
}

// Shapes resolves region ids to extrusion shapes. Ids that are not regions
// of the current pass are skipped.
func (s *Session) Shapes(ids []int) []geom.Shape {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shapes(ids)
}

func (s *Session) shapes(ids []int) []geom.Shape {
	if s.set == nil {
		return nil
	}
	return lo.FilterMap(ids, func(id int, _ int) (geom.Shape, bool) {
		return s.cls.Shape(s.set.Contours, id)
	})
}

func (s *Session) options() extrude.Options {
	return extrude.Options{
		CellSize: s.cfg.CellSize,
		Height:   s.cfg.Height,
		FillBase: s.cfg.FillBase,
		FillTop:  s.cfg.FillTop,
		Name:     s.cfg.SolidName,
	}
}

// Extrude voxelizes every enabled region. With nothing enabled the mesh is
// empty and the error nil.
func (s *Session) Extrude() (*kernel.Mesh, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.extrude(s.enabledIDs())
}

// ExtrudeRegions voxelizes the given regions regardless of their enabled
// flag. Unknown ids are skipped.
func (s *Session) ExtrudeRegions(ids []int) (*kernel.Mesh, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.extrude(ids)
}

func (s *Session) extrude(ids []int) (*kernel.Mesh, error) {
	shapes := s.shapes(ids)
	mesh, stats, err := extrude.ExtrudeWithStats(shapes, s.kernel, s.options())
	if err != nil {
		return nil, fmt.Errorf("session: extrude: %w", err)
	}
	for i, ss := range stats.Shapes {
		s.logger.Debug("extruded region",
			"shape", i,
			"cells_tested", ss.CellsTested,
			"cells_filled", ss.CellsFilled)
	}
	s.logger.Info("extrusion complete",
		"regions", len(shapes),
		"kernel", s.kernel.Name(),
		"triangles", mesh.TriangleCount())
	return mesh, nil
}

// Export extrudes the enabled regions and writes the mesh to path, or to
// the configured output when path is empty. It fails with ErrNoContours
// before any contour set has been loaded.
func (s *Session) Export(path string) (*kernel.Mesh, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.set == nil {
		return nil, ErrNoContours
	}
	return s.export(path, s.enabledIDs())
}

// ExportRegions is Export for an explicit list of region ids, ignoring
// their enabled flags. Unknown ids are skipped.
func (s *Session) ExportRegions(path string, ids []int) (*kernel.Mesh, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.set == nil {
		return nil, ErrNoContours
	}
	return s.export(path, ids)
}

func (s *Session) export(path string, ids []int) (*kernel.Mesh, error) {
	if path == "" {
		path = s.cfg.Output
	}
	mesh, err := s.extrude(ids)
	if err != nil {
		return nil, err
	}

	var opts []stl.Option
	if s.cfg.Normals {
		opts = append(opts, stl.WithNormals())
	}
	if err := stl.WriteFile(path, mesh, opts...); err != nil {
		return nil, fmt.Errorf("session: export: %w", err)
	}
	s.logger.Info("mesh saved", "path", path, "triangles", mesh.TriangleCount())
	return mesh, nil
}
