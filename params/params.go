// Package params implements the read-only, table-keyed parameter
// store: decay rates, turnover rates, disturbance matrices, volume-to-
// biomass conversion coefficients, and spatial-unit defaults. The
// store is assembled once (by the TSV readers in io.go, or directly
// via its Add methods) and treated as immutable for the lifetime of
// an engine.
package params

import "github.com/js-arias/fcarbon"

// DecayParam is one DOM pool's decay parameters for a spatial unit.
type DecayParam struct {
	Pool             string
	BaseRate         float64
	Q10              float64
	RefTemp          float64
	MaxRate          float64
	PropToAtmosphere float64

	// Next is the name of the DOM pool receiving the
	// non-atmosphere share of the decayed mass (the next pool in
	// the decay chain). Empty if this pool decays only to the
	// atmosphere.
	Next string
}

// TurnoverParam is a spatial unit's turnover rates and splits for
// biomass and snag pools.
type TurnoverParam struct {
	FoliageFall    float64
	BranchFall     float64
	StemFall       float64
	CoarseRootFall float64
	FineRootFall   float64

	// BranchSnagSplit is the share of branch-fall routed to the
	// branch snag pool rather than directly to above-ground-fast
	// DOM.
	BranchSnagSplit float64

	// CoarseRootAGSplit, FineRootAGSplit are the above-ground
	// shares of coarse- and fine-root fall; the remainder goes
	// below-ground.
	CoarseRootAGSplit float64
	FineRootAGSplit   float64

	StemSnagTurnover   float64
	BranchSnagTurnover float64
}

// SpatialUnit carries a spatial unit's default climate.
type SpatialUnit struct {
	ID                    int
	DefaultMeanAnnualTemp float64
}

// DisturbanceMatrixRow is one (source, sink, proportion) triplet of a
// disturbance matrix. Rows for a given matrix id sum to 1.0 per source
// pool.
type DisturbanceMatrixRow struct {
	MatrixID int
	Source   int
	Sink     int
	Prop     float64
}

// VolToBiomassCoef is a species' merchantable-volume-to-biomass
// conversion coefficients: MerchCoef multiplies merchantable volume to
// give merch biomass; foliage and other biomass are power laws of merch
// biomass (A·merch^B); CoarseRoot and FineRoot multiply merch biomass.
type VolToBiomassCoef struct {
	Species    string
	MerchCoef  float64
	FoliageA   float64
	FoliageB   float64
	OtherA     float64
	OtherB     float64
	CoarseRoot float64
	FineRoot   float64
}

// ReturnIntervalCoef parameterizes the historical disturbance return
// interval for a spatial unit during spinup.
type ReturnIntervalCoef struct {
	SpatialUnit  int
	BaseInterval float64
	MinInterval  float64
	MaxInterval  float64
}

type disturbanceKey struct {
	DistType, SpatialUnit int
}

// Store is the immutable, keyed bundle of every parameter table.
type Store struct {
	decay          map[int][]DecayParam
	turnover       map[int]TurnoverParam
	spatialUnits   map[int]SpatialUnit
	matrixID       map[disturbanceKey]int
	matrix         map[int][]DisturbanceMatrixRow
	volToBiomass   map[string]VolToBiomassCoef
	returnInterval map[int]ReturnIntervalCoef
}

// NewStore creates an empty parameter store, to be filled via its Add
// methods or the readers in io.go before use.
func NewStore() *Store {
	return &Store{
		decay:          make(map[int][]DecayParam),
		turnover:       make(map[int]TurnoverParam),
		spatialUnits:   make(map[int]SpatialUnit),
		matrixID:       make(map[disturbanceKey]int),
		matrix:         make(map[int][]DisturbanceMatrixRow),
		volToBiomass:   make(map[string]VolToBiomassCoef),
		returnInterval: make(map[int]ReturnIntervalCoef),
	}
}

// AddDecay adds a DOM pool's decay parameters for a spatial unit.
func (s *Store) AddDecay(spatialUnit int, p DecayParam) {
	s.decay[spatialUnit] = append(s.decay[spatialUnit], p)
}

// AddTurnover sets a spatial unit's turnover parameters.
func (s *Store) AddTurnover(spatialUnit int, p TurnoverParam) {
	s.turnover[spatialUnit] = p
}

// AddSpatialUnit registers a spatial unit's defaults.
func (s *Store) AddSpatialUnit(su SpatialUnit) {
	s.spatialUnits[su.ID] = su
}

// AddDisturbanceMatrixID maps a (disturbance type, spatial unit) pair
// to a disturbance matrix id.
func (s *Store) AddDisturbanceMatrixID(distType, spatialUnit, matrixID int) {
	s.matrixID[disturbanceKey{DistType: distType, SpatialUnit: spatialUnit}] = matrixID
}

// AddDisturbanceMatrixRow adds one (source, sink, proportion) row to a
// disturbance matrix.
func (s *Store) AddDisturbanceMatrixRow(row DisturbanceMatrixRow) {
	s.matrix[row.MatrixID] = append(s.matrix[row.MatrixID], row)
}

// AddVolToBiomass registers a species' conversion coefficients.
func (s *Store) AddVolToBiomass(v VolToBiomassCoef) {
	s.volToBiomass[v.Species] = v
}

// AddReturnInterval registers a spatial unit's return-interval model.
func (s *Store) AddReturnInterval(r ReturnIntervalCoef) {
	s.returnInterval[r.SpatialUnit] = r
}

// Decay returns the DOM decay parameters for a spatial unit.
func (s *Store) Decay(spatialUnit int) ([]DecayParam, error) {
	p, ok := s.decay[spatialUnit]
	if !ok {
		return nil, fcarbon.NewError("params.Store.Decay", fcarbon.Configuration, "unknown spatial unit %d", spatialUnit)
	}
	return p, nil
}

// Turnover returns the turnover parameters for a spatial unit.
func (s *Store) Turnover(spatialUnit int) (TurnoverParam, error) {
	p, ok := s.turnover[spatialUnit]
	if !ok {
		return TurnoverParam{}, fcarbon.NewError("params.Store.Turnover", fcarbon.Configuration, "unknown spatial unit %d", spatialUnit)
	}
	return p, nil
}

// SpatialUnit returns a spatial unit's defaults.
func (s *Store) SpatialUnit(id int) (SpatialUnit, error) {
	su, ok := s.spatialUnits[id]
	if !ok {
		return SpatialUnit{}, fcarbon.NewError("params.Store.SpatialUnit", fcarbon.Configuration, "unknown spatial unit %d", id)
	}
	return su, nil
}

// DisturbanceMatrixID returns the disturbance matrix id for a
// disturbance type and spatial unit.
func (s *Store) DisturbanceMatrixID(distType, spatialUnit int) (int, error) {
	id, ok := s.matrixID[disturbanceKey{DistType: distType, SpatialUnit: spatialUnit}]
	if !ok {
		return 0, fcarbon.NewError("params.Store.DisturbanceMatrixID", fcarbon.Domain, "unmapped disturbance type %d for spatial unit %d", distType, spatialUnit)
	}
	return id, nil
}

// DisturbanceMatrix returns the (source, sink, proportion) rows for a
// disturbance matrix id.
func (s *Store) DisturbanceMatrix(matrixID int) ([]DisturbanceMatrixRow, error) {
	rows, ok := s.matrix[matrixID]
	if !ok {
		return nil, fcarbon.NewError("params.Store.DisturbanceMatrix", fcarbon.Configuration, "unknown disturbance matrix %d", matrixID)
	}
	return rows, nil
}

// VolToBiomass returns a species' volume-to-biomass coefficients.
func (s *Store) VolToBiomass(species string) (VolToBiomassCoef, error) {
	v, ok := s.volToBiomass[species]
	if !ok {
		return VolToBiomassCoef{}, fcarbon.NewError("params.Store.VolToBiomass", fcarbon.Configuration, "unknown species %q", species)
	}
	return v, nil
}

// ReturnInterval returns the return-interval model for a spatial
// unit.
func (s *Store) ReturnInterval(spatialUnit int) (ReturnIntervalCoef, error) {
	r, ok := s.returnInterval[spatialUnit]
	if !ok {
		return ReturnIntervalCoef{}, fcarbon.NewError("params.Store.ReturnInterval", fcarbon.Configuration, "unknown spatial unit %d", spatialUnit)
	}
	return r, nil
}
