// Package poolset assembles the canonical carbon pool structure shared
// by every operation provider: the fixed list of pool names, and the
// static live-biomass -> dead-organic-matter routing topology that
// turnover and overmature decline both apply (only the rates differ
// between the two).
package poolset

import "github.com/js-arias/fcarbon/pool"

// Canonical pool names, following the standard forest carbon budget
// model's pool structure, 26 pools in all: one input pool, five live-biomass
// components per species group (softwood/hardwood), seven dead organic
// matter pools, four snag pools, and four atmosphere/product sinks.
const (
	Input = pool.Input

	SWMerch       = "SoftwoodMerch"
	SWFoliage     = "SoftwoodFoliage"
	SWOther       = "SoftwoodOther"
	SWCoarseRoots = "SoftwoodCoarseRoots"
	SWFineRoots   = "SoftwoodFineRoots"

	HWMerch       = "HardwoodMerch"
	HWFoliage     = "HardwoodFoliage"
	HWOther       = "HardwoodOther"
	HWCoarseRoots = "HardwoodCoarseRoots"
	HWFineRoots   = "HardwoodFineRoots"

	AboveGroundVeryFast = "AboveGroundVeryFastSoil"
	BelowGroundVeryFast = "BelowGroundVeryFastSoil"
	AboveGroundFast     = "AboveGroundFastSoil"
	BelowGroundFast     = "BelowGroundFastSoil"
	Medium              = "MediumSoil"
	AboveGroundSlow     = "AboveGroundSlowSoil"
	BelowGroundSlow     = "BelowGroundSlowSoil"

	SWStemSnag   = "SoftwoodStemSnag"
	SWBranchSnag = "SoftwoodBranchSnag"
	HWStemSnag   = "HardwoodStemSnag"
	HWBranchSnag = "HardwoodBranchSnag"

	CO2      = "CO2"
	CH4      = "CH4"
	CO       = "CO"
	Products = "Products"
)

// Names returns the canonical pool list in fixed order, pool 0 always
// [Input].
func Names() []string {
	return []string{
		Input,
		SWMerch, SWFoliage, SWOther, SWCoarseRoots, SWFineRoots,
		HWMerch, HWFoliage, HWOther, HWCoarseRoots, HWFineRoots,
		AboveGroundVeryFast, BelowGroundVeryFast, AboveGroundFast, BelowGroundFast,
		Medium, AboveGroundSlow, BelowGroundSlow,
		SWStemSnag, SWBranchSnag, HWStemSnag, HWBranchSnag,
		CO2, CH4, CO, Products,
	}
}

// New builds the canonical [pool.Pools] registry.
func New() (*pool.Pools, error) {
	return pool.New(Names())
}

// Component is one live-biomass pool name paired with the pools its
// mass is routed to when it falls: either through turnover (fractional
// rate, a [params.TurnoverParam] field) or overmature decline (the
// full negative growth delta).
type Component struct {
	Pool string

	// Snag is the snag pool receiving the snag-bound share (stem and
	// branch components only; empty for foliage and root
	// components, which have no snag stage).
	Snag string

	// Fast is the DOM fast pool receiving the non-snag share: the
	// above-ground-fast pool for foliage and the above-ground share
	// of branch/root components, or, via FastBelow, the
	// below-ground-fast pool for the root components' below-ground
	// share.
	Fast string

	// FastBelow is set for the two root components, which split
	// between above- and below-ground fast DOM.
	FastBelow string
}

// SoftwoodComponents is the live-biomass routing topology for the
// softwood species group.
func SoftwoodComponents() []Component {
	return []Component{
		{Pool: SWMerch, Snag: SWStemSnag},
		{Pool: SWFoliage, Fast: AboveGroundFast},
		{Pool: SWOther, Snag: SWBranchSnag, Fast: AboveGroundFast},
		{Pool: SWCoarseRoots, Fast: AboveGroundFast, FastBelow: BelowGroundFast},
		{Pool: SWFineRoots, Fast: AboveGroundFast, FastBelow: BelowGroundFast},
	}
}

// HardwoodComponents is the live-biomass routing topology for the
// hardwood species group.
func HardwoodComponents() []Component {
	return []Component{
		{Pool: HWMerch, Snag: HWStemSnag},
		{Pool: HWFoliage, Fast: AboveGroundFast},
		{Pool: HWOther, Snag: HWBranchSnag, Fast: AboveGroundFast},
		{Pool: HWCoarseRoots, Fast: AboveGroundFast, FastBelow: BelowGroundFast},
		{Pool: HWFineRoots, Fast: AboveGroundFast, FastBelow: BelowGroundFast},
	}
}
