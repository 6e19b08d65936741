package params

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// tsvHeader opens a tab-separated reader and checks that every
// required field is present in its header row, returning a lookup
// from lower-cased field name to column index.
func tsvHeader(r io.Reader, required []string) (*csv.Reader, map[string]int, error) {
	tsv := csv.NewReader(r)
	tsv.Comma = '\t'
	tsv.Comment = '#'

	head, err := tsv.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("while reading header: %v", err)
	}
	fields := make(map[string]int, len(head))
	for i, h := range head {
		fields[strings.ToLower(h)] = i
	}
	for _, h := range required {
		if _, ok := fields[h]; !ok {
			return nil, nil, fmt.Errorf("expecting field %q", h)
		}
	}
	return tsv, fields, nil
}

func readFloat(row []string, fields map[string]int, ln int, field string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(row[fields[field]]), 64)
	if err != nil {
		return 0, fmt.Errorf("on row %d: field %q: %q: %v", ln, field, row[fields[field]], err)
	}
	return v, nil
}

func readInt(row []string, fields map[string]int, ln int, field string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(row[fields[field]]))
	if err != nil {
		return 0, fmt.Errorf("on row %d: field %q: %q: %v", ln, field, row[fields[field]], err)
	}
	return v, nil
}

// ReadDecay reads DOM decay parameters from a TSV file.
//
// Required fields: spatialunit, pool, baserate, q10, reftemp,
// maxrate, proptoatmosphere. Optional field: next (the name of the
// next pool in the decay chain).
func ReadDecay(r io.Reader, s *Store) error {
	tsv, fields, err := tsvHeader(r, []string{"spatialunit", "pool", "baserate", "q10", "reftemp", "maxrate", "proptoatmosphere"})
	if err != nil {
		return fmt.Errorf("params.ReadDecay: %v", err)
	}
	for {
		row, err := tsv.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tsv.FieldPos(0)
		if err != nil {
			return fmt.Errorf("params.ReadDecay: on row %d: %v", ln, err)
		}

		su, err := readInt(row, fields, ln, "spatialunit")
		if err != nil {
			return fmt.Errorf("params.ReadDecay: %v", err)
		}
		p := DecayParam{Pool: strings.TrimSpace(row[fields["pool"]])}
		if p.BaseRate, err = readFloat(row, fields, ln, "baserate"); err != nil {
			return fmt.Errorf("params.ReadDecay: %v", err)
		}
		if p.Q10, err = readFloat(row, fields, ln, "q10"); err != nil {
			return fmt.Errorf("params.ReadDecay: %v", err)
		}
		if p.RefTemp, err = readFloat(row, fields, ln, "reftemp"); err != nil {
			return fmt.Errorf("params.ReadDecay: %v", err)
		}
		if p.MaxRate, err = readFloat(row, fields, ln, "maxrate"); err != nil {
			return fmt.Errorf("params.ReadDecay: %v", err)
		}
		if p.PropToAtmosphere, err = readFloat(row, fields, ln, "proptoatmosphere"); err != nil {
			return fmt.Errorf("params.ReadDecay: %v", err)
		}
		if i, ok := fields["next"]; ok {
			p.Next = strings.TrimSpace(row[i])
		}
		s.AddDecay(su, p)
	}
	return nil
}

// ReadTurnover reads turnover parameters from a TSV file, one row per
// spatial unit.
//
// Required fields: spatialunit, foliagefall, branchfall, stemfall,
// coarserootfall, finerootfall, branchsnagsplit, coarserootagsplit,
// finerootagsplit, stemsnagturnover, branchsnagturnover.
func ReadTurnover(r io.Reader, s *Store) error {
	required := []string{
		"spatialunit", "foliagefall", "branchfall", "stemfall",
		"coarserootfall", "finerootfall", "branchsnagsplit",
		"coarserootagsplit", "finerootagsplit", "stemsnagturnover",
		"branchsnagturnover",
	}
	tsv, fields, err := tsvHeader(r, required)
	if err != nil {
		return fmt.Errorf("params.ReadTurnover: %v", err)
	}
	for {
		row, err := tsv.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tsv.FieldPos(0)
		if err != nil {
			return fmt.Errorf("params.ReadTurnover: on row %d: %v", ln, err)
		}

		su, err := readInt(row, fields, ln, "spatialunit")
		if err != nil {
			return fmt.Errorf("params.ReadTurnover: %v", err)
		}
		var p TurnoverParam
		vals := []*float64{
			&p.FoliageFall, &p.BranchFall, &p.StemFall, &p.CoarseRootFall,
			&p.FineRootFall, &p.BranchSnagSplit, &p.CoarseRootAGSplit,
			&p.FineRootAGSplit, &p.StemSnagTurnover, &p.BranchSnagTurnover,
		}
		names := required[1:]
		for i, name := range names {
			v, err := readFloat(row, fields, ln, name)
			if err != nil {
				return fmt.Errorf("params.ReadTurnover: %v", err)
			}
			*vals[i] = v
		}
		s.AddTurnover(su, p)
	}
	return nil
}

// ReadSpatialUnits reads spatial unit defaults from a TSV file.
//
// Required fields: id, defaultmeanannualtemp.
func ReadSpatialUnits(r io.Reader, s *Store) error {
	tsv, fields, err := tsvHeader(r, []string{"id", "defaultmeanannualtemp"})
	if err != nil {
		return fmt.Errorf("params.ReadSpatialUnits: %v", err)
	}
	for {
		row, err := tsv.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tsv.FieldPos(0)
		if err != nil {
			return fmt.Errorf("params.ReadSpatialUnits: on row %d: %v", ln, err)
		}

		id, err := readInt(row, fields, ln, "id")
		if err != nil {
			return fmt.Errorf("params.ReadSpatialUnits: %v", err)
		}
		t, err := readFloat(row, fields, ln, "defaultmeanannualtemp")
		if err != nil {
			return fmt.Errorf("params.ReadSpatialUnits: %v", err)
		}
		s.AddSpatialUnit(SpatialUnit{ID: id, DefaultMeanAnnualTemp: t})
	}
	return nil
}

// ReadDisturbanceMatrixID reads the disturbance-type-by-spatial-unit
// to matrix-id mapping from a TSV file.
//
// Required fields: disturbancetype, spatialunit, matrixid.
func ReadDisturbanceMatrixID(r io.Reader, s *Store) error {
	tsv, fields, err := tsvHeader(r, []string{"disturbancetype", "spatialunit", "matrixid"})
	if err != nil {
		return fmt.Errorf("params.ReadDisturbanceMatrixID: %v", err)
	}
	for {
		row, err := tsv.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tsv.FieldPos(0)
		if err != nil {
			return fmt.Errorf("params.ReadDisturbanceMatrixID: on row %d: %v", ln, err)
		}

		dt, err := readInt(row, fields, ln, "disturbancetype")
		if err != nil {
			return fmt.Errorf("params.ReadDisturbanceMatrixID: %v", err)
		}
		su, err := readInt(row, fields, ln, "spatialunit")
		if err != nil {
			return fmt.Errorf("params.ReadDisturbanceMatrixID: %v", err)
		}
		mid, err := readInt(row, fields, ln, "matrixid")
		if err != nil {
			return fmt.Errorf("params.ReadDisturbanceMatrixID: %v", err)
		}
		s.AddDisturbanceMatrixID(dt, su, mid)
	}
	return nil
}

// ReadDisturbanceMatrix reads disturbance matrix (source, sink,
// proportion) rows from a TSV file.
//
// Required fields: matrixid, source, sink, proportion.
func ReadDisturbanceMatrix(r io.Reader, s *Store) error {
	tsv, fields, err := tsvHeader(r, []string{"matrixid", "source", "sink", "proportion"})
	if err != nil {
		return fmt.Errorf("params.ReadDisturbanceMatrix: %v", err)
	}
	for {
		row, err := tsv.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tsv.FieldPos(0)
		if err != nil {
			return fmt.Errorf("params.ReadDisturbanceMatrix: on row %d: %v", ln, err)
		}

		mid, err := readInt(row, fields, ln, "matrixid")
		if err != nil {
			return fmt.Errorf("params.ReadDisturbanceMatrix: %v", err)
		}
		src, err := readInt(row, fields, ln, "source")
		if err != nil {
			return fmt.Errorf("params.ReadDisturbanceMatrix: %v", err)
		}
		sink, err := readInt(row, fields, ln, "sink")
		if err != nil {
			return fmt.Errorf("params.ReadDisturbanceMatrix: %v", err)
		}
		prop, err := readFloat(row, fields, ln, "proportion")
		if err != nil {
			return fmt.Errorf("params.ReadDisturbanceMatrix: %v", err)
		}
		s.AddDisturbanceMatrixRow(DisturbanceMatrixRow{MatrixID: mid, Source: src, Sink: sink, Prop: prop})
	}
	return nil
}

// ReadVolToBiomass reads per-species volume-to-biomass conversion
// coefficients from a TSV file.
//
// Required fields: species, merchcoef, foliagea, foliageb, othera,
// otherb, coarseroot, fineroot.
func ReadVolToBiomass(r io.Reader, s *Store) error {
	required := []string{"species", "merchcoef", "foliagea", "foliageb", "othera", "otherb", "coarseroot", "fineroot"}
	tsv, fields, err := tsvHeader(r, required)
	if err != nil {
		return fmt.Errorf("params.ReadVolToBiomass: %v", err)
	}
	for {
		row, err := tsv.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tsv.FieldPos(0)
		if err != nil {
			return fmt.Errorf("params.ReadVolToBiomass: on row %d: %v", ln, err)
		}

		v := VolToBiomassCoef{Species: strings.TrimSpace(row[fields["species"]])}
		vals := []*float64{&v.MerchCoef, &v.FoliageA, &v.FoliageB, &v.OtherA, &v.OtherB, &v.CoarseRoot, &v.FineRoot}
		names := required[1:]
		for i, name := range names {
			f, err := readFloat(row, fields, ln, name)
			if err != nil {
				return fmt.Errorf("params.ReadVolToBiomass: %v", err)
			}
			*vals[i] = f
		}
		s.AddVolToBiomass(v)
	}
	return nil
}

// ReadReturnInterval reads the historical-disturbance return-interval
// model from a TSV file.
//
// Required fields: spatialunit, baseinterval, mininterval,
// maxinterval.
func ReadReturnInterval(r io.Reader, s *Store) error {
	tsv, fields, err := tsvHeader(r, []string{"spatialunit", "baseinterval", "mininterval", "maxinterval"})
	if err != nil {
		return fmt.Errorf("params.ReadReturnInterval: %v", err)
	}
	for {
		row, err := tsv.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tsv.FieldPos(0)
		if err != nil {
			return fmt.Errorf("params.ReadReturnInterval: on row %d: %v", ln, err)
		}

		su, err := readInt(row, fields, ln, "spatialunit")
		if err != nil {
			return fmt.Errorf("params.ReadReturnInterval: %v", err)
		}
		r := ReturnIntervalCoef{SpatialUnit: su}
		if r.BaseInterval, err = readFloat(row, fields, ln, "baseinterval"); err != nil {
			return fmt.Errorf("params.ReadReturnInterval: %v", err)
		}
		if r.MinInterval, err = readFloat(row, fields, ln, "mininterval"); err != nil {
			return fmt.Errorf("params.ReadReturnInterval: %v", err)
		}
		if r.MaxInterval, err = readFloat(row, fields, ln, "maxinterval"); err != nil {
			return fmt.Errorf("params.ReadReturnInterval: %v", err)
		}
		s.AddReturnInterval(r)
	}
	return nil
}
