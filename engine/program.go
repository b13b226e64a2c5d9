package engine

// smoothRate sets how fast a signal's smoothed value chases its target:
// the slew step is this fraction of the param's full range per sample.
const smoothRate = 0.002

// Signal is a parameter value with per-sample smoothing. Set and Get work
// on the raw value so control edits read back exactly what was written;
// voices read Smoothed, which slews toward the raw value one step per
// UpdateParams call to keep audible zipper noise out of the mix.
type Signal[F Float] struct {
	value    F
	smoothed F
	step     F
}

func (s *Signal[F]) Set(v F) {
	s.value = v
}

func (s *Signal[F]) Get() F {
	return s.value
}

func (s *Signal[F]) Smoothed() F {
	return s.smoothed
}

func (s *Signal[F]) update() {
	d := s.value - s.smoothed
	if d > s.step {
		d = s.step
	} else if d < -s.step {
		d = -s.step
	}
	s.smoothed += d
}

type Values[F Float] struct {
	Min        F
	Max        F
	Origin     F
	Resolution F
	Initial    F
}

// Modulator binds a modulation source to the owning param. Slots are
// created when the program is built; the synth only ever rewrites Amount.
type Modulator[F Float] struct {
	Source SourceRef
	Amount F
}

type Param[F Float] struct {
	ID         string
	Signal     Signal[F]
	Values     Values[F]
	Modulators []Modulator[F]
}

type Source struct {
	ID string
}

// Program is the active patch: a param table and a modulation source
// table, both addressed by opaque refs. After construction it is owned by
// the audio thread; the control thread only refers to entries by ref.
type Program[F Float] struct {
	params  []Param[F]
	sources []Source
}

func NewProgram[F Float]() *Program[F] {
	return &Program[F]{}
}

func (p *Program[F]) AddParam(id string, v Values[F]) ParamRef {
	param := Param[F]{ID: id, Values: v}
	param.Signal.value = v.Initial
	param.Signal.smoothed = v.Initial
	param.Signal.step = (v.Max - v.Min) * smoothRate
	p.params = append(p.params, param)
	return ParamRef(len(p.params) - 1)
}

func (p *Program[F]) AddSource(id string) SourceRef {
	p.sources = append(p.sources, Source{ID: id})
	return SourceRef(len(p.sources) - 1)
}

// Connect creates a modulator slot on the param. The amount can be
// rewritten later through a ModAmount message; the slot itself is fixed.
func (p *Program[F]) Connect(src SourceRef, param ParamRef, amount F) {
	pp := p.Param(param)
	if pp == nil || p.Source(src) == nil {
		return
	}
	pp.Modulators = append(pp.Modulators, Modulator[F]{Source: src, Amount: amount})
}

// Param resolves a ref, nil when out of range.
func (p *Program[F]) Param(ref ParamRef) *Param[F] {
	if ref < 0 || int(ref) >= len(p.params) {
		return nil
	}
	return &p.params[ref]
}

func (p *Program[F]) Source(ref SourceRef) *Source {
	if ref < 0 || int(ref) >= len(p.sources) {
		return nil
	}
	return &p.sources[ref]
}

func (p *Program[F]) ParamByID(id string) (ParamRef, bool) {
	for i := range p.params {
		if p.params[i].ID == id {
			return ParamRef(i), true
		}
	}
	return InvalidRef, false
}

func (p *Program[F]) SourceByID(id string) (SourceRef, bool) {
	for i := range p.sources {
		if p.sources[i].ID == id {
			return SourceRef(i), true
		}
	}
	return InvalidRef, false
}

func (p *Program[F]) NumParams() int {
	return len(p.params)
}

func (p *Program[F]) NumSources() int {
	return len(p.sources)
}

// UpdateParams advances every signal one smoothing step. The synth calls
// this once per processed sample whether or not any voice is sounding.
func (p *Program[F]) UpdateParams() {
	for i := range p.params {
		p.params[i].Signal.update()
	}
}
