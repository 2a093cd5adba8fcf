package pipeline

// Options selects optional passes.
type Options struct {
	// SkipAssets leaves out the asset copier, as in check mode.
	SkipAssets bool
	// Stamp overrides the default stamp pass, mainly for tests.
	Stamp *Stamp
}

// Default returns the standard passes in declared order.
func Default(opts Options) []Pass {
	stamp := opts.Stamp
	if stamp == nil {
		stamp = NewStamp()
	}
	p := NewPipeline().
		Add(stamp).
		Add(LoadBibliography()).
		Add(LoadLinks()).
		Add(CollectMeta()).
		Add(NumberChapters()).
		Add(CollectReferences()).
		Add(AppendLinks()).
		AddIf(!opts.SkipAssets, CopyFiles())
	return p.Build()
}

// Pipeline is a fluent builder for ordered pass lists.
type Pipeline struct{ passes []Pass }

// NewPipeline creates an empty pipeline.
func NewPipeline() *Pipeline { return &Pipeline{passes: make([]Pass, 0, 8)} }

// Add appends a pass unconditionally.
func (p *Pipeline) Add(pass Pass) *Pipeline {
	p.passes = append(p.passes, pass)
	return p
}

// AddIf appends a pass only if cond is true.
func (p *Pipeline) AddIf(cond bool, pass Pass) *Pipeline {
	if cond {
		p.Add(pass)
	}
	return p
}

// Build returns a copy of the pass list.
func (p *Pipeline) Build() []Pass {
	out := make([]Pass, len(p.passes))
	copy(out, p.passes)
	return out
}
