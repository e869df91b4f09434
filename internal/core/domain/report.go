package domain

import "time"

// Report is the outcome of one analysis run over a project's entrypoints.
type Report struct {
	// Root is the absolute project root.
	Root string `json:"root"`
	// Documents are the analyzed entrypoints, in request order.
	Documents []*Document `json:"documents"`
	// Changed lists the documents whose change triggered this run. It is
	// empty for the initial analysis.
	Changed []ResolvedURL `json:"changed,omitempty"`
	// Measurements are the phase timings recorded during the run.
	Measurements []Measurement `json:"measurements,omitempty"`
	Elapsed      time.Duration `json:"elapsed"`
}

// AllDocuments returns the entrypoints and every document they eagerly
// import, each once, entrypoints first.
func (r *Report) AllDocuments() []*Document {
	seen := make(map[*Document]struct{})
	var out []*Document
	add := func(d *Document) {
		if _, ok := seen[d]; ok {
			return
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	for _, d := range r.Documents {
		add(d)
	}
	for _, d := range r.Documents {
		for _, imported := range d.ImportedDocuments() {
			add(imported)
		}
	}
	return out
}

// Warnings returns the warnings of every document in the report.
func (r *Report) Warnings() []Warning {
	var out []Warning
	for _, d := range r.AllDocuments() {
		out = append(out, d.Warnings...)
	}
	return out
}
