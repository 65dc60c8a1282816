package frequency

import "sort"

// Family is one probability distribution family. Implementations provide
// maximum-likelihood fitting plus the density, cumulative, and inverse
// cumulative functions needed by the goodness-of-fit tests and the curve
// builders. Adding a family means registering a new implementation; nothing
// else branches on family names.
type Family interface {
	// Name is the registry key, e.g. "gumbel".
	Name() string

	// DisplayName is the human-readable family name, e.g. "Gumbel".
	DisplayName() string

	// NumParams is the number of free parameters estimated by Fit.
	NumParams() int

	// Fit estimates parameters from an aggregated sample by maximum
	// likelihood. Returns an error on domain violations, degenerate input,
	// or solver non-convergence; an error never aborts sibling families.
	Fit(sample []float64) (Params, error)

	// LogPDF evaluates the log density at x.
	LogPDF(x float64, p Params) float64

	// CDF evaluates the cumulative distribution function at x.
	CDF(x float64, p Params) float64

	// Quantile is the inverse CDF for non-exceedance probability prob in (0,1).
	Quantile(prob float64, p Params) float64
}

var registry = map[string]Family{}

// Register adds a family to the registry. Called from init funcs; a
// duplicate name panics because it is a programming error.
func Register(f Family) {
	if _, exists := registry[f.Name()]; exists {
		panic("frequency: duplicate distribution family " + f.Name())
	}
	registry[f.Name()] = f
}

// Lookup returns the family registered under name.
func Lookup(name string) (Family, bool) {
	f, ok := registry[name]
	return f, ok
}

// FamilyNames returns all registered family names in sorted order, which
// fixes the iteration order for deterministic results.
func FamilyNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveFamilies expands a requested family list. Empty or a single "all"
// selects every registered family. Unknown names are an input validation
// error.
func ResolveFamilies(requested []string) ([]Family, error) {
	if len(requested) == 0 || (len(requested) == 1 && requested[0] == "all") {
		names := FamilyNames()
		families := make([]Family, len(names))
		for i, name := range names {
			families[i] = registry[name]
		}
		return families, nil
	}

	families := make([]Family, 0, len(requested))
	for _, name := range requested {
		f, ok := registry[name]
		if !ok {
			return nil, NewInputValidationError("unknown distribution %q", name)
		}
		families = append(families, f)
	}
	return families, nil
}
