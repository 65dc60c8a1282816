package frequency

import "sort"

// Aggregate reduces raw samples to one value per calendar year using the
// given aggregation function. Years with no samples are omitted, never
// zero-filled. The result is sorted ascending by year.
func Aggregate(samples []Sample, fn AggregationFunc) (*AggregatedSeries, error) {
	switch fn {
	case AggMin, AggMax, AggMean, AggSum:
	default:
		return nil, NewInputValidationError("unknown aggregation function %q", fn)
	}

	if len(samples) == 0 {
		return nil, NewInputValidationError("empty sample set")
	}

	type bucket struct {
		value float64
		sum   float64
		count int
	}

	buckets := make(map[int]*bucket)
	for _, s := range samples {
		year := s.Timestamp.Year()
		b, ok := buckets[year]
		if !ok {
			buckets[year] = &bucket{value: s.Value, sum: s.Value, count: 1}
			continue
		}
		b.count++
		b.sum += s.Value
		switch fn {
		case AggMin:
			if s.Value < b.value {
				b.value = s.Value
			}
		case AggMax:
			if s.Value > b.value {
				b.value = s.Value
			}
		}
	}

	years := make([]int, 0, len(buckets))
	for year := range buckets {
		years = append(years, year)
	}
	sort.Ints(years)

	series := &AggregatedSeries{
		Periods:     make([]AggregatedPeriod, 0, len(years)),
		Aggregation: fn,
	}
	for _, year := range years {
		b := buckets[year]
		value := b.value
		switch fn {
		case AggMean:
			value = b.sum / float64(b.count)
		case AggSum:
			value = b.sum
		}
		series.Periods = append(series.Periods, AggregatedPeriod{
			Period:            year,
			Value:             value,
			SourceSampleCount: b.count,
		})
	}

	return series, nil
}

// SeriesFromPairs builds an AggregatedSeries directly from pre-aggregated
// (period, value) pairs, as supplied by upload collaborators. Pairs are
// sorted by period; duplicate periods are rejected.
func SeriesFromPairs(periods []int, values []float64, fn AggregationFunc) (*AggregatedSeries, error) {
	switch fn {
	case AggMin, AggMax, AggMean, AggSum:
	default:
		return nil, NewInputValidationError("unknown aggregation function %q", fn)
	}
	if len(periods) == 0 {
		return nil, NewInputValidationError("empty sample set")
	}
	if len(periods) != len(values) {
		return nil, NewInputValidationError("periods and values length mismatch: %d vs %d",
			len(periods), len(values))
	}

	entries := make([]AggregatedPeriod, len(periods))
	for i := range periods {
		entries[i] = AggregatedPeriod{
			Period:            periods[i],
			Value:             values[i],
			SourceSampleCount: 1,
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Period < entries[j].Period })

	for i := 1; i < len(entries); i++ {
		if entries[i].Period == entries[i-1].Period {
			return nil, NewInputValidationError("duplicate period %d", entries[i].Period)
		}
	}

	return &AggregatedSeries{Periods: entries, Aggregation: fn}, nil
}
