package endpoint

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MapSummary describes one hemisphere's endpoint map for reporting.
type MapSummary struct {
	// Total is the sum of the map: the retained endpoint count for count
	// maps, 1 (or 0 when nothing was retained) for PDF maps.
	Total float64

	// NonzeroVertices is the number of vertices that received at least
	// one endpoint.
	NonzeroVertices int

	// PeakVertex is the index of the vertex with the largest value, or
	// -1 for an all-zero map.
	PeakVertex int

	// PeakValue is the value at PeakVertex.
	PeakValue float64

	// Entropy is the Shannon entropy (in nats) of the map normalized to
	// a distribution. Higher means endpoints spread over more vertices.
	Entropy float64
}

// Summarize computes summary statistics for a single hemisphere map.
func Summarize(values []float64) MapSummary {
	s := MapSummary{PeakVertex: -1}
	if len(values) == 0 {
		return s
	}

	s.Total = floats.Sum(values)
	for _, v := range values {
		if v != 0 {
			s.NonzeroVertices++
		}
	}
	if s.Total > 0 {
		s.PeakVertex = floats.MaxIdx(values)
		s.PeakValue = values[s.PeakVertex]

		p := make([]float64, len(values))
		copy(p, values)
		floats.Scale(1/s.Total, p)
		s.Entropy = stat.Entropy(p)
	}
	return s
}
