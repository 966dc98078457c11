package metrics

import "math"

// Agreement summarises how closely the predicted labelling tracks the true one
// when the confusion matrix is read as a contingency table.
type Agreement struct {
	Kappa                  float64 `json:"kappa"`
	AdjustedRandIndex      float64 `json:"adjustedRandIndex"`
	VariationOfInformation float64 `json:"variationOfInformation"`
}

// Agree computes every agreement statistic for m.
func Agree(m *ConfusionMatrix) Agreement {
	return Agreement{
		Kappa:                  CohensKappa(m),
		AdjustedRandIndex:      AdjustedRandIndex(m),
		VariationOfInformation: VariationOfInformation(m),
	}
}

// CohensKappa is the chance-corrected accuracy.
//
// kappa = (po - pe) / (1 - pe)
// where po = trace / n and pe = sum_k (a_k * b_k) / n^2.
//
// Returns 0 when pe == 1 (a single class used by both labellings).
func CohensKappa(m *ConfusionMatrix) float64 {
	n := float64(m.Total())
	if n == 0 {
		return 0
	}
	po := float64(m.Correct()) / n
	pe := 0.0
	for k := 0; k < m.Size(); k++ {
		pe += float64(m.Support(k)) * float64(m.Predicted(k))
	}
	pe /= n * n
	if pe == 1 {
		return 0
	}
	return (po - pe) / (1 - pe)
}

// AdjustedRandIndex computes the ARI between the true and predicted partitions.
//
// ARI = (RI - Expected_RI) / (Max_RI - Expected_RI)
// where RI counts pairs of samples that both labellings put together or apart.
//
// Values range from -1 (worse than random) to 1 (perfect agreement). 0 = random.
// Label names do not matter: swapping two predicted classes leaves ARI unchanged.
func AdjustedRandIndex(m *ConfusionMatrix) float64 {
	n := m.Total()
	if n < 2 {
		return 0.0
	}

	// sum of C(n_ij, 2)
	sumNijC2 := 0.0
	for i := 0; i < m.Size(); i++ {
		for j := 0; j < m.Size(); j++ {
			sumNijC2 += comb2(m.At(i, j))
		}
	}

	sumAiC2, sumBjC2 := 0.0, 0.0
	for k := 0; k < m.Size(); k++ {
		sumAiC2 += comb2(m.Support(k))
		sumBjC2 += comb2(m.Predicted(k))
	}

	nC2 := comb2(n)
	expectedIndex := (sumAiC2 * sumBjC2) / nC2
	maxIndex := 0.5 * (sumAiC2 + sumBjC2)

	denominator := maxIndex - expectedIndex
	if math.Abs(denominator) < 1e-12 {
		return 1.0 // both partitions are trivial
	}

	return (sumNijC2 - expectedIndex) / denominator
}

// VariationOfInformation computes the VI distance in bits.
//
// VI(T, P) = H(T|P) + H(P|T)
//
// Lower is better. 0 = identical partitions.
func VariationOfInformation(m *ConfusionMatrix) float64 {
	n := float64(m.Total())
	if n < 2 {
		return 0.0
	}

	vi := 0.0
	for i := 0; i < m.Size(); i++ {
		a := float64(m.Support(i))
		for j := 0; j < m.Size(); j++ {
			nij := float64(m.At(i, j))
			if nij == 0 {
				continue
			}
			b := float64(m.Predicted(j))
			pij := nij / n
			// H(T|P) term and H(P|T) term.
			vi -= pij * math.Log2(nij/b)
			vi -= pij * math.Log2(nij/a)
		}
	}
	return vi
}

// comb2 computes C(n, 2) = n*(n-1)/2
func comb2(n int) float64 {
	if n < 2 {
		return 0
	}
	return float64(n) * float64(n-1) / 2.0
}
