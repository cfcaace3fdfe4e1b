package service

import (
	"go-hep.org/x/hep/hbook"

	"github.com/okian/ucbtag/internal/domain/schema"
)

const summaryBins = 40

// Summary describes the DeltaR distribution of the matched jets of a run.
type Summary struct {
	Matched int
	MeanDR  float64
	StdDR   float64
	Hist    *hbook.H1D
}

// Summarize histograms the DeltaR of every matched jet in [0, threshold).
func Summarize(jets []schema.JetRecord, threshold float64) Summary {
	h := hbook.NewH1D(summaryBins, 0, threshold)
	for _, j := range jets {
		if j.IsMatched {
			h.Fill(float64(j.DR), 1)
		}
	}
	s := Summary{Matched: int(h.Entries()), Hist: h}
	if s.Matched > 0 {
		s.MeanDR = h.XMean()
	}
	if s.Matched > 1 {
		s.StdDR = h.XStdDev()
	}
	return s
}
