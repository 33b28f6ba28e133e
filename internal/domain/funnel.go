package domain

import (
	"strings"
	"time"
)

type Funnel struct {
	ID        string        `json:"id" yaml:"id"`
	Name      string        `json:"name" yaml:"name"`
	Stages    []FunnelStage `json:"stages" yaml:"stages"`
	CreatedAt time.Time     `json:"createdAt" yaml:"createdAt"`
}

type FunnelStage struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

type StageRate struct {
	Name     string  `json:"name"`
	Count    int     `json:"count"`
	StepRate float64 `json:"stepRate"`
	Overall  float64 `json:"overallRate"`
	DropOff  int     `json:"dropOff"`
}

// ConversionRates reports each stage relative to the previous stage and to
// the first stage, as percentages. A zero denominator yields 0.
func (f *Funnel) ConversionRates() []StageRate {
	rates := make([]StageRate, len(f.Stages))
	for i, st := range f.Stages {
		r := StageRate{Name: st.Name, Count: st.Count, StepRate: 100, Overall: 100}
		if i > 0 {
			prev := f.Stages[i-1].Count
			first := f.Stages[0].Count
			r.StepRate = percent(st.Count, prev)
			r.Overall = percent(st.Count, first)
			r.DropOff = prev - st.Count
		} else if st.Count == 0 {
			r.StepRate, r.Overall = 0, 0
		}
		rates[i] = r
	}
	return rates
}

func percent(n, d int) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) * 100 / float64(d)
}

func (f *Funnel) Validate() error {
	v := &ValidationError{}
	if strings.TrimSpace(f.Name) == "" {
		v.Add("name", "is required")
	}
	if len(f.Stages) == 0 {
		v.Add("stages", "at least one stage is required")
	}
	for i, st := range f.Stages {
		if strings.TrimSpace(st.Name) == "" {
			v.Addf("stages", "stage %d needs a name", i)
		}
		if st.Count < 0 {
			v.Addf("stages", "stage %d has a negative count", i)
		}
	}
	return v.OrNil()
}
