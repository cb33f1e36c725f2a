//go:build cgo && lfmf

package native

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/signalsfoundry/groundwave/core"
	"github.com/signalsfoundry/groundwave/internal/engine/enginetest"
	"github.com/signalsfoundry/groundwave/model"
)

var update = flag.Bool("update", false, "record testdata/reference.json from the linked LFMF library")

const referencePath = "testdata/reference.json"

type referenceCase struct {
	Name   string                `json:"name"`
	Params model.InputParameters `json:"params"`
	Result model.Result          `json:"result"`
}

func referenceInputs() []referenceCase {
	baseline := enginetest.Baseline()
	demo := model.DefaultParameters()
	far := baseline
	far.DistanceKm = 500
	horizontal := baseline
	horizontal.Polarization = model.PolarizationHorizontal
	return []referenceCase{
		{Name: "baseline_15mhz_1km", Params: baseline},
		{Name: "baseline_15mhz_500km", Params: far},
		{Name: "baseline_horizontal", Params: horizontal},
		{Name: "demo_10khz_100km", Params: demo},
	}
}

func TestReferenceScenarios(t *testing.T) {
	eng, err := Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer eng.Close()

	cases := referenceInputs()
	if *update {
		for i := range cases {
			res, err := eng.Evaluate(cases[i].Params)
			if err != nil {
				t.Fatalf("%s: Evaluate: %v", cases[i].Name, err)
			}
			cases[i].Result = res
		}
		data, err := json.MarshalIndent(cases, "", "  ")
		if err != nil {
			t.Fatalf("marshal reference: %v", err)
		}
		if err := os.MkdirAll(filepath.Dir(referencePath), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(referencePath, append(data, '\n'), 0o644); err != nil {
			t.Fatalf("write reference: %v", err)
		}
		return
	}

	data, err := os.ReadFile(referencePath)
	if errors.Is(err, os.ErrNotExist) {
		t.Skipf("%s not recorded; run `go test -tags lfmf -run TestReferenceScenarios -update` against a validated library", referencePath)
	}
	if err != nil {
		t.Fatalf("read reference: %v", err)
	}
	var recorded []referenceCase
	if err := json.Unmarshal(data, &recorded); err != nil {
		t.Fatalf("parse reference: %v", err)
	}

	for _, rc := range recorded {
		t.Run(rc.Name, func(t *testing.T) {
			got, err := eng.Evaluate(rc.Params)
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if got.Method != model.MethodFlatEarth && got.Method != model.MethodResidueSeries {
				t.Fatalf("method = %d, want flat earth or residue series", got.Method)
			}
			assertClose(t, "basic transmission loss", got.BasicTransmissionLossDB, rc.Result.BasicTransmissionLossDB)
			assertClose(t, "field strength", got.FieldStrengthDBuVm, rc.Result.FieldStrengthDBuVm)
			assertClose(t, "received power", got.ReceivedPowerDBm, rc.Result.ReceivedPowerDBm)
			if got.Method != rc.Result.Method {
				t.Fatalf("method = %v, want %v", got.Method, rc.Result.Method)
			}
		})
	}
}

// The gate must report the same code the library does for every invalid
// input, including when several fields are invalid at once.
func TestGateMatchesLibraryCodes(t *testing.T) {
	eng, err := Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer eng.Close()

	base := enginetest.Baseline()
	mutate := func(fn func(*model.InputParameters)) model.InputParameters {
		p := base
		fn(&p)
		return p
	}
	inputs := []model.InputParameters{
		mutate(func(p *model.InputParameters) { p.TxHeightMeter = 51 }),
		mutate(func(p *model.InputParameters) { p.RxHeightMeter = -1 }),
		mutate(func(p *model.InputParameters) { p.FrequencyMHz = 0 }),
		mutate(func(p *model.InputParameters) { p.FrequencyMHz = 30.0001 }),
		mutate(func(p *model.InputParameters) { p.TxPowerWatt = 0 }),
		mutate(func(p *model.InputParameters) { p.SurfaceRefractivity = 401 }),
		mutate(func(p *model.InputParameters) { p.DistanceKm = 10001 }),
		mutate(func(p *model.InputParameters) { p.DistanceKm = -5 }),
		mutate(func(p *model.InputParameters) { p.Permittivity = 0.5 }),
		mutate(func(p *model.InputParameters) { p.ConductivitySm = 0 }),
		mutate(func(p *model.InputParameters) { p.Polarization = 2 }),
		mutate(func(p *model.InputParameters) { p.FrequencyMHz = 0; p.Permittivity = 0 }),
	}
	for _, p := range inputs {
		_, libErr := eng.Evaluate(p)
		gateErr := core.Validate(p)
		libCode, libOK := core.CodeOf(libErr)
		gateCode, gateOK := core.CodeOf(gateErr)
		if !libOK || !gateOK || libCode != gateCode {
			t.Fatalf("params %+v: library %v, gate %v", p, libErr, gateErr)
		}
	}
}

func TestConcurrentBatchMatchesSequential(t *testing.T) {
	eng, err := Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	client, err := core.NewClient(eng, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()
	batch, err := core.NewBatchEvaluator(client, nil)
	if err != nil {
		t.Fatalf("NewBatchEvaluator: %v", err)
	}

	distances, err := core.Geomspace(0.01, 1001, 2000)
	if err != nil {
		t.Fatalf("Geomspace: %v", err)
	}
	req := core.BatchRequest{
		Baseline:  model.DefaultParameters(),
		Dimension: model.DimensionDistance,
		Values:    distances,
		Field:     model.FieldBasicTransmissionLoss,
	}

	req.Workers = 1
	seq, err := batch.Evaluate(context.Background(), req)
	if err != nil {
		t.Fatalf("sequential: %v", err)
	}
	req.Workers = 8
	par, err := batch.Evaluate(context.Background(), req)
	if err != nil {
		t.Fatalf("parallel: %v", err)
	}
	for i := range seq.Values {
		if math.Float64bits(seq.Values[i]) != math.Float64bits(par.Values[i]) {
			t.Fatalf("element %d: sequential %v, parallel %v", i, seq.Values[i], par.Values[i])
		}
	}
}

func assertClose(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9*math.Max(1, math.Abs(want)) {
		t.Fatalf("%s = %.12g, want %.12g", name, got, want)
	}
}
