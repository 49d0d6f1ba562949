package harness

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/contractum/internal/compiler"
	"github.com/roach88/contractum/internal/testutil"
)

const brokenCUE = `
interface: T: {
	transition: transfer: inputs: beneficiary: "once"
	default: "mint"
}
`

func boolPtr(b bool) *bool { return &b }

// writeSpecs writes each source to its own .cue file in a fresh directory.
func writeSpecs(t *testing.T, sources ...string) string {
	t.Helper()
	dir := t.TempDir()
	for i, src := range sources {
		path := filepath.Join(dir, string(rune('a'+i))+".cue")
		require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	}
	return dir
}

func TestRun_ValidInterface(t *testing.T) {
	scenario := &Scenario{
		Name:      "fungible",
		Specs:     []string{writeSpecs(t, testutil.FungibleAssetCUE)},
		Interface: "FungibleAsset",
		Expect:    Expectation{Valid: boolPtr(true)},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "FungibleAsset", result.Interface)
	assert.Equal(t, testutil.FungibleAsset().ID().String(), result.ID)
	assert.Empty(t, result.Violations)
	assert.Empty(t, result.Inheritance)
	assert.Contains(t, result.Rendered, "interface FungibleAsset\n")

	require.Len(t, result.Trace, 3)
	assert.Equal(t, []TraceEvent{
		{Type: EventCompile, Seq: 1, Interface: "FungibleAsset"},
		{Type: EventCheck, Seq: 2, Interface: "FungibleAsset", Codes: []string{}},
		{Type: EventInherit, Seq: 3, Interface: "FungibleAsset"},
	}, result.Trace)
}

func TestRun_Violations(t *testing.T) {
	scenario := &Scenario{
		Name:      "broken",
		Specs:     []string{writeSpecs(t, brokenCUE)},
		Interface: "T",
		Expect: Expectation{
			Valid: boolPtr(false),
			Violations: []Finding{
				{Code: compiler.ErrUnknownInput, Op: "transition 'transfer'", Field: "beneficiary"},
				{Code: compiler.ErrUnknownDefaultOp, Field: "mint"},
			},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.Len(t, result.Violations, 2)
	assert.Equal(t, []string{"E203", "E208"}, result.Trace[1].Codes)
}

func TestRun_ValidityMismatch(t *testing.T) {
	scenario := &Scenario{
		Name:      "broken",
		Specs:     []string{writeSpecs(t, brokenCUE)},
		Interface: "T",
		Expect:    Expectation{Valid: boolPtr(true)},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "expected valid=true, got 2 violations and 0 inheritance findings", result.Errors[0])
}

func TestRun_FindingMismatch(t *testing.T) {
	tests := []struct {
		name     string
		findings []Finding
		want     string
	}{
		{
			name:     "count",
			findings: []Finding{{Code: "E208"}},
			want:     "expected 1 violations findings [E208], got 2 [E203 E208]",
		},
		{
			name:     "code",
			findings: []Finding{{Code: "E202"}, {Code: "E208"}},
			want:     "violations[0]: expected E202, got E203 in transition 'transfer' at 'beneficiary'",
		},
		{
			name:     "field",
			findings: []Finding{{Code: "E203", Field: "payee"}, {Code: "E208"}},
			want:     "violations[0]: expected E203 at 'payee', got E203 in transition 'transfer' at 'beneficiary'",
		},
		{
			name:     "op",
			findings: []Finding{{Code: "E203"}, {Code: "E208", Op: "genesis"}},
			want:     "violations[1]: expected E208 in genesis, got E208 at 'mint'",
		},
	}

	specs := writeSpecs(t, brokenCUE)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Run(&Scenario{
				Name:      tt.name,
				Specs:     []string{specs},
				Interface: "T",
				Expect:    Expectation{Valid: boolPtr(false), Violations: tt.findings},
			})
			require.NoError(t, err)

			assert.False(t, result.Pass)
			assert.Equal(t, []string{tt.want}, result.Errors)
		})
	}
}

func TestRun_InheritanceThroughRegistry(t *testing.T) {
	scenario := &Scenario{
		Name:      "burnable",
		Specs:     []string{writeSpecs(t, testutil.FungibleAssetCUE, testutil.BurnableAssetCUE)},
		Interface: "BurnableAsset",
		Expect:    Expectation{Valid: boolPtr(true)},
		Assertions: []Assertion{
			{Type: AssertInherits, Parent: "FungibleAsset"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Contains(t, result.Rendered, "interface BurnableAsset: FungibleAsset\n")
	assert.Equal(t, EventCompile, result.Trace[0].Type)
	assert.Equal(t, "FungibleAsset", result.Trace[0].Interface)
	assert.Equal(t, "BurnableAsset", result.Trace[1].Interface)
}

func TestRun_InheritanceFindings(t *testing.T) {
	scenario := &Scenario{
		Name:      "orphan",
		Specs:     []string{writeSpecs(t, `interface: Orphan: genesis: modifier: "override"`)},
		Interface: "Orphan",
		Expect: Expectation{
			Valid:       boolPtr(false),
			Inheritance: []Finding{{Code: compiler.ErrOverrideWithoutAncestor, Op: "genesis"}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, []string{"E304"}, result.Trace[2].Codes)
}

func TestRun_ExpectID(t *testing.T) {
	specs := writeSpecs(t, testutil.FungibleAssetCUE)
	fungible := testutil.FungibleAsset()

	result, err := Run(&Scenario{
		Name:      "id",
		Specs:     []string{specs},
		Interface: "FungibleAsset",
		Expect:    Expectation{Valid: boolPtr(true), ID: fungible.ID().Base58()},
	})
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	other := testutil.BurnableAsset(fungible.ID()).ID()
	result, err = Run(&Scenario{
		Name:      "id",
		Specs:     []string{specs},
		Interface: "FungibleAsset",
		Expect:    Expectation{Valid: boolPtr(true), ID: other.String()},
	})
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, []string{"expected id " + other.String() + ", got " + fungible.ID().String()}, result.Errors)
}

func TestRun_SpecFile(t *testing.T) {
	dir := writeSpecs(t, testutil.FungibleAssetCUE)

	result, err := Run(&Scenario{
		Name:      "file",
		Specs:     []string{filepath.Join(dir, "a.cue"), dir},
		Interface: "FungibleAsset",
		Expect:    Expectation{Valid: boolPtr(true)},
	})
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Len(t, result.Trace, 3, "a file listed twice is compiled once")
}

func TestRun_InterfaceNotFound(t *testing.T) {
	_, err := Run(&Scenario{
		Name:      "missing",
		Specs:     []string{writeSpecs(t, testutil.FungibleAssetCUE)},
		Interface: "Nope",
		Expect:    Expectation{Valid: boolPtr(true)},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `interface "Nope" not found in specs`)
}

func TestRun_CompileFailure(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "syntax", src: `interface: T: {`, want: "failed to compile specs"},
		{name: "unknown parent", src: `interface: T: inherits: ["Nowhere"]`, want: `unknown parent interface "Nowhere"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(&Scenario{
				Name:      tt.name,
				Specs:     []string{writeSpecs(t, tt.src)},
				Interface: "T",
				Expect:    Expectation{Valid: boolPtr(true)},
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRun_EmptySpecDir(t *testing.T) {
	_, err := Run(&Scenario{
		Name:      "empty",
		Specs:     []string{t.TempDir()},
		Interface: "T",
		Expect:    Expectation{Valid: boolPtr(true)},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, compiler.ErrNoCUEFiles)
}

func TestRun_RunID(t *testing.T) {
	specs := writeSpecs(t, testutil.FungibleAssetCUE)
	scenario := func(runID string) *Scenario {
		return &Scenario{
			Name:      "run-id",
			Specs:     []string{specs},
			Interface: "FungibleAsset",
			Expect:    Expectation{Valid: boolPtr(true)},
			RunID:     runID,
		}
	}

	t.Run("fixed", func(t *testing.T) {
		result, err := Run(scenario("test-run-0042"))
		require.NoError(t, err)
		assert.Equal(t, "test-run-0042", result.RunID)
	})

	t.Run("fresh uuid v7", func(t *testing.T) {
		first, err := Run(scenario(""))
		require.NoError(t, err)
		second, err := Run(scenario(""))
		require.NoError(t, err)

		id, err := uuid.Parse(first.RunID)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(7), id.Version())
		assert.NotEqual(t, first.RunID, second.RunID)
	})

	t.Run("generator overrides scenario", func(t *testing.T) {
		result, err := Run(scenario("test-run-0042"), WithRunIDGenerator(testutil.NewFixedRunIDGenerator("injected")))
		require.NoError(t, err)
		assert.Equal(t, "injected", result.RunID)
	})
}

func TestRun_Logger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	_, err := Run(&Scenario{
		Name:      "logged",
		Specs:     []string{writeSpecs(t, brokenCUE)},
		Interface: "T",
		Expect:    Expectation{Valid: boolPtr(false)},
		RunID:     "test-run-log",
	}, WithLogger(logger))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "interface compiled")
	assert.Contains(t, out, "interface checked")
	assert.Contains(t, out, "run_id=test-run-log")
	assert.Contains(t, out, "violations=2")
}

func TestResult_AddError(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)

	r.AddError("first")
	r.AddError("second")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"first", "second"}, r.Errors)
}

func TestResult_AddTraceNumbersEvents(t *testing.T) {
	r := NewResult()
	r.AddTrace(EventCompile, "A", nil)
	r.AddTrace(EventCheck, "A", []string{"E201"})

	assert.Equal(t, int64(1), r.Trace[0].Seq)
	assert.Equal(t, int64(2), r.Trace[1].Seq)
	assert.Equal(t, []string{"E201"}, r.Trace[1].Codes)
}
