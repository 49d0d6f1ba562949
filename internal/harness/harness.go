package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/google/uuid"

	"github.com/roach88/contractum/internal/compiler"
	"github.com/roach88/contractum/internal/ir"
	"github.com/roach88/contractum/internal/render"
	"github.com/roach88/contractum/internal/store"
	"github.com/roach88/contractum/internal/testutil"
)

// RunIDGenerator produces the run id stamped on a result.
type RunIDGenerator interface {
	Generate() string
}

// uuidRunIDs generates time-ordered UUIDv7 run ids.
type uuidRunIDs struct{}

func (uuidRunIDs) Generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Option configures Run.
type Option func(*Harness)

// WithLogger sets the logger. Runs are silent by default.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) { h.logger = logger }
}

// WithRunIDGenerator overrides the run id source, including a run_id set in
// the scenario.
func WithRunIDGenerator(gen RunIDGenerator) Option {
	return func(h *Harness) { h.runIDs = gen }
}

// Harness is the test execution engine for one scenario run.
type Harness struct {
	store  *store.Store
	runIDs RunIDGenerator
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs against a fresh in-memory registry for isolation.
//
// Execution flow:
// 1. Compile every interface found under scenario.Specs
// 2. Register each one, so inheritance resolves through the registry
// 3. Check the interface under test for consistency and inheritance
// 4. Compare the findings with the expectation and evaluate assertions
//
// An error is returned only when the scenario cannot be executed (bad specs,
// unknown interface). Failed expectations are reported in Result.Errors.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		runIDs: uuidRunIDs{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if scenario.RunID != "" {
		h.runIDs = testutil.NewFixedRunIDGenerator(scenario.RunID)
	}
	for _, opt := range opts {
		opt(h)
	}

	return h.run(context.Background(), scenario)
}

func (h *Harness) run(ctx context.Context, scenario *Scenario) (*Result, error) {
	result := NewResult()
	result.RunID = h.runIDs.Generate()
	result.Interface = scenario.Interface
	logger := h.logger.With("scenario", scenario.Name, "run_id", result.RunID)

	ifaces, err := compileSpecs(scenario.Specs)
	if err != nil {
		return nil, fmt.Errorf("failed to compile specs: %w", err)
	}

	externals := make(map[ir.IfaceID]string, len(ifaces))
	var target *ir.Interface
	for _, iface := range ifaces {
		id, err := h.store.Put(ctx, iface)
		if err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", iface.Name, err)
		}
		externals[id] = iface.Name
		result.AddTrace(EventCompile, iface.Name, nil)
		logger.Info("interface compiled", "interface", iface.Name, "id", id)

		if iface.Name == scenario.Interface {
			target = iface
		}
	}
	if target == nil {
		return nil, fmt.Errorf("interface %q not found in specs", scenario.Interface)
	}
	result.ID = target.ID().String()

	result.Violations = compiler.Inconsistencies(target)
	result.AddTrace(EventCheck, target.Name, compiler.InconsistencyList(result.Violations).Codes())

	result.Inheritance = compiler.CheckInheritance(ctx, target, h.store)
	result.AddTrace(EventInherit, target.Name, inheritanceCodes(result.Inheritance))

	result.Rendered = render.String(target, externals, nil)

	logger.Info("interface checked",
		"interface", target.Name,
		"violations", len(result.Violations),
		"inheritance", len(result.Inheritance),
	)

	for _, msg := range checkExpectation(result, scenario.Expect) {
		result.AddError(msg)
	}

	actx := &AssertionContext{
		Interface: target,
		Names:     externals,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// compileSpecs loads every CUE file named by specs, directly or through a
// directory, and compiles all interfaces in dependency order.
func compileSpecs(specs []string) ([]*ir.Interface, error) {
	var files []string
	for _, path := range specs {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		found, err := compiler.FindCUEFiles(path)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", path, err)
		}
		if len(found) == 0 {
			return nil, fmt.Errorf("%w in %s", compiler.ErrNoCUEFiles, path)
		}
		files = append(files, found...)
	}
	slices.Sort(files)
	files = slices.Compact(files)

	root, err := compiler.LoadFiles(files)
	if err != nil {
		return nil, err
	}
	return compiler.CompileAll(root)
}

func inheritanceCodes(findings []compiler.InheritanceError) []string {
	if len(findings) == 0 {
		return nil
	}
	codes := make([]string, len(findings))
	for i, f := range findings {
		codes[i] = f.Code
	}
	return codes
}

// checkExpectation compares the findings of a run with the scenario's
// expectation and returns one message per mismatch.
func checkExpectation(result *Result, exp Expectation) []string {
	var errs []string

	if exp.Valid != nil && *exp.Valid != result.Valid() {
		errs = append(errs, fmt.Sprintf("expected valid=%t, got %d violations and %d inheritance findings",
			*exp.Valid, len(result.Violations), len(result.Inheritance)))
	}

	if exp.Violations != nil {
		actual := make([]Finding, len(result.Violations))
		for i, v := range result.Violations {
			actual[i] = Finding{Code: v.Code, Op: opString(v.Op), Field: string(v.Field)}
		}
		errs = append(errs, matchFindings("violations", exp.Violations, actual)...)
	}

	if exp.Inheritance != nil {
		actual := make([]Finding, len(result.Inheritance))
		for i, f := range result.Inheritance {
			actual[i] = Finding{Code: f.Code, Op: opString(f.Op), Field: f.Parent}
		}
		errs = append(errs, matchFindings("inheritance", exp.Inheritance, actual)...)
	}

	if exp.ID != "" {
		want, err := ir.ParseIfaceID(exp.ID)
		switch {
		case err != nil:
			errs = append(errs, fmt.Sprintf("expect.id: %v", err))
		case want.String() != result.ID:
			errs = append(errs, fmt.Sprintf("expected id %s, got %s", want, result.ID))
		}
	}

	return errs
}

// matchFindings compares findings pairwise in report order. Empty Op or
// Field in an expected finding matches anything.
func matchFindings(kind string, expected, actual []Finding) []string {
	if len(expected) != len(actual) {
		return []string{fmt.Sprintf("expected %d %s findings %v, got %d %v",
			len(expected), kind, codesOf(expected), len(actual), codesOf(actual))}
	}

	var errs []string
	for i, want := range expected {
		got := actual[i]
		if want.Code != got.Code ||
			(want.Op != "" && want.Op != got.Op) ||
			(want.Field != "" && want.Field != got.Field) {
			errs = append(errs, fmt.Sprintf("%s[%d]: expected %s, got %s", kind, i, want, got))
		}
	}
	return errs
}

func (f Finding) String() string {
	s := f.Code
	if f.Op != "" {
		s += " in " + f.Op
	}
	if f.Field != "" {
		s += " at '" + f.Field + "'"
	}
	return s
}

func codesOf(findings []Finding) []string {
	codes := make([]string, len(findings))
	for i, f := range findings {
		codes[i] = f.Code
	}
	return codes
}

func opString(op *ir.OpName) string {
	if op == nil {
		return ""
	}
	return op.String()
}
