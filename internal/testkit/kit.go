package testkit

import (
	"context"
	"path/filepath"
	"sort"
	"sync"

	"regsim/adapters/rng"
	"regsim/app"
	"regsim/domain/core"
	"regsim/domain/simulation"
	"regsim/ports"
)

// TestKit provides deterministic in-memory wiring so experiments can
// run without Postgres or a writable filesystem
type TestKit struct {
	repo   *InMemoryExperimentRepository // Shared repository instance
	audits *InMemoryAuditRepository      // Shared audit store
	noise  ports.NoisePort               // Real seeded generator, already deterministic
	writer *MemoryResultWriter           // Records exports instead of writing files
}

// NewTestKit creates a new test kit instance
func NewTestKit() *TestKit {
	return &TestKit{
		repo:   NewInMemoryExperimentRepository(),
		audits: NewInMemoryAuditRepository(),
		noise:  rng.NewAdapter(),
		writer: NewMemoryResultWriter(),
	}
}

// ExperimentRepository returns the shared in-memory repository
func (t *TestKit) ExperimentRepository() *InMemoryExperimentRepository {
	return t.repo
}

// AuditRepository returns the shared in-memory audit store
func (t *TestKit) AuditRepository() *InMemoryAuditRepository {
	return t.audits
}

// NoiseAdapter returns the seeded noise adapter
func (t *TestKit) NoiseAdapter() ports.NoisePort {
	return t.noise
}

// ResultWriter returns the recording writer
func (t *TestKit) ResultWriter() *MemoryResultWriter {
	return t.writer
}

// ExperimentService wires a service over the kit's adapters
func (t *TestKit) ExperimentService() *app.ExperimentService {
	return app.NewExperimentService(t.repo, t.audits, t.noise, t.writer, 4)
}

// InMemoryExperimentRepository provides in-memory experiment storage.
// Experiments are stored and returned by value copy so callers cannot
// mutate the stored record behind the repository's back.
type InMemoryExperimentRepository struct {
	mu          sync.RWMutex
	experiments map[core.ExperimentID]simulation.Experiment
	results     map[core.ExperimentID][]simulation.TrialResult
	order       []core.ExperimentID
}

// NewInMemoryExperimentRepository creates empty in-memory storage
func NewInMemoryExperimentRepository() *InMemoryExperimentRepository {
	return &InMemoryExperimentRepository{
		experiments: make(map[core.ExperimentID]simulation.Experiment),
		results:     make(map[core.ExperimentID][]simulation.TrialResult),
	}
}

// Create stores a new experiment record
func (r *InMemoryExperimentRepository) Create(ctx context.Context, exp *simulation.Experiment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.experiments[exp.ID]; exists {
		return core.NewValidationError("experiment", "already exists: "+exp.ID.String())
	}
	r.experiments[exp.ID] = *exp
	r.order = append(r.order, exp.ID)
	return nil
}

// GetByID retrieves an experiment by ID
func (r *InMemoryExperimentRepository) GetByID(ctx context.Context, id core.ExperimentID) (*simulation.Experiment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exp, exists := r.experiments[id]
	if !exists {
		return nil, core.NewNotFoundError("experiment", id.String())
	}
	return &exp, nil
}

// List returns experiments newest-first with limit/offset paging
func (r *InMemoryExperimentRepository) List(ctx context.Context, limit, offset int) ([]*simulation.Experiment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = len(r.order)
	}

	out := make([]*simulation.Experiment, 0, limit)
	for i := len(r.order) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		exp := r.experiments[r.order[i]]
		out = append(out, &exp)
	}
	return out, nil
}

// Update replaces a stored experiment record
func (r *InMemoryExperimentRepository) Update(ctx context.Context, exp *simulation.Experiment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.experiments[exp.ID]; !exists {
		return core.NewNotFoundError("experiment", exp.ID.String())
	}
	r.experiments[exp.ID] = *exp
	return nil
}

// Delete removes an experiment and its results
func (r *InMemoryExperimentRepository) Delete(ctx context.Context, id core.ExperimentID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.experiments[id]; !exists {
		return core.NewNotFoundError("experiment", id.String())
	}
	delete(r.experiments, id)
	delete(r.results, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// SaveResults stores the ordered trial results of an experiment
func (r *InMemoryExperimentRepository) SaveResults(ctx context.Context, id core.ExperimentID, results simulation.ResultSet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.experiments[id]; !exists {
		return core.NewNotFoundError("experiment", id.String())
	}
	r.results[id] = results.Trials()
	return nil
}

// GetResults retrieves stored trial results in trial order
func (r *InMemoryExperimentRepository) GetResults(ctx context.Context, id core.ExperimentID) (simulation.ResultSet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, exists := r.experiments[id]; !exists {
		return simulation.ResultSet{}, core.NewNotFoundError("experiment", id.String())
	}
	trials, exists := r.results[id]
	if !exists {
		return simulation.ResultSet{}, core.NewNotFoundError("trial results", id.String())
	}
	copied := make([]simulation.TrialResult, len(trials))
	copy(copied, trials)
	return simulation.NewResultSet(copied), nil
}

// ListByStatus returns experiments in the given status, newest-first
func (r *InMemoryExperimentRepository) ListByStatus(ctx context.Context, status simulation.ExperimentStatus) ([]*simulation.Experiment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*simulation.Experiment
	for i := len(r.order) - 1; i >= 0; i-- {
		exp := r.experiments[r.order[i]]
		if exp.Status == status {
			out = append(out, &exp)
		}
	}
	return out, nil
}

// Count returns the number of stored experiments
func (r *InMemoryExperimentRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.experiments)
}

// InMemoryAuditRepository provides in-memory audit storage
type InMemoryAuditRepository struct {
	mu      sync.RWMutex
	records []*simulation.AuditRecord
}

// NewInMemoryAuditRepository creates empty in-memory audit storage
func NewInMemoryAuditRepository() *InMemoryAuditRepository {
	return &InMemoryAuditRepository{}
}

// Save stores an audit record
func (r *InMemoryAuditRepository) Save(ctx context.Context, record *simulation.AuditRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *record
	r.records = append(r.records, &copied)
	return nil
}

// List returns stored audits newest-first
func (r *InMemoryAuditRepository) List(ctx context.Context, limit int) ([]*simulation.AuditRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 || limit > len(r.records) {
		limit = len(r.records)
	}
	out := make([]*simulation.AuditRecord, 0, limit)
	for i := len(r.records) - 1; i >= 0 && len(out) < limit; i-- {
		copied := *r.records[i]
		out = append(out, &copied)
	}
	return out, nil
}

// RecordedWrite captures one export call
type RecordedWrite struct {
	Path   string
	Trials int
}

// MemoryResultWriter records export requests without touching disk
type MemoryResultWriter struct {
	mu     sync.Mutex
	writes []RecordedWrite
}

// NewMemoryResultWriter creates an empty recording writer
func NewMemoryResultWriter() *MemoryResultWriter {
	return &MemoryResultWriter{}
}

// Write records the export and returns the path it would have produced
func (w *MemoryResultWriter) Write(ctx context.Context, exp *simulation.Experiment, results simulation.ResultSet) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	path := filepath.Join("memory", exp.Params.OutputName()+".csv")
	w.writes = append(w.writes, RecordedWrite{Path: path, Trials: results.Len()})
	return path, nil
}

// Writes returns a copy of all recorded exports
func (w *MemoryResultWriter) Writes() []RecordedWrite {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]RecordedWrite, len(w.writes))
	copy(out, w.writes)
	return out
}

// LastPath returns the most recent export path, or empty
func (w *MemoryResultWriter) LastPath() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.writes) == 0 {
		return ""
	}
	return w.writes[len(w.writes)-1].Path
}

// FailingResultWriter always fails, for exercising export error paths
type FailingResultWriter struct {
	Err error
}

func (w *FailingResultWriter) Write(ctx context.Context, exp *simulation.Experiment, results simulation.ResultSet) (string, error) {
	return "", w.Err
}

// FixedSource replays a fixed sequence of deviates, cycling when the
// sequence is exhausted
type FixedSource struct {
	values []float64
	next   int
}

// NewFixedSource creates a source over the given deviates
func NewFixedSource(values ...float64) *FixedSource {
	if len(values) == 0 {
		values = []float64{0}
	}
	return &FixedSource{values: values}
}

// Norm returns the next deviate in sequence
func (s *FixedSource) Norm() float64 {
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}

// FillNorm fills dst with successive deviates
func (s *FixedSource) FillNorm(dst []float64) {
	for i := range dst {
		dst[i] = s.Norm()
	}
}

// SortExperimentsByCreation orders a slice oldest-first for assertions
func SortExperimentsByCreation(exps []*simulation.Experiment) {
	sort.Slice(exps, func(i, j int) bool {
		return exps[i].CreatedAt.Before(exps[j].CreatedAt)
	})
}
