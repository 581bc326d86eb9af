package introspection

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/openfroyo/typeintro/pkg/executor"
	"github.com/openfroyo/typeintro/pkg/telemetry"
)

const (
	opGetTypeInfo = "get_type_info"

	defaultMaxConcurrency = 4
)

// Introspector retrieves type descriptors and memoizes them per type name.
//
// Lookups take the read lock only; a miss runs both retrievals without any
// lock held and then publishes with insert-if-absent under the write lock.
// Concurrent misses for the same name may duplicate the external calls, but
// every caller returns the single descriptor that was published first.
// Published descriptors are never replaced or evicted.
type Introspector struct {
	exec           executor.Executor
	tool           string
	interpreter    string
	scriptsPath    string
	tel            *telemetry.Telemetry
	logger         *telemetry.Logger
	journal        Journal
	maxConcurrency int

	templates *TemplateRetriever
	schemas   *SchemaRetriever

	mu    sync.RWMutex
	cache map[string]TypeDescriptor
}

// New creates an Introspector. scriptsPath is the directory holding the
// schema helper script; empty disables schema retrieval while template
// retrieval keeps working.
func New(scriptsPath string, opts ...Option) *Introspector {
	i := &Introspector{
		scriptsPath:    scriptsPath,
		tel:            telemetry.NewNopTelemetry(),
		maxConcurrency: defaultMaxConcurrency,
		cache:          make(map[string]TypeDescriptor),
	}
	for _, opt := range opts {
		opt(i)
	}

	if i.exec == nil {
		i.exec = executor.NewLocal(0)
	}
	i.logger = i.tel.Logger.NewComponentLogger("introspection")
	i.templates = NewTemplateRetriever(i.exec, i.tool)
	i.schemas = NewSchemaRetriever(i.exec, i.scriptsPath, i.interpreter)
	return i
}

// GetTypeInfo returns the descriptor for typeName, retrieving it on first use.
//
// Retrieval failures do not fail the call: the affected part is left as an
// empty Document and the failure is reported through logs, metrics, events
// and the journal. The only error is ErrInvalidTypeName.
//
// If ctx ends while retrieving, the best-effort descriptor is returned but
// not cached.
func (i *Introspector) GetTypeInfo(ctx context.Context, typeName string) (TypeDescriptor, error) {
	if err := validateTypeName(opGetTypeInfo, typeName); err != nil {
		return TypeDescriptor{}, err
	}

	ctx, span := i.tel.Tracer.StartLookupSpan(ctx, typeName)
	defer span.End()

	if desc, ok := i.Lookup(typeName); ok {
		i.tel.Metrics.RecordLookup(true)
		span.SetAttributes(telemetry.AttrCacheHit.Bool(true))
		return desc, nil
	}
	i.tel.Metrics.RecordLookup(false)
	span.SetAttributes(telemetry.AttrCacheHit.Bool(false))

	desc := i.build(ctx, typeName)

	if ctx.Err() != nil {
		i.tel.Metrics.RecordUnpublished()
		i.logger.WithTypeName(typeName).WithError(ctx.Err()).Debug("lookup context ended, descriptor not cached")
		return desc, nil
	}

	stored, inserted := i.publish(desc)
	if inserted {
		_ = i.tel.Events.PublishDescriptorCached(typeName, !stored.Schema.IsEmpty(), !stored.DefaultTemplate.IsEmpty())
	} else {
		i.tel.Metrics.RecordPublishRace()
		i.logger.WithTypeName(typeName).Debug("concurrent lookup published first, using its descriptor")
	}
	return stored.Clone(), nil
}

// GetTypeInfos looks up several types concurrently. Results follow the order
// of typeNames; duplicate names share one lookup.
func (i *Introspector) GetTypeInfos(ctx context.Context, typeNames []string) ([]TypeDescriptor, error) {
	for _, name := range typeNames {
		if err := validateTypeName(opGetTypeInfo, name); err != nil {
			return nil, err
		}
	}

	// Position of each distinct name in names, in first-seen order.
	index := make(map[string]int, len(typeNames))
	names := make([]string, 0, len(typeNames))
	for _, name := range typeNames {
		if _, ok := index[name]; !ok {
			index[name] = len(names)
			names = append(names, name)
		}
	}

	var (
		wg      sync.WaitGroup
		sem     = make(chan struct{}, i.maxConcurrency)
		results = make([]TypeDescriptor, len(names))
	)
	for pos, name := range names {
		wg.Add(1)
		sem <- struct{}{}
		go func(pos int, name string) {
			defer wg.Done()
			defer func() { <-sem }()

			// Names were validated above, so GetTypeInfo cannot fail here.
			results[pos], _ = i.GetTypeInfo(ctx, name)
		}(pos, name)
	}
	wg.Wait()

	out := make([]TypeDescriptor, len(typeNames))
	for idx, name := range typeNames {
		out[idx] = results[index[name]].Clone()
	}
	return out, nil
}

// GetTypeTemplate retrieves the default-value template without using the
// cache. Errors are returned unchanged.
func (i *Introspector) GetTypeTemplate(ctx context.Context, typeName string) (Document, error) {
	return i.retrieve(ctx, typeName, PartTemplate, SourceDirect, i.templates.GetTemplate)
}

// GetTypeSchema retrieves the full helper script result without using the
// cache. Errors are returned unchanged, including KindConfiguration when no
// scripts path is set.
func (i *Introspector) GetTypeSchema(ctx context.Context, typeName string) (Document, error) {
	return i.retrieve(ctx, typeName, PartSchema, SourceDirect, i.schemas.GetSchema)
}

// Lookup returns a copy of the cached descriptor for typeName, if any.
func (i *Introspector) Lookup(typeName string) (TypeDescriptor, bool) {
	i.mu.RLock()
	desc, ok := i.cache[typeName]
	i.mu.RUnlock()

	if !ok {
		return TypeDescriptor{}, false
	}
	// Stored descriptors are never mutated, so copying outside the lock is safe.
	return desc.Clone(), true
}

// Len returns the number of cached descriptors.
func (i *Introspector) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.cache)
}

// TypeNames returns the cached type names in sorted order.
func (i *Introspector) TypeNames() []string {
	i.mu.RLock()
	names := make([]string, 0, len(i.cache))
	for name := range i.cache {
		names = append(names, name)
	}
	i.mu.RUnlock()

	sort.Strings(names)
	return names
}

// build retrieves both parts, degrading failures to empty placeholders.
func (i *Introspector) build(ctx context.Context, typeName string) TypeDescriptor {
	desc := newDescriptor(typeName)

	if tmpl, err := i.retrieve(ctx, typeName, PartTemplate, SourceLookup, i.templates.GetTemplate); err == nil {
		desc.DefaultTemplate = tmpl
	}

	if result, err := i.retrieve(ctx, typeName, PartSchema, SourceLookup, i.schemas.GetSchema); err == nil {
		desc.Schema = SchemaOf(result)
	}

	return desc
}

// publish stores desc unless typeName is already cached, and returns the
// stored descriptor and whether desc was the one inserted.
func (i *Introspector) publish(desc TypeDescriptor) (TypeDescriptor, bool) {
	i.mu.Lock()
	existing, ok := i.cache[desc.Name]
	if !ok {
		i.cache[desc.Name] = desc
	}
	entries := len(i.cache)
	i.mu.Unlock()

	if ok {
		return existing, false
	}
	i.tel.Metrics.SetCacheEntries(entries)
	return desc, true
}

type retrieveFunc func(ctx context.Context, typeName string) (Document, error)

// retrieve runs one retrieval with tracing, metrics and journaling. Failures
// on the lookup path are additionally logged and published as events.
func (i *Introspector) retrieve(ctx context.Context, typeName, part, source string, fn retrieveFunc) (Document, error) {
	ctx, span := i.tel.Tracer.StartRetrievalSpan(ctx, typeName, part)
	timer := telemetry.NewTimer()

	doc, err := fn(ctx, typeName)

	duration := timer.Duration()
	outcome := RetrievalOutcome{
		TypeName: typeName,
		Part:     part,
		Source:   source,
		Duration: duration,
		At:       time.Now(),
	}
	if err != nil {
		outcome.ErrorKind = KindOf(err)
		if outcome.ErrorKind == "" {
			outcome.ErrorKind = KindRetrieval
		}
		outcome.Error = err.Error()
		span.SetAttributes(telemetry.AttrErrorKind.String(string(outcome.ErrorKind)))
	}
	telemetry.EndSpan(span, err)
	i.tel.Metrics.RecordRetrieval(part, string(outcome.ErrorKind), duration)

	if err != nil && source == SourceLookup {
		i.logger.WithTypeName(typeName).
			WithFields(map[string]interface{}{"part": part, "error_kind": string(outcome.ErrorKind)}).
			WithError(err).
			Warn("retrieval failed, using empty placeholder")
		_ = i.tel.Events.PublishRetrievalFailed(typeName, part, string(outcome.ErrorKind), err)
	}

	if i.journal != nil {
		// The journal must outlive a cancelled lookup.
		if jerr := i.journal.RecordRetrieval(context.WithoutCancel(ctx), outcome); jerr != nil {
			i.logger.WithTypeName(typeName).WithError(jerr).Warn("failed to journal retrieval")
		}
	}

	return doc, err
}
