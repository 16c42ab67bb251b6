package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"maps-api/internal/geocoding"
	"maps-api/internal/i18n"
	"maps-api/internal/metrics"
	"maps-api/internal/models"
	"maps-api/internal/repository"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ErrSuperseded is returned by a load whose results were discarded because a newer load started.
var ErrSuperseded = errors.New("service: load superseded by a newer load")

const (
	// DefaultCoordinateFetchDelay spaces OpenStreetMap requests to respect its usage policy.
	DefaultCoordinateFetchDelay = time.Second

	mapboxParallelism = 8
	writeBackTimeout  = 30 * time.Second
)

// RecordSource reads records and locations from the host store.
type RecordSource interface {
	SearchRead(ctx context.Context, req repository.SearchRequest) (repository.SearchResult, error)
	FetchLocations(ctx context.Context, model string, ids []int64) ([]*models.Location, error)
}

// CoordinateWriter persists freshly resolved coordinates.
type CoordinateWriter interface {
	UpdateCoordinates(ctx context.Context, model string, updates []models.CoordinateUpdate) error
}

// FieldDescriber fills the field definitions a query refers to.
type FieldDescriber interface {
	Describe(q *models.Query) error
}

// Notifier delivers a user-visible message. It must not call back into the Model.
type Notifier func(models.Notification)

// ModelConfig wires a Model.
type ModelConfig struct {
	Records  RecordSource
	Writer   CoordinateWriter
	Fields   FieldDescriber
	Free     geocoding.Geocoder
	Paid     PaidProvider // nil disables MapBox
	Notify   Notifier
	Delay    time.Duration
	Timezone *time.Location
	Lang     string
	// Base outlives requests; the geocoding loop and write-backs run under it.
	Base context.Context
	// Query is the stored metadata load params are merged into.
	Query models.Query
}

// Model runs the map data pipeline of one map view: fetch records, group them,
// attach their locations and resolve missing coordinates.
type Model struct {
	records RecordSource
	writer  CoordinateWriter
	fields  FieldDescriber
	free    geocoding.Geocoder
	paid    PaidProvider
	notify  Notifier
	delay   time.Duration
	tz      *time.Location
	lang    string
	base    context.Context

	mu      sync.Mutex
	query   models.Query
	state   *models.State
	gen     uint64
	cycle   *cycle
	subs    map[uint64]chan *models.State
	nextSub uint64
	closed  bool
}

// NewModel creates a map model.
func NewModel(cfg ModelConfig) *Model {
	m := &Model{
		records: cfg.Records,
		writer:  cfg.Writer,
		fields:  cfg.Fields,
		free:    cfg.Free,
		paid:    cfg.Paid,
		notify:  cfg.Notify,
		delay:   cfg.Delay,
		tz:      cfg.Timezone,
		lang:    cfg.Lang,
		base:    cfg.Base,
		query:   cfg.Query,
		subs:    make(map[uint64]chan *models.State),
	}
	if m.delay <= 0 {
		m.delay = DefaultCoordinateFetchDelay
	}
	if m.tz == nil {
		m.tz = time.UTC
	}
	if m.base == nil {
		m.base = context.Background()
	}
	if m.notify == nil {
		m.notify = func(models.Notification) {}
	}
	return m
}

// loadResult is what a cycle produced before its first publish.
type loadResult struct {
	state    *models.State
	queue    []addressBatch
	pending  []models.CoordinateUpdate
	notices  []models.Notification
	locModel string
	lang     string
}

// addressBatch is the set of locations sharing one address; they are geocoded once.
type addressBatch struct {
	address   string
	locations []*models.Location
}

// Load stops any running geocoding loop, merges params into the stored query and runs the pipeline.
// Only the most recent load publishes; an older one still running returns ErrSuperseded.
func (m *Model) Load(ctx context.Context, params models.Query) (*models.State, error) {
	start := time.Now()

	m.mu.Lock()
	if m.cycle != nil {
		m.cycle.stop()
	}
	m.gen++
	cy := newCycle(m.gen)
	m.cycle = cy
	query := m.query.Merge(params)
	m.mu.Unlock()

	res, err := m.fetchData(ctx, query)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.cycle != cy {
		m.mu.Unlock()
		metrics.LoadsSupersededTotal.Inc()
		log.Debug().Uint64("generation", cy.gen).Msg("map load superseded")
		return nil, ErrSuperseded
	}
	m.query = query
	m.state = res.state
	snapshot := m.publishLocked()
	m.writeBackLocked(res.locModel, res.pending)
	if len(res.queue) > 0 {
		go m.fetchCoordinates(cy, res)
	}
	m.mu.Unlock()

	for _, n := range res.notices {
		m.notify(n)
	}
	metrics.LoadDurationMs.Observe(float64(time.Since(start).Milliseconds()))
	return snapshot, nil
}

// StopFetchingCoordinates ends the running geocoding loop. Safe to call any number of times.
func (m *Model) StopFetchingCoordinates() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cycle != nil {
		m.cycle.stop()
	}
}

// State returns a snapshot of the last published state.
func (m *Model) State() *models.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return models.NewState(m.query.GroupByKey(), m.paid != nil)
	}
	return m.state.Clone()
}

// Subscribe registers a consumer of published states. A slow consumer only sees the latest state.
// The returned cancel removes the subscription and closes the channel.
// On a closed model the channel is already closed.
func (m *Model) Subscribe() (<-chan *models.State, func()) {
	ch := make(chan *models.State, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		close(ch)
		return ch, func() {}
	}
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if _, ok := m.subs[id]; ok {
				delete(m.subs, id)
				close(ch)
			}
		})
	}
}

// Close stops fetching coordinates and ends every subscription.
func (m *Model) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cycle != nil {
		m.cycle.stop()
	}
	m.closed = true
	for id, ch := range m.subs {
		delete(m.subs, id)
		close(ch)
	}
}

func (m *Model) publishLocked() *models.State {
	snapshot := m.state.Clone()
	for _, ch := range m.subs {
		select {
		case ch <- snapshot:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
	return snapshot
}

func (m *Model) fetchData(ctx context.Context, q models.Query) (*loadResult, error) {
	lang := q.Lang()
	if lang == "" {
		lang = m.lang
	}
	res := &loadResult{lang: lang}
	st := models.NewState(q.GroupByKey(), m.paid != nil)
	res.state = st

	if q.LocationField == "" {
		return res, nil
	}
	if err := m.fields.Describe(&q); err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}

	names := readFields(q)
	result, err := m.records.SearchRead(ctx, repository.SearchRequest{
		Model:  q.ResModel,
		Domain: q.Domain,
		Fields: names,
		Limit:  q.PageLimit(),
		Offset: q.PageOffset(),
		Order:  orderClause(q.DefaultOrder),
	})
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch records: %w", err)
	}
	localizeDates(q.Fields, names, result.Records, m.tz)
	st.Records = result.Records
	st.Count = result.Length

	if st.IsGrouped {
		groups, err := groupRecords(st.GroupByKey, q.Fields, st.Records, lang)
		if err != nil {
			return nil, err
		}
		st.RecordGroups = groups
	}

	st.LocationIDs = locationIDs(q.LocationField, st.Records)
	res.locModel = locationModel(q)
	if len(st.LocationIDs) > 0 {
		locs, err := m.records.FetchLocations(ctx, res.locModel, st.LocationIDs)
		if err != nil {
			return nil, fmt.Errorf("service: failed to fetch locations: %w", err)
		}
		st.Locations = locs
	}
	attachLocations(q.LocationField, st)

	p := providerNominatim
	if m.paid != nil {
		p = providerMapBox
	}
	if p == providerMapBox {
		p = m.resolveWithMapBox(ctx, q, res)
	}
	if p == providerNominatim {
		st.UseMapBoxAPI = false
		res.queue = queueAddresses(st.Locations)
		st.FetchingCoordinates = len(res.queue) > 0
	}
	return res, nil
}

// resolveWithMapBox geocodes every address-only location in parallel and requests the route.
// It returns the provider the cycle continues with.
func (m *Model) resolveWithMapBox(ctx context.Context, q models.Query, res *loadResult) provider {
	st := res.state
	var (
		g  errgroup.Group
		mu sync.Mutex
	)
	g.SetLimit(mapboxParallelism)
	for _, loc := range st.Locations {
		if !loc.NeedsGeocoding() {
			if !loc.Valid() {
				loc.ClearCoordinates()
			}
			continue
		}
		loc := loc
		g.Go(func() error {
			results, err := m.paid.Geocode(ctx, loc.Address)
			if err != nil {
				return err
			}
			r, ok := firstValid(results)
			if !ok {
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			loc.SetCoordinates(r.Latitude, r.Longitude)
			res.pending = append(res.pending, models.CoordinateUpdate{ID: loc.ID, Latitude: r.Latitude, Longitude: r.Longitude})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return m.fallback(res, err)
	}

	st.Routes = []models.Route{}
	if st.NumberOfLocatedRecords <= 1 || !q.RoutingEnabled() || st.GroupByKey != "" {
		return providerMapBox
	}
	points := routePoints(st.Records)
	if len(points) < 2 {
		return providerMapBox
	}
	dir, err := m.paid.Directions(ctx, points)
	if err != nil {
		var apiErr *geocoding.APIError
		if errors.As(err, &apiErr) && routingOnly(apiErr.Status) {
			st.RoutingError = routingErrorMessage(res.lang, apiErr.Message)
			return providerMapBox
		}
		return m.fallback(res, err)
	}
	if dir.Routes != nil {
		st.Routes = dir.Routes
	} else {
		st.RoutingError = routingErrorMessage(res.lang, dir.Message)
	}
	return providerMapBox
}

func (m *Model) fallback(res *loadResult, err error) provider {
	status := geocoding.StatusOf(err)
	log.Warn().Err(err).Int("status", status).Msg("mapbox failed, switching to openstreetmap")
	metrics.ProviderFallbackTotal.Inc()
	if n, ok := fallbackNotification(res.lang, status); ok {
		res.notices = append(res.notices, n)
	}
	return providerNominatim
}

// fetchCoordinates geocodes queued addresses one at a time through the free provider,
// publishing after each address. It ends when the cycle is stopped or replaced.
func (m *Model) fetchCoordinates(cy *cycle, res *loadResult) {
	st := res.state
	for i, batch := range res.queue {
		if !cy.wait(m.base, m.delay) {
			return
		}
		results, err := m.free.Geocode(m.base, batch.address)

		m.mu.Lock()
		if m.cycle != cy || cy.isStopped() {
			m.mu.Unlock()
			return
		}
		if err != nil {
			for _, loc := range st.Locations {
				loc.FetchingCoordinate = false
			}
			st.FetchingCoordinates = false
			cy.stop()
			m.publishLocked()
			m.mu.Unlock()

			log.Warn().Err(err).Str("address", batch.address).Msg("openstreetmap geocoding stopped")
			m.notify(models.Notification{
				Type:    models.NotificationDanger,
				Message: i18n.T(res.lang, i18n.OSMLimitExceeded),
			})
			return
		}

		var updates []models.CoordinateUpdate
		if r, ok := firstValid(results); ok {
			for _, loc := range batch.locations {
				loc.SetCoordinates(r.Latitude, r.Longitude)
				updates = append(updates, models.CoordinateUpdate{ID: loc.ID, Latitude: r.Latitude, Longitude: r.Longitude})
			}
		}
		for _, loc := range batch.locations {
			loc.FetchingCoordinate = false
		}
		st.FetchingCoordinates = i < len(res.queue)-1
		st.ShouldUpdatePosition = false
		m.publishLocked()
		m.writeBackLocked(res.locModel, updates)
		m.mu.Unlock()
	}
}

// writeBackLocked sends updates to the writer without waiting. Failures are logged only.
func (m *Model) writeBackLocked(model string, updates []models.CoordinateUpdate) {
	if len(updates) == 0 || m.writer == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(m.base, writeBackTimeout)
		defer cancel()
		if err := m.writer.UpdateCoordinates(ctx, model, updates); err != nil {
			metrics.CoordinatesWrittenTotal.WithLabelValues("error").Add(float64(len(updates)))
			log.Error().Err(err).Str("model", model).Int("count", len(updates)).Msg("failed to write back coordinates")
			return
		}
		metrics.CoordinatesWrittenTotal.WithLabelValues("ok").Add(float64(len(updates)))
	}()
}

// queueAddresses groups address-only locations by address, in first-seen order,
// and clears invalid coordinate pairs of the others.
func queueAddresses(locations []*models.Location) []addressBatch {
	var queue []addressBatch
	index := make(map[string]int)
	for _, loc := range locations {
		if !loc.NeedsGeocoding() {
			if !loc.Valid() {
				loc.ClearCoordinates()
			}
			continue
		}
		i, ok := index[loc.Address]
		if !ok {
			i = len(queue)
			index[loc.Address] = i
			queue = append(queue, addressBatch{address: loc.Address})
		}
		queue[i].locations = append(queue[i].locations, loc)
		loc.FetchingCoordinate = true
	}
	return queue
}

func firstValid(results []geocoding.Result) (geocoding.Result, bool) {
	if len(results) == 0 {
		return geocoding.Result{}, false
	}
	candidate := models.Location{}
	candidate.SetCoordinates(results[0].Latitude, results[0].Longitude)
	return results[0], candidate.Valid()
}

func readFields(q models.Query) []string {
	seen := make(map[string]bool, len(q.FieldNames)+2)
	var names []string
	add := func(n string) {
		if n != "" && n != "id" && !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	for _, n := range q.FieldNames {
		add(n)
	}
	if g := q.GroupByKey(); g != "" {
		name, _, _ := strings.Cut(g, ":")
		add(name)
	}
	add(q.LocationField)
	return names
}

func orderClause(o *models.Order) string {
	if o == nil || o.Name == "" {
		return ""
	}
	if o.Asc {
		return o.Name + " ASC"
	}
	return o.Name + " DESC"
}

func locationModel(q models.Query) string {
	if q.LocationField == "id" {
		return q.ResModel
	}
	return q.Fields[q.LocationField].Relation
}

func locationIDs(field string, records []*models.Record) []int64 {
	seen := make(map[int64]bool, len(records))
	ids := []int64{}
	for _, r := range records {
		id, ok := r.LocationID(field)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

func attachLocations(field string, st *models.State) {
	byID := make(map[int64]*models.Location, len(st.Locations))
	for _, loc := range st.Locations {
		byID[loc.ID] = loc
	}
	for _, r := range st.Records {
		id, ok := r.LocationID(field)
		if !ok {
			continue
		}
		if loc, ok := byID[id]; ok {
			r.Location = loc
			st.NumberOfLocatedRecords++
		}
	}
}

func routePoints(records []*models.Record) []geocoding.Point {
	var points []geocoding.Point
	for _, r := range records {
		if r.Location == nil || !r.Location.HasCoordinates() {
			continue
		}
		points = append(points, geocoding.Point{Latitude: *r.Location.Latitude, Longitude: *r.Location.Longitude})
	}
	return points
}
