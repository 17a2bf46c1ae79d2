package ranked

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mcsr-br/ranked-bot/embed"
	"github.com/mcsr-br/ranked-bot/jobs"
	"github.com/mcsr-br/ranked-bot/postcache"
	"github.com/mcsr-br/ranked-bot/telemetry"
)

// JobName is the scheduler name of the watcher.
const JobName = "rankedMatchesWatcher"

var (
	// ErrChannelNotFound is returned by messengers when the channel does not resolve.
	ErrChannelNotFound = errors.New("ranked: announce channel not found")
	// ErrChannelNotPostable marks a channel that cannot receive messages.
	ErrChannelNotPostable = errors.New("ranked: announce channel is not text-based")
)

// ChannelInfo describes the resolved announce channel.
type ChannelInfo struct {
	ID       string
	Type     string
	GuildID  string
	Postable bool
}

// Messenger delivers announcements.
type Messenger interface {
	FetchChannel(ctx context.Context, channelID string) (ChannelInfo, error)
	Send(ctx context.Context, channelID string, e embed.Embed) error
}

// Mirror receives a plain text copy of each delivered announcement.
type Mirror interface {
	Announce(ctx context.Context, text string) error
}

// TickSummary counts what one tick did.
type TickSummary struct {
	CorrelationID string        `json:"correlation_id"`
	StartedAt     time.Time     `json:"started_at"`
	Duration      time.Duration `json:"duration_ns"`
	// Stopped names why the tick ended before walking matches, empty otherwise.
	Stopped     string `json:"stopped,omitempty"`
	Fetched     int    `json:"fetched"`
	Considered  int    `json:"considered"`
	Posted      int    `json:"posted"`
	SkippedDup  int    `json:"skipped_duplicate"`
	NotRegional int    `json:"not_regional"`
	Failed      int    `json:"failed"`
}

// WatcherConfig holds the watcher's settings.
type WatcherConfig struct {
	ChannelID string
	Regions   Regions
	Renderer  Renderer
}

// Watcher is the announcement pipeline. It owns the in-flight set and shares
// the posted set with whoever opened it. Ticks may overlap.
type Watcher struct {
	source    Source
	messenger Messenger
	posted    *postcache.Set
	cfg       WatcherConfig
	logger    *slog.Logger

	// mu guards inFlight; the posted check and the in-flight mark happen under it together.
	mu       sync.Mutex
	inFlight map[string]struct{}

	mirror Mirror

	lastMu sync.RWMutex
	last   *TickSummary
}

// NewWatcher wires a watcher.
func NewWatcher(source Source, messenger Messenger, posted *postcache.Set, cfg WatcherConfig, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		source:    source,
		messenger: messenger,
		posted:    posted,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "ranked_watcher")),
		inFlight:  make(map[string]struct{}),
	}
}

// SetMirror installs an optional mirror. Call before the first tick.
func (w *Watcher) SetMirror(m Mirror) { w.mirror = m }

// Job returns the scheduler descriptor running Tick every interval.
func (w *Watcher) Job(interval time.Duration) jobs.Job {
	return jobs.Job{Name: JobName, Interval: interval, Run: w.Tick}
}

// LastSummary returns the most recent completed tick, if any.
func (w *Watcher) LastSummary() (TickSummary, bool) {
	w.lastMu.RLock()
	defer w.lastMu.RUnlock()
	if w.last == nil {
		return TickSummary{}, false
	}
	return *w.last, true
}

// InFlight returns the number of matches being processed right now.
func (w *Watcher) InFlight() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.inFlight)
}

// Tick runs the pipeline once. Feed and channel problems end the tick quietly
// (logged, nothing posted); a failed delivery only affects its own match.
func (w *Watcher) Tick(ctx context.Context) error {
	sum := TickSummary{CorrelationID: uuid.NewString(), StartedAt: time.Now()}
	telemetry.Inc(telemetry.TicksTotal)
	sum.Duration = telemetry.TimeFunc(telemetry.TickDuration, func() { w.tick(ctx, &sum) })

	w.lastMu.Lock()
	w.last = &sum
	w.lastMu.Unlock()
	return nil
}

func (w *Watcher) tick(ctx context.Context, sum *TickSummary) {
	ctx = telemetry.WithCorrelation(ctx, sum.CorrelationID)
	ctx, span := telemetry.StartSpan(ctx, "ranked.tick", telemetry.JobAttr(JobName))
	defer span.End()
	log := w.logger.With(slog.String("corr", sum.CorrelationID))

	matches, err := w.source.Fetch(ctx)
	if err != nil {
		sum.Stopped = "fetch_failed"
		telemetry.RecordError(span, err)
		return
	}
	sum.Fetched = len(matches)
	if len(matches) == 0 {
		sum.Stopped = "empty"
		return
	}

	ch, err := w.messenger.FetchChannel(ctx, w.cfg.ChannelID)
	if err != nil {
		sum.Stopped = "channel_unavailable"
		log.Warn("could not resolve announce channel", slog.String("channel_id", w.cfg.ChannelID), slog.Any("err", err))
		telemetry.RecordError(span, err)
		return
	}
	guild := ch.GuildID
	if guild == "" {
		guild = "DM/none"
	}
	log.Info("resolved announce channel", slog.String("channel_id", ch.ID), slog.String("type", ch.Type), slog.String("guild", guild))
	if !ch.Postable {
		sum.Stopped = "channel_not_postable"
		log.Warn("announce channel is not text-based", slog.String("channel_id", ch.ID), slog.String("type", ch.Type))
		telemetry.RecordError(span, fmt.Errorf("%w: %s", ErrChannelNotPostable, ch.ID))
		return
	}

	for _, m := range matches {
		w.process(ctx, log, ch.ID, m, sum)
	}
	log.Info("ranked watcher tick done",
		slog.Int("considered", sum.Considered),
		slog.Int("posted", sum.Posted),
		slog.Int("skippedDup", sum.SkippedDup),
		slog.Int("notRegional", sum.NotRegional),
		slog.Int("failed", sum.Failed))
	telemetry.SetSpanSuccess(span)
}

// claim marks id in flight unless it is already posted or in flight. The
// returned release must run once processing ends, whatever the result.
func (w *Watcher) claim(id string) (release func(), ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.posted.Has(id) {
		return nil, false
	}
	if _, busy := w.inFlight[id]; busy {
		return nil, false
	}
	w.inFlight[id] = struct{}{}
	telemetry.AddInFlight(1)
	return func() {
		w.mu.Lock()
		delete(w.inFlight, id)
		w.mu.Unlock()
		telemetry.AddInFlight(-1)
	}, true
}

func (w *Watcher) process(ctx context.Context, log *slog.Logger, channelID string, m Match, sum *TickSummary) {
	id := m.ID.String()
	if id == "" {
		return
	}
	sum.Considered++
	telemetry.Inc(telemetry.MatchesConsidered)

	release, ok := w.claim(id)
	if !ok {
		sum.SkippedDup++
		telemetry.Inc(telemetry.MatchesSkippedDup)
		return
	}
	defer release()

	if !w.cfg.Regions.AnyPlayer(m) {
		sum.NotRegional++
		telemetry.Inc(telemetry.MatchesNotRegional)
		return
	}

	ctx, span := telemetry.StartSpan(ctx, "ranked.deliver", telemetry.MatchIDAttr(id))
	defer span.End()
	view, err := w.deliver(ctx, channelID, m)
	if err != nil {
		sum.Failed++
		telemetry.Inc(telemetry.DeliveryFailures)
		telemetry.RecordError(span, err)
		log.Error("failed to send match announcement", slog.String("match_id", id), slog.Any("err", err))
		return
	}
	if err := w.posted.Remember(ctx, id); err != nil {
		log.Warn("posted cache write failed; kept in memory", slog.String("match_id", id), slog.Any("err", err))
	}
	sum.Posted++
	telemetry.Inc(telemetry.MatchesPosted)
	telemetry.SetSpanSuccess(span)

	if w.mirror != nil {
		if err := w.mirror.Announce(ctx, Summary(view)); err != nil {
			log.Warn("chat mirror failed", slog.String("match_id", id), slog.Any("err", err))
		} else {
			telemetry.Inc(telemetry.MirrorMessagesTotal)
		}
	}
}

// deliver renders and sends one match. A panic while rendering counts as a failed delivery.
func (w *Watcher) deliver(ctx context.Context, channelID string, m Match) (view View, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("render match %s: panic: %v", m.ID, r)
		}
	}()
	view = Normalize(m, w.cfg.Regions)
	if err := w.messenger.Send(ctx, channelID, w.cfg.Renderer.Embed(view)); err != nil {
		return view, err
	}
	return view, nil
}
