package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"multitool/internal/buildinfo"
	"multitool/internal/config"
	"multitool/internal/events"
	"multitool/internal/gamepath"
	"multitool/internal/metrics"
	"multitool/internal/notify"
	"multitool/internal/update"
)

// ChannelState is the outcome of polling one channel.
type ChannelState string

const (
	UpToDate     ChannelState = "up_to_date"
	Outdated     ChannelState = "outdated"
	Updated      ChannelState = "updated"
	UpdateFailed ChannelState = "update_failed"
	NotInstalled ChannelState = "not_installed"
	NoSource     ChannelState = "no_source"
	// AccessDenied means the installation sits in a protected folder. It is
	// reported with guidance and never retried.
	AccessDenied ChannelState = "access_denied"
	// Unknown means the remote could not be compared (network, timeout).
	Unknown ChannelState = "unknown"
)

const (
	defaultProbeTimeout  = 30 * time.Second
	defaultUpdateTimeout = 5 * time.Minute
	defaultMaxParallel   = 4
)

// Discoverer lists installations.
type Discoverer interface {
	Scan() (gamepath.VersionPaths, error)
}

// SelectionSource returns the translation link chosen per channel.
type SelectionSource interface {
	Load() (config.TranslationSelections, error)
}

// Engine is the subset of the translation engine a poll uses. It never installs.
type Engine interface {
	IsTranslated(path, lang string) bool
	Writable(path string) error
	IsUpToDate(ctx context.Context, path, ref, lang string) (bool, error)
	Update(ctx context.Context, path, ref, lang string) error
}

// AppUpdater checks for a newer application release.
type AppUpdater interface {
	Poll(ctx context.Context, stage bool) (update.Status, error)
}

// Publisher receives service events.
type Publisher interface {
	Publish(events.Event)
}

// ChannelReport is the result for one channel.
type ChannelReport struct {
	Channel    string       `json:"channel"`
	Path       string       `json:"path"`
	State      ChannelState `json:"state"`
	Translated bool         `json:"translated"`
	UpToDate   bool         `json:"up_to_date"`
	Error      string       `json:"error,omitempty"`
}

// Report summarizes one poll cycle.
type Report struct {
	Trigger    Trigger         `json:"trigger"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Channels   []ChannelReport `json:"channels"`
	App        *update.Status  `json:"app,omitempty"`
	AppError   string          `json:"app_error,omitempty"`

	errs []error
}

// Err joins every error the cycle hit, or nil.
func (r *Report) Err() error {
	if r == nil {
		return nil
	}
	return errors.Join(r.errs...)
}

// Updated returns the channels updated during the cycle.
func (r *Report) Updated() []string {
	var out []string
	for _, c := range r.Channels {
		if c.State == Updated {
			out = append(out, c.Channel)
		}
	}
	return out
}

// Clone returns a deep copy of r.
func (r *Report) Clone() *Report {
	if r == nil {
		return nil
	}
	c := *r
	c.Channels = append([]ChannelReport(nil), r.Channels...)
	c.errs = append([]error(nil), r.errs...)
	if r.App != nil {
		app := *r.App
		c.App = &app
	}
	return &c
}

// Poller runs poll cycles against installed translations.
type Poller struct {
	Discover   Discoverer
	Selections SelectionSource
	Engine     Engine
	// App is consulted only when Build allows auto updates.
	App      AppUpdater
	Events   Publisher
	Notifier notify.Notifier
	Metrics  *metrics.Metrics
	Build    buildinfo.Info

	ProbeTimeout  time.Duration
	UpdateTimeout time.Duration
	MaxParallel   int
}

// RunCycle discovers installations, compares each selected translation with
// its remote and, with auto_update, replaces outdated ones. A channel's
// failure never aborts the others.
func (p *Poller) RunCycle(ctx context.Context, cfg config.BackgroundServiceConfig, trigger Trigger) *Report {
	r := &Report{Trigger: trigger, StartedAt: time.Now()}
	defer func() { r.FinishedAt = time.Now() }()

	paths, err := p.Discover.Scan()
	if err != nil {
		log.Printf("[scheduler] discover installations: %v", err)
		r.errs = append(r.errs, fmt.Errorf("discover installations: %w", err))
	}
	selections, err := p.Selections.Load()
	if err != nil {
		// Polling continues: every channel reports no_source.
		log.Printf("[scheduler] load translation selections: %v", err)
		r.errs = append(r.errs, fmt.Errorf("load translation selections: %w", err))
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxParallel())
	for _, ch := range paths.Channels() {
		info := paths.Versions[ch]
		sel := selections[ch]
		g.Go(func() error {
			cr, err := p.checkChannel(gctx, cfg, ch, info, sel)
			mu.Lock()
			r.Channels = append(r.Channels, cr)
			if err != nil {
				r.errs = append(r.errs, err)
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	sort.Slice(r.Channels, func(i, j int) bool { return r.Channels[i].Channel < r.Channels[j].Channel })

	for _, cr := range r.Channels {
		p.Metrics.ChannelChecked(string(cr.State))
	}

	if p.App != nil && p.Build.CanAutoUpdate {
		p.checkApp(ctx, cfg, r)
	}

	if trigger != TriggerManual && len(r.errs) > 0 {
		log.Printf("[scheduler] %s cycle finished with errors: %v", trigger, r.Err())
	}
	p.publish(events.Event{Type: events.PollCompleted, Payload: r.Clone()})
	return r
}

func (p *Poller) checkChannel(ctx context.Context, cfg config.BackgroundServiceConfig, channel string, info gamepath.VersionInfo, sel *config.TranslationSetting) (ChannelReport, error) {
	cr := ChannelReport{Channel: channel, Path: info.Path}

	cr.Translated = p.Engine.IsTranslated(info.Path, cfg.Language)
	if !cr.Translated {
		cr.State = NotInstalled
		return cr, nil
	}
	if !sel.HasLink() {
		cr.State = NoSource
		return cr, nil
	}
	link := sel.LinkValue()

	if err := p.Engine.Writable(info.Path); err != nil {
		cr.State = AccessDenied
		cr.Error = err.Error()
		log.Printf("[scheduler] %s: skipped: %v", channel, err)
		return cr, nil
	}

	probeCtx, cancel := context.WithTimeout(ctx, p.probeTimeout())
	upToDate, err := p.Engine.IsUpToDate(probeCtx, info.Path, link, cfg.Language)
	cancel()
	if err != nil {
		cr.State = Unknown
		cr.Error = err.Error()
		log.Printf("[scheduler] %s: compare with remote: %v", channel, err)
		return cr, fmt.Errorf("%s: %w", channel, err)
	}
	cr.UpToDate = upToDate
	if upToDate {
		cr.State = UpToDate
		return cr, nil
	}
	if !cfg.AutoUpdate {
		cr.State = Outdated
		return cr, nil
	}

	updCtx, cancel := context.WithTimeout(ctx, p.updateTimeout())
	err = p.Engine.Update(updCtx, info.Path, link, cfg.Language)
	cancel()
	p.Metrics.Action("update", err)

	ev := events.TranslationUpdate{Version: channel, Path: info.Path, Success: err == nil}
	if err != nil {
		cr.State = UpdateFailed
		cr.Error = err.Error()
		ev.Error = err.Error()
		log.Printf("[scheduler] %s: update failed: %v", channel, err)
		p.publish(events.Event{Type: events.TranslationUpdated, Payload: ev})
		return cr, fmt.Errorf("%s: update: %w", channel, err)
	}

	cr.State = Updated
	cr.UpToDate = true
	log.Printf("[scheduler] %s: translation updated", channel)
	p.publish(events.Event{Type: events.TranslationUpdated, Payload: ev})
	p.notify(notify.Notification{
		Title:   "MultitoolV2",
		Message: fmt.Sprintf("Traduction %s mise à jour", channel),
	})
	return cr, nil
}

func (p *Poller) checkApp(ctx context.Context, cfg config.BackgroundServiceConfig, r *Report) {
	actx, cancel := context.WithTimeout(ctx, p.updateTimeout())
	defer cancel()
	st, err := p.App.Poll(actx, cfg.AutoUpdate)
	if err != nil {
		if errors.Is(err, update.ErrDevBuild) || errors.Is(err, update.ErrNotAllowed) {
			return
		}
		r.AppError = err.Error()
		r.errs = append(r.errs, fmt.Errorf("application update: %w", err))
		log.Printf("[scheduler] application update check: %v", err)
		return
	}
	r.App = &st
	if st.Available && !st.Cached {
		p.publish(events.Event{Type: events.AppUpdateAvailable, Payload: st})
		p.notify(notify.Notification{
			Title:   "MultitoolV2",
			Message: fmt.Sprintf("Nouvelle version disponible : %s", st.Latest),
		})
	}
}

func (p *Poller) publish(ev events.Event) {
	if p.Events != nil {
		p.Events.Publish(ev)
	}
}

func (p *Poller) notify(n notify.Notification) {
	if p.Notifier == nil {
		return
	}
	if err := p.Notifier.Send(n); err != nil {
		log.Printf("[scheduler] notify via %s: %v", p.Notifier.Name(), err)
	}
}

func (p *Poller) probeTimeout() time.Duration {
	if p.ProbeTimeout > 0 {
		return p.ProbeTimeout
	}
	return defaultProbeTimeout
}

func (p *Poller) updateTimeout() time.Duration {
	if p.UpdateTimeout > 0 {
		return p.UpdateTimeout
	}
	return defaultUpdateTimeout
}

func (p *Poller) maxParallel() int {
	if p.MaxParallel > 0 {
		return p.MaxParallel
	}
	return defaultMaxParallel
}
