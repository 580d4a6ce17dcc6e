package slideshow

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/nerrad567/photoframe-core/internal/picture"
	"github.com/nerrad567/photoframe-core/internal/statemachine"
)

// PictureService supplies pictures to the slideshow.
type PictureService interface {
	// AdvanceToNext signals that the next picture should be loaded.
	AdvanceToNext()

	// Images returns the sequence of loaded pictures for a display size.
	// The channel is closed when ctx is done or the sequence ends.
	Images(ctx context.Context, width, height int) <-chan picture.Result
}

// Effect names, used as metric labels.
const (
	effectTimer     = "slideshow_timer"
	effectLifecycle = "slideshow_lifecycle"
	effectFetcher   = "picture_fetcher"
	effectStream    = "picture_stream"
	effectScheduler = "slideshow_scheduler"
)

// pending is a single latest-wins timer: arming it again discards whatever
// was armed before.
type pending struct {
	timer  clockwork.Timer
	fire   <-chan time.Time
	action statemachine.Action
}

func (p *pending) arm(clock clockwork.Clock, d time.Duration, a statemachine.Action) {
	p.cancel()
	p.timer = clock.NewTimer(d)
	p.fire = p.timer.Chan()
	p.action = a
}

func (p *pending) cancel() {
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer, p.fire, p.action = nil, nil, nil
}

// fired clears the slot and returns the action it was armed with.
func (p *pending) fired() statemachine.Action {
	a := p.action
	p.timer, p.fire, p.action = nil, nil, nil
	return a
}

// Timer emits NextPicture immediately whenever the slideshow becomes active
// and then once per period until it stops being active. A tick that was due
// when the slideshow stopped is discarded.
func Timer(clock clockwork.Clock, period time.Duration) statemachine.Effect[State] {
	return statemachine.StateEffect[State](effectTimer, func(ctx context.Context, states <-chan State, emit statemachine.Emitter) {
		var ticker clockwork.Ticker
		var tick <-chan time.Time

		stop := func() {
			if ticker != nil {
				ticker.Stop()
			}
			ticker, tick = nil, nil
		}
		defer stop()

		for {
			select {
			case <-ctx.Done():
				return
			case s, ok := <-states:
				if !ok {
					return
				}
				switch {
				case s.Active() && ticker == nil:
					emit(NextPicture{})
					ticker = clock.NewTicker(period)
					tick = ticker.Chan()
				case !s.Active():
					stop()
				}
			case <-tick:
				emit(NextPicture{})
			}
		}
	})
}

// Lifecycle starts the slideshow on StartSlideshow and toggles it on
// TappedSlideshow. Pausing arms an auto-resume after pauseTimeout; any
// later start or tap disarms it.
func Lifecycle(clock clockwork.Clock, pauseTimeout time.Duration) statemachine.Effect[State] {
	return statemachine.ActionStateEffect[State](effectLifecycle, func(ctx context.Context, actions <-chan statemachine.Action, current func() State, emit statemachine.Emitter) {
		var resume pending
		defer resume.cancel()

		for {
			select {
			case <-ctx.Done():
				return
			case a, ok := <-actions:
				if !ok {
					return
				}
				switch a.(type) {
				case StartSlideshow:
					resume.cancel()
					emit(IsRunningChanged{IsRunning: true})
				case TappedSlideshow:
					resume.cancel()
					if current().IsRunning {
						emit(IsRunningChanged{IsRunning: false})
						resume.arm(clock, pauseTimeout, IsRunningChanged{IsRunning: true})
					} else {
						emit(IsRunningChanged{IsRunning: true})
					}
				}
			case <-resume.fire:
				emit(resume.fired())
			}
		}
	})
}

// PictureFetcher asks svc for the next picture on every NextPicture.
func PictureFetcher(svc PictureService) statemachine.Effect[State] {
	return statemachine.ActionEffect[State](effectFetcher, func(ctx context.Context, actions <-chan statemachine.Action, emit statemachine.Emitter) {
		for {
			select {
			case <-ctx.Done():
				return
			case a, ok := <-actions:
				if !ok {
					return
				}
				if _, isNext := a.(NextPicture); isNext {
					svc.AdvanceToNext()
				}
			}
		}
	})
}

// PictureStream subscribes to svc on StartSlideshow and turns every result
// into NewPicture. A new StartSlideshow cancels the previous subscription.
// When the sequence ends nothing more is emitted until the next start.
// A failure inside the effect surfaces as a StorageFailure picture.
func PictureStream(svc PictureService) statemachine.Effect[State] {
	return statemachine.ActionEffect[State](effectStream, func(ctx context.Context, actions <-chan statemachine.Action, emit statemachine.Emitter) {
		cancel := context.CancelFunc(func() {})
		defer func() { cancel() }()

		var results <-chan picture.Result
		for {
			select {
			case <-ctx.Done():
				return
			case a, ok := <-actions:
				if !ok {
					return
				}
				start, isStart := a.(StartSlideshow)
				if !isStart {
					continue
				}
				cancel()
				var streamCtx context.Context
				streamCtx, cancel = context.WithCancel(ctx)
				results = svc.Images(streamCtx, start.DesiredWidth, start.DesiredHeight)
			case r, ok := <-results:
				if !ok {
					results = nil
					continue
				}
				emit(NewPicture{Result: r})
			}
		}
	}).OnFailure(func(err error) statemachine.Action {
		return NewPicture{Result: picture.StorageFailure{Reason: err.Error()}}
	})
}

// Scheduler pauses the slideshow outside the daily window.
//
// On StartSlideshow it checks the wall clock: inside the window it arms a
// pause at the next turn-off, outside it pauses immediately. Every change
// of the night flag then arms the opposite transition: entering the pause
// arms a wake-up at the next turn-on, leaving it arms a pause at the next
// turn-off. The start decision and the flag transitions each keep a single
// pending timer.
func Scheduler(clock clockwork.Clock, loc *time.Location, window Window, logger statemachine.Logger) statemachine.Effect[State] {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return statemachine.ActionEffect[State](effectScheduler, func(ctx context.Context, actions <-chan statemachine.Action, emit statemachine.Emitter) {
		var first, transition pending
		defer first.cancel()
		defer transition.cancel()

		var lastFlag *bool

		for {
			select {
			case <-ctx.Done():
				return
			case a, ok := <-actions:
				if !ok {
					return
				}
				switch a := a.(type) {
				case StartSlideshow:
					now := clock.Now().In(loc)
					if !window.Contains(now) {
						first.cancel()
						logger.Info("outside on window, pausing for the night", "now", now.Format("15:04"), "turn_on", window.On)
						emit(IsPausedForTheNight{IsPausedForTheNight: true})
						continue
					}
					d := UntilNext(now, window.Off)
					logger.Info("scheduled night pause", "at", now.Add(d).Format(time.RFC3339), "in", d)
					first.arm(clock, d, IsPausedForTheNight{IsPausedForTheNight: true})
				case IsPausedForTheNight:
					paused := a.IsPausedForTheNight
					if lastFlag != nil && *lastFlag == paused {
						continue
					}
					lastFlag = &paused

					now := clock.Now().In(loc)
					if paused {
						d := UntilNext(now, window.On)
						logger.Info("scheduled wake up", "at", now.Add(d).Format(time.RFC3339), "in", d)
						transition.arm(clock, d, IsPausedForTheNight{IsPausedForTheNight: false})
					} else {
						d := UntilNext(now, window.Off)
						logger.Info("scheduled night pause", "at", now.Add(d).Format(time.RFC3339), "in", d)
						transition.arm(clock, d, IsPausedForTheNight{IsPausedForTheNight: true})
					}
				}
			case <-first.fire:
				emit(first.fired())
			case <-transition.fire:
				emit(transition.fired())
			}
		}
	})
}

// Timing groups the durations and schedule the effects run with.
type Timing struct {
	PhotoDuration time.Duration
	PauseTimeout  time.Duration
	Window        Window
	Location      *time.Location
}

// Effects returns the full effect set for a slideshow.
func Effects(svc PictureService, clock clockwork.Clock, timing Timing, logger statemachine.Logger) []statemachine.Effect[State] {
	return []statemachine.Effect[State]{
		Timer(clock, timing.PhotoDuration),
		Lifecycle(clock, timing.PauseTimeout),
		PictureFetcher(svc),
		PictureStream(svc),
		Scheduler(clock, timing.Location, timing.Window, logger),
	}
}
