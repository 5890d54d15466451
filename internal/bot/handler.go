// Package bot implements the per-bot-type conversation flows. Handlers are
// pure state machines: they mutate the passed session and return the reply
// text, while persistence, dedup and transport stay in the engine.
package bot

import (
	"time"

	"github.com/relomove/leadbot/internal/models"
)

// Reply is the outcome of handling one inbound message. Done marks the
// session as completed so the engine finalizes a lead from it.
type Reply struct {
	Text string
	Done bool
}

// Handler drives one bot type's conversation. Implementations must be safe
// for concurrent use across sessions; all per-conversation state lives in
// the SessionState.
type Handler interface {
	Type() models.BotType
	InitialStep() models.Step
	DefaultLanguage() models.Language

	HandleText(state *models.SessionState, text string) Reply
	HandleMedia(state *models.SessionState, media []models.Media) Reply
	HandleLocation(state *models.SessionState, loc *models.Location) Reply
}

// Options tunes flow behavior shared by handlers. Zero value is not usable;
// build with defaultOptions plus Option funcs.
type Options struct {
	// ShowEstimates controls whether the computed price range is shown to
	// the user. When false every completed flow gets the hidden-estimate
	// reply and the range is still stored for the operator.
	ShowEstimates bool

	// MinDescriptionLenForGuard hides the estimate when the cargo
	// description is at least this many runes long yet produced no
	// recognized items and no volume category. Long unparsed prose means
	// the numbers would likely be wrong.
	MinDescriptionLenForGuard int

	// Now supplies the clock for date validation, overridable in tests.
	Now func() time.Time
}

// Option mutates handler Options.
type Option func(*Options)

func defaultOptions() Options {
	return Options{
		ShowEstimates:             true,
		MinDescriptionLenForGuard: 30,
		Now:                       time.Now,
	}
}

// WithShowEstimates toggles user-visible price ranges.
func WithShowEstimates(show bool) Option {
	return func(o *Options) { o.ShowEstimates = show }
}

// WithGuardThreshold overrides the parsing-quality guard length.
func WithGuardThreshold(runes int) Option {
	return func(o *Options) { o.MinDescriptionLenForGuard = runes }
}

// WithNow overrides the clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(o *Options) { o.Now = now }
}
