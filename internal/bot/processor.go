package bot

import (
	"context"
	"errors"
	"strconv"

	"github.com/telelocator/telelocator-go/internal/config"
	"github.com/telelocator/telelocator-go/internal/ctxutil"
	apperrors "github.com/telelocator/telelocator-go/internal/errors"
	"github.com/telelocator/telelocator-go/internal/geocode"
	"github.com/telelocator/telelocator-go/internal/logger"
	"github.com/telelocator/telelocator-go/internal/metrics"
	"github.com/telelocator/telelocator-go/internal/ratelimit"
	"github.com/telelocator/telelocator-go/internal/retry"
	"github.com/telelocator/telelocator-go/internal/sanitize"
	"github.com/telelocator/telelocator-go/internal/sentry"
	"github.com/telelocator/telelocator-go/internal/storage"
	"github.com/telelocator/telelocator-go/internal/telegram"
)

// InboundEvent is a validated webhook update, ready for dispatch.
type InboundEvent struct {
	UpdateID  int64
	UserID    string
	ChatID    int64
	Username  string
	FirstName string
	Text      string
	Location  *telegram.Location
}

// Event kinds reported to metrics.
const (
	KindCommand  = "command"
	KindState    = "state"
	KindText     = "text"
	KindLocation = "location"
	KindSkipped  = "skipped"
)

// Processor routes validated events through the conversation state machine.
// One Process call per inbound event; all cross-event state lives in storage.
type Processor struct {
	states   *StateStore
	search   *LocationSearchService
	visits   *VisitCounterBatcher
	activity *ActivityLogger
	quota    *ratelimit.SearchQuota
	flood    *ratelimit.KeyedLimiter
	cmdFlood *ratelimit.KeyedLimiter
	users    storage.UserRepository
	geocoder geocode.Geocoder
	chat     telegram.ChatClient
	retrier  *retry.Executor
	cfg      config.BotConfig
	invite   string
	log      *logger.Logger
	metrics  *metrics.Metrics
}

// ProcessorParams collects the processor's dependencies.
type ProcessorParams struct {
	States   *StateStore
	Search   *LocationSearchService
	Visits   *VisitCounterBatcher
	Activity *ActivityLogger
	Quota    *ratelimit.SearchQuota
	Flood    *ratelimit.KeyedLimiter
	CmdFlood *ratelimit.KeyedLimiter
	Users    storage.UserRepository
	Geocoder geocode.Geocoder
	Chat     telegram.ChatClient
	Retrier  *retry.Executor
	Config   config.BotConfig
	Invite   string
	Logger   *logger.Logger
	Metrics  *metrics.Metrics
}

// NewProcessor creates a processor. Flood, CmdFlood, and Metrics may be nil
// in tests.
func NewProcessor(p ProcessorParams) *Processor {
	if p.Retrier == nil {
		p.Retrier = retry.NewDefault()
	}
	return &Processor{
		states:   p.States,
		search:   p.Search,
		visits:   p.Visits,
		activity: p.Activity,
		quota:    p.Quota,
		flood:    p.Flood,
		cmdFlood: p.CmdFlood,
		users:    p.Users,
		geocoder: p.Geocoder,
		chat:     p.Chat,
		retrier:  p.Retrier,
		cfg:      p.Config,
		invite:   p.Invite,
		log:      p.Logger.WithModule("processor"),
		metrics:  p.Metrics,
	}
}

// Process handles one event end to end and returns the event kind for
// metrics. Processing failures degrade into apology replies; they never
// propagate, because the webhook has already committed to acknowledging.
func (p *Processor) Process(ctx context.Context, event *InboundEvent) string {
	ctx = ctxutil.WithUserID(ctx, event.UserID)
	ctx = ctxutil.WithChatID(ctx, strconv.FormatInt(event.ChatID, 10))

	if p.flood != nil && !p.flood.Allow(event.UserID) {
		// Silently dropped: replying to a flood feeds it.
		return KindSkipped
	}

	p.rememberUser(ctx, event)

	if event.Location != nil {
		p.handleLocationPin(ctx, event)
		return KindLocation
	}

	if cmd, arg, ok := ParseCommand(event.Text); ok {
		if p.cmdFlood != nil && !p.cmdFlood.Allow(event.UserID) {
			return KindSkipped
		}
		p.handleCommand(ctx, event, cmd, arg)
		return KindCommand
	}

	state, _, _, err := p.states.Get(ctx, event.UserID)
	if err != nil {
		p.log.WithError(err).WithField("user_id", event.UserID).Error("state read failed")
		sentry.CaptureException(err)
		p.reply(ctx, event.ChatID, searchFailedText)
		return KindState
	}

	switch state {
	case storage.StateAwaitingLocation:
		p.handleAwaitedSearch(ctx, event, "single", p.cfg.SingleResultLimit)
		return KindState
	case storage.StateAwaitingLocationNumbers:
		p.handleAwaitedSearch(ctx, event, "multi", p.cfg.MultiResultLimit)
		return KindState
	default:
		p.reply(ctx, event.ChatID, fallbackPromptText)
		return KindText
	}
}

func (p *Processor) handleCommand(ctx context.Context, event *InboundEvent, cmd Command, arg string) {
	switch cmd {
	case CommandStart:
		p.states.Reset(ctx, event.UserID)
		remaining := p.quota.Remaining(ctx, event.UserID)
		p.reply(ctx, event.ChatID, WelcomeText(event.FirstName, remaining))

	case CommandHelp:
		p.reply(ctx, event.ChatID, helpText)

	case CommandInvite:
		p.reply(ctx, event.ChatID, InviteText(p.invite))

	case CommandNumber:
		p.beginAwaitedSearch(ctx, event, storage.StateAwaitingLocation, promptLocationText)

	case CommandNumbers:
		p.beginAwaitedSearch(ctx, event, storage.StateAwaitingLocationNumbers, promptLocationNumbersText)

	case CommandCity:
		p.handleTypedSearch(ctx, event, storage.TypeCity, arg)
	case CommandTown:
		p.handleTypedSearch(ctx, event, storage.TypeTown, arg)
	case CommandVillage:
		p.handleTypedSearch(ctx, event, storage.TypeVillage, arg)
	case CommandPostcode:
		p.handleTypedSearch(ctx, event, storage.TypePostcode, arg)

	default:
		p.reply(ctx, event.ChatID, unknownCommandText)
	}
}

// beginAwaitedSearch arms one of the two awaiting states after a quota check.
// Denial leaves the state unchanged.
func (p *Processor) beginAwaitedSearch(ctx context.Context, event *InboundEvent, state, prompt string) {
	decision := p.quota.Check(ctx, event.UserID)
	if !decision.Allowed {
		p.reply(ctx, event.ChatID, QuotaExceededText(p.quota.Limit()))
		return
	}

	_, _, version, err := p.states.Get(ctx, event.UserID)
	if err != nil {
		p.log.WithError(err).WithField("user_id", event.UserID).Error("state read failed")
		p.reply(ctx, event.ChatID, searchFailedText)
		return
	}

	if err := p.states.Transition(ctx, event.UserID, version, state, nil); err != nil {
		if errors.Is(err, storage.ErrStaleState) {
			// A concurrent event for this user won. Let its flow stand.
			return
		}
		p.log.WithError(err).WithField("user_id", event.UserID).Error("state transition failed")
		sentry.CaptureException(err)
		p.reply(ctx, event.ChatID, searchFailedText)
		return
	}

	p.reply(ctx, event.ChatID, prompt)
}

// handleAwaitedSearch runs the free-text step of the /number and /numbers
// flows: geocode the text, look up the nearest records, reply, count visits,
// log activity. The return to the start state is unconditional.
func (p *Processor) handleAwaitedSearch(ctx context.Context, event *InboundEvent, queryType string, limit int) {
	defer p.states.Reset(ctx, event.UserID)

	query := sanitize.QueryBounded(event.Text, p.cfg.MaxQueryInputChars)
	if query == "" {
		p.reply(ctx, event.ChatID, notFoundText)
		return
	}

	place, err := p.geocoder.Lookup(ctx, query)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrGeocodeNotFound):
			p.activity.LogSearch(ctx, event.UserID, queryType, query)
			p.reply(ctx, event.ChatID, notFoundText)
		default:
			p.log.WithError(err).Error("geocode lookup failed")
			sentry.CaptureException(err)
			p.reply(ctx, event.ChatID, geocodeDownText)
		}
		return
	}

	result, err := p.search.Nearby(ctx, place.Latitude, place.Longitude, limit)
	if err != nil {
		p.log.WithError(err).Error("nearby lookup failed")
		sentry.CaptureException(err)
		p.reply(ctx, event.ChatID, searchFailedText)
		return
	}

	p.activity.LogSearch(ctx, event.UserID, queryType, query)

	if len(result.Locations) == 0 {
		p.reply(ctx, event.ChatID, notFoundText)
		return
	}

	p.reply(ctx, event.ChatID, FormatLocations(result.Locations), telegram.WithParseMode(telegram.ParseModeHTML))
	p.visits.Increment(ctx, result.Locations)
}

// handleTypedSearch is the direct lineage: /city London runs a type-filtered
// two-stage text search without entering an awaiting state.
func (p *Processor) handleTypedSearch(ctx context.Context, event *InboundEvent, locType storage.LocationType, arg string) {
	query := sanitize.QueryBounded(arg, p.cfg.MaxQueryInputChars)
	if query == "" {
		p.reply(ctx, event.ChatID, "Add a search term after the command, e.g. /"+string(locType)+" Springfield.")
		return
	}

	decision := p.quota.Check(ctx, event.UserID)
	if !decision.Allowed {
		p.reply(ctx, event.ChatID, QuotaExceededText(p.quota.Limit()))
		return
	}

	result, err := p.search.Search(ctx, query, locType, p.cfg.TypedSearchLimit)
	if err != nil {
		p.log.WithError(err).Error("typed search failed")
		sentry.CaptureException(err)
		p.reply(ctx, event.ChatID, searchFailedText)
		return
	}

	p.activity.LogSearch(ctx, event.UserID, string(locType), query)

	if len(result.Locations) == 0 {
		p.reply(ctx, event.ChatID, notFoundText)
		return
	}

	p.reply(ctx, event.ChatID, FormatLocations(result.Locations), telegram.WithParseMode(telegram.ParseModeHTML))
	p.visits.Increment(ctx, result.Locations)
}

// handleLocationPin answers a shared coordinate pair with the nearest
// directory entries.
func (p *Processor) handleLocationPin(ctx context.Context, event *InboundEvent) {
	decision := p.quota.Check(ctx, event.UserID)
	if !decision.Allowed {
		p.reply(ctx, event.ChatID, QuotaExceededText(p.quota.Limit()))
		return
	}

	result, err := p.search.Nearby(ctx, event.Location.Latitude, event.Location.Longitude, p.cfg.NearbyResultLimit)
	if err != nil {
		p.log.WithError(err).Error("nearby lookup failed")
		sentry.CaptureException(err)
		p.reply(ctx, event.ChatID, searchFailedText)
		return
	}

	p.activity.LogNearby(ctx, event.UserID, event.Location.Latitude, event.Location.Longitude)

	if len(result.Locations) == 0 {
		p.reply(ctx, event.ChatID, noNearbyText)
		return
	}

	p.reply(ctx, event.ChatID, FormatLocations(result.Locations), telegram.WithParseMode(telegram.ParseModeHTML))
	p.visits.Increment(ctx, result.Locations)
}

// rememberUser upserts the sender into the user registry. Best effort.
func (p *Processor) rememberUser(ctx context.Context, event *InboundEvent) {
	if p.users == nil {
		return
	}
	err := p.users.UpsertTelegramUser(ctx, &storage.TelegramUser{
		TelegramID: event.UserID,
		Username:   event.Username,
		FirstName:  event.FirstName,
	})
	if err != nil {
		p.log.WithError(err).WithField("user_id", event.UserID).Warn("user registry upsert failed")
	}
}

// reply delivers a message. Delivery failure after retries is logged only;
// the inbound event is already consumed, so the webhook still acks.
func (p *Processor) reply(ctx context.Context, chatID int64, text string, opts ...telegram.SendOption) {
	if err := p.chat.SendMessage(ctx, chatID, text, opts...); err != nil {
		entry := p.log.WithError(err).WithField("chat_id", strconv.FormatInt(chatID, 10))
		if userID := ctxutil.GetUserID(ctx); userID != "" {
			entry = entry.WithField("user_id", userID)
		}
		entry.Error("reply delivery failed")
		sentry.CaptureExceptionWithContext(ctx, err)
	}
}
