package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/relomove/leadbot/internal/botconfig"
	"github.com/relomove/leadbot/internal/extract"
	"github.com/relomove/leadbot/internal/geo"
	"github.com/relomove/leadbot/internal/models"
	"github.com/relomove/leadbot/internal/pricing"
)

// MovingHandler runs the moving/relocation intake flow: cargo, addresses
// with floors, date and time, photos, extras, then a price estimate.
type MovingHandler struct {
	cfg        *botconfig.BotConfig
	pricing    *pricing.Config
	classifier *geo.Classifier
	items      *extract.AliasLookup
	opts       Options
}

// NewMovingHandler wires the moving flow over its catalog and gazetteer.
func NewMovingHandler(cfg *botconfig.BotConfig, priceCfg *pricing.Config, classifier *geo.Classifier, opts ...Option) *MovingHandler {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MovingHandler{
		cfg:        cfg,
		pricing:    priceCfg,
		classifier: classifier,
		items:      extract.NewAliasLookup(priceCfg.ItemAliases()),
		opts:       o,
	}
}

func (h *MovingHandler) Type() models.BotType             { return h.cfg.Type }
func (h *MovingHandler) InitialStep() models.Step         { return h.cfg.InitialStep }
func (h *MovingHandler) DefaultLanguage() models.Language { return h.cfg.DefaultLanguage }

// say renders a translation for the session's language.
func (h *MovingHandler) say(state *models.SessionState, key string, args map[string]string) string {
	return h.cfg.Translate(key, state.Language, args)
}

// HandleText advances the flow by one inbound text message. A message that
// fails validation or matches no expected input leaves the session
// untouched, so the remote end can simply retry.
func (h *MovingHandler) HandleText(state *models.SessionState, text string) Reply {
	clean, err := extract.Sanitize(text, models.MaxTextLength)
	if err != nil {
		slog.Debug("MovingHandler.HandleText: input rejected",
			"tenantID", state.TenantID, "step", state.Step, "error", err)
		return Reply{Text: h.say(state, "invalid_input", nil)}
	}

	switch extract.DetectIntent(clean, h.cfg.IntentPatterns()) {
	case extract.IntentReset:
		// Reset works from every step and keeps the lead id and the
		// already detected language.
		state.ResetData()
		state.Step = models.StepCargo
		slog.Debug("MovingHandler.HandleText: session reset",
			"tenantID", state.TenantID, "chatID", state.ChatID)
		return Reply{Text: h.say(state, "reset_done", nil)}
	}

	if models.FreeTextSteps[state.Step] {
		if lang, conf := extract.DetectLanguage(clean); conf >= 0.5 && models.IsValidLanguage(lang) {
			state.Language = lang
		}
	}

	slog.Debug("MovingHandler.HandleText: dispatch",
		"tenantID", state.TenantID, "chatID", state.ChatID,
		"step", state.Step, "language", state.Language)

	switch state.Step {
	case models.StepWelcome:
		return h.handleWelcome(state, clean)
	case models.StepCargo:
		return h.handleCargo(state, clean)
	case models.StepVolume:
		return h.handleVolume(state, clean)
	case models.StepPickupCount:
		return h.handlePickupCount(state, clean)
	case models.StepAddrFrom, models.StepAddrFrom2, models.StepAddrFrom3:
		return h.handlePickupAddress(state, clean)
	case models.StepFloorFrom, models.StepFloorFrom2, models.StepFloorFrom3:
		return h.handlePickupFloor(state, clean)
	case models.StepAddrTo:
		return h.handleAddrTo(state, clean)
	case models.StepFloorTo:
		return h.handleFloorTo(state, clean)
	case models.StepConfirmAddresses:
		return h.handleConfirmAddresses(state, clean)
	case models.StepDate:
		return h.handleDate(state, clean)
	case models.StepSpecificDate:
		return h.handleSpecificDate(state, clean)
	case models.StepTimeSlot, models.StepLegacyTime:
		return h.handleTimeSlot(state, clean)
	case models.StepExactTime:
		return h.handleExactTime(state, clean)
	case models.StepPhotoMenu:
		return h.handlePhotoMenu(state, clean)
	case models.StepPhotoWait:
		return h.handlePhotoWait(state, clean)
	case models.StepExtras:
		return h.handleExtras(state, clean)
	case models.StepEstimate:
		return h.handleEstimate(state, clean)
	case models.StepDone:
		return Reply{Text: h.say(state, "already_done", nil)}
	default:
		slog.Error("MovingHandler.HandleText: session at unknown step, restarting",
			"tenantID", state.TenantID, "chatID", state.ChatID, "step", state.Step)
		state.ResetData()
		state.Step = models.StepCargo
		return Reply{Text: h.say(state, "reset_done", nil)}
	}
}

// HandleMedia records image attachments. Photos are accepted at any step so
// an eager user never loses them; only the photo-wait step acknowledges, and
// only once, so an album of ten photos does not produce ten replies.
func (h *MovingHandler) HandleMedia(state *models.SessionState, media []models.Media) Reply {
	images := 0
	for _, m := range media {
		if strings.HasPrefix(m.ContentType, "image/") {
			images++
		}
	}
	if images == 0 {
		return Reply{}
	}
	first := state.Data.PhotoCount == 0
	state.Data.HasPhotos = true
	state.Data.PhotoCount += images
	slog.Debug("MovingHandler.HandleMedia: photos recorded",
		"tenantID", state.TenantID, "chatID", state.ChatID,
		"count", images, "total", state.Data.PhotoCount)
	if state.Step == models.StepPhotoWait && first {
		return Reply{Text: h.say(state, "photo_received", nil)}
	}
	return Reply{}
}

// HandleLocation accepts a GPS pin only where a typed address is expected
// and feeds it through the normal address path.
func (h *MovingHandler) HandleLocation(state *models.SessionState, loc *models.Location) Reply {
	if loc == nil {
		return Reply{}
	}
	if !models.AddressSteps[state.Step] {
		return Reply{Text: h.say(state, "location_not_supported", nil)}
	}
	addr := loc.Address
	if addr == "" {
		addr = loc.Name
	}
	if addr == "" {
		addr = fmt.Sprintf("%.5f, %.5f", loc.Lat, loc.Lon)
	}
	state.Data.GeoPoints = append(state.Data.GeoPoints, models.GeoPoint{
		Field:   string(state.Step),
		Lat:     loc.Lat,
		Lon:     loc.Lon,
		Name:    loc.Name,
		Address: loc.Address,
	})
	if state.Step == models.StepAddrTo {
		return h.handleAddrTo(state, addr)
	}
	return h.handlePickupAddress(state, addr)
}

func (h *MovingHandler) handleWelcome(state *models.SessionState, text string) Reply {
	if pf, ok := extract.ParseLandingPrefill(text); ok {
		if pf.MoveType != "" {
			state.Data.SetCustom("move_type", pf.MoveType)
		}
		if pf.DateHint != "" {
			state.Data.SetCustom("date_hint", pf.DateHint)
		}
		if pf.Details != "" {
			state.Data.DetailsFree = pf.Details
		}
		state.Data.AddrFrom = pf.AddrFrom
		state.Data.AddrTo = pf.AddrTo
	}
	state.Step = models.StepCargo
	return Reply{Text: h.say(state, "welcome", nil)}
}

func (h *MovingHandler) handleCargo(state *models.SessionState, text string) Reply {
	if extract.IsTooShort(text, 3) {
		return Reply{Text: h.say(state, "too_short", nil)}
	}
	state.Data.CargoDescription = text
	for _, it := range extract.ExtractItems(text, h.items) {
		state.Data.AddItem(it.Key, it.Qty)
	}
	if vol, ok := extract.DetectVolumeFromRooms(text); ok {
		state.Data.VolumeCategory = vol
		return h.afterVolume(state)
	}
	state.Step = models.StepVolume
	return Reply{Text: h.say(state, "ask_volume", nil)}
}

func (h *MovingHandler) handleVolume(state *models.SessionState, text string) Reply {
	v := h.cfg.Choice(botconfig.ChoiceVolume, text)
	if v == "" {
		return Reply{Text: h.say(state, "unknown_choice", nil)}
	}
	state.Data.VolumeCategory = models.VolumeCategory(v)
	return h.afterVolume(state)
}

// afterVolume asks for address confirmation instead of the pickup count when
// a landing prefill already supplied both endpoints; otherwise the full
// address block starts.
func (h *MovingHandler) afterVolume(state *models.SessionState) Reply {
	if state.Data.AddrFrom != "" && state.Data.AddrTo != "" {
		state.Step = models.StepConfirmAddresses
		return Reply{Text: h.say(state, "confirm_addresses", map[string]string{
			"from": state.Data.AddrFrom, "to": state.Data.AddrTo,
		})}
	}
	state.Step = models.StepPickupCount
	return Reply{Text: h.say(state, "ask_pickup_count", nil)}
}

func (h *MovingHandler) handlePickupCount(state *models.SessionState, text string) Reply {
	v := h.cfg.Choice(botconfig.ChoicePickupCount, text)
	if v == "" {
		return Reply{Text: h.say(state, "unknown_choice", nil)}
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > models.MaxPickupCount {
		return Reply{Text: h.say(state, "unknown_choice", nil)}
	}
	state.Data.PickupCount = n
	state.Data.Pickups = nil
	state.Step = models.StepAddrFrom
	return Reply{Text: h.say(state, "ask_addr_from", nil)}
}

// pickupIndex maps the current address/floor step to its pickup slot.
func pickupIndex(step models.Step) int {
	switch step {
	case models.StepAddrFrom2, models.StepFloorFrom2:
		return 1
	case models.StepAddrFrom3, models.StepFloorFrom3:
		return 2
	default:
		return 0
	}
}

var pickupAddrSteps = [...]models.Step{models.StepAddrFrom, models.StepAddrFrom2, models.StepAddrFrom3}
var pickupFloorSteps = [...]models.Step{models.StepFloorFrom, models.StepFloorFrom2, models.StepFloorFrom3}

func (h *MovingHandler) handlePickupAddress(state *models.SessionState, text string) Reply {
	if extract.IsTooShort(text, 3) {
		return Reply{Text: h.say(state, "too_short", nil)}
	}
	idx := pickupIndex(state.Step)
	for len(state.Data.Pickups) <= idx {
		state.Data.Pickups = append(state.Data.Pickups, models.Pickup{})
	}
	state.Data.Pickups[idx].Addr = text
	if idx == 0 {
		state.Data.AddrFrom = text
	}
	state.Step = pickupFloorSteps[idx]
	if idx == 0 {
		return Reply{Text: h.say(state, "ask_floor_from", nil)}
	}
	return Reply{Text: h.say(state, "ask_floor_from_n", map[string]string{"n": strconv.Itoa(idx + 1)})}
}

func (h *MovingHandler) handlePickupFloor(state *models.SessionState, text string) Reply {
	idx := pickupIndex(state.Step)
	fi := extract.ParseFloorInfo(text)
	for len(state.Data.Pickups) <= idx {
		state.Data.Pickups = append(state.Data.Pickups, models.Pickup{})
	}
	state.Data.Pickups[idx].Floor = fi.Floor
	state.Data.Pickups[idx].HasElevator = fi.HasElevator
	if idx == 0 {
		state.Data.FloorFrom = fi.Floor
		state.Data.ElevatorFrom = fi.HasElevator
	}

	count := state.Data.PickupCount
	if count < 1 {
		count = 1
	}
	if idx+1 < count {
		state.Step = pickupAddrSteps[idx+1]
		return Reply{Text: h.say(state, "ask_addr_from_n", map[string]string{"n": strconv.Itoa(idx + 2)})}
	}
	if state.Data.AddrTo != "" {
		// Prefilled destination, only the floor is missing.
		state.Step = models.StepFloorTo
		return Reply{Text: h.say(state, "ask_floor_to", nil)}
	}
	state.Step = models.StepAddrTo
	return Reply{Text: h.say(state, "ask_addr_to", nil)}
}

func (h *MovingHandler) handleAddrTo(state *models.SessionState, text string) Reply {
	if extract.IsTooShort(text, 3) {
		return Reply{Text: h.say(state, "too_short", nil)}
	}
	state.Data.AddrTo = text
	state.Step = models.StepFloorTo
	return Reply{Text: h.say(state, "ask_floor_to", nil)}
}

func (h *MovingHandler) handleFloorTo(state *models.SessionState, text string) Reply {
	fi := extract.ParseFloorInfo(text)
	state.Data.FloorTo = fi.Floor
	state.Data.ElevatorTo = fi.HasElevator
	state.Step = models.StepDate
	return Reply{Text: h.say(state, "ask_date", nil)}
}

func (h *MovingHandler) handleConfirmAddresses(state *models.SessionState, text string) Reply {
	choice := h.cfg.Choice(botconfig.ChoiceConfirm, text)
	if choice == "" {
		switch extract.DetectIntent(text, h.cfg.IntentPatterns()) {
		case extract.IntentConfirm:
			choice = botconfig.ConfirmKeep
		case extract.IntentDecline:
			choice = botconfig.ConfirmReenter
		}
	}
	switch choice {
	case botconfig.ConfirmKeep:
		// Kept prefill addresses skip the whole address block; floors
		// default to ground with elevator, which prices without a
		// surcharge.
		state.Data.PickupCount = 1
		fi := extract.DefaultFloorInfo()
		state.Data.Pickups = []models.Pickup{{Addr: state.Data.AddrFrom, Floor: fi.Floor, HasElevator: fi.HasElevator}}
		state.Data.FloorFrom = fi.Floor
		state.Data.ElevatorFrom = fi.HasElevator
		state.Data.FloorTo = fi.Floor
		state.Data.ElevatorTo = fi.HasElevator
		state.Step = models.StepDate
		return Reply{Text: h.say(state, "ask_date", nil)}
	case botconfig.ConfirmReenter:
		state.Data.AddrFrom = ""
		state.Data.AddrTo = ""
		state.Step = models.StepPickupCount
		return Reply{Text: h.say(state, "ask_pickup_count", nil)}
	default:
		return Reply{Text: h.say(state, "unknown_choice", nil)}
	}
}

func (h *MovingHandler) handleDate(state *models.SessionState, text string) Reply {
	today := h.opts.Now()
	switch h.cfg.Choice(botconfig.ChoiceDate, text) {
	case botconfig.DateTomorrow:
		return h.setMoveDate(state, today.AddDate(0, 0, 1))
	case botconfig.DateDayAfter:
		return h.setMoveDate(state, today.AddDate(0, 0, 2))
	case botconfig.DateSpecific:
		state.Step = models.StepSpecificDate
		return Reply{Text: h.say(state, "ask_specific_date", nil)}
	}
	// Users often type the date directly instead of picking the menu item.
	d, err := extract.ParseDate(text, today)
	if err != nil {
		var de *extract.DateError
		if errors.As(err, &de) && de.Reason != extract.DateUnrecognized {
			return Reply{Text: h.say(state, dateErrorKey(de.Reason), nil)}
		}
		return Reply{Text: h.say(state, "unknown_choice", nil)}
	}
	return h.setMoveDate(state, d)
}

func (h *MovingHandler) handleSpecificDate(state *models.SessionState, text string) Reply {
	d, err := extract.ParseDate(text, h.opts.Now())
	if err != nil {
		var de *extract.DateError
		if errors.As(err, &de) {
			return Reply{Text: h.say(state, dateErrorKey(de.Reason), nil)}
		}
		return Reply{Text: h.say(state, "date_unrecognized", nil)}
	}
	return h.setMoveDate(state, d)
}

func dateErrorKey(reason extract.DateErrorReason) string {
	switch reason {
	case extract.DateInvalid:
		return "date_invalid"
	case extract.DateTooSoon:
		return "date_too_soon"
	case extract.DateTooFar:
		return "date_too_far"
	default:
		return "date_unrecognized"
	}
}

func (h *MovingHandler) setMoveDate(state *models.SessionState, d time.Time) Reply {
	state.Data.MoveDate = d.Format("2006-01-02")
	state.Step = models.StepTimeSlot
	return Reply{Text: h.say(state, "ask_time_slot", nil)}
}

func (h *MovingHandler) handleTimeSlot(state *models.SessionState, text string) Reply {
	slot := h.cfg.Choice(botconfig.ChoiceTimeSlot, text)
	switch slot {
	case "":
		return Reply{Text: h.say(state, "unknown_choice", nil)}
	case botconfig.TimeSlotExact:
		state.Step = models.StepExactTime
		return Reply{Text: h.say(state, "ask_exact_time", nil)}
	default:
		state.Data.TimeSlot = slot
		state.Data.TimeWindow = slot
		state.Step = models.StepPhotoMenu
		return Reply{Text: h.say(state, "ask_photo", nil)}
	}
}

func (h *MovingHandler) handleExactTime(state *models.SessionState, text string) Reply {
	hhmm, err := extract.ParseExactTime(text)
	if err != nil {
		return Reply{Text: h.say(state, "time_invalid", nil)}
	}
	state.Data.TimeSlot = botconfig.TimeSlotExact
	state.Data.ExactTime = hhmm
	state.Data.TimeWindow = hhmm
	state.Step = models.StepPhotoMenu
	return Reply{Text: h.say(state, "ask_photo", nil)}
}

func (h *MovingHandler) handlePhotoMenu(state *models.SessionState, text string) Reply {
	switch h.cfg.Choice(botconfig.ChoicePhoto, text) {
	case botconfig.PhotoYes:
		state.Step = models.StepPhotoWait
		return Reply{Text: h.say(state, "ask_photo_wait", nil)}
	case botconfig.PhotoNo:
		state.Step = models.StepExtras
		return Reply{Text: h.say(state, "ask_extras", nil)}
	default:
		return Reply{Text: h.say(state, "unknown_choice", nil)}
	}
}

var photoDoneKeywords = []string{"готово", "все", "всё", "done", "finished", "סיימתי", "זהו"}

func (h *MovingHandler) handlePhotoWait(state *models.SessionState, text string) Reply {
	t := strings.ToLower(strings.TrimSpace(text))
	finished := extract.DetectIntent(text, h.cfg.IntentPatterns()) == extract.IntentConfirm
	for _, kw := range photoDoneKeywords {
		if t == kw {
			finished = true
			break
		}
	}
	if !finished {
		return Reply{Text: h.say(state, "ask_photo_wait", nil)}
	}
	state.Step = models.StepExtras
	return Reply{Text: h.say(state, "ask_extras", nil)}
}

var (
	extrasSeparators   = strings.NewReplacer("+", ",", ";", ",", "\n", ",")
	extrasConnectiveRe = regexp.MustCompile(`\s(?:и|and|также)\s`)
	extrasDigitsRe     = regexp.MustCompile(`^\d+(?:[\s,;+]+\d+)*$`)
)

// splitExtras breaks an extras answer into fragments. Menu digits may come
// space-separated ("1 3"); everything else splits on commas, plus signs,
// semicolons, newlines and the spoken connectives, so digits and free text
// mix in one message.
func splitExtras(text string) []string {
	t := strings.ToLower(strings.TrimSpace(text))
	if extrasDigitsRe.MatchString(t) {
		return strings.FieldsFunc(t, func(r rune) bool { return r < '0' || r > '9' })
	}
	return strings.Split(extrasConnectiveRe.ReplaceAllString(extrasSeparators.Replace(t), ","), ",")
}

func (h *MovingHandler) handleExtras(state *models.SessionState, text string) Reply {
	if v := h.cfg.Choice(botconfig.ChoiceExtras, text); v == botconfig.ExtrasNone {
		state.Data.Extras = nil
		return h.computeEstimate(state)
	}

	fragments := splitExtras(text)
	var extras []string
	var freeText []string
	for _, frag := range fragments {
		frag = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(frag), "и "))
		if frag == "" {
			continue
		}
		if v := h.cfg.Choice(botconfig.ChoiceExtras, frag); v != "" {
			if v != botconfig.ExtrasNone {
				extras = append(extras, v)
			}
			continue
		}
		if key := h.matchExtra(frag); key != "" {
			extras = append(extras, key)
			continue
		}
		freeText = append(freeText, frag)
	}
	state.Data.Extras = dedupStrings(extras)
	if len(freeText) > 0 {
		note := strings.Join(freeText, ", ")
		if state.Data.DetailsFree != "" {
			note = state.Data.DetailsFree + "; " + note
		}
		state.Data.DetailsFree = note
	}
	return h.computeEstimate(state)
}

// matchExtra maps a free-text fragment onto a catalog extras alias.
func (h *MovingHandler) matchExtra(frag string) string {
	for alias, key := range h.pricing.ExtrasAliases {
		if strings.Contains(frag, strings.ToLower(alias)) {
			return key
		}
	}
	for key := range h.pricing.ExtrasAdjustments {
		if strings.Contains(frag, key) {
			return key
		}
	}
	return ""
}

func dedupStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// computeEstimate classifies the route, prices the collected data and moves
// the session to the estimate confirmation step.
func (h *MovingHandler) computeEstimate(state *models.SessionState) Reply {
	cls := h.classifier.Classify(state.Data.AddrFrom, state.Data.AddrTo)

	in := pricing.Input{
		Items:         state.Data.CargoItems,
		Volume:        state.Data.VolumeCategory,
		DeliveryFloor: pricing.PickupFloor{Floor: state.Data.FloorTo, HasElevator: state.Data.ElevatorTo},
		Extras:        state.Data.Extras,
		RouteBand:     string(cls.Band),
	}
	for _, p := range state.Data.Pickups {
		in.PickupFloors = append(in.PickupFloors, pricing.PickupFloor{Floor: p.Floor, HasElevator: p.HasElevator})
	}
	if len(in.PickupFloors) == 0 {
		in.PickupFloors = []pricing.PickupFloor{{Floor: state.Data.FloorFrom, HasElevator: state.Data.ElevatorFrom}}
	}
	if state.Data.PickupCount > 1 {
		in.ExtraPickups = state.Data.PickupCount - 1
	}

	est := pricing.EstimatePrice(in, h.pricing)
	state.Data.EstimateMin = est.Min
	state.Data.EstimateMax = est.Max
	state.Data.RouteBand = string(cls.Band)
	state.Data.RouteBreakdown = est.Breakdown.BreakdownMap()
	state.Step = models.StepEstimate

	slog.Debug("MovingHandler.computeEstimate: estimate ready",
		"tenantID", state.TenantID, "chatID", state.ChatID,
		"band", cls.Band, "min", est.Min, "max", est.Max,
		"hidden", h.estimateHidden(state))

	if h.estimateHidden(state) {
		return Reply{Text: h.say(state, "estimate_hidden", nil)}
	}
	return Reply{Text: h.say(state, "estimate_confirm", map[string]string{
		"min":      strconv.Itoa(est.Min),
		"max":      strconv.Itoa(est.Max),
		"currency": est.Currency,
	})}
}

// estimateHidden applies the global toggle and the parsing-quality guard: a
// long description that yielded neither items nor a volume category means
// the computed range is not trustworthy enough to show.
func (h *MovingHandler) estimateHidden(state *models.SessionState) bool {
	if !h.opts.ShowEstimates {
		return true
	}
	return utf8.RuneCountInString(state.Data.CargoDescription) >= h.opts.MinDescriptionLenForGuard &&
		len(state.Data.CargoItems) == 0 &&
		state.Data.VolumeCategory == ""
}

func (h *MovingHandler) handleEstimate(state *models.SessionState, text string) Reply {
	choice := h.cfg.Choice(botconfig.ChoiceConfirm, text)
	if choice == "" {
		switch extract.DetectIntent(text, h.cfg.IntentPatterns()) {
		case extract.IntentConfirm:
			choice = botconfig.ConfirmKeep
		case extract.IntentDecline:
			choice = botconfig.ConfirmReenter
		}
	}
	switch choice {
	case botconfig.ConfirmKeep:
		state.Data.SetCustom("confirmed", "true")
		state.Step = models.StepDone
		return Reply{Text: h.say(state, "done", nil), Done: true}
	case botconfig.ConfirmReenter:
		// Declined requests still reach the operator, marked as such.
		state.Data.SetCustom("confirmed", "false")
		state.Step = models.StepDone
		return Reply{Text: h.say(state, "done_declined", nil), Done: true}
	default:
		return Reply{Text: h.say(state, "unknown_choice", nil)}
	}
}
