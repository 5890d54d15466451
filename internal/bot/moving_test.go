package bot

import (
	"strings"
	"testing"
	"time"

	"github.com/relomove/leadbot/internal/botconfig"
	"github.com/relomove/leadbot/internal/extract"
	"github.com/relomove/leadbot/internal/geo"
	"github.com/relomove/leadbot/internal/models"
	"github.com/relomove/leadbot/internal/pricing"
)

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func testHandler(t *testing.T, opts ...Option) *MovingHandler {
	t.Helper()
	priceCfg, err := pricing.LoadConfig()
	if err != nil {
		t.Fatalf("pricing.LoadConfig() error: %v", err)
	}
	gz, err := geo.LoadGazetteer()
	if err != nil {
		t.Fatalf("geo.LoadGazetteer() error: %v", err)
	}
	classifier := geo.NewClassifier(geo.NewResolver(gz))
	opts = append([]Option{WithNow(func() time.Time { return fixedNow })}, opts...)
	return NewMovingHandler(botconfig.MovingBotConfig(), priceCfg, classifier, opts...)
}

func newSession() *models.SessionState {
	s := &models.SessionState{
		TenantID: "t1",
		ChatID:   "chat-1",
		LeadID:   "lead-1",
		BotType:  models.BotTypeMoving,
		Step:     models.StepWelcome,
		Language: models.LanguageRussian,
	}
	s.ResetData()
	return s
}

// wantReply checks that the reply carries the translation for key in the
// session's current language.
func wantReply(t *testing.T, state *models.SessionState, reply Reply, key string) {
	t.Helper()
	want := botconfig.MovingBotConfig().Translate(key, state.Language, nil)
	if reply.Text != want {
		t.Errorf("reply = %q, want %q (%s)", reply.Text, want, key)
	}
}

func wantStep(t *testing.T, state *models.SessionState, step models.Step) {
	t.Helper()
	if state.Step != step {
		t.Errorf("Step = %q, want %q", state.Step, step)
	}
}

func TestMovingFullFlow(t *testing.T) {
	h := testHandler(t)
	state := newSession()

	r := h.HandleText(state, "Привет")
	wantStep(t, state, models.StepCargo)
	wantReply(t, state, r, "welcome")

	r = h.HandleText(state, "Мебель, 2 коробки, диван")
	wantStep(t, state, models.StepVolume)
	wantReply(t, state, r, "ask_volume")
	if len(state.Data.CargoItems) != 2 {
		t.Fatalf("CargoItems = %+v, want box and sofa", state.Data.CargoItems)
	}

	r = h.HandleText(state, "2")
	wantStep(t, state, models.StepPickupCount)
	if state.Data.VolumeCategory != models.VolumeMedium {
		t.Errorf("VolumeCategory = %q, want medium", state.Data.VolumeCategory)
	}

	h.HandleText(state, "1")
	wantStep(t, state, models.StepAddrFrom)

	h.HandleText(state, "Тель-Авив, Дизенгоф 10")
	wantStep(t, state, models.StepFloorFrom)
	if state.Data.AddrFrom != "Тель-Авив, Дизенгоф 10" {
		t.Errorf("AddrFrom = %q", state.Data.AddrFrom)
	}

	h.HandleText(state, "3 этаж без лифта")
	wantStep(t, state, models.StepAddrTo)
	if state.Data.FloorFrom != 3 || state.Data.ElevatorFrom {
		t.Errorf("floor = %d elevator %v, want 3 without elevator",
			state.Data.FloorFrom, state.Data.ElevatorFrom)
	}

	h.HandleText(state, "Хайфа, Герцль 5")
	wantStep(t, state, models.StepFloorTo)

	h.HandleText(state, "2 этаж, есть лифт")
	wantStep(t, state, models.StepDate)
	if state.Data.FloorTo != 2 || !state.Data.ElevatorTo {
		t.Errorf("delivery floor = %d elevator %v", state.Data.FloorTo, state.Data.ElevatorTo)
	}

	h.HandleText(state, "1") // tomorrow
	wantStep(t, state, models.StepTimeSlot)
	if state.Data.MoveDate != "2025-03-11" {
		t.Errorf("MoveDate = %q, want 2025-03-11", state.Data.MoveDate)
	}

	h.HandleText(state, "1") // morning
	wantStep(t, state, models.StepPhotoMenu)
	if state.Data.TimeSlot != "morning" {
		t.Errorf("TimeSlot = %q, want morning", state.Data.TimeSlot)
	}

	h.HandleText(state, "2") // no photos
	wantStep(t, state, models.StepExtras)

	r = h.HandleText(state, "1") // packing service
	wantStep(t, state, models.StepEstimate)
	if len(state.Data.Extras) != 1 || state.Data.Extras[0] != "packing_service" {
		t.Errorf("Extras = %v, want [packing_service]", state.Data.Extras)
	}
	// Tel Aviv to Haifa crosses regions 5 and 3: inter_region_long.
	if state.Data.RouteBand != "inter_region_long" {
		t.Errorf("RouteBand = %q, want inter_region_long", state.Data.RouteBand)
	}
	// base 350 + floors 140 + volume 250 + items 330 + packing 200 +
	// route 300 = mid 1570.
	if state.Data.EstimateMin != 1334 || state.Data.EstimateMax != 1806 {
		t.Errorf("estimate = %d-%d, want 1334-1806",
			state.Data.EstimateMin, state.Data.EstimateMax)
	}
	if !strings.Contains(r.Text, "1334") || !strings.Contains(r.Text, "1806") {
		t.Errorf("estimate reply %q does not quote the range", r.Text)
	}
	if r.Done {
		t.Error("estimate step must not finish the conversation yet")
	}

	r = h.HandleText(state, "1") // keep
	wantStep(t, state, models.StepDone)
	if !r.Done {
		t.Fatal("confirmation should finish the conversation")
	}
	if state.Data.Custom["confirmed"] != "true" {
		t.Errorf(`Custom["confirmed"] = %q, want "true"`, state.Data.Custom["confirmed"])
	}

	r = h.HandleText(state, "ещё вопрос")
	wantReply(t, state, r, "already_done")
}

func TestFailedTransitionLeavesStateUntouched(t *testing.T) {
	h := testHandler(t)
	state := newSession()
	state.Step = models.StepVolume

	r := h.HandleText(state, "9")
	wantStep(t, state, models.StepVolume)
	wantReply(t, state, r, "unknown_choice")
	if state.Data.VolumeCategory != "" {
		t.Errorf("VolumeCategory = %q, want empty after a rejected choice", state.Data.VolumeCategory)
	}
}

func TestRejectedInputLeavesStateUntouched(t *testing.T) {
	h := testHandler(t)
	state := newSession()
	state.Step = models.StepCargo

	r := h.HandleText(state, "https://spam.example/prize")
	wantStep(t, state, models.StepCargo)
	wantReply(t, state, r, "invalid_input")
	if state.Data.CargoDescription != "" {
		t.Errorf("CargoDescription = %q, want empty", state.Data.CargoDescription)
	}
}

func TestResetFromAnyStep(t *testing.T) {
	h := testHandler(t)
	for _, step := range []models.Step{
		models.StepCargo, models.StepFloorTo, models.StepEstimate, models.StepDone,
	} {
		state := newSession()
		state.Step = step
		state.Language = models.LanguageEnglish
		state.Data.AddrFrom = "somewhere"
		state.Data.PhotoCount = 2

		r := h.HandleText(state, "reset")
		wantStep(t, state, models.StepCargo)
		wantReply(t, state, r, "reset_done")
		if state.LeadID != "lead-1" {
			t.Errorf("reset from %s changed LeadID to %q", step, state.LeadID)
		}
		if state.Language != models.LanguageEnglish {
			t.Errorf("reset from %s changed language to %q", step, state.Language)
		}
		if state.Data.AddrFrom != "" || state.Data.PhotoCount != 0 {
			t.Errorf("reset from %s kept data: %+v", step, state.Data)
		}
	}
}

func TestLanguageSwitchOnFreeText(t *testing.T) {
	h := testHandler(t)
	state := newSession()
	state.Step = models.StepCargo

	h.HandleText(state, "a sofa and some boxes from my apartment")
	if state.Language != models.LanguageEnglish {
		t.Errorf("Language = %q, want en after English prose", state.Language)
	}

	// Button steps never switch the language.
	state.Step = models.StepVolume
	h.HandleText(state, "2")
	if state.Language != models.LanguageEnglish {
		t.Errorf("Language = %q, digit input must not change it", state.Language)
	}
}

func TestRoomCountSkipsVolumeStep(t *testing.T) {
	h := testHandler(t)
	state := newSession()
	state.Step = models.StepCargo

	r := h.HandleText(state, "переезд, квартира 2 комнаты")
	wantStep(t, state, models.StepPickupCount)
	wantReply(t, state, r, "ask_pickup_count")
	if state.Data.VolumeCategory != models.VolumeMedium {
		t.Errorf("VolumeCategory = %q, want medium from the room count", state.Data.VolumeCategory)
	}
}

func TestMultiPickupLoop(t *testing.T) {
	h := testHandler(t)
	state := newSession()
	state.Step = models.StepPickupCount

	h.HandleText(state, "2")
	wantStep(t, state, models.StepAddrFrom)

	h.HandleText(state, "Тель-Авив, Алленби 10")
	wantStep(t, state, models.StepFloorFrom)

	h.HandleText(state, "1")
	wantStep(t, state, models.StepAddrFrom2)

	h.HandleText(state, "Рамат-Ган, Бялик 3")
	wantStep(t, state, models.StepFloorFrom2)

	h.HandleText(state, "4 этаж, есть лифт")
	wantStep(t, state, models.StepAddrTo)

	if len(state.Data.Pickups) != 2 {
		t.Fatalf("Pickups = %+v, want 2 entries", state.Data.Pickups)
	}
	second := state.Data.Pickups[1]
	if second.Addr != "Рамат-Ган, Бялик 3" || second.Floor != 4 || !second.HasElevator {
		t.Errorf("second pickup = %+v", second)
	}
	// The first pickup mirrors into the flat origin fields.
	if state.Data.AddrFrom != "Тель-Авив, Алленби 10" || state.Data.FloorFrom != 1 {
		t.Errorf("origin mirror = %q floor %d", state.Data.AddrFrom, state.Data.FloorFrom)
	}
}

func TestLandingPrefillFlow(t *testing.T) {
	h := testHandler(t)
	state := newSession()

	text := extract.LandingGreeting + "\n" +
		"Тип переезда: квартира\n" +
		"Откуда: Тель-Авив, Алленби 10\n" +
		"Куда: Хайфа, Герцль 5\n" +
		"Дата: завтра"
	r := h.HandleText(state, text)
	wantStep(t, state, models.StepCargo)
	wantReply(t, state, r, "welcome")
	if state.Data.AddrFrom != "Тель-Авив, Алленби 10" || state.Data.AddrTo != "Хайфа, Герцль 5" {
		t.Fatalf("prefill addresses = %q / %q", state.Data.AddrFrom, state.Data.AddrTo)
	}

	h.HandleText(state, "диван и 10 коробок")
	wantStep(t, state, models.StepVolume)

	// Prefilled addresses surface as a confirmation in place of the
	// pickup-count menu.
	r = h.HandleText(state, "1")
	wantStep(t, state, models.StepConfirmAddresses)
	if !strings.Contains(r.Text, "Тель-Авив, Алленби 10") || !strings.Contains(r.Text, "Хайфа, Герцль 5") {
		t.Errorf("confirmation %q does not quote both addresses", r.Text)
	}

	// Keeping them skips the whole address block and goes to scheduling.
	r = h.HandleText(state, "1")
	wantStep(t, state, models.StepDate)
	wantReply(t, state, r, "ask_date")
	if state.Data.PickupCount != 1 || len(state.Data.Pickups) != 1 {
		t.Fatalf("pickups = %d / %+v, want one prefilled pickup",
			state.Data.PickupCount, state.Data.Pickups)
	}
	if state.Data.Pickups[0].Addr != "Тель-Авив, Алленби 10" {
		t.Errorf("pickup addr = %q", state.Data.Pickups[0].Addr)
	}
	if state.Data.FloorFrom != 1 || !state.Data.ElevatorFrom ||
		state.Data.FloorTo != 1 || !state.Data.ElevatorTo {
		t.Errorf("floors = %d/%v and %d/%v, want ground with elevator on both ends",
			state.Data.FloorFrom, state.Data.ElevatorFrom,
			state.Data.FloorTo, state.Data.ElevatorTo)
	}

	h.HandleText(state, "1") // tomorrow
	wantStep(t, state, models.StepTimeSlot)
}

func TestLandingPrefillReenter(t *testing.T) {
	h := testHandler(t)
	state := newSession()
	state.Step = models.StepConfirmAddresses
	state.Data.AddrFrom = "a"
	state.Data.AddrTo = "b"

	r := h.HandleText(state, "2")
	wantStep(t, state, models.StepPickupCount)
	wantReply(t, state, r, "ask_pickup_count")
	if state.Data.AddrFrom != "" || state.Data.AddrTo != "" {
		t.Errorf("re-enter kept addresses %q / %q", state.Data.AddrFrom, state.Data.AddrTo)
	}
}

func TestDateDirectEntry(t *testing.T) {
	h := testHandler(t)
	state := newSession()
	state.Step = models.StepDate

	r := h.HandleText(state, "25.03")
	wantStep(t, state, models.StepTimeSlot)
	wantReply(t, state, r, "ask_time_slot")
	if state.Data.MoveDate != "2025-03-25" {
		t.Errorf("MoveDate = %q, want 2025-03-25", state.Data.MoveDate)
	}
}

func TestDateErrors(t *testing.T) {
	h := testHandler(t)

	cases := []struct {
		input string
		key   string
	}{
		{"10.03", "date_too_soon"},
		{"32.01.2026", "date_invalid"},
		{"31.12.2026", "date_too_far"},
		{"когда-нибудь потом", "unknown_choice"},
	}
	for _, tc := range cases {
		state := newSession()
		state.Step = models.StepDate
		r := h.HandleText(state, tc.input)
		wantStep(t, state, models.StepDate)
		wantReply(t, state, r, tc.key)
	}
}

func TestExactTimeFlow(t *testing.T) {
	h := testHandler(t)
	state := newSession()
	state.Step = models.StepTimeSlot

	r := h.HandleText(state, "4")
	wantStep(t, state, models.StepExactTime)
	wantReply(t, state, r, "ask_exact_time")

	r = h.HandleText(state, "половина")
	wantStep(t, state, models.StepExactTime)
	wantReply(t, state, r, "time_invalid")

	h.HandleText(state, "18-00")
	wantStep(t, state, models.StepPhotoMenu)
	if state.Data.ExactTime != "18:00" || state.Data.TimeSlot != botconfig.TimeSlotExact {
		t.Errorf("ExactTime = %q slot %q", state.Data.ExactTime, state.Data.TimeSlot)
	}
}

func TestLegacyTimeStepStillHandled(t *testing.T) {
	h := testHandler(t)
	state := newSession()
	state.Step = models.StepLegacyTime

	h.HandleText(state, "2")
	wantStep(t, state, models.StepPhotoMenu)
	if state.Data.TimeSlot != "afternoon" {
		t.Errorf("TimeSlot = %q, want afternoon", state.Data.TimeSlot)
	}
}

func TestPhotoFlow(t *testing.T) {
	h := testHandler(t)
	state := newSession()
	state.Step = models.StepPhotoMenu

	r := h.HandleText(state, "1")
	wantStep(t, state, models.StepPhotoWait)
	wantReply(t, state, r, "ask_photo_wait")

	r = h.HandleMedia(state, []models.Media{
		{ContentType: "image/jpeg", ProviderMediaID: "media-a"},
		{ContentType: "application/pdf", ProviderMediaID: "media-b"},
	})
	wantReply(t, state, r, "photo_received")
	if state.Data.PhotoCount != 1 || !state.Data.HasPhotos {
		t.Errorf("PhotoCount = %d HasPhotos %v, want one photo", state.Data.PhotoCount, state.Data.HasPhotos)
	}

	r = h.HandleText(state, "готово")
	wantStep(t, state, models.StepExtras)
	wantReply(t, state, r, "ask_extras")
}

func TestPhotoBurstAcknowledgedOnce(t *testing.T) {
	h := testHandler(t)
	state := newSession()
	state.Step = models.StepPhotoWait

	r := h.HandleMedia(state, []models.Media{{ContentType: "image/jpeg", ProviderMediaID: "m-1"}})
	wantReply(t, state, r, "photo_received")

	// An album arrives as separate webhook deliveries; only the first
	// photo gets a reply.
	r = h.HandleMedia(state, []models.Media{{ContentType: "image/jpeg", ProviderMediaID: "m-2"}})
	if r.Text != "" {
		t.Errorf("second photo replied %q, want silence", r.Text)
	}
	r = h.HandleMedia(state, []models.Media{
		{ContentType: "image/png", ProviderMediaID: "m-3"},
		{ContentType: "image/png", ProviderMediaID: "m-4"},
	})
	if r.Text != "" {
		t.Errorf("later photos replied %q, want silence", r.Text)
	}
	if state.Data.PhotoCount != 4 {
		t.Errorf("PhotoCount = %d, want 4", state.Data.PhotoCount)
	}
}

func TestPhotosAcceptedSilentlyAtOtherSteps(t *testing.T) {
	h := testHandler(t)
	state := newSession()
	state.Step = models.StepCargo

	r := h.HandleMedia(state, []models.Media{{ContentType: "image/png"}})
	if r.Text != "" {
		t.Errorf("unexpected reply %q outside the photo step", r.Text)
	}
	if state.Data.PhotoCount != 1 {
		t.Errorf("PhotoCount = %d, want 1", state.Data.PhotoCount)
	}
	wantStep(t, state, models.StepCargo)
}

func TestLocationOnlyWhereAddressExpected(t *testing.T) {
	h := testHandler(t)
	state := newSession()
	state.Step = models.StepAddrFrom
	state.Data.PickupCount = 1

	h.HandleLocation(state, &models.Location{
		Lat: 32.0809, Lon: 34.7806, Address: "Тель-Авив, Дизенгоф 10",
	})
	wantStep(t, state, models.StepFloorFrom)
	if state.Data.AddrFrom != "Тель-Авив, Дизенгоф 10" {
		t.Errorf("AddrFrom = %q", state.Data.AddrFrom)
	}
	if len(state.Data.GeoPoints) != 1 || state.Data.GeoPoints[0].Field != string(models.StepAddrFrom) {
		t.Errorf("GeoPoints = %+v", state.Data.GeoPoints)
	}

	state.Step = models.StepDate
	r := h.HandleLocation(state, &models.Location{Lat: 1, Lon: 2})
	wantStep(t, state, models.StepDate)
	wantReply(t, state, r, "location_not_supported")
}

func TestLocationWithoutAddressFallsBackToCoordinates(t *testing.T) {
	h := testHandler(t)
	state := newSession()
	state.Step = models.StepAddrTo

	h.HandleLocation(state, &models.Location{Lat: 32.08091, Lon: 34.78064})
	wantStep(t, state, models.StepFloorTo)
	if state.Data.AddrTo != "32.08091, 34.78064" {
		t.Errorf("AddrTo = %q, want formatted coordinates", state.Data.AddrTo)
	}
}

func TestExtrasFreeTextAndDedup(t *testing.T) {
	h := testHandler(t)
	state := newSession()
	state.Step = models.StepExtras
	state.Data.VolumeCategory = models.VolumeSmall

	h.HandleText(state, "1 + 1; хрупкие вазы")
	wantStep(t, state, models.StepEstimate)
	if len(state.Data.Extras) != 1 || state.Data.Extras[0] != "packing_service" {
		t.Errorf("Extras = %v, want deduplicated [packing_service]", state.Data.Extras)
	}
	if !strings.Contains(state.Data.DetailsFree, "хрупкие вазы") {
		t.Errorf("DetailsFree = %q, unmatched fragment must be kept as a note", state.Data.DetailsFree)
	}
}

func TestExtrasSpacedDigits(t *testing.T) {
	h := testHandler(t)
	state := newSession()
	state.Step = models.StepExtras
	state.Data.VolumeCategory = models.VolumeSmall

	h.HandleText(state, "1 3")
	wantStep(t, state, models.StepEstimate)
	want := []string{"packing_service", "temporary_storage"}
	if len(state.Data.Extras) != 2 || state.Data.Extras[0] != want[0] || state.Data.Extras[1] != want[1] {
		t.Errorf("Extras = %v, want %v", state.Data.Extras, want)
	}
	if state.Data.DetailsFree != "" {
		t.Errorf("DetailsFree = %q, digits must not leak into the note", state.Data.DetailsFree)
	}
}

func TestExtrasDigitMixedWithFreeText(t *testing.T) {
	h := testHandler(t)
	state := newSession()
	state.Step = models.StepExtras
	state.Data.VolumeCategory = models.VolumeSmall

	h.HandleText(state, "1 и хрупкие вазы")
	wantStep(t, state, models.StepEstimate)
	if len(state.Data.Extras) != 1 || state.Data.Extras[0] != "packing_service" {
		t.Errorf("Extras = %v, want [packing_service]", state.Data.Extras)
	}
	if !strings.Contains(state.Data.DetailsFree, "хрупкие вазы") {
		t.Errorf("DetailsFree = %q, free-text tail must be kept as a note", state.Data.DetailsFree)
	}
}

func TestExtrasNone(t *testing.T) {
	h := testHandler(t)
	state := newSession()
	state.Step = models.StepExtras
	state.Data.VolumeCategory = models.VolumeSmall

	h.HandleText(state, "4")
	wantStep(t, state, models.StepEstimate)
	if state.Data.Extras != nil {
		t.Errorf("Extras = %v, want none", state.Data.Extras)
	}
}

func TestEstimateHiddenOnPoorParsing(t *testing.T) {
	h := testHandler(t)
	state := newSession()
	state.Step = models.StepExtras
	state.Data.CargoDescription = strings.Repeat("непонятное описание груза ", 3)

	r := h.HandleText(state, "4")
	wantStep(t, state, models.StepEstimate)
	wantReply(t, state, r, "estimate_hidden")
	// The range is still computed and stored for the operator.
	if state.Data.EstimateMin == 0 || state.Data.EstimateMax == 0 {
		t.Errorf("estimate = %d-%d, want a stored range even when hidden",
			state.Data.EstimateMin, state.Data.EstimateMax)
	}
}

func TestEstimateHiddenByToggle(t *testing.T) {
	h := testHandler(t, WithShowEstimates(false))
	state := newSession()
	state.Step = models.StepExtras
	state.Data.VolumeCategory = models.VolumeSmall

	r := h.HandleText(state, "4")
	wantReply(t, state, r, "estimate_hidden")
}

func TestEstimateDeclined(t *testing.T) {
	h := testHandler(t)
	state := newSession()
	state.Step = models.StepEstimate

	r := h.HandleText(state, "нет")
	wantStep(t, state, models.StepDone)
	if !r.Done {
		t.Fatal("decline should still finish the conversation")
	}
	wantReply(t, state, r, "done_declined")
	if state.Data.Custom["confirmed"] != "false" {
		t.Errorf(`Custom["confirmed"] = %q, want "false"`, state.Data.Custom["confirmed"])
	}
}

func TestUnknownStepRestarts(t *testing.T) {
	h := testHandler(t)
	state := newSession()
	state.Step = models.Step("wormhole")
	state.Data.AddrFrom = "x"

	r := h.HandleText(state, "привет")
	wantStep(t, state, models.StepCargo)
	wantReply(t, state, r, "reset_done")
	if state.Data.AddrFrom != "" {
		t.Error("restart must clear collected data")
	}
}
