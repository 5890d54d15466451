// Package models defines the conversation step enum shared by the bot
// handlers and the session store.
package models

// Step is the current named position in the conversation script for one
// session. Handlers only ever set values declared here.
type Step string

// Moving-bot steps, in happy-path order. Guard branches (confirm_addresses,
// specific_date, exact_time, photo_wait) are entered conditionally.
const (
	StepWelcome          Step = "welcome"
	StepCargo            Step = "cargo"
	StepVolume           Step = "volume"
	StepPickupCount      Step = "pickup_count"
	StepAddrFrom         Step = "addr_from"
	StepFloorFrom        Step = "floor_from"
	StepAddrFrom2        Step = "addr_from_2"
	StepFloorFrom2       Step = "floor_from_2"
	StepAddrFrom3        Step = "addr_from_3"
	StepFloorFrom3       Step = "floor_from_3"
	StepAddrTo           Step = "addr_to"
	StepFloorTo          Step = "floor_to"
	StepConfirmAddresses Step = "confirm_addresses"
	StepDate             Step = "date"
	StepSpecificDate     Step = "specific_date"
	StepTimeSlot         Step = "time_slot"
	StepExactTime        Step = "exact_time"
	StepPhotoMenu        Step = "photo_menu"
	StepPhotoWait        Step = "photo_wait"
	StepExtras           Step = "extras"
	StepEstimate         Step = "estimate"
	StepDone             Step = "done"

	// StepLegacyTime existed before the date/time_slot split. New sessions
	// never enter it; the engine rewrites it to time_slot at load time.
	StepLegacyTime Step = "time"
)

// AddressSteps are the steps that accept a GPS pin in place of a typed
// address. Any other step rejects location messages.
var AddressSteps = map[Step]bool{
	StepAddrFrom:  true,
	StepAddrFrom2: true,
	StepAddrFrom3: true,
	StepAddrTo:    true,
}

// FreeTextSteps are the steps whose input is real prose, where language
// detection is allowed to switch the session language. Button-only steps are
// excluded so a bare digit is never misread as a language signal.
var FreeTextSteps = map[Step]bool{
	StepCargo:        true,
	StepAddrFrom:     true,
	StepAddrFrom2:    true,
	StepAddrFrom3:    true,
	StepAddrTo:       true,
	StepFloorFrom:    true,
	StepFloorFrom2:   true,
	StepFloorFrom3:   true,
	StepFloorTo:      true,
	StepSpecificDate: true,
	StepExtras:       true,
}

// IsValidStep reports whether s is a declared step value.
func IsValidStep(s Step) bool {
	switch s {
	case StepWelcome, StepCargo, StepVolume, StepPickupCount,
		StepAddrFrom, StepFloorFrom, StepAddrFrom2, StepFloorFrom2,
		StepAddrFrom3, StepFloorFrom3, StepAddrTo, StepFloorTo,
		StepConfirmAddresses, StepDate, StepSpecificDate, StepTimeSlot,
		StepExactTime, StepPhotoMenu, StepPhotoWait, StepExtras,
		StepEstimate, StepDone, StepLegacyTime:
		return true
	default:
		return false
	}
}
