// Package models defines session state structures for leadbot conversations.
package models

import "time"

// Pickup is one pickup address with its floor information.
type Pickup struct {
	Addr        string `json:"addr"`
	Floor       int    `json:"floor"`
	HasElevator bool   `json:"has_elevator"`
}

// GeoPoint records a GPS pin accepted in place of a typed address.
type GeoPoint struct {
	Field   string  `json:"field"` // which address field the pin filled
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Name    string  `json:"name,omitempty"`
	Address string  `json:"address,omitempty"`
}

// ItemCount is one recognized cargo item with its accumulated quantity.
type ItemCount struct {
	Key string `json:"key"`
	Qty int    `json:"qty"`
}

// LeadData is the payload incrementally filled by the conversation. Fields
// are set once as the flow advances and cleared only by an explicit reset,
// which replaces the whole value.
type LeadData struct {
	CargoDescription string   `json:"cargo_description,omitempty"`
	AddrFrom         string   `json:"addr_from,omitempty"`
	AddrTo           string   `json:"addr_to,omitempty"`
	FloorFrom        int      `json:"floor_from,omitempty"`
	FloorTo          int      `json:"floor_to,omitempty"`
	ElevatorFrom     bool     `json:"elevator_from"`
	ElevatorTo       bool     `json:"elevator_to"`
	TimeWindow       string   `json:"time_window,omitempty"`
	HasPhotos        bool     `json:"has_photos"`
	PhotoCount       int      `json:"photo_count"`
	Extras           []string `json:"extras,omitempty"`
	DetailsFree      string   `json:"details_free,omitempty"`

	PickupCount    int            `json:"pickup_count,omitempty"`
	Pickups        []Pickup       `json:"pickups,omitempty"`
	VolumeCategory VolumeCategory `json:"volume_category,omitempty"`
	CargoItems     []ItemCount    `json:"cargo_items,omitempty"`
	MoveDate       string         `json:"move_date,omitempty"` // YYYY-MM-DD
	TimeSlot       string         `json:"time_slot,omitempty"`
	ExactTime      string         `json:"exact_time,omitempty"` // HH:MM
	EstimateMin    int            `json:"estimate_min,omitempty"`
	EstimateMax    int            `json:"estimate_max,omitempty"`
	GeoPoints      []GeoPoint     `json:"geo_points,omitempty"`

	// RouteBreakdown holds the route classification and pricing breakdown
	// for audit/display; it is never read back to drive transitions.
	RouteBand      string                 `json:"route_band,omitempty"`
	RouteBreakdown map[string]interface{} `json:"route_breakdown,omitempty"`

	// Custom carries bot-variant fields with no declared slot.
	Custom map[string]string `json:"custom,omitempty"`
}

// AddItem accumulates qty for a canonical item key.
func (d *LeadData) AddItem(key string, qty int) {
	for i := range d.CargoItems {
		if d.CargoItems[i].Key == key {
			d.CargoItems[i].Qty += qty
			return
		}
	}
	d.CargoItems = append(d.CargoItems, ItemCount{Key: key, Qty: qty})
}

// SetCustom stores a free-form key, allocating the map on first use.
func (d *LeadData) SetCustom(key, value string) {
	if d.Custom == nil {
		d.Custom = make(map[string]string)
	}
	d.Custom[key] = value
}

// SessionState is one in-progress conversation for a (tenant, chat) pair.
// Exactly one session exists per pair at a time; the store enforces that
// with upsert semantics.
type SessionState struct {
	TenantID  string            `json:"tenant_id"`
	ChatID    string            `json:"chat_id"`
	LeadID    string            `json:"lead_id"`
	BotType   BotType           `json:"bot_type"`
	Step      Step              `json:"step"`
	Language  Language          `json:"language"`
	Data      LeadData          `json:"data"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// ResetData discards collected lead data while keeping the session identity
// (tenant, chat, lead_id, bot type) and the detected language.
func (s *SessionState) ResetData() {
	s.Data = LeadData{ElevatorFrom: true, ElevatorTo: true}
}

// Lead is the finalized record produced when a conversation completes.
type Lead struct {
	ID         string            `json:"id"`
	TenantID   string            `json:"tenant_id"`
	ChatID     string            `json:"chat_id"`
	Provider   Provider          `json:"provider"`
	BotType    BotType           `json:"bot_type"`
	Language   Language          `json:"language"`
	SenderName string            `json:"sender_name,omitempty"`
	Data       LeadData          `json:"data"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}
