// Package notify delivers finalized leads to the operator chat.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/relomove/leadbot/internal/messaging"
	"github.com/relomove/leadbot/internal/models"
	"github.com/relomove/leadbot/internal/translate"
)

// OperatorNotifier formats each lead into a dispatcher summary and sends it
// to a fixed operator chat. When a translator is configured and the lead's
// language differs from the operator's, the free-text parts are translated;
// translation failures fall back to the original text.
type OperatorNotifier struct {
	sender       messaging.Sender
	operatorChat string
	language     models.Language
	translator   *translate.Translator
}

// NotifierOption configures an OperatorNotifier.
type NotifierOption func(*OperatorNotifier)

// WithTranslator enables summary translation into the operator language.
func WithTranslator(t *translate.Translator) NotifierOption {
	return func(n *OperatorNotifier) { n.translator = t }
}

// WithOperatorLanguage sets the language summaries are translated into.
func WithOperatorLanguage(lang models.Language) NotifierOption {
	return func(n *OperatorNotifier) { n.language = lang }
}

// NewOperatorNotifier builds a notifier sending to operatorChat.
func NewOperatorNotifier(sender messaging.Sender, operatorChat string, opts ...NotifierOption) *OperatorNotifier {
	n := &OperatorNotifier{
		sender:       sender,
		operatorChat: operatorChat,
		language:     models.LanguageRussian,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// LeadCreated formats and sends the lead summary.
func (n *OperatorNotifier) LeadCreated(ctx context.Context, lead *models.Lead) error {
	summary := FormatLead(lead)
	if n.translator != nil && lead.Language != n.language {
		translated, err := n.translator.Translate(ctx, summary, n.language)
		if err != nil {
			slog.Error("OperatorNotifier.LeadCreated: translation failed, sending original",
				"leadID", lead.ID, "error", err)
		} else {
			summary = translated
		}
	}
	if err := n.sender.SendText(ctx, n.operatorChat, summary); err != nil {
		return fmt.Errorf("failed to deliver lead summary: %w", err)
	}
	slog.Info("OperatorNotifier.LeadCreated: summary delivered",
		"leadID", lead.ID, "tenantID", lead.TenantID)
	return nil
}

// FormatLead renders the dispatcher summary. Field labels stay in English
// so downstream tooling can grep them regardless of lead language.
func FormatLead(lead *models.Lead) string {
	d := lead.Data
	var b strings.Builder

	fmt.Fprintf(&b, "New lead %s (%s/%s)\n", lead.ID, lead.Provider, lead.BotType)
	if lead.SenderName != "" {
		fmt.Fprintf(&b, "Contact: %s (%s)\n", lead.SenderName, lead.ChatID)
	} else {
		fmt.Fprintf(&b, "Contact: %s\n", lead.ChatID)
	}
	if d.CargoDescription != "" {
		fmt.Fprintf(&b, "Cargo: %s\n", d.CargoDescription)
	}
	if len(d.CargoItems) > 0 {
		parts := make([]string, 0, len(d.CargoItems))
		for _, it := range d.CargoItems {
			parts = append(parts, fmt.Sprintf("%s x%d", it.Key, it.Qty))
		}
		fmt.Fprintf(&b, "Items: %s\n", strings.Join(parts, ", "))
	}
	if d.VolumeCategory != "" {
		fmt.Fprintf(&b, "Volume: %s\n", d.VolumeCategory)
	}
	for i, p := range d.Pickups {
		elevator := "elevator"
		if !p.HasElevator {
			elevator = "no elevator"
		}
		fmt.Fprintf(&b, "Pickup %d: %s, floor %d, %s\n", i+1, p.Addr, p.Floor, elevator)
	}
	if len(d.Pickups) == 0 && d.AddrFrom != "" {
		fmt.Fprintf(&b, "From: %s, floor %d\n", d.AddrFrom, d.FloorFrom)
	}
	if d.AddrTo != "" {
		elevator := "elevator"
		if !d.ElevatorTo {
			elevator = "no elevator"
		}
		fmt.Fprintf(&b, "To: %s, floor %d, %s\n", d.AddrTo, d.FloorTo, elevator)
	}
	if d.MoveDate != "" {
		when := d.MoveDate
		if d.ExactTime != "" {
			when += " at " + d.ExactTime
		} else if d.TimeSlot != "" {
			when += ", " + d.TimeSlot
		}
		fmt.Fprintf(&b, "Date: %s\n", when)
	}
	if d.HasPhotos {
		fmt.Fprintf(&b, "Photos: %d\n", d.PhotoCount)
	}
	if len(d.Extras) > 0 {
		fmt.Fprintf(&b, "Extras: %s\n", strings.Join(d.Extras, ", "))
	}
	if d.DetailsFree != "" {
		fmt.Fprintf(&b, "Notes: %s\n", d.DetailsFree)
	}
	if d.EstimateMax > 0 {
		fmt.Fprintf(&b, "Estimate: %d-%d (%s route)\n", d.EstimateMin, d.EstimateMax, d.RouteBand)
	}
	if d.Custom["confirmed"] == "false" {
		b.WriteString("Status: DECLINED by customer\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
