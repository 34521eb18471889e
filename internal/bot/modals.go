package bot

import (
	"github.com/bwmarrin/discordgo"
)

// textInput builds one short text field wrapped in its action row.
func textInput(customID, label, placeholder string, required bool, maxLength int) discordgo.MessageComponent {
	return discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.TextInput{
				CustomID:    customID,
				Label:       label,
				Style:       discordgo.TextInputShort,
				Placeholder: placeholder,
				Required:    required,
				MaxLength:   maxLength,
			},
		},
	}
}

// respondModal opens a modal as the interaction response.
func respondModal(s *discordgo.Session, i *discordgo.InteractionCreate,
	customID, title string, fields ...discordgo.MessageComponent) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID:   customID,
			Title:      title,
			Components: fields,
		},
	})
}

// modalValues flattens a modal submission into field values keyed by the
// text input's custom id. Unfilled optional fields come back empty.
func modalValues(data discordgo.ModalSubmitInteractionData) map[string]string {
	out := make(map[string]string)
	for _, row := range data.Components {
		actionsRow, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, c := range actionsRow.Components {
			if input, ok := c.(*discordgo.TextInput); ok {
				out[input.CustomID] = input.Value
			}
		}
	}
	return out
}

func openModalFields() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		textInput("ticker", "Stock Ticker", "AMZN", true, 16),
		textInput("strike", "Strike Price", "10.00", true, 0),
		textInput("exp", "Expiration Date", "2024-12-30", true, 10),
		textInput("premium", "Premium", "0.50", true, 0),
		textInput("quantity", "Quantity", "1", true, 0),
	}
}

func rollModalFields() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		textInput("exp", "New Expiration Date", "2024-12-30", true, 10),
		textInput("premium_loss", "Premium Loss", "0.80", true, 0),
		textInput("premium_gain", "Premium Gain", "0.85", true, 0),
		textInput("strike", "New Strike Price (Leave blank if unchanged)", "15", false, 0),
	}
}

func editModalFields() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		textInput("ticker", "Stock Ticker", "AMZN", false, 16),
		textInput("strike", "Strike Price", "10.00", false, 0),
		textInput("exp", "Expiration Date", "2024-12-30", false, 10),
		textInput("premium", "Premium", "0.50", false, 0),
		textInput("quantity", "Quantity", "1", false, 0),
	}
}

func dateModalFields() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		textInput("year", "Year", "2024", false, 4),
		textInput("month", "Month", "12", false, 2),
		textInput("day", "Day", "30", false, 2),
	}
}
