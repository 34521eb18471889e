package bot

import (
	"github.com/bwmarrin/discordgo"
)

type commandHandler func(b *Bot, s *discordgo.Session, i *discordgo.InteractionCreate) error

var commandHandlers = map[string]commandHandler{
	"open":    (*Bot).cmdOpen,
	"close":   (*Bot).cmdClose,
	"roll":    (*Bot).cmdRoll,
	"expire":  (*Bot).cmdExpire,
	"assign":  (*Bot).cmdAssign,
	"split":   (*Bot).cmdSplit,
	"edit":    (*Bot).cmdEdit,
	"date":    (*Bot).cmdDate,
	"view":    (*Bot).cmdView,
	"all":     (*Bot).cmdAll,
	"details": (*Bot).cmdDetails,
	"assets":  (*Bot).cmdAssets,
	"stats":   (*Bot).cmdStats,
	"best":    (*Bot).cmdBest,
	"month":   (*Bot).cmdMonth,
}

var modalHandlers = map[string]commandHandler{
	"open":  (*Bot).submitOpen,
	"close": (*Bot).submitClose,
	"roll":  (*Bot).submitRoll,
	"split": (*Bot).submitSplit,
	"edit":  (*Bot).submitEdit,
	"date":  (*Bot).submitDate,
}

var componentHandlers = map[string]commandHandler{
	"view":    (*Bot).pressView,
	"all":     (*Bot).pressAll,
	"details": (*Bot).pressDetails,
}

// commandDefinitions returns the slash commands registered on startup.
func commandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "open",
			Description: "Open a new option contract",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "type",
					Description: "Option type",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "put", Value: "put"},
						{Name: "call", Value: "call"},
					},
				},
			},
		},
		{Name: "close", Description: "Close the selected position"},
		{Name: "roll", Description: "Roll the selected position forward"},
		{Name: "expire", Description: "Mark the selected position expired"},
		{Name: "assign", Description: "Mark the selected position assigned"},
		{Name: "split", Description: "Split the selected position into two"},
		{Name: "edit", Description: "Edit fields of the selected position"},
		{Name: "date", Description: "Change the open date of the selected position"},
		{Name: "view", Description: "Browse your open positions"},
		{Name: "all", Description: "Browse every position"},
		{Name: "details", Description: "Show the contracts of the selected position"},
		{Name: "assets", Description: "Show your net share exposure per ticker"},
		{Name: "stats", Description: "Show realized and unrealized totals"},
		{Name: "best", Description: "Show your top 3 closed positions"},
		{
			Name:        "month",
			Description: "Show month-by-month performance",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "sort",
					Description: "Report ordering",
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "daily return rate", Value: "rate"},
						{Name: "chronological", Value: "chrono"},
						{Name: "gain", Value: "gain"},
						{Name: "taxable chronological", Value: "tax-chrono"},
						{Name: "taxable gain", Value: "tax-gain"},
					},
				},
			},
		},
	}
}
