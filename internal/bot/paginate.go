package bot

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/cssmith8/rustical-bot/internal/models"
)

// Pagination is stateless: the button custom id carries the owner and the
// current page ("view:next:<user>:<page>"), and every press re-reads the
// owner's positions. A stale page from a changed list is clamped, never an
// error.

// pageButtons builds the navigation row for a paginated embed.
func pageButtons(action, userID string, page int, withSelect bool) []discordgo.MessageComponent {
	buttons := []discordgo.MessageComponent{
		discordgo.Button{
			CustomID: fmt.Sprintf("%s:prev:%s:%d", action, userID, page),
			Style:    discordgo.SecondaryButton,
			Emoji:    &discordgo.ComponentEmoji{Name: "◀"},
		},
	}
	if withSelect {
		buttons = append(buttons, discordgo.Button{
			CustomID: fmt.Sprintf("%s:select:%s:%d", action, userID, page),
			Style:    discordgo.PrimaryButton,
			Label:    "Select",
		})
	}
	buttons = append(buttons, discordgo.Button{
		CustomID: fmt.Sprintf("%s:next:%s:%d", action, userID, page),
		Style:    discordgo.SecondaryButton,
		Emoji:    &discordgo.ComponentEmoji{Name: "▶"},
	})
	return []discordgo.MessageComponent{discordgo.ActionsRow{Components: buttons}}
}

// parsePress splits "action:op:user:page" and clamps are left to the caller.
func parsePress(customID string) (op, userID string, page int, err error) {
	parts := strings.Split(customID, ":")
	if len(parts) != 4 {
		return "", "", 0, fmt.Errorf("bad component id %q", customID)
	}
	page, err = strconv.Atoi(parts[3])
	if err != nil {
		return "", "", 0, fmt.Errorf("bad component id %q: %w", customID, err)
	}
	return parts[1], parts[2], page, nil
}

// turnPage applies a prev/next press modulo the page count.
func turnPage(op string, page, total int) int {
	if page >= total || page < 0 {
		page = 0
	}
	switch op {
	case "next":
		page++
		if page >= total {
			page = 0
		}
	case "prev":
		page--
		if page < 0 {
			page = total - 1
		}
	}
	return page
}

// updateEmbed replaces the pressed message's embed and buttons.
func updateEmbed(s *discordgo.Session, i *discordgo.InteractionCreate,
	description string, components []discordgo.MessageComponent) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{Description: description, Color: colorDarkGreen},
			},
			Components: components,
		},
	})
}

// openIndexes returns the list indexes of positions still open, in order.
func openIndexes(positions []models.Position) []int {
	var idx []int
	for i := range positions {
		if positions[i].Status() == models.StatusOpen {
			idx = append(idx, i)
		}
	}
	return idx
}

// --- /view: open positions with prev/select/next ---

func (b *Bot) cmdView(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	_, store, err := b.manager(i)
	if err != nil {
		return err
	}
	positions, err := store.Positions()
	if err != nil {
		return err
	}
	open := openIndexes(positions)
	if len(open) == 0 {
		return respondText(s, i, "You have no open positions")
	}
	body := pageLabel(0, len(open), formatPosition(&positions[open[0]], time.Now().UTC()))
	return respondEmbed(s, i, body, pageButtons("view", interactionUser(i).ID, 0, true))
}

func (b *Bot) pressView(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	op, ownerID, page, err := parsePress(i.MessageComponentData().CustomID)
	if err != nil {
		return err
	}
	if interactionUser(i).ID != ownerID {
		return respondText(s, i, "Cannot select another user's position")
	}
	pm, store, err := b.manager(i)
	if err != nil {
		return err
	}
	positions, err := store.Positions()
	if err != nil {
		return err
	}
	open := openIndexes(positions)
	if len(open) == 0 {
		return updateEmbed(s, i, "You have no open positions", nil)
	}

	if op == "select" {
		if page >= len(open) || page < 0 {
			page = 0
		}
		if _, err := pm.Select(open[page]); err != nil {
			return respondError(s, i, err)
		}
		return respondEmbed(s, i, selectText, nil)
	}

	page = turnPage(op, page, len(open))
	body := pageLabel(page, len(open), formatPosition(&positions[open[page]], time.Now().UTC()))
	return updateEmbed(s, i, body, pageButtons("view", ownerID, page, true))
}

// --- /all: every position, sorted by final expiry ---

// allPages returns every position sorted by the final leg's expiration.
func allPages(positions []models.Position) []models.Position {
	sorted := make([]models.Position, len(positions))
	copy(sorted, positions)
	sort.SliceStable(sorted, func(a, b int) bool {
		fa := sorted[a].Contracts[len(sorted[a].Contracts)-1].Open.ExpiresAt
		fb := sorted[b].Contracts[len(sorted[b].Contracts)-1].Open.ExpiresAt
		return fa.Before(fb)
	})
	return sorted
}

func formatAllPage(pos *models.Position, now time.Time) string {
	return fmt.Sprintf("%sStatus: `%s`", formatPosition(pos, now), pos.Status())
}

func (b *Bot) cmdAll(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	_, store, err := b.manager(i)
	if err != nil {
		return err
	}
	positions, err := store.Positions()
	if err != nil {
		return err
	}
	if len(positions) == 0 {
		return respondText(s, i, "You have no open positions")
	}
	pages := allPages(positions)
	body := pageLabel(0, len(pages), formatAllPage(&pages[0], time.Now().UTC()))
	return respondEmbed(s, i, body, pageButtons("all", interactionUser(i).ID, 0, false))
}

func (b *Bot) pressAll(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	op, ownerID, page, err := parsePress(i.MessageComponentData().CustomID)
	if err != nil {
		return err
	}
	if interactionUser(i).ID != ownerID {
		return respondText(s, i, "Cannot select another user's position")
	}
	_, store, err := b.manager(i)
	if err != nil {
		return err
	}
	positions, err := store.Positions()
	if err != nil {
		return err
	}
	if len(positions) == 0 {
		return updateEmbed(s, i, "You have no open positions", nil)
	}
	pages := allPages(positions)
	page = turnPage(op, page, len(pages))
	body := pageLabel(page, len(pages), formatAllPage(&pages[page], time.Now().UTC()))
	return updateEmbed(s, i, body, pageButtons("all", ownerID, page, false))
}

// --- /details: contracts of the selected position ---

func (b *Bot) pressDetails(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	op, ownerID, page, err := parsePress(i.MessageComponentData().CustomID)
	if err != nil {
		return err
	}
	if interactionUser(i).ID != ownerID {
		return respondText(s, i, "Cannot view another user's contract")
	}
	pm, store, err := b.manager(i)
	if err != nil {
		return err
	}
	cursor, err := checkedCursor(pm, store)
	if err != nil {
		return respondError(s, i, err)
	}
	pos, err := store.Position(cursor)
	if err != nil {
		return err
	}
	page = turnPage(op, page, len(pos.Contracts))
	body := fmt.Sprintf("Contract %d/%d\n%s", page+1, len(pos.Contracts), formatContract(&pos.Contracts[page]))
	var components []discordgo.MessageComponent
	if len(pos.Contracts) > 1 {
		components = pageButtons("details", ownerID, page, false)
	}
	return updateEmbed(s, i, body, components)
}
