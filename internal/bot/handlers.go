package bot

import (
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/cssmith8/rustical-bot/internal/models"
	"github.com/cssmith8/rustical-bot/internal/portfolio"
	"github.com/cssmith8/rustical-bot/internal/reports"
	"github.com/cssmith8/rustical-bot/internal/storage"
)

// checkedCursor reads the persisted cursor and validates it against the list
// length before a modal is shown, so the user gets guidance immediately
// instead of after filling out fields.
func checkedCursor(pm *portfolio.Manager, store storage.Interface) (int, error) {
	cursor := pm.Cursor()
	if cursor < 0 {
		return -1, portfolio.ErrNoSelection
	}
	if cursor >= store.Len() {
		return -1, portfolio.ErrInvalidSelection
	}
	return cursor, nil
}

// --- open ---

func (b *Bot) cmdOpen(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	opts := i.ApplicationCommandData().Options
	if len(opts) == 0 {
		return respondText(s, i, "Invalid option type")
	}
	kind, err := models.ParseOptionKind(opts[0].StringValue())
	if err != nil {
		return respondText(s, i, "Invalid option type")
	}
	return respondModal(s, i, "open:"+string(kind), "Open Contract", openModalFields()...)
}

func (b *Bot) submitOpen(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	pm, _, err := b.manager(i)
	if err != nil {
		return err
	}
	data := i.ModalSubmitData()
	kind, err := models.ParseOptionKind(data.CustomID[len("open:"):])
	if err != nil {
		return respondText(s, i, "Invalid option type")
	}
	v := modalValues(data)

	strike, err := parsePositiveMoney("strike", v["strike"])
	if err != nil {
		return respondError(s, i, err)
	}
	expiry, err := parseDate("expiration", v["exp"])
	if err != nil {
		return respondError(s, i, err)
	}
	premium, err := parsePositiveMoney("premium", v["premium"])
	if err != nil {
		return respondError(s, i, err)
	}
	quantity, err := parseQuantity("quantity", v["quantity"])
	if err != nil {
		return respondError(s, i, err)
	}

	_, err = pm.Open(portfolio.OpenParams{
		Kind:     kind,
		Ticker:   v["ticker"],
		Strike:   strike,
		Expiry:   expiry,
		Premium:  premium,
		Quantity: quantity,
	})
	if err != nil {
		return respondError(s, i, err)
	}
	return respondText(s, i, "Contract Opened")
}

// --- close ---

func (b *Bot) cmdClose(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	pm, store, err := b.manager(i)
	if err != nil {
		return err
	}
	cursor, err := checkedCursor(pm, store)
	if err != nil {
		return respondError(s, i, err)
	}
	return respondModal(s, i, fmt.Sprintf("close:%d", cursor), "Close Contract",
		textInput("premium", "Price", "0.10", true, 0))
}

func (b *Bot) submitClose(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	pm, _, err := b.manager(i)
	if err != nil {
		return err
	}
	data := i.ModalSubmitData()
	cursor, err := strconv.Atoi(data.CustomID[len("close:"):])
	if err != nil {
		return fmt.Errorf("bad close modal id %q: %w", data.CustomID, err)
	}
	premium, err := parseMoney("price", modalValues(data)["premium"])
	if err != nil {
		return respondError(s, i, err)
	}
	gain, err := pm.Close(cursor, premium)
	if err != nil {
		return respondError(s, i, err)
	}
	moneyMouth := ""
	if gain > 0 {
		moneyMouth = " :money_mouth:"
	}
	return respondText(s, i, fmt.Sprintf("Contract Closed. You made $%.2f%s", gain, moneyMouth))
}

// --- roll ---

func (b *Bot) cmdRoll(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	pm, store, err := b.manager(i)
	if err != nil {
		return err
	}
	cursor, err := checkedCursor(pm, store)
	if err != nil {
		return respondError(s, i, err)
	}
	return respondModal(s, i, fmt.Sprintf("roll:%d", cursor), "Roll Contract", rollModalFields()...)
}

func (b *Bot) submitRoll(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	pm, _, err := b.manager(i)
	if err != nil {
		return err
	}
	data := i.ModalSubmitData()
	cursor, err := strconv.Atoi(data.CustomID[len("roll:"):])
	if err != nil {
		return fmt.Errorf("bad roll modal id %q: %w", data.CustomID, err)
	}
	v := modalValues(data)

	expiry, err := parseDate("expiration", v["exp"])
	if err != nil {
		return respondError(s, i, err)
	}
	loss, err := parseMoney("premium loss", v["premium_loss"])
	if err != nil {
		return respondError(s, i, err)
	}
	gain, err := parsePositiveMoney("premium gain", v["premium_gain"])
	if err != nil {
		return respondError(s, i, err)
	}
	params := portfolio.RollParams{Expiry: expiry, PremiumLoss: loss, PremiumGain: gain}
	if v["strike"] != "" {
		strike, err := parsePositiveMoney("strike", v["strike"])
		if err != nil {
			return respondError(s, i, err)
		}
		params.Strike = &strike
	}

	if err := pm.Roll(cursor, params); err != nil {
		return respondError(s, i, err)
	}
	return respondText(s, i, "Contract Rolled")
}

// --- expire / assign ---

func (b *Bot) cmdExpire(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	pm, _, err := b.manager(i)
	if err != nil {
		return err
	}
	if err := pm.Expire(pm.Cursor()); err != nil {
		return respondError(s, i, err)
	}
	return respondText(s, i, "Contract Expired :money_mouth:")
}

func (b *Bot) cmdAssign(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	pm, _, err := b.manager(i)
	if err != nil {
		return err
	}
	shares, ticker, err := pm.Assign(pm.Cursor())
	if err != nil {
		return respondError(s, i, err)
	}
	return respondText(s, i, fmt.Sprintf("Assigned %d shares of %s", shares, ticker))
}

// --- split ---

func (b *Bot) cmdSplit(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	pm, store, err := b.manager(i)
	if err != nil {
		return err
	}
	cursor, err := checkedCursor(pm, store)
	if err != nil {
		return respondError(s, i, err)
	}
	return respondModal(s, i, fmt.Sprintf("split:%d", cursor), "Split Contract",
		textInput("quantity", "Split Quantity", "1", true, 0))
}

func (b *Bot) submitSplit(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	pm, _, err := b.manager(i)
	if err != nil {
		return err
	}
	data := i.ModalSubmitData()
	cursor, err := strconv.Atoi(data.CustomID[len("split:"):])
	if err != nil {
		return fmt.Errorf("bad split modal id %q: %w", data.CustomID, err)
	}
	quantity, err := parseQuantity("split quantity", modalValues(data)["quantity"])
	if err != nil {
		return respondError(s, i, err)
	}
	remaining, err := pm.Split(cursor, quantity)
	if err != nil {
		return respondError(s, i, err)
	}
	return respondText(s, i, fmt.Sprintf(
		"Position split successfully. Original quantity: %d, Split quantity: %d", remaining, quantity))
}

// --- edit ---

func (b *Bot) cmdEdit(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	pm, store, err := b.manager(i)
	if err != nil {
		return err
	}
	cursor, err := checkedCursor(pm, store)
	if err != nil {
		return respondError(s, i, err)
	}
	return respondModal(s, i, fmt.Sprintf("edit:%d", cursor), "Edit Position", editModalFields()...)
}

func (b *Bot) submitEdit(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	pm, _, err := b.manager(i)
	if err != nil {
		return err
	}
	data := i.ModalSubmitData()
	cursor, err := strconv.Atoi(data.CustomID[len("edit:"):])
	if err != nil {
		return fmt.Errorf("bad edit modal id %q: %w", data.CustomID, err)
	}
	v := modalValues(data)

	var params portfolio.EditParams
	if v["ticker"] != "" {
		ticker := v["ticker"]
		params.Ticker = &ticker
	}
	if v["strike"] != "" {
		strike, err := parsePositiveMoney("strike", v["strike"])
		if err != nil {
			return respondError(s, i, err)
		}
		params.Strike = &strike
	}
	if v["exp"] != "" {
		expiry, err := parseDate("expiration", v["exp"])
		if err != nil {
			return respondError(s, i, err)
		}
		params.Expiry = &expiry
	}
	if v["premium"] != "" {
		premium, err := parsePositiveMoney("premium", v["premium"])
		if err != nil {
			return respondError(s, i, err)
		}
		params.Premium = &premium
	}
	if v["quantity"] != "" {
		quantity, err := parseQuantity("quantity", v["quantity"])
		if err != nil {
			return respondError(s, i, err)
		}
		params.Quantity = &quantity
	}

	if err := pm.Edit(cursor, params); err != nil {
		return respondError(s, i, err)
	}
	return respondText(s, i, "Position Updated")
}

// --- date ---

func (b *Bot) cmdDate(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	pm, store, err := b.manager(i)
	if err != nil {
		return err
	}
	cursor, err := checkedCursor(pm, store)
	if err != nil {
		return respondError(s, i, err)
	}
	return respondModal(s, i, fmt.Sprintf("date:%d", cursor), "Edit Open Date", dateModalFields()...)
}

func (b *Bot) submitDate(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	pm, _, err := b.manager(i)
	if err != nil {
		return err
	}
	data := i.ModalSubmitData()
	cursor, err := strconv.Atoi(data.CustomID[len("date:"):])
	if err != nil {
		return fmt.Errorf("bad date modal id %q: %w", data.CustomID, err)
	}
	v := modalValues(data)

	var params portfolio.DateParams
	if v["year"] != "" {
		year, err := parseInt("year", v["year"], 1970, 9999)
		if err != nil {
			return respondError(s, i, err)
		}
		params.Year = &year
	}
	if v["month"] != "" {
		month, err := parseInt("month", v["month"], 1, 12)
		if err != nil {
			return respondError(s, i, err)
		}
		params.Month = &month
	}
	if v["day"] != "" {
		day, err := parseInt("day", v["day"], 1, 31)
		if err != nil {
			return respondError(s, i, err)
		}
		params.Day = &day
	}

	if err := pm.SetDate(cursor, params); err != nil {
		return respondError(s, i, err)
	}
	return respondText(s, i, "Open Date Updated")
}

// --- queries ---

func (b *Bot) cmdDetails(s *discordgo.Session, i *discordgo.InteractionCreate) error {
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
	body := fmt.Sprintf("Contract %d/%d\n%s", 1, len(pos.Contracts), formatContract(&pos.Contracts[0]))
	var components []discordgo.MessageComponent
	if len(pos.Contracts) > 1 {
		components = pageButtons("details", interactionUser(i).ID, 0, false)
	}
	return respondEmbed(s, i, body, components)
}

func (b *Bot) cmdAssets(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	_, store, err := b.manager(i)
	if err != nil {
		return err
	}
	positions, err := store.Positions()
	if err != nil {
		return err
	}
	return respondEmbed(s, i, formatAssets(reports.Assets(positions)), nil)
}

func (b *Bot) cmdStats(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	_, store, err := b.manager(i)
	if err != nil {
		return err
	}
	positions, err := store.Positions()
	if err != nil {
		return err
	}
	return respondEmbed(s, i, formatStats(reports.ComputeStats(positions, store.Commission())), nil)
}

func (b *Bot) cmdBest(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	_, store, err := b.manager(i)
	if err != nil {
		return err
	}
	positions, err := store.Positions()
	if err != nil {
		return err
	}
	entries := reports.Best(positions, time.Now().UTC(), 3)
	if len(entries) == 0 {
		return respondText(s, i, "You have no closed positions")
	}
	return respondText(s, i, formatBest(entries))
}

func (b *Bot) cmdMonth(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	_, store, err := b.manager(i)
	if err != nil {
		return err
	}
	positions, err := store.Positions()
	if err != nil {
		return err
	}
	report := reports.BuildMonthReport(positions)
	if len(report.Distributed) == 0 {
		return respondText(s, i, "You have no closed positions")
	}

	order := "rate"
	if opts := i.ApplicationCommandData().Options; len(opts) > 0 {
		order = opts[0].StringValue()
	}

	var body string
	switch order {
	case "chrono":
		body = formatMonths("Months:", report.Distributed, false)
	case "gain":
		body = formatMonths("Best months by gain:", reports.ByGain(report.Distributed), true)
	case "tax-chrono":
		body = formatMonths("Taxable months:", report.Taxable, true)
	case "tax-gain":
		body = formatMonths("Best taxable months by gain:", reports.ByGain(report.Taxable), true)
	default:
		body = formatMonths("Best months by daily return rate:",
			reports.ByDailyReturnRate(report.Distributed), false)
	}
	return respondEmbed(s, i, body, nil)
}
