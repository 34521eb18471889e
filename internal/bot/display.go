package bot

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cssmith8/rustical-bot/internal/models"
	"github.com/cssmith8/rustical-bot/internal/reports"
)

// selectText is the follow-up guidance shown after a position is selected.
const selectText = "**Position Selected**\n" +
	"> Use `/close` to close the position\n" +
	"> Use `/roll` to roll the position\n" +
	"> Use `/expire` if the option expired\n" +
	"> Use `/assign` if the option was assigned\n" +
	"> Use `/edit` to edit position info\n" +
	"> Use `/date` to change open date"

const colorDarkGreen = 0x1f8b4c

// shortDate renders M/D/YY, the compact date used across embeds.
func shortDate(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d", int(t.Month()), t.Day(), t.Year()%100)
}

// relativeStamp renders a Discord relative-time markup tag.
func relativeStamp(t time.Time) string {
	return fmt.Sprintf("<t:%d:R>", t.Unix())
}

// formatPosition renders a position summary: title line, roll note, then the
// open/expiry timing and aggregate premium of the chain.
func formatPosition(pos *models.Position, now time.Time) string {
	final := pos.Contracts[len(pos.Contracts)-1]
	leg := final.Open

	kindInitial := strings.ToUpper(string(leg.Kind)[:1])
	title := fmt.Sprintf("# %s %s $%v %s", leg.Ticker, shortDate(leg.ExpiresAt), leg.Strike, kindInitial)

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")
	if rolls := pos.NumRolls(); rolls > 0 {
		times := "times"
		if rolls == 1 {
			times = "time"
		}
		fmt.Fprintf(&b, "-# *Rolled %d %s*\n", rolls, times)
	}

	expireWord := "Expires"
	if !leg.ExpiresAt.After(now) {
		expireWord = "Expired"
	}
	fmt.Fprintf(&b, "Opened %s (%s)\n", relativeStamp(leg.OpenedAt), shortDate(leg.OpenedAt))
	fmt.Fprintf(&b, "%s %s\n", expireWord, relativeStamp(leg.ExpiresAt))
	fmt.Fprintf(&b, "Premium: $%v\n", pos.AggregatePremium())
	fmt.Fprintf(&b, "Quantity: %d\n", leg.Quantity)
	return b.String()
}

// formatContract renders one contract of a chain in full.
func formatContract(c *models.Contract) string {
	leg := c.Open
	closeInfo := "Still open"
	if c.Close != nil {
		closeInfo = fmt.Sprintf("Closed %s (%s) at premium $%v",
			relativeStamp(c.Close.ClosedAt), shortDate(c.Close.ClosedAt), c.Close.Premium)
	}
	return fmt.Sprintf(
		"%s %s $%v %s\nPremium: $%v\nQuantity: %d\nOpened %s (%s)\nExpires %s (%s)\nStatus: %s",
		leg.Ticker, shortDate(leg.ExpiresAt), leg.Strike, leg.Kind,
		leg.Premium, leg.Quantity,
		relativeStamp(leg.OpenedAt), shortDate(leg.OpenedAt),
		relativeStamp(leg.ExpiresAt), shortDate(leg.ExpiresAt),
		closeInfo)
}

// pageLabel appends a page marker under a rendered page body.
func pageLabel(page, total int, body string) string {
	return fmt.Sprintf("%s\n-# Position %d/%d", body, page+1, total)
}

// formatBest renders the ranked best-position entries.
func formatBest(entries []reports.BestEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Top %d positions:\n", len(entries))
	for _, e := range entries {
		plural := ""
		if e.Days != 1 {
			plural = "s"
		}
		fmt.Fprintf(&b, "```\n%s - %s\nGained $%.2f from investment of $%v over %d day%s\nDaily Return: %.2f%%```",
			shortDate(e.Date), e.Position.Ticker(), e.Gain, e.Investment, e.Days, plural, e.DailyReturnPct)
	}
	return b.String()
}

// formatAssets renders the per-ticker share exposure.
func formatAssets(assets map[string]int) string {
	var b strings.Builder
	b.WriteString("Your current assets: \n")
	for _, ticker := range sortedTickers(assets) {
		fmt.Fprintf(&b, "`%d %s`\n", assets[ticker], ticker)
	}
	return b.String()
}

func sortedTickers(assets map[string]int) []string {
	tickers := make([]string, 0, len(assets))
	for t := range assets {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers
}

// formatStats renders the realized/unrealized totals.
func formatStats(s reports.Stats) string {
	return fmt.Sprintf(
		"**Stats**\nRealized gain: $%.2f over %d closed positions\nUnrealized premium: $%.2f over %d open positions\nContracts used: %d (est. fees $%.2f)",
		s.Realized, s.ClosedCount, s.Unrealized, s.OpenCount, s.ContractsUsed, s.EstimatedFees)
}

// formatMonths renders a month report under the requested ordering.
func formatMonths(title string, months []models.TradingMonth, byGain bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n\n", title)
	for i := range months {
		if byGain {
			b.WriteString(months[i].DisplayGain())
		} else {
			b.WriteString(months[i].DisplayDailyReturnRate())
		}
		b.WriteString("\n")
	}
	return b.String()
}
