// Package bot wires the Discord slash-command surface to the portfolio
// lifecycle and report queries. Command handlers respond to slash commands,
// modal submissions and pagination button presses; all per-user state lives
// in the storage layer, never in the session.
package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/cssmith8/rustical-bot/internal/config"
	"github.com/cssmith8/rustical-bot/internal/portfolio"
	"github.com/cssmith8/rustical-bot/internal/storage"
)

// Bot owns the Discord session and dispatches interactions.
type Bot struct {
	session *discordgo.Session
	stores  *storage.Manager
	cfg     *config.Config
	logger  *logrus.Logger
}

// New creates a bot over the given store manager. The session is created but
// not opened; call Run.
func New(cfg *config.Config, stores *storage.Manager, logger *logrus.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	b := &Bot{
		session: session,
		stores:  stores,
		cfg:     cfg,
		logger:  logger,
	}
	session.AddHandler(b.onReady)
	session.AddHandler(b.onInteraction)
	return b, nil
}

// Run opens the gateway connection, registers the slash commands and blocks
// until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("opening discord session: %w", err)
	}
	defer func() {
		if err := b.session.Close(); err != nil {
			b.logger.WithError(err).Warn("closing discord session")
		}
	}()

	if _, err := b.session.ApplicationCommandBulkOverwrite(
		b.cfg.Discord.AppID, b.cfg.Discord.GuildID, commandDefinitions()); err != nil {
		return fmt.Errorf("registering commands: %w", err)
	}
	b.logger.WithField("commands", len(commandDefinitions())).Info("slash commands registered")

	<-ctx.Done()
	return ctx.Err()
}

// Announce posts a message to the configured announce channel.
func (b *Bot) Announce(message string) error {
	if b.cfg.Discord.AnnounceChannelID == "" {
		return fmt.Errorf("no announce channel configured")
	}
	_, err := b.session.ChannelMessageSend(b.cfg.Discord.AnnounceChannelID, message)
	return err
}

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	b.logger.WithField("user", r.User.Username).Info("logged in")
}

// onInteraction routes slash commands, modal submissions and component
// presses to their handlers.
func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	var err error
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		err = b.handleCommand(s, i)
	case discordgo.InteractionModalSubmit:
		err = b.handleModalSubmit(s, i)
	case discordgo.InteractionMessageComponent:
		err = b.handleComponent(s, i)
	default:
		return
	}
	if err != nil {
		b.logger.WithError(err).WithField("type", i.Type).Error("interaction failed")
	}
}

func (b *Bot) handleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	name := i.ApplicationCommandData().Name
	handler, ok := commandHandlers[name]
	if !ok {
		return fmt.Errorf("unknown command %q", name)
	}
	return handler(b, s, i)
}

func (b *Bot) handleModalSubmit(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	customID := i.ModalSubmitData().CustomID
	action, _, _ := strings.Cut(customID, ":")
	handler, ok := modalHandlers[action]
	if !ok {
		return fmt.Errorf("unknown modal %q", customID)
	}
	return handler(b, s, i)
}

func (b *Bot) handleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	customID := i.MessageComponentData().CustomID
	action, _, _ := strings.Cut(customID, ":")
	handler, ok := componentHandlers[action]
	if !ok {
		// a press on a stale component from an older build
		return nil
	}
	return handler(b, s, i)
}

// interactionUser returns the invoking user for guild and DM interactions.
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil {
		return i.Member.User
	}
	return i.User
}

// manager builds a lifecycle manager over the invoking user's store.
func (b *Bot) manager(i *discordgo.InteractionCreate) (*portfolio.Manager, storage.Interface, error) {
	user := interactionUser(i)
	store, err := b.stores.ForUser(user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store for user %s: %w", user.ID, err)
	}
	entry := b.logger.WithField("user", user.ID)
	return portfolio.NewManager(store, entry), store, nil
}

// respondText sends a plain text initial response.
func respondText(s *discordgo.Session, i *discordgo.InteractionCreate, text string) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: text},
	})
}

// respondEmbed sends an embed initial response, optionally with components.
func respondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate,
	description string, components []discordgo.MessageComponent) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{Description: description, Color: colorDarkGreen},
			},
			Components: components,
		},
	})
}

// respondError renders user errors as messages and passes real failures up.
func respondError(s *discordgo.Session, i *discordgo.InteractionCreate, err error) error {
	if portfolio.IsUserError(err) {
		return respondText(s, i, capitalize(err.Error()))
	}
	return err
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
