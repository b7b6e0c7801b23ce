// Package bot is the Discord front end: slash commands, challenge buttons and
// private card pickers on top of the session registry.
package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"three-card-game/game"
	"three-card-game/services"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"golang.org/x/text/message"
)

const requestTimeout = 5 * time.Second

type Options struct {
	Token           string
	AppID           string
	GuildID         string // empty registers commands globally
	Blocklist       []string
	MaxRounds       int
	ChallengeTTL    time.Duration
	LeaderboardSize int
	Logger          *zap.Logger
}

// Bot implements services.IdentityPolicy, services.ProfileLookup and
// services.ExpiryListener on top of a Discord session.
type Bot struct {
	session *discordgo.Session
	appID   string
	guildID string

	sessions *services.SessionService
	stats    *services.StatsService

	blocklist       services.BlocklistPolicy
	maxRounds       int
	ttl             time.Duration
	leaderboardSize int

	// matchID -> channel the challenge was posted in
	channels sync.Map
	// userID -> *discordgo.User seen in interactions
	users       sync.Map
	fetchUser   func(userID string) (*discordgo.User, error)
	sendMessage func(channelID string, msg *discordgo.MessageSend) error

	printer *message.Printer
	logger  *zap.Logger
}

func New(opts Options) (*Bot, error) {
	if opts.Token == "" {
		return nil, errors.New("discord token is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.LeaderboardSize < 1 {
		opts.LeaderboardSize = services.DefaultLeaderboardSize
	}

	s, err := discordgo.New("Bot " + opts.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds

	b := newBot(opts)
	b.session = s
	b.fetchUser = func(userID string) (*discordgo.User, error) {
		return s.User(userID)
	}
	b.sendMessage = func(channelID string, msg *discordgo.MessageSend) error {
		_, err := s.ChannelMessageSendComplex(channelID, msg)
		return err
	}
	return b, nil
}

func newBot(opts Options) *Bot {
	return &Bot{
		appID:           opts.AppID,
		guildID:         opts.GuildID,
		blocklist:       services.NewBlocklistPolicy(opts.Blocklist),
		maxRounds:       opts.MaxRounds,
		ttl:             opts.ChallengeTTL,
		leaderboardSize: opts.LeaderboardSize,
		printer:         newPrinter(),
		logger:          opts.Logger,
	}
}

// Bind attaches the game services. The registry is built with the bot as its
// identity policy and expiry listener, so this happens after construction.
func (b *Bot) Bind(sessions *services.SessionService, stats *services.StatsService) {
	b.sessions = sessions
	b.stats = stats
}

// Open connects to the gateway and registers the slash commands.
func (b *Bot) Open() error {
	if b.sessions == nil || b.stats == nil {
		return errors.New("bot: Bind must be called before Open")
	}

	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.logger.Info("🤖 [BOT] connected", zap.String("user", r.User.Username), zap.Int("guilds", len(r.Guilds)))
	})
	b.session.AddHandler(b.onInteraction)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}

	appID := b.appID
	if appID == "" && b.session.State != nil && b.session.State.User != nil {
		appID = b.session.State.User.ID
	}
	if _, err := b.session.ApplicationCommandBulkOverwrite(appID, b.guildID, commands()); err != nil {
		_ = b.session.Close()
		return fmt.Errorf("register commands: %w", err)
	}
	b.logger.Info("✅ [BOT] slash commands registered", zap.String("guild_id", b.guildID))
	return nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

// IsDisallowed rejects bot accounts, the bot itself and blocklisted ids.
func (b *Bot) IsDisallowed(userID string) bool {
	if b.blocklist.IsDisallowed(userID) {
		return true
	}
	if b.session != nil && b.session.State != nil && b.session.State.User != nil && b.session.State.User.ID == userID {
		return true
	}
	u, err := b.user(userID)
	if err != nil {
		b.logger.Warn("⚠️ [BOT] could not resolve user for identity check",
			zap.String("user_id", userID), zap.Error(err))
		return false
	}
	return u.Bot
}

// Profile resolves the display name and avatar of a Discord user.
func (b *Bot) Profile(_ context.Context, userID string) (services.Profile, error) {
	u, err := b.user(userID)
	if err != nil {
		return services.Profile{}, err
	}
	name := u.GlobalName
	if name == "" {
		name = u.Username
	}
	return services.Profile{
		UserID:    userID,
		Username:  name,
		AvatarURL: u.AvatarURL(""),
	}, nil
}

// ChallengeExpired announces the expiry in the challenge's channel.
func (b *Bot) ChallengeExpired(snap game.Snapshot) {
	channelID, ok := b.forget(snap.ID)
	if !ok || b.session == nil {
		return
	}
	if _, err := b.session.ChannelMessageSend(channelID, expiredText(snap)); err != nil {
		b.logger.Warn("⚠️ [BOT] failed to announce expiry",
			zap.String("match_id", snap.ID), zap.Error(err))
	}
}

func (b *Bot) user(userID string) (*discordgo.User, error) {
	if v, ok := b.users.Load(userID); ok {
		return v.(*discordgo.User), nil
	}
	if b.fetchUser == nil {
		return nil, fmt.Errorf("unknown user %s", userID)
	}
	u, err := b.fetchUser(userID)
	if err != nil {
		return nil, fmt.Errorf("fetch user %s: %w", userID, err)
	}
	b.remember(u)
	return u, nil
}

func (b *Bot) remember(u *discordgo.User) {
	if u != nil && u.ID != "" {
		b.users.Store(u.ID, u)
	}
}

func (b *Bot) track(matchID, channelID string) {
	b.channels.Store(matchID, channelID)
}

func (b *Bot) channelFor(matchID string) (string, bool) {
	v, ok := b.channels.Load(matchID)
	if !ok {
		return "", false
	}
	return v.(string), true
}

func (b *Bot) forget(matchID string) (string, bool) {
	v, ok := b.channels.LoadAndDelete(matchID)
	if !ok {
		return "", false
	}
	return v.(string), true
}
