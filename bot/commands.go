package bot

import (
	"context"
	"errors"

	"three-card-game/game"
	"three-card-game/services"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "challenge",
			Description: "Challenge another player to a game of Three Card Game",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "opponent",
					Description: "The player you want to challenge",
					Required:    true,
				},
			},
		},
		{
			Name:        "leaderboard",
			Description: "Show the top players",
		},
		{
			Name:        "help",
			Description: "How to play Three Card Game",
		},
	}
}

// userMessage is what a player sees for a rejected action.
func userMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrAlreadyInMatch):
		return "You or your opponent is already in a game."
	case errors.Is(err, services.ErrNotInMatch), errors.Is(err, services.ErrMatchNotFound):
		return "You are not in a game right now."
	case errors.Is(err, services.ErrUnauthorized):
		return "You can't do that with this challenge."
	case errors.Is(err, game.ErrInvalidParticipants):
		return "You can't challenge yourself or a bot!"
	case errors.Is(err, game.ErrNotChallenged):
		return "Only the challenged player can accept."
	case errors.Is(err, game.ErrNotParticipant):
		return "This game isn't yours."
	case errors.Is(err, game.ErrWrongState):
		return "The game isn't in a state that allows that."
	case errors.Is(err, game.ErrInvalidCard):
		return "Invalid card. Choose: oppressed, emperor, or people."
	case errors.Is(err, game.ErrAlreadySubmitted):
		return "You already played a card this round."
	}
	return "Something went wrong, please try again."
}

func actor(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	user := actor(i)
	if user == nil {
		return
	}
	b.remember(user)

	var data *discordgo.InteractionResponse
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		data = b.handleCommand(i, user)
	case discordgo.InteractionMessageComponent:
		data = b.handleComponent(i, user)
	default:
		return
	}
	if data == nil {
		return
	}
	if err := s.InteractionRespond(i.Interaction, data); err != nil {
		b.logger.Error("❌ [BOT] failed to respond to interaction",
			zap.String("interaction_id", i.ID), zap.Error(err))
	}
}

func (b *Bot) handleCommand(i *discordgo.InteractionCreate, user *discordgo.User) *discordgo.InteractionResponse {
	cmd := i.ApplicationCommandData()
	switch cmd.Name {
	case "challenge":
		return b.challenge(i, user, cmd)
	case "leaderboard":
		return b.leaderboard()
	case "help":
		return reply(&discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{helpEmbed(b.maxRounds, b.ttl)},
		})
	}
	return reply(ephemeral("Unknown command."))
}

func (b *Bot) challenge(i *discordgo.InteractionCreate, user *discordgo.User, cmd discordgo.ApplicationCommandInteractionData) *discordgo.InteractionResponse {
	var opponentID string
	for _, opt := range cmd.Options {
		if opt.Name == "opponent" {
			opponentID, _ = opt.Value.(string)
		}
	}
	if cmd.Resolved != nil {
		if u, ok := cmd.Resolved.Users[opponentID]; ok {
			b.remember(u)
			if u.Bot {
				return reply(ephemeral("You cannot challenge a bot!"))
			}
		}
	}
	if opponentID == "" {
		return reply(ephemeral("Please pick a player to challenge."))
	}

	snap, err := b.sessions.Challenge(user.ID, opponentID)
	if err != nil {
		return reply(ephemeral(userMessage(err)))
	}
	b.track(snap.ID, i.ChannelID)
	return reply(challengeMessage(snap, b.ttl))
}

func (b *Bot) leaderboard() *discordgo.InteractionResponse {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	entries, err := b.stats.Leaderboard(ctx, b.leaderboardSize)
	if err != nil {
		b.logger.Error("❌ [BOT] leaderboard query failed", zap.Error(err))
		return reply(ephemeral("Sorry, there was an error fetching the leaderboard!"))
	}
	return reply(&discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{leaderboardEmbed(b.printer, entries, b.leaderboardSize)},
	})
}

func (b *Bot) handleComponent(i *discordgo.InteractionCreate, user *discordgo.User) *discordgo.InteractionResponse {
	data := i.MessageComponentData()
	action, matchID, ok := parseComponentID(data.CustomID)
	if !ok {
		return reply(ephemeral("This button is no longer valid."))
	}

	// Buttons outlive their match; only act on the actor's current one.
	current, err := b.sessions.MatchFor(user.ID)
	if err != nil || current.ID != matchID {
		return reply(ephemeral("This game is no longer active."))
	}

	switch action {
	case actionAccept:
		snap, err := b.sessions.Accept(user.ID)
		if err != nil {
			return reply(ephemeral(userMessage(err)))
		}
		return update(acceptedMessage(snap))

	case actionDeny, actionWithdraw:
		snap, err := b.sessions.DenyOrWithdraw(user.ID, action == actionWithdraw)
		if err != nil {
			return reply(ephemeral(userMessage(err)))
		}
		b.forget(snap.ID)
		return update(cancelledMessage(snap))

	case actionPlay:
		if current.State != game.StateActive {
			return reply(ephemeral(userMessage(game.ErrWrongState)))
		}
		if current.HasSubmitted(user.ID) {
			return reply(ephemeral(userMessage(game.ErrAlreadySubmitted)))
		}
		return reply(cardPicker(current))

	case actionCard:
		if len(data.Values) == 0 {
			return reply(ephemeral(userMessage(game.ErrInvalidCard)))
		}
		return b.playCard(i, user, data.Values[0])
	}
	return reply(ephemeral("This button is no longer valid."))
}

func (b *Bot) playCard(i *discordgo.InteractionCreate, user *discordgo.User, value string) *discordgo.InteractionResponse {
	card, err := game.ParseCard(value)
	if err != nil {
		return reply(ephemeral(userMessage(err)))
	}

	res, err := b.sessions.SubmitCard(user.ID, card)
	if err != nil {
		return update(ephemeral(userMessage(err)))
	}

	switch res.Resolution.Status {
	case game.ResolveContinues:
		b.announce(res.Match.ID, i.ChannelID, &discordgo.MessageSend{
			Embeds:     []*discordgo.MessageEmbed{roundEmbed(res.Match, res.Resolution)},
			Components: playComponents(res.Match.ID),
		})
	case game.ResolveCompleted:
		channelID, _ := b.forget(res.Match.ID)
		if channelID == "" {
			channelID = i.ChannelID
		}
		b.announce(res.Match.ID, channelID, &discordgo.MessageSend{
			Embeds: []*discordgo.MessageEmbed{finalEmbed(res.Match, res.Resolution)},
		})
	}

	return update(cardChosenMessage(card, res.Resolution.Status == game.ResolveIncomplete))
}

// announce posts to the match channel, falling back to fallbackChannel. The
// post runs in the background so the interaction reply is never held up.
func (b *Bot) announce(matchID, fallbackChannel string, msg *discordgo.MessageSend) {
	channelID, ok := b.channelFor(matchID)
	if !ok {
		channelID = fallbackChannel
	}
	if channelID == "" || b.sendMessage == nil {
		return
	}
	go b.post(matchID, channelID, msg)
}

func (b *Bot) post(matchID, channelID string, msg *discordgo.MessageSend) {
	if err := b.sendMessage(channelID, msg); err != nil {
		b.logger.Error("❌ [BOT] failed to post match update",
			zap.String("match_id", matchID), zap.String("channel_id", channelID), zap.Error(err))
	}
}

func reply(data *discordgo.InteractionResponseData) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}
}

func update(data *discordgo.InteractionResponseData) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: data,
	}
}
