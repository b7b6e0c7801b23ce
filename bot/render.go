package bot

import (
	"fmt"
	"strings"
	"time"

	"three-card-game/game"
	"three-card-game/services"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	colorInfo = 0x0099ff
	colorWin  = 0x2ecc71
	colorDraw = 0xf1c40f
)

// Component custom ids are "<action>:<matchID>".
const (
	actionAccept   = "accept"
	actionDeny     = "deny"
	actionWithdraw = "withdraw"
	actionPlay     = "play"
	actionCard     = "card"
)

func componentID(action, matchID string) string {
	return action + ":" + matchID
}

func parseComponentID(id string) (action, matchID string, ok bool) {
	action, matchID, ok = strings.Cut(id, ":")
	if !ok || action == "" || matchID == "" {
		return "", "", false
	}
	return action, matchID, true
}

func mention(userID string) string {
	return "<@" + userID + ">"
}

func cardText(c game.Card) string {
	return fmt.Sprintf("%s %s", c.Emoji(), c.Label())
}

func newPrinter() *message.Printer {
	return message.NewPrinter(language.English)
}

func challengeMessage(snap game.Snapshot, ttl time.Duration) *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		Content: fmt.Sprintf("🎯 **New Challenge!**\n%s, you have been challenged by %s to a best of %d!\nThe challenge expires in %s.",
			mention(snap.Challenged), mention(snap.Challenger), snap.MaxRounds, humanDuration(ttl)),
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "Accept", Style: discordgo.SuccessButton, CustomID: componentID(actionAccept, snap.ID)},
				discordgo.Button{Label: "Deny", Style: discordgo.DangerButton, CustomID: componentID(actionDeny, snap.ID)},
				discordgo.Button{Label: "Withdraw", Style: discordgo.SecondaryButton, CustomID: componentID(actionWithdraw, snap.ID)},
			}},
		},
		AllowedMentions: &discordgo.MessageAllowedMentions{Users: []string{snap.Challenged}},
	}
}

func playComponents(matchID string) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    "Choose your card",
				Style:    discordgo.PrimaryButton,
				CustomID: componentID(actionPlay, matchID),
				Emoji:    &discordgo.ComponentEmoji{Name: "🃏"},
			},
		}},
	}
}

func acceptedMessage(snap game.Snapshot) *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		Content: fmt.Sprintf("🎮 **Game Started!** %s vs %s\nRound %d of %d. Both players pick a card in secret.",
			mention(snap.Challenger), mention(snap.Challenged), snap.CurrentRound, snap.MaxRounds),
		Components: playComponents(snap.ID),
	}
}

func cancelledMessage(snap game.Snapshot) *discordgo.InteractionResponseData {
	var text string
	switch snap.CancelReason {
	case game.CancelDenied:
		text = fmt.Sprintf("🚫 %s denied the challenge from %s.", mention(snap.Challenged), mention(snap.Challenger))
	case game.CancelWithdrawn:
		text = fmt.Sprintf("↩️ %s withdrew the challenge to %s.", mention(snap.Challenger), mention(snap.Challenged))
	default:
		text = expiredText(snap)
	}
	return &discordgo.InteractionResponseData{
		Content:    text,
		Components: []discordgo.MessageComponent{},
	}
}

func expiredText(snap game.Snapshot) string {
	return fmt.Sprintf("⏰ The challenge from %s to %s expired.", mention(snap.Challenger), mention(snap.Challenged))
}

// cardPicker is the private select menu a player uses to pick this round's card.
func cardPicker(snap game.Snapshot) *discordgo.InteractionResponseData {
	options := make([]discordgo.SelectMenuOption, 0, 3)
	for _, c := range game.Cards() {
		options = append(options, discordgo.SelectMenuOption{
			Label:       c.Label(),
			Value:       string(c),
			Description: "Defeats " + c.Beats().Label(),
			Emoji:       &discordgo.ComponentEmoji{Name: c.Emoji()},
		})
	}
	return &discordgo.InteractionResponseData{
		Content: fmt.Sprintf("Round %d of %d: choose your card.", snap.CurrentRound, snap.MaxRounds),
		Flags:   discordgo.MessageFlagsEphemeral,
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					MenuType:    discordgo.StringSelectMenu,
					CustomID:    componentID(actionCard, snap.ID),
					Placeholder: "Pick a card",
					Options:     options,
				},
			}},
		},
	}
}

func cardChosenMessage(card game.Card, waiting bool) *discordgo.InteractionResponseData {
	text := fmt.Sprintf("You played %s.", cardText(card))
	if waiting {
		text += " Waiting for your opponent…"
	}
	return &discordgo.InteractionResponseData{
		Content:    text,
		Flags:      discordgo.MessageFlagsEphemeral,
		Components: []discordgo.MessageComponent{},
	}
}

func ephemeral(text string) *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		Content: text,
		Flags:   discordgo.MessageFlagsEphemeral,
	}
}

func roundFields(snap game.Snapshot, r game.Round) []*discordgo.MessageEmbedField {
	return []*discordgo.MessageEmbedField{
		{Name: "Challenger", Value: fmt.Sprintf("%s\n%s", mention(snap.Challenger), cardText(r.ChallengerCard)), Inline: true},
		{Name: "Challenged", Value: fmt.Sprintf("%s\n%s", mention(snap.Challenged), cardText(r.ChallengedCard)), Inline: true},
	}
}

func roundWinnerText(r game.Round) string {
	if r.Winner == "" {
		return "🤝 Tie round"
	}
	return "🏅 " + mention(r.Winner) + " takes the round"
}

func scoreLine(snap game.Snapshot, scores map[string]int) string {
	return fmt.Sprintf("%s **%d** : **%d** %s",
		mention(snap.Challenger), scores[snap.Challenger], scores[snap.Challenged], mention(snap.Challenged))
}

// roundEmbed announces a resolved round of a match that continues.
func roundEmbed(snap game.Snapshot, res game.Resolution) *discordgo.MessageEmbed {
	r := *res.Round
	fields := roundFields(snap, r)
	fields = append(fields, &discordgo.MessageEmbedField{Name: "Score", Value: scoreLine(snap, res.Scores)})
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Round %d of %d", r.Number, snap.MaxRounds),
		Description: roundWinnerText(r),
		Color:       colorInfo,
		Fields:      fields,
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Round %d is up next", res.NextRound)},
	}
}

// finalEmbed summarizes a completed match round by round.
func finalEmbed(snap game.Snapshot, res game.Resolution) *discordgo.MessageEmbed {
	var b strings.Builder
	for _, r := range res.History {
		fmt.Fprintf(&b, "**%d.** %s vs %s: %s\n",
			r.Number, r.ChallengerCard.Emoji(), r.ChallengedCard.Emoji(), roundWinnerText(r))
	}

	title := "🤝 Game Over: it's a draw!"
	color := colorDraw
	if res.FinalWinner != "" {
		title = "🏆 Game Over!"
		color = colorWin
	}
	winner := "Nobody, it's a tie!"
	if res.FinalWinner != "" {
		winner = mention(res.FinalWinner)
	}

	return &discordgo.MessageEmbed{
		Title:       title,
		Description: b.String(),
		Color:       color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Final score", Value: scoreLine(snap, res.Scores)},
			{Name: "Winner", Value: winner},
		},
		Timestamp: snap.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func leaderboardEmbed(p *message.Printer, entries []services.LeaderboardEntry, size int) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "🏆 Three Card Game - Top Players",
		Description: p.Sprintf("Top %d players by matches won", size),
		Color:       colorInfo,
	}
	if len(entries) == 0 {
		embed.Description = "No matches played yet! Be the first to play!"
		return embed
	}
	for _, e := range entries {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  p.Sprintf("%d. %s", e.Rank, e.Username),
			Value: p.Sprintf("Wins: %d | Games: %d | Win Rate: %.1f%%", e.MatchesWon, e.MatchesPlayed, e.WinRate*100),
		})
	}
	return embed
}

func helpEmbed(maxRounds int, ttl time.Duration) *discordgo.MessageEmbed {
	var cards, rules strings.Builder
	for _, c := range game.Cards() {
		fmt.Fprintf(&cards, "• %s\n", cardText(c))
		fmt.Fprintf(&rules, "• %s defeats %s\n", cardText(c), cardText(c.Beats()))
	}
	return &discordgo.MessageEmbed{
		Title:       "Three Card Game - Help 🎮",
		Description: "A two-player card game played over a few secret rounds.",
		Color:       colorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Cards", Value: cards.String()},
			{Name: "Rules", Value: rules.String() + "• Equal cards tie the round"},
			{Name: "Commands", Value: "• `/challenge @player` - Challenge another player\n" +
				"• `/leaderboard` - Show the top players\n" +
				"• `/help` - Show this help message"},
			{Name: "How to play", Value: fmt.Sprintf(
				"1. Challenge a player with `/challenge`\n"+
					"2. They accept within %s\n"+
					"3. Each round both players pick a card in secret\n"+
					"4. After %d rounds the player with more round wins takes the match", humanDuration(ttl), maxRounds)},
		},
	}
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		if d == time.Hour {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", d/time.Hour)
	case d >= time.Minute && d%time.Minute == 0:
		if d == time.Minute {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", d/time.Minute)
	}
	return d.String()
}
