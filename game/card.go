// game/card.go
package game

import "strings"

// Card is one of the three playable cards.
type Card string

const (
	CardOppressed Card = "oppressed" // 👥 unity
	CardEmperor   Card = "emperor"   // 👑 authority
	CardPeople    Card = "people"    // 👪 the masses
)

// Outcome is the result of comparing the first card against the second.
type Outcome int

const (
	Tie Outcome = iota
	FirstWins
	SecondWins
)

func (o Outcome) String() string {
	switch o {
	case FirstWins:
		return "first"
	case SecondWins:
		return "second"
	default:
		return "tie"
	}
}

// beats maps each card to the single card it defeats.
// Oppressed > Emperor > People > Oppressed.
var beats = map[Card]Card{
	CardOppressed: CardEmperor,
	CardEmperor:   CardPeople,
	CardPeople:    CardOppressed,
}

var cardOrder = []Card{CardOppressed, CardEmperor, CardPeople}

var cardEmoji = map[Card]string{
	CardOppressed: "👥",
	CardEmperor:   "👑",
	CardPeople:    "👪",
}

var cardLabel = map[Card]string{
	CardOppressed: "The Oppressed",
	CardEmperor:   "The Emperor",
	CardPeople:    "The People",
}

// Cards returns the legal cards in display order.
func Cards() []Card {
	out := make([]Card, len(cardOrder))
	copy(out, cardOrder)
	return out
}

// ParseCard accepts a card name in any case, surrounding spaces ignored.
func ParseCard(s string) (Card, error) {
	c := Card(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", ErrInvalidCard
	}
	return c, nil
}

// Valid reports whether c is one of the three legal cards.
func (c Card) Valid() bool {
	_, ok := beats[c]
	return ok
}

// Beats returns the card that c defeats, or "" for an invalid card.
func (c Card) Beats() Card {
	return beats[c]
}

func (c Card) Emoji() string { return cardEmoji[c] }

func (c Card) Label() string { return cardLabel[c] }

// Resolve compares two valid cards. Equal cards tie.
func Resolve(first, second Card) Outcome {
	switch {
	case first == second:
		return Tie
	case beats[first] == second:
		return FirstWins
	default:
		return SecondWins
	}
}
