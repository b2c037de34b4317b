package server

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/rs/zerolog/log"

	"imaginarium-server/internal/game"
	"imaginarium-server/internal/resources"
)

// Orchestrator advances the round whenever every valid player has reached
// the same barrier state. It runs once per event-loop iteration, under the
// roster lock, and is the only writer of barrier-only states.
type Orchestrator struct {
	roster  *Roster
	session *SessionState
	res     *resources.Info

	deck        *game.Deck
	storyteller *Player
}

func NewOrchestrator(roster *Roster, session *SessionState, res *resources.Info) *Orchestrator {
	return &Orchestrator{
		roster:  roster,
		session: session,
		res:     res,
	}
}

// reset discards per-session state between games.
func (o *Orchestrator) reset() {
	o.deck = nil
	o.storyteller = nil
}

// syncState reports the state shared by every valid player, if any.
func (o *Orchestrator) syncState() (State, bool) {
	players := o.roster.valid()
	if len(players) == 0 {
		return 0, false
	}
	st := players[0].State
	for _, p := range players[1:] {
		if p.State != st {
			return 0, false
		}
	}
	return st, true
}

// Step performs at most one barrier transition. A storyteller lost outside
// a barrier rewinds everyone to TURN_SYNC so the round can restart instead
// of stalling forever.
func (o *Orchestrator) Step() {
	if o.storyteller != nil && !o.storyteller.Valid() {
		for _, p := range o.roster.valid() {
			p.State = TurnSync
		}
	}

	st, ok := o.syncState()
	if !ok {
		return
	}
	switch st {
	case BeginSync:
		o.beginGame()
	case TurnSync:
		o.rotateTurn()
	case SelfSync:
		o.openBallot()
	case VoteSync:
		o.closeBallot()
	case SyncNextTurn:
		o.nextTurn()
	}
}

// beginGame deals the deck, announces hands and the seating list, and
// picks a random starting storyteller.
func (o *Orchestrator) beginGame() {
	players := o.roster.valid()
	if len(players) == 0 {
		log.Info().Msg("game started without players, abort")
		o.session.SetPhase(PhaseError)
		return
	}

	cardSet := o.session.CardSet()
	cardCount, ok := o.res.CardCount(cardSet)
	if !ok {
		cardCount = game.DefaultCardCount
		log.Error().Str("set", cardSet).Msg("no configuration entry for card set")
	}
	o.deck = game.NewDeck(cardCount, len(players))
	log.Info().Str("set", cardSet).Int("cards", cardCount).Msg("dealing")

	digest := o.roster.playerListDigest()
	for _, p := range players {
		p.Cards = o.deck.DealHand()
		p.State = ReadyWait
		p.Queue(fmt.Sprintf("BEGIN %s %s %s", cardSet, cardCSV(p.Cards), digest))
	}

	// Rotating forward from a random seat normalizes the pick over the
	// valid players.
	o.storyteller = o.roster.nextValid(o.roster.players[rand.Intn(len(o.roster.players))])
}

// rotateTurn hands the storyteller role to the next valid player.
func (o *Orchestrator) rotateTurn() {
	o.storyteller = o.roster.nextValid(o.storyteller)
	if o.storyteller == nil {
		o.session.SetPhase(PhaseError)
		return
	}
	for _, p := range o.roster.valid() {
		p.HasTurn = p == o.storyteller
		p.State = WaitAssoc
	}
	o.roster.broadcastMessage(fmt.Sprintf("TURN %d", o.storyteller.Number))
}

// openBallot shuffles the submitted cards and puts them up for voting.
func (o *Orchestrator) openBallot() {
	players := o.roster.valid()
	ballot := make([]int, 0, len(players))
	for _, p := range players {
		ballot = append(ballot, p.CurrentCard)
	}
	rand.Shuffle(len(ballot), func(i, j int) {
		ballot[i], ballot[j] = ballot[j], ballot[i]
	})
	o.roster.broadcastMessage("VOTE " + cardCSV(ballot))
	for _, p := range players {
		p.State = WaitVote
	}
}

// closeBallot scores the round and publishes the reveal: the true card,
// everyone's played and selected cards, and the updated totals.
func (o *Orchestrator) closeBallot() {
	players := o.roster.valid()

	round := make([]game.RoundPlayer, len(players))
	storyteller := -1
	for i, p := range players {
		round[i] = game.RoundPlayer{Played: p.CurrentCard, Voted: p.SelectedCard}
		if p == o.storyteller {
			storyteller = i
		}
	}
	if storyteller >= 0 {
		for i, gain := range game.ScoreRound(round, storyteller) {
			players[i].Score += gain
		}
	}

	cards := make([]string, len(players))
	scores := make([]string, len(players))
	for i, p := range players {
		cards[i] = fmt.Sprintf("%d;%d;%d", p.Number, p.CurrentCard, p.SelectedCard)
		scores[i] = fmt.Sprintf("%d;%d", p.Number, p.Score)
	}
	o.roster.broadcastMessage(fmt.Sprintf("STATUS %d %s %s",
		o.storyteller.CurrentCard, strings.Join(cards, ","), strings.Join(scores, ",")))
	for _, p := range players {
		p.State = WaitNextTurn
	}
}

// nextTurn retires the played cards, replenishes hands while the deck
// lasts, and either loops back to the next turn or ends the game.
func (o *Orchestrator) nextTurn() {
	players := o.roster.valid()
	for _, p := range players {
		for i, card := range p.Cards {
			if card == p.CurrentCard {
				p.Cards = append(p.Cards[:i], p.Cards[i+1:]...)
				break
			}
		}
	}
	if o.deck.Count() >= len(players) {
		for _, p := range players {
			p.Cards = append(p.Cards, o.deck.Draw(1)[0])
		}
	}

	for _, p := range players {
		if len(p.Cards) == 0 {
			o.roster.broadcastMessage("END_GAME")
			for _, q := range players {
				q.Invalidate()
			}
			return
		}
	}
	for _, p := range players {
		p.Queue("CARDS " + cardCSV(p.Cards))
		p.State = TurnSync
	}
}

// clearDeck empties the shared pool so the game ends at the next
// replenish barrier. The admin console's end command uses it.
func (o *Orchestrator) clearDeck() {
	if o.deck != nil {
		o.deck.Clear()
	}
}

func cardCSV(cards []int) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = fmt.Sprintf("%d", c)
	}
	return strings.Join(parts, ",")
}
