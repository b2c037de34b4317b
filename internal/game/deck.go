package game

import "math/rand"

// HandSize is the number of cards dealt to every player at game start.
const HandSize = 6

// DefaultCardCount is used when a card set has no configuration entry.
const DefaultCardCount = 50

// Cards trimmed from the shuffled pool before dealing, by table size.
// These match the physical deck composition and are not derived.
var tableTrim = map[int]int{
	4: 2,
	5: 23,
	6: 26,
}

// Deck is the session-scoped pool of card ids. Cards are consumed from
// the front, so the shuffled order is also the replenish order.
type Deck struct {
	cards []int
}

// NewDeck builds a shuffled deck of ids 0..cardCount-1, reduced for the
// given table size.
func NewDeck(cardCount, playerCount int) *Deck {
	cards := make([]int, cardCount)
	for i := range cards {
		cards[i] = i
	}
	d := &Deck{cards: cards}
	d.Shuffle()
	if trim, ok := tableTrim[playerCount]; ok && trim < len(d.cards) {
		d.cards = d.cards[:len(d.cards)-trim]
	}
	return d
}

func (d *Deck) Shuffle() {
	rand.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

func (d *Deck) Count() int {
	return len(d.cards)
}

// DealHand draws the next HandSize cards from the front of the pool.
func (d *Deck) DealHand() []int {
	return d.Draw(HandSize)
}

// Draw removes and returns the first n cards, fewer when the pool runs
// short.
func (d *Deck) Draw(n int) []int {
	if n > len(d.cards) {
		n = len(d.cards)
	}
	drawn := make([]int, n)
	copy(drawn, d.cards[:n])
	d.cards = d.cards[n:]
	return drawn
}

// Clear empties the pool. The admin console uses this to force the game
// to end on the next replenish.
func (d *Deck) Clear() {
	d.cards = d.cards[:0]
}
