package game

// RoundPlayer is one player's submissions for a single round.
type RoundPlayer struct {
	Played int // card placed on the table this turn
	Voted  int // card voted for during the ballot
}

// ScoreRound returns the points gained by each player this round.
// players is in roster order, storyteller is an index into it. The
// storyteller's Voted field is ignored.
//
// A vote for player i's card counts toward i's fooled tally. Votes for
// the storyteller's card are correct guesses. When everyone guesses
// correctly the storyteller gets nothing and the fooled bonus is
// suppressed for the whole round.
func ScoreRound(players []RoundPlayer, storyteller int) []int {
	fooled := make([]int, len(players))
	for i := range players {
		for j := range players {
			if j == storyteller {
				continue
			}
			if players[j].Voted == players[i].Played {
				fooled[i]++
			}
		}
	}

	gains := make([]int, len(players))
	correct := fooled[storyteller]

	if correct == len(players)-1 {
		for i := range players {
			if i != storyteller {
				gains[i] = 3
			}
		}
		return gains
	}

	if correct > 0 {
		trueCard := players[storyteller].Played
		for i := range players {
			if i != storyteller && players[i].Voted == trueCard {
				gains[i] += 3
			}
		}
		gains[storyteller] += 3
	}
	for i := range players {
		gains[i] += fooled[i]
	}
	return gains
}
