package track

// Track lifecycle decisions: expiry of stale or off-stage tracks,
// birth of provisional tracks from coherent unmatched pairs, and
// promotion to confirmed.

// expireStale expires every active track whose inactivity exceeds the
// time limit. A track whose gap equals the limit exactly stays active;
// one tick beyond, it expires.
func expireStale(reg *Registry, now, timeLimit int64) {
	ids := append([]int(nil), reg.ActiveIDs()...)
	for _, id := range ids {
		if now-reg.Get(id).LastTick > timeLimit {
			reg.Expire(id)
		}
	}
}

// cullOffStage expires tracks whose predicted position has left the
// unit square by more than the gating radius. Such a track can no
// longer gate any in-stage item, so keeping it active only risks a
// spurious re-entry match.
func cullOffStage(reg *Registry, activeIDs []int, preds []Prediction, bound float64) {
	for i, id := range activeIDs {
		p := preds[i]
		if p.X < -bound || p.X > 1+bound || p.Y < -bound || p.Y > 1+bound {
			reg.Expire(id)
		}
	}
}

// promoteMatched promotes provisional tracks that have accumulated
// enough matched frames beyond their seed pair.
func promoteMatched(reg *Registry, matches []frameMatch, hitsToConfirm int) {
	for _, m := range matches {
		tr := reg.Get(m.TrackID)
		if tr.State == TrackProvisional && tr.Hits >= hitsToConfirm {
			tr.State = TrackConfirmed
		}
	}
}

// pairScore holds the evaluation of one (past item, current item) seed
// candidate against the lookahead items.
type pairScore struct {
	past, cur  Item
	fitX, fitY LineFit
	tight      int
	loose      int
}

// seedTracks births provisional tracks from items left unmatched after
// gating. Each candidate pairs an unmatched current-frame item with an
// unmatched item from the previous frame; the exact line through the
// pair is scored against every item in the lookahead window. The tight
// score counts lookahead items within bound of the line's predictions,
// the loose score those within twice the bound. While the best tight
// score reaches minTightHits, the pair with the highest combined score
// is accepted as a new track and both items leave the unmatched pools.
//
// Returns the remaining unmatched past and current items.
func seedTracks(reg *Registry, past, cur, lookahead []Item, bound float64, minTightHits int) ([]Item, []Item) {
	for len(past) > 0 && len(cur) > 0 {
		var scores []pairScore
		for _, p := range past {
			for _, c := range cur {
				s := pairScore{
					past: p,
					cur:  c,
					fitX: twoPointFit(float64(p.Tick), p.X, float64(c.Tick), c.X),
					fitY: twoPointFit(float64(p.Tick), p.Y, float64(c.Tick), c.Y),
				}
				for _, la := range lookahead {
					dx := s.fitX.At(la.Tick) - la.X
					dy := s.fitY.At(la.Tick) - la.Y
					dist2 := dx*dx + dy*dy
					if dist2 <= bound*bound {
						s.tight++
					}
					if dist2 <= 4*bound*bound {
						s.loose++
					}
				}
				scores = append(scores, s)
			}
		}

		best := -1
		bestTight := 0
		for i, s := range scores {
			if s.tight > bestTight {
				bestTight = s.tight
			}
			if best < 0 || s.tight+s.loose > scores[best].tight+scores[best].loose {
				best = i
			}
		}
		if bestTight < minTightHits {
			break
		}

		chosen := scores[best]
		tr := reg.Create(chosen.past, chosen.cur)
		tr.FitX = chosen.fitX
		tr.FitY = chosen.fitY
		tr.FitOK = true

		past = removeItem(past, chosen.past.Index)
		cur = removeItem(cur, chosen.cur.Index)
	}
	return past, cur
}

func removeItem(items []Item, index int) []Item {
	out := items[:0]
	for _, it := range items {
		if it.Index != index {
			out = append(out, it)
		}
	}
	return out
}
