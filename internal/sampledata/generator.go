// Package sampledata generates realistic tournament results and ratings for
// demos and load checks.
package sampledata

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/okian/podium/internal/adapters/ratings"
	"github.com/okian/podium/internal/domain/model"
)

const (
	defaultPlayers     = 64
	defaultTournaments = 12
	defaultDrawSize    = 16
	defaultScaleName   = "U18"
	maxLevel           = 5
	// upsetChance is the probability the lower rated player wins a match.
	upsetChance = 0.25
)

// Dataset is a generated season.
type Dataset struct {
	Results []model.ParticipantResult `json:"results" yaml:"results"`
	Ratings []ratings.ScaleItem       `json:"scales" yaml:"scales"`
}

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithSeed makes generation reproducible.
func WithSeed(seed uint64) Option {
	return func(g *Generator) {
		g.seed = seed
	}
}

// WithPlayers sets the size of the player pool.
func WithPlayers(n int) Option {
	return func(g *Generator) {
		if n > 1 {
			g.players = n
		}
	}
}

// WithTournaments sets how many tournaments the season has.
func WithTournaments(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.tournaments = n
		}
	}
}

// WithDrawSize sets the singles draw size, rounded down to a power of two.
func WithDrawSize(n int) Option {
	return func(g *Generator) {
		if n >= 2 {
			g.drawSize = floorPow2(n)
		}
	}
}

// WithSeasonStart sets the date of the first tournament.
func WithSeasonStart(t time.Time) Option {
	return func(g *Generator) {
		if !t.IsZero() {
			g.start = t
		}
	}
}

// WithScaleName sets the ranking scale the generated ratings use.
func WithScaleName(name string) Option {
	return func(g *Generator) {
		if name != "" {
			g.scaleName = name
		}
	}
}

// Generator builds seasons of single-elimination tournaments.
type Generator struct {
	seed        uint64
	players     int
	tournaments int
	drawSize    int
	start       time.Time
	scaleName   string
	namespace   uuid.UUID
}

type player struct {
	personID      string
	participantID string
	strength      int // lower is stronger
}

// NewGenerator creates a generator with configuration options.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		seed:        1,
		players:     defaultPlayers,
		tournaments: defaultTournaments,
		drawSize:    defaultDrawSize,
		start:       time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC),
		scaleName:   defaultScaleName,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.namespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("podium-sample-%d", g.seed)))
	return g
}

// id derives a stable uuid for name under the generator's seed.
func (g *Generator) id(name string) string {
	return uuid.NewSHA1(g.namespace, []byte(name)).String()
}

// Generate builds the season. The same options always produce the same data.
func (g *Generator) Generate() Dataset {
	rng := rand.New(rand.NewPCG(g.seed, g.seed^0x9e3779b97f4a7c15))
	pool := make([]player, g.players)
	for i := range pool {
		pool[i] = player{
			personID:      g.id(fmt.Sprintf("person-%d", i)),
			participantID: g.id(fmt.Sprintf("entry-%d", i)),
			strength:      i + 1,
		}
	}

	var ds Dataset
	for i, p := range pool {
		ds.Ratings = append(ds.Ratings, ratings.ScaleItem{
			ParticipantID: p.participantID,
			ScaleName:     g.scaleName,
			ScaleDate:     g.start.AddDate(0, 0, -1),
			ScaleValue:    float64(i + 1),
		})
	}

	for t := 0; t < g.tournaments; t++ {
		tournamentID := g.id(fmt.Sprintf("tournament-%d", t))
		start := g.start.AddDate(0, 0, 7*t)
		level := t%maxLevel + 1

		size := floorPow2(min(g.drawSize, len(pool)))
		entrants := pick(rng, pool, size)
		ds.Results = append(ds.Results, g.playDraw(rng, tournamentID, level, start, entrants)...)
	}
	return ds
}

// pick returns n distinct players in random draw order.
func pick(rng *rand.Rand, pool []player, n int) []player {
	idx := rng.Perm(len(pool))[:n]
	out := make([]player, n)
	for i, j := range idx {
		out[i] = pool[j]
	}
	return out
}

type standing struct {
	p      player
	wins   []model.Win
	finish []int
}

// playDraw runs a single-elimination draw. Losers of round r in a draw of
// size S finish in the range [S/2^r + 1, S/2^(r-1)].
func (g *Generator) playDraw(rng *rand.Rand, tournamentID string, level int, start time.Time, entrants []player) []model.ParticipantResult {
	byID := make(map[string]*standing, len(entrants))
	alive := make([]*standing, len(entrants))
	for i, p := range entrants {
		s := &standing{p: p}
		byID[p.participantID] = s
		alive[i] = s
	}

	size := len(entrants)
	for round := 1; len(alive) > 1; round++ {
		date := start.AddDate(0, 0, round-1)
		next := make([]*standing, 0, len(alive)/2)
		for m := 0; m+1 < len(alive); m += 2 {
			a, b := alive[m], alive[m+1]
			winner, loser := a, b
			if b.p.strength < a.p.strength {
				winner, loser = b, a
			}
			if rng.Float64() < upsetChance {
				winner, loser = loser, winner
			}
			winner.wins = append(winner.wins, model.Win{
				MatchUpID:             g.id(fmt.Sprintf("%s-r%d-m%d", tournamentID, round, m/2)),
				OpponentParticipantID: loser.p.participantID,
				Date:                  date,
			})
			loser.finish = []int{size>>round + 1, size >> (round - 1)}
			next = append(next, winner)
		}
		alive = next
	}
	if len(alive) == 1 {
		alive[0].finish = []int{1, 1}
	}

	end := start.AddDate(0, 0, rounds(size)-1)
	results := make([]model.ParticipantResult, 0, len(entrants))
	for _, p := range entrants {
		s := byID[p.participantID]
		results = append(results, model.ParticipantResult{
			ParticipantID:   p.participantID,
			ParticipantType: model.ParticipantIndividual,
			PersonIDs:       []string{p.personID},
			TournamentID:    tournamentID,
			EventType:       model.EventSingles,
			Level:           level,
			StartDate:       start,
			EndDate:         end,
			Participations: []model.StructureParticipation{{
				DrawID:                 tournamentID + "-main",
				DrawType:               "MAIN",
				FinishingPositionRange: s.finish,
				Wins:                   s.wins,
			}},
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Participations[0].RangeAccessor() < results[j].Participations[0].RangeAccessor()
	})
	return results
}

// rounds returns the number of rounds needed for a draw of size n.
func rounds(n int) int {
	r := 0
	for n > 1 {
		n >>= 1
		r++
	}
	return r
}

func floorPow2(n int) int {
	size := 1
	for size*2 <= n {
		size *= 2
	}
	return size
}
