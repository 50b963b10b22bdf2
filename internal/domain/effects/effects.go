// Package effects contains the per-kind motion and value functions of interference effects.
// Functions are stateless given the effect data they receive; randomness is injected.
package effects

import (
	"math"
	"math/rand/v2"

	"github.com/MRamiBalles/ComfortBath/server/internal/domain/bath"
)

// Electric leakage
const (
	ElectricOffsetRange   = 0.1
	ElectricRefreshPeriod = 1.0 // seconds
)

// Bubble obstruction
const (
	MinBubbles          = 5
	MaxBubbles          = 8
	BubblePlaceAttempts = 10
	bubbleMinSize       = 0.08
	bubbleMaxSize       = 0.14
	bubbleTopLimit      = 0.1
	bubbleBottomLimit   = 0.8
)

// Falling items
const (
	FallSpeed           = 0.25 // playfield heights per second
	CatchBandTop        = 0.75
	CatchBandBottom     = 0.9
	MinFallingSpawnWait = 1.5
	MaxFallingSpawnWait = 3.0
)

// Cold wind
const (
	MinInitialWind   = 2
	MaxInitialWind   = 4
	MinWindPuffs     = 2
	MaxWindPuffs     = 5
	MinWindSpawnWait = 0.8
	MaxWindSpawnWait = 1.6
	windMargin       = 0.2 // off-screen spawn distance
	windFadeWidth    = 0.3
	windMaxOpacity   = 0.7
	windMinSpeed     = 0.3
	windMaxSpeed     = 0.6
)

var itemEffects = map[bath.FallingItemKind]float64{
	bath.ItemRubberDuck: 0.08,
	bath.ItemBathBomb:   0.05,
	bath.ItemSponge:     0.03,
	bath.ItemAlarmClock: -0.06,
	bath.ItemIceCube:    -0.10,
}

var itemKinds = []bath.FallingItemKind{
	bath.ItemRubberDuck,
	bath.ItemBathBomb,
	bath.ItemSponge,
	bath.ItemAlarmClock,
	bath.ItemIceCube,
}

// RandRange returns a uniform value in [lo, hi).
func RandRange(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// ElectricOffset rolls a new displayed-temperature jitter.
func ElectricOffset(rng *rand.Rand) float64 {
	return RandRange(rng, -ElectricOffsetRange, ElectricOffsetRange)
}

// ItemEffect returns the signed comfort effect of an item kind.
func ItemEffect(kind bath.FallingItemKind) float64 {
	return itemEffects[kind]
}

// NewBubble builds a bubble with randomized motion parameters at the given position.
func NewBubble(rng *rand.Rand, id int, x, y, size float64) bath.Bubble {
	return bath.Bubble{
		ID:            id,
		X:             x,
		Y:             y,
		Size:          size,
		Opacity:       RandRange(rng, 0.55, 0.85),
		FallSpeed:     RandRange(rng, 0.03, 0.07),
		DriftSpeed:    RandRange(rng, -0.02, 0.02),
		SwayAmplitude: RandRange(rng, 0.01, 0.03),
		SwayFrequency: RandRange(rng, 0.3, 0.8),
		Phase:         RandRange(rng, 0, 2*math.Pi),
	}
}

// PlaceBubbles lays out n bubbles without overlaps. Each bubble gets BubblePlaceAttempts
// random tries before it falls back to its slot in a grid.
func PlaceBubbles(rng *rand.Rand, n int, nextID func() int) []bath.Bubble {
	placed := make([]bath.Bubble, 0, n)
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	rows := (n + cols - 1) / cols

	for i := 0; i < n; i++ {
		size := RandRange(rng, bubbleMinSize, bubbleMaxSize)
		x, y, ok := 0.0, 0.0, false
		for attempt := 0; attempt < BubblePlaceAttempts; attempt++ {
			x = RandRange(rng, size/2, 1-size/2)
			y = RandRange(rng, bubbleTopLimit, bubbleBottomLimit)
			if !overlapsAny(placed, x, y, size) {
				ok = true
				break
			}
		}
		if !ok {
			x, y = gridSlot(i, cols, rows)
		}
		placed = append(placed, NewBubble(rng, nextID(), x, y, size))
	}
	return placed
}

func overlapsAny(placed []bath.Bubble, x, y, size float64) bool {
	for _, b := range placed {
		minDist := (b.Size + size) / 2
		if math.Hypot(b.X-x, b.Y-y) < minDist {
			return true
		}
	}
	return false
}

func gridSlot(i, cols, rows int) (x, y float64) {
	col, row := i%cols, i/cols
	x = (float64(col) + 0.5) / float64(cols)
	y = bubbleTopLimit + (float64(row)+0.5)/float64(rows)*(bubbleBottomLimit-bubbleTopLimit)
	return x, y
}

func sway(b bath.Bubble, t float64) float64 {
	return b.SwayAmplitude * math.Sin(2*math.Pi*b.SwayFrequency*t+b.Phase)
}

// StepBubble advances a bubble by dt at play time t. A bubble that leaves the
// bottom is recycled above the top at a new horizontal position.
func StepBubble(b bath.Bubble, dt, t float64, rng *rand.Rand) bath.Bubble {
	b.Y += b.FallSpeed * dt
	b.X += b.DriftSpeed*dt + sway(b, t) - sway(b, t-dt)

	// Wrap horizontally
	if b.X < -b.Size/2 {
		b.X = 1 + b.Size/2
	} else if b.X > 1+b.Size/2 {
		b.X = -b.Size / 2
	}

	if b.Y-b.Size/2 > 1 {
		b.Y = -b.Size / 2
		b.X = RandRange(rng, b.Size/2, 1-b.Size/2)
	}
	return b
}

// NewFallingObject spawns a random collectible at the top of the playfield.
func NewFallingObject(rng *rand.Rand, id int) bath.FallingObject {
	kind := itemKinds[rng.IntN(len(itemKinds))]
	return bath.FallingObject{
		ID:            id,
		Kind:          kind,
		X:             RandRange(rng, 0.1, 0.9),
		Y:             0,
		ComfortEffect: itemEffects[kind],
	}
}

// StepFalling advances a falling object at constant speed.
func StepFalling(o bath.FallingObject, dt float64) bath.FallingObject {
	o.Y += FallSpeed * dt
	return o
}

// InCatchBand reports whether a center action would catch the object.
func InCatchBand(o bath.FallingObject) bool {
	return o.Y >= CatchBandTop && o.Y <= CatchBandBottom
}

// OutOfField reports whether the object fell past the bottom.
func OutOfField(o bath.FallingObject) bool {
	return o.Y > 1
}

// FallingSpawnWait rolls the delay before the next falling object.
func FallingSpawnWait(rng *rand.Rand) float64 {
	return RandRange(rng, MinFallingSpawnWait, MaxFallingSpawnWait)
}

// NewWindPuff spawns a gust just off-screen on a random side.
func NewWindPuff(rng *rand.Rand, id int) bath.WindPuff {
	p := bath.WindPuff{
		ID:    id,
		Y:     RandRange(rng, 0.1, 0.9),
		Speed: RandRange(rng, windMinSpeed, windMaxSpeed),
	}
	if rng.IntN(2) == 0 {
		p.Direction = bath.WindRight
		p.X = -windMargin
	} else {
		p.Direction = bath.WindLeft
		p.X = 1 + windMargin
	}
	return p
}

// StepWind moves a puff and recomputes its opacity: it fades in after entering from its
// spawn side and fades out approaching the opposite edge.
func StepWind(p bath.WindPuff, dt float64) bath.WindPuff {
	var entered, remaining float64
	if p.Direction == bath.WindRight {
		p.X += p.Speed * dt
		entered = p.X + windMargin
		remaining = 1 + windMargin - p.X
	} else {
		p.X -= p.Speed * dt
		entered = 1 + windMargin - p.X
		remaining = p.X + windMargin
	}
	fade := math.Min(entered, remaining) / windFadeWidth
	p.Opacity = windMaxOpacity * math.Max(0, math.Min(1, fade))
	return p
}

// WindGone reports whether a puff is fully off-screen opposite its spawn side.
func WindGone(p bath.WindPuff) bool {
	if p.Direction == bath.WindRight {
		return p.X >= 1+windMargin
	}
	return p.X <= -windMargin
}

// WindSpawnWait rolls the delay before the next optional puff.
func WindSpawnWait(rng *rand.Rand) float64 {
	return RandRange(rng, MinWindSpawnWait, MaxWindSpawnWait)
}
