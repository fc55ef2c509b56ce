package game

// Zone identifies where a card sits while it is interactable.
type Zone int

const (
	ZoneNone Zone = iota
	ZoneHand
	ZoneField
)

// Rect is an axis-aligned region in the shared pointer coordinate space.
type Rect struct {
	X, Y, W, H float64
}

func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// DragState is the controller's current phase.
type DragState int

const (
	DragIdle DragState = iota
	Dragging
)

// DropResult reports how a drag gesture resolved.
type DropResult int

const (
	DropNone DropResult = iota
	DroppedOnField
	DroppedOnHand
	DroppedOutside
	DragCancelled
)

// Drag translates raw pointer events into session operations. While a
// drag is live it is purely presentational; the session is only mutated
// when the gesture resolves. Pointer moves are sampled at most once per
// Frame tick, excess events between frames are dropped.
type Drag struct {
	session *Session
	field   Rect
	hand    Rect
	cardW   float64
	cardH   float64

	state  DragState
	cardID string
	source Zone
	// grab offset from the card's visual origin, so the drag keeps the
	// grab point instead of snapping the corner to the cursor
	grabDX, grabDY float64
	origin         Position
	hasOrigin      bool
	visualX        float64
	visualY        float64
	frameReady     bool
}

// DragConfig describes the zone geometry the controller classifies drops
// against. Card dimensions bound the clamp so a drop can never leave the
// card partly off-canvas.
type DragConfig struct {
	Field Rect
	Hand  Rect
	CardW float64
	CardH float64
}

func NewDrag(session *Session, cfg DragConfig) *Drag {
	return &Drag{
		session: session,
		field:   cfg.Field,
		hand:    cfg.Hand,
		cardW:   cfg.CardW,
		cardH:   cfg.CardH,
	}
}

func (d *Drag) State() DragState { return d.state }

// CardID reports the card being dragged, if any.
func (d *Drag) CardID() (string, bool) {
	return d.cardID, d.state == Dragging
}

// PointerDown starts a drag on a card the session actually holds in the
// claimed zone. cardX/cardY is the card's current visual origin.
func (d *Drag) PointerDown(cardID string, zone Zone, pointerX, pointerY, cardX, cardY float64) bool {
	if d.state != DragIdle {
		return false
	}
	switch zone {
	case ZoneHand:
		if !d.session.InHand(cardID) {
			return false
		}
		d.hasOrigin = false
	case ZoneField:
		pos, ok := d.session.PositionOf(cardID)
		if !ok {
			return false
		}
		d.origin = pos
		d.hasOrigin = true
	default:
		return false
	}
	d.state = Dragging
	d.cardID = cardID
	d.source = zone
	d.grabDX = pointerX - cardX
	d.grabDY = pointerY - cardY
	d.visualX = cardX
	d.visualY = cardY
	d.frameReady = true
	return true
}

// Frame marks the next pointer move as sampleable. The caller ticks this
// once per animation frame to bound the visual update rate.
func (d *Drag) Frame() {
	d.frameReady = true
}

// PointerMove updates the live visual offset. Returns false when the move
// was dropped, either because no drag is active or because no frame has
// elapsed since the last sampled move. The session is never touched here.
func (d *Drag) PointerMove(pointerX, pointerY float64) bool {
	if d.state != Dragging || !d.frameReady {
		return false
	}
	d.frameReady = false
	d.visualX = pointerX - d.grabDX
	d.visualY = pointerY - d.grabDY
	return true
}

// Visual reports the card's live position while dragging.
func (d *Drag) Visual() (x, y float64, ok bool) {
	if d.state != Dragging {
		return 0, 0, false
	}
	return d.visualX, d.visualY, true
}

// PointerUp resolves the gesture against the drop zones and applies the
// matching session operation.
func (d *Drag) PointerUp(pointerX, pointerY float64) DropResult {
	if d.state != Dragging {
		return DropNone
	}
	cardID, source := d.cardID, d.source
	d.reset()

	if d.field.Contains(pointerX, pointerY) {
		x, y := d.clampToField(pointerX-d.grabDX, pointerY-d.grabDY)
		if source == ZoneHand {
			if !d.session.MoveCardToPlayfield(cardID, x, y) {
				return DragCancelled
			}
		} else {
			if !d.session.UpdateCardPosition(cardID, x, y) {
				return DragCancelled
			}
		}
		return DroppedOnField
	}
	if source == ZoneField {
		if d.hand.Contains(pointerX, pointerY) {
			d.session.MoveCardToHand(cardID)
			return DroppedOnHand
		}
		// dropped outside every zone: permanent removal, no undo
		d.session.DiscardCard(cardID)
		return DroppedOutside
	}
	// hand card released with no valid target: nothing was ever mutated
	return DragCancelled
}

// Cancel abandons the gesture. The session was never mutated during the
// drag, so the card stays exactly where it was.
func (d *Drag) Cancel() {
	if d.state != Dragging {
		return
	}
	d.reset()
}

// PreDragPosition reports the position a field card held before the
// current gesture started, for presentational rollback.
func (d *Drag) PreDragPosition() (Position, bool) {
	return d.origin, d.hasOrigin && d.state == Dragging
}

// clampToField converts a drop point to playfield-local coordinates,
// clamped so the card stays fully on the canvas.
func (d *Drag) clampToField(x, y float64) (float64, float64) {
	x -= d.field.X
	y -= d.field.Y
	maxX := d.field.W - d.cardW
	maxY := d.field.H - d.cardH
	if maxX < 0 {
		maxX = 0
	}
	if maxY < 0 {
		maxY = 0
	}
	x = clamp(x, 0, maxX)
	y = clamp(y, 0, maxY)
	return x, y
}

func (d *Drag) reset() {
	d.state = DragIdle
	d.cardID = ""
	d.source = ZoneNone
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
