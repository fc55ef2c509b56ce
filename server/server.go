package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"cardtable/deck"
	"cardtable/game"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// envelope allowance on top of the configured import cap
	messageOverhead = 4096

	// drag frames tick at roughly the display rate; pointer moves between
	// ticks are dropped
	framePeriod = 16 * time.Millisecond
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Subscriber receives broadcast messages for one table.
type Subscriber struct {
	Channel chan []byte
}

// Broker fans table broadcasts out to subscribers. The in-memory
// implementation suffices for a single process; the interface leaves room
// for an external one.
type Broker interface {
	Subscribe(ctx context.Context, channel string) *Subscriber
	Unsubscribe(ctx context.Context, sub *Subscriber, channel string)
	Publish(ctx context.Context, channel string, message []byte) error
	Close()
}

type MemoryBroker struct {
	mutex       sync.Mutex
	subscribers map[string][]*Subscriber
	closed      bool
}

func NewMemoryBroker() Broker {
	return &MemoryBroker{subscribers: make(map[string][]*Subscriber)}
}

func (b *MemoryBroker) Subscribe(ctx context.Context, channel string) *Subscriber {
	sub := &Subscriber{Channel: make(chan []byte, 16)}
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.subscribers[channel] = append(b.subscribers[channel], sub)
	return sub
}

func (b *MemoryBroker) Unsubscribe(ctx context.Context, sub *Subscriber, channel string) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	close(sub.Channel)
	subs := b.subscribers[channel]
	for i, s := range subs {
		if s == sub {
			b.subscribers[channel] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
}

func (b *MemoryBroker) Publish(ctx context.Context, channel string, message []byte) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.closed {
		return nil
	}
	for _, sub := range b.subscribers[channel] {
		select {
		case sub.Channel <- message:
		default:
			// slow subscriber, drop instead of blocking the table
		}
	}
	return nil
}

func (b *MemoryBroker) Close() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, subs := range b.subscribers {
		for _, sub := range subs {
			close(sub.Channel)
		}
	}
	b.subscribers = make(map[string][]*Subscriber)
}

// Options configures a Server.
type Options struct {
	TokenSecret    string
	Debounce       time.Duration
	ImageBaseURL   string
	MaxImportBytes int
	Logger         *slog.Logger
}

type Server struct {
	repo        *Repository
	broker      Broker
	tokenSecret string
	debounce    time.Duration
	maxImport   int
	tts         *deck.TTSParser
	log         *slog.Logger

	mutex  sync.Mutex
	tables map[string]*Table
}

func New(repo *Repository, broker Broker, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxImportBytes <= 0 {
		opts.MaxImportBytes = deck.DefaultMaxImportBytes
	}
	ttsOpts := []deck.TTSOption{deck.WithMaxImportBytes(opts.MaxImportBytes)}
	if opts.ImageBaseURL != "" {
		ttsOpts = append(ttsOpts, deck.WithImageBaseURL(opts.ImageBaseURL))
	}
	return &Server{
		repo:        repo,
		broker:      broker,
		tokenSecret: opts.TokenSecret,
		debounce:    opts.Debounce,
		maxImport:   opts.MaxImportBytes,
		tts:         deck.NewTTSParser(ttsOpts...),
		log:         opts.Logger,
		tables:      make(map[string]*Table),
	}
}

// readLimit is the websocket read cap, sized so the largest legal deck
// import still reaches the parser.
func (s *Server) readLimit() int64 {
	return int64(s.maxImport + messageOverhead)
}

// table returns the running table for a session, creating and restoring
// it on first join.
func (s *Server) table(ctx context.Context, sessionID string) *Table {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if t, ok := s.tables[sessionID]; ok {
		select {
		case <-t.closed:
			// shut down between lookup and join, build a replacement
		default:
			return t
		}
	}
	t := newTable(sessionID, s)
	session, err := game.LoadSession(ctx, sessionID, s.repo,
		game.WithStore(s.repo, s.debounce),
		game.WithLogger(s.log),
		game.WithWarnFunc(t.warn),
	)
	if err != nil {
		s.log.Warn("could not restore session, starting from defaults",
			"session", sessionID, "error", err)
	}
	t.session = session
	s.tables[sessionID] = t
	go t.run()
	return t
}

func (s *Server) dropTable(t *Table) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.tables[t.ID] == t {
		delete(s.tables, t.ID)
	}
}

// command pairs an inbound message with the client that sent it. All
// session mutation happens on the table goroutine, one command at a time,
// so in-memory state always reflects the full ordered operation history.
type command struct {
	client *Client
	msg    *Message
}

// Table is one live session and the clients viewing it.
type Table struct {
	ID      string
	server  *Server
	session *game.Session

	clients    []*Client
	register   chan *Client
	unregister chan *Client
	commands   chan command
	warnings   chan string
	closed     chan struct{}
}

func newTable(id string, server *Server) *Table {
	return &Table{
		ID:         id,
		server:     server,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		commands:   make(chan command, 16),
		warnings:   make(chan string, 8),
		closed:     make(chan struct{}),
	}
}

// warn is the session's warning sink; it may be called from the save
// timer goroutine.
func (t *Table) warn(msg string) {
	select {
	case t.warnings <- msg:
	default:
	}
}

func (t *Table) run() {
	sub := t.server.broker.Subscribe(context.Background(), t.ID)
	frames := time.NewTicker(framePeriod)
	defer frames.Stop()
	for {
		select {
		case client := <-t.register:
			if client.gone() {
				if len(t.clients) == 0 {
					t.shutdown(sub)
					return
				}
				continue
			}
			t.clients = append(t.clients, client)
			client.sendMessage(&Message{Type: StateAction, State: stateView(t.session)})
		case client := <-t.unregister:
			for i, c := range t.clients {
				if c == client {
					t.clients = append(t.clients[:i], t.clients[i+1:]...)
					break
				}
			}
			if len(t.clients) == 0 {
				t.shutdown(sub)
				return
			}
		case cmd := <-t.commands:
			t.apply(cmd.client, cmd.msg)
		case msg := <-t.warnings:
			t.publish(&Message{Type: WarningAction, Text: msg})
		case <-frames.C:
			for _, c := range t.clients {
				if c.drag != nil {
					c.drag.Frame()
				}
			}
		case raw, ok := <-sub.Channel:
			if !ok {
				return
			}
			for _, c := range t.clients {
				select {
				case c.send <- raw:
				default:
					// slow client, drop rather than stall the table
				}
			}
		}
	}
}

func (t *Table) shutdown(sub *Subscriber) {
	close(t.closed)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	t.session.Flush(ctx)
	t.session.Close()
	t.server.broker.Unsubscribe(context.Background(), sub, t.ID)
	t.server.dropTable(t)
}

func (t *Table) publish(msg *Message) {
	if err := t.server.broker.Publish(context.Background(), t.ID, msg.encode()); err != nil {
		t.server.log.Error("publish failed", "table", t.ID, "error", err)
	}
}

func (t *Table) broadcastState() {
	t.publish(&Message{Type: StateAction, State: stateView(t.session)})
}

func (t *Table) apply(client *Client, msg *Message) {
	switch msg.Type {
	case DrawAction:
		if _, err := t.session.DrawCard(); err != nil {
			client.sendMessage(&Message{Type: WarningAction, Text: "deck is empty"})
			return
		}
		t.broadcastState()
	case MoveAction:
		if t.session.MoveCardToPlayfield(msg.CardID, msg.X, msg.Y) {
			t.broadcastState()
		}
	case PositionAction:
		if t.session.UpdateCardPosition(msg.CardID, msg.X, msg.Y) {
			t.broadcastState()
		}
	case ReturnAction:
		if t.session.MoveCardToHand(msg.CardID) {
			t.broadcastState()
		}
	case DiscardAction:
		if t.session.DiscardCard(msg.CardID) {
			t.broadcastState()
		}
	case ResetAction:
		t.session.ResetGame()
		t.broadcastState()
	case ImportAction:
		t.applyImport(client, msg)
	case ImportTTSAction:
		t.applyImportTTS(client, msg)
	case LayoutAction:
		if msg.Layout != nil {
			client.drag = game.NewDrag(t.session, game.DragConfig{
				Field: msg.Layout.Field,
				Hand:  msg.Layout.Hand,
				CardW: msg.Layout.CardW,
				CardH: msg.Layout.CardH,
			})
		}
	case PointerDownAction:
		if client.drag != nil {
			client.drag.PointerDown(msg.CardID, zoneFromString(msg.Zone), msg.X, msg.Y, msg.CardX, msg.CardY)
		}
	case PointerMoveAction:
		if client.drag != nil {
			client.drag.PointerMove(msg.X, msg.Y)
		}
	case PointerUpAction:
		if client.drag == nil {
			return
		}
		result := client.drag.PointerUp(msg.X, msg.Y)
		client.sendMessage(&Message{Type: DropAction, Result: dropResultString(result)})
		switch result {
		case game.DroppedOnField, game.DroppedOnHand, game.DroppedOutside:
			t.broadcastState()
		}
	case PointerCancelAction:
		if client.drag != nil {
			client.drag.Cancel()
		}
	}
}

func (t *Table) applyImport(client *Client, msg *Message) {
	raw, err := deck.ParseJSON(msg.Deck, t.server.maxImport)
	if err != nil {
		client.sendMessage(&Message{Type: ErrorAction, Errors: []string{err.Error()}})
		return
	}
	res := deck.ValidateDeckImport(raw)
	if !res.Valid {
		client.sendMessage(&Message{Type: ErrorAction, Errors: res.Errors, Warnings: res.Warnings})
		return
	}
	imp, err := deck.DecodeDeckImport(raw)
	if err != nil {
		client.sendMessage(&Message{Type: ErrorAction, Errors: []string{err.Error()}})
		return
	}
	cards := deck.CardsFromImport(imp)
	if msg.Dedupe {
		cards = deck.DedupeByName(cards)
	}
	if msg.Sort {
		deck.SortByName(cards)
	}
	t.session.ReplaceDeck(imp.Name, cards)
	t.broadcastState()
	if len(res.Warnings) > 0 {
		client.sendMessage(&Message{Type: WarningAction, Warnings: res.Warnings})
	}
}

func (t *Table) applyImportTTS(client *Client, msg *Message) {
	res := t.server.tts.Parse(msg.Text)
	if len(res.Codes) == 0 {
		errs := res.Warnings
		if len(errs) == 0 {
			errs = []string{"no codes found"}
		}
		client.sendMessage(&Message{Type: ErrorAction, Errors: errs})
		return
	}
	cards := deck.CardsFromCodes(res.Codes)
	if msg.Dedupe {
		cards = deck.DedupeByName(cards)
	}
	if msg.Sort {
		deck.SortByName(cards)
	}
	t.session.ReplaceDeck(deck.DeckNameFromCodes(res.Codes), cards)
	t.broadcastState()
	if len(res.Warnings) > 0 {
		client.sendMessage(&Message{Type: WarningAction, Warnings: res.Warnings})
	}
}

func zoneFromString(s string) game.Zone {
	switch s {
	case "hand":
		return game.ZoneHand
	case "field":
		return game.ZoneField
	}
	return game.ZoneNone
}

func dropResultString(r game.DropResult) string {
	switch r {
	case game.DroppedOnField:
		return "field"
	case game.DroppedOnHand:
		return "hand"
	case game.DroppedOutside:
		return "discarded"
	case game.DragCancelled:
		return "cancelled"
	}
	return "none"
}
