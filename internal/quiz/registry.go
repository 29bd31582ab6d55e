package quiz

import (
	"math/rand"
	"sync"
	"time"
)

// 房間代碼使用去除易混淆字元的字母表（排除 0/O、1/I/L）
const codeAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"
const codeLength = 6

// Registry 管理房間代碼到存活房間的對應。
// 鎖只保護這張表本身，房間各自在自己的 goroutine 中運作，互不阻塞。
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	rng   *rand.Rand

	store               SummaryStore
	defaultQuestionTime int
	idleTimeout         time.Duration
}

// NewRegistry 建立房間註冊表
func NewRegistry(store SummaryStore, defaultQuestionTime int, idleTimeout time.Duration) *Registry {
	return &Registry{
		rooms:               make(map[string]*Room),
		rng:                 rand.New(rand.NewSource(time.Now().UnixNano())),
		store:               store,
		defaultQuestionTime: defaultQuestionTime,
		idleTimeout:         idleTimeout,
	}
}

// Create 建立新房間並啟動其事件迴圈，回傳房間供主持人連線使用
func (g *Registry) Create(hostID uint, hostName string, set *QuestionSet, opts Options, hostConn Sender) (*Room, error) {
	if set == nil || set.Len() == 0 {
		return nil, ErrEmptySet
	}
	if err := opts.Normalize(g.defaultQuestionTime); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	code := g.generateCode()
	strategy := NewStrategy(opts, rand.New(rand.NewSource(g.rng.Int63())))
	room := newRoom(code, hostID, hostName, set, opts, strategy, g.store, hostConn, g.Evict)
	g.rooms[code] = room
	go room.run()
	return room, nil
}

// Lookup 以房間代碼查詢存活房間
func (g *Registry) Lookup(code string) (*Room, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	room, ok := g.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// Evict 將房間自註冊表移除並停止其事件迴圈。
// 代碼只對存活房間查重，移除後即可重複使用。
func (g *Registry) Evict(code string) {
	g.mu.Lock()
	room, ok := g.rooms[code]
	delete(g.rooms, code)
	g.mu.Unlock()

	if ok {
		room.Stop()
	}
}

// Count 目前存活的房間數
func (g *Registry) Count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}

// generateCode 產生未被存活房間占用的短代碼，呼叫端須持有寫鎖
func (g *Registry) generateCode() string {
	for {
		buf := make([]byte, codeLength)
		for i := range buf {
			buf[i] = codeAlphabet[g.rng.Intn(len(codeAlphabet))]
		}
		code := string(buf)
		if _, taken := g.rooms[code]; !taken {
			return code
		}
	}
}

// StartJanitor 啟動背景回收：已結束、或閒置逾時且無連線的房間定期移除。
// 回傳停止函式。
func (g *Registry) StartJanitor(interval time.Duration) func() {
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				g.sweep()
			}
		}
	}()
	return func() { close(stop) }
}

func (g *Registry) sweep() {
	g.mu.RLock()
	var stale []string
	for code, room := range g.rooms {
		if room.Ended() ||
			(room.Connections() == 0 && time.Since(room.LastActive()) > g.idleTimeout) {
			stale = append(stale, code)
		}
	}
	g.mu.RUnlock()

	for _, code := range stale {
		g.Evict(code)
	}
}
