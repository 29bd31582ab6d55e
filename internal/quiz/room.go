package quiz

import (
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// State 房間生命週期狀態
type State int

const (
	StateLobby     State = iota // 等待參加者加入
	StateActive                 // 回合進行中，收集作答
	StateRevealing              // 揭曉中，等待主持人進入下一回合
	StateEnded                  // 遊戲結束
)

type eventKind int

const (
	evJoin eventKind = iota
	evMessage
	evTimeout
	evDisconnect
)

// envelope 房間信箱中的一則事件
type envelope struct {
	kind   eventKind
	userID uint
	name   string
	conn   Sender
	msg    *InboundMessage
	gen    int // 計時器世代，用於忽略過期的逾時事件
}

// Room 一個獨立的測驗房間。
// 所有內部狀態只由 run 這條 goroutine 存取，事件經由信箱依序處理，
// 因此房間內部不需要鎖。
type Room struct {
	Code     string
	hostID   uint
	hostName string
	set      *QuestionSet
	opts     Options
	strategy Strategy
	store    SummaryStore
	onEnd    func(code string)

	state        State
	current      int // 回合索引，從 0 嚴格遞增
	deadline     time.Time
	timer        *time.Timer
	timerGen     int
	participants []*Participant
	byID         map[uint]*Participant
	hostConn     Sender
	answers      []Answer
	history      []RoundResult

	inbox    chan envelope
	done     chan struct{}
	stopOnce sync.Once

	// 以下由回收器跨 goroutine 讀取
	ended      atomic.Bool
	connCount  atomic.Int32
	lastActive atomic.Int64
}

func newRoom(code string, hostID uint, hostName string, set *QuestionSet, opts Options,
	strategy Strategy, store SummaryStore, hostConn Sender, onEnd func(string)) *Room {
	r := &Room{
		Code:     code,
		hostID:   hostID,
		hostName: hostName,
		set:      set,
		opts:     opts,
		strategy: strategy,
		store:    store,
		onEnd:    onEnd,
		state:    StateLobby,
		current:  -1,
		byID:     make(map[uint]*Participant),
		hostConn: hostConn,
		inbox:    make(chan envelope, 256),
		done:     make(chan struct{}),
	}
	r.syncConnCount()
	r.touch()
	return r
}

// Options 房間的模式設定
func (r *Room) Options() Options {
	return r.opts
}

// run 房間的事件迴圈，每個房間一條 goroutine
func (r *Room) run() {
	for {
		select {
		case <-r.done:
			r.cancelTimer()
			return
		case ev := <-r.inbox:
			r.dispatch(ev)
		}
	}
}

// post 將事件排入信箱；房間已停止時丟棄
func (r *Room) post(ev envelope) {
	select {
	case <-r.done:
	case r.inbox <- ev:
	}
}

// Join 參加者（或重連的主持人）帶著連線加入房間
func (r *Room) Join(userID uint, name string, conn Sender) {
	r.post(envelope{kind: evJoin, userID: userID, name: name, conn: conn})
}

// HandleMessage 將一則已解碼的入站訊息交給房間處理
func (r *Room) HandleMessage(userID uint, msg *InboundMessage) {
	r.post(envelope{kind: evMessage, userID: userID, msg: msg})
}

// Disconnect 通知房間某條連線已中斷。
// 參加者的遊戲狀態保留，重新加入即可繼續。
func (r *Room) Disconnect(userID uint, conn Sender) {
	r.post(envelope{kind: evDisconnect, userID: userID, conn: conn})
}

// Stop 停止房間的事件迴圈並取消未觸發的計時器
func (r *Room) Stop() {
	r.stopOnce.Do(func() {
		r.ended.Store(true)
		close(r.done)
	})
}

// Ended 房間是否已結束（供回收器讀取）
func (r *Room) Ended() bool {
	return r.ended.Load()
}

// Connections 目前的連線數（供回收器讀取）
func (r *Room) Connections() int {
	return int(r.connCount.Load())
}

// LastActive 最近一次活動時間（供回收器讀取）
func (r *Room) LastActive() time.Time {
	return time.Unix(r.lastActive.Load(), 0)
}

func (r *Room) touch() {
	r.lastActive.Store(time.Now().Unix())
}

func (r *Room) syncConnCount() {
	count := 0
	if r.hostConn != nil {
		count++
	}
	for _, p := range r.participants {
		if p.Connected() {
			count++
		}
	}
	r.connCount.Store(int32(count))
}

func (r *Room) dispatch(ev envelope) {
	switch ev.kind {
	case evJoin:
		r.handleJoin(ev)
	case evDisconnect:
		r.handleDisconnect(ev)
	case evMessage:
		r.handleMessage(ev)
	case evTimeout:
		// 逾時與最後一筆作答是競速事件：已離開 Active 或世代不符的
		// 逾時一律視為無效
		if r.state == StateActive && ev.gen == r.timerGen {
			r.reveal()
		}
	}
}

func (r *Room) handleJoin(ev envelope) {
	r.touch()

	// 主持人重連
	if ev.userID == r.hostID {
		if r.hostConn != nil && r.hostConn != ev.conn {
			r.hostConn.Close()
		}
		r.hostConn = ev.conn
		r.syncConnCount()
		r.sendState(ev.conn)
		return
	}

	// 參加者重連：取回原本的遊戲狀態
	if p, ok := r.byID[ev.userID]; ok {
		if p.conn != nil && p.conn != ev.conn {
			p.conn.Close()
		}
		p.conn = ev.conn
		r.syncConnCount()
		ev.conn.Send(JoinedMsg{Type: OutJoined, Mode: r.opts.Mode})
		r.sendState(ev.conn)
		if r.state == StateActive {
			q := r.set.Questions[r.current]
			ev.conn.Send(QuestionMsg{
				Type:     OutNext,
				Current:  r.current,
				Question: q.ForClient(),
				EndsAt:   r.deadline.UnixMilli(),
			})
		}
		return
	}

	// 新參加者只能在大廳階段加入
	if r.state != StateLobby {
		ev.conn.Send(NewErrorMsg(ErrGameStarted))
		ev.conn.Close()
		return
	}

	p := &Participant{
		ID:        ev.userID,
		Name:      ev.name,
		JoinOrder: len(r.participants),
		Lives:     r.opts.Lives,
		Answer:    noAnswer,
		conn:      ev.conn,
	}
	r.participants = append(r.participants, p)
	r.byID[p.ID] = p
	r.syncConnCount()

	ev.conn.Send(JoinedMsg{Type: OutJoined, Mode: r.opts.Mode})
	r.broadcast(StateMsg{Type: OutState, Participants: buildLeaderboard(r.participants), Mode: r.opts.Mode})
}

func (r *Room) handleDisconnect(ev envelope) {
	r.touch()

	if ev.userID == r.hostID {
		if r.hostConn == ev.conn {
			r.hostConn = nil
			r.syncConnCount()
		}
		return
	}

	p, ok := r.byID[ev.userID]
	if !ok || p.conn != ev.conn {
		return
	}
	p.conn = nil
	r.syncConnCount()

	// 斷線縮小了完成作答所需的集合，可能讓本回合就此到齊
	if r.state == StateActive {
		r.checkComplete()
	}
}

func (r *Room) handleMessage(ev envelope) {
	r.touch()

	switch ev.msg.Kind {
	case InStart:
		r.handleStart(ev.userID)
	case InNext:
		r.handleNext(ev.userID)
	case InAnswer:
		r.handleAnswer(ev.userID, ev.msg.Answer.Answer)
	default:
		// host / join 由連線入口處理，進到房間信箱的一律忽略
	}
}

func (r *Room) handleStart(userID uint) {
	if userID != r.hostID {
		r.sendTo(userID, NewErrorMsg(ErrUnauthorized))
		return
	}
	if r.state != StateLobby {
		r.sendTo(userID, NewErrorMsg(ErrInvalidTransition))
		return
	}
	if r.connectedCount() == 0 {
		r.sendTo(userID, NewErrorMsg(ErrNoParticipants))
		return
	}
	r.beginRound(0)
}

func (r *Room) handleNext(userID uint) {
	if userID != r.hostID {
		r.sendTo(userID, NewErrorMsg(ErrUnauthorized))
		return
	}
	if r.state != StateRevealing {
		r.sendTo(userID, NewErrorMsg(ErrInvalidTransition))
		return
	}
	if r.current+1 >= r.set.Len() {
		r.endGame()
		return
	}
	r.beginRound(r.current + 1)
}

func (r *Room) handleAnswer(userID uint, index int) {
	// 非作答階段收到的作答靜默忽略，不影響房間
	if r.state != StateActive {
		return
	}
	p, ok := r.byID[userID]
	if !ok || p.Eliminated {
		return
	}
	// 每回合最多一筆作答，後到的不覆寫、不計入
	if p.Answer != noAnswer {
		return
	}
	q := r.set.Questions[r.current]
	if index < 0 || index >= len(q.Choices) {
		r.sendTo(userID, NewErrorMsg(ErrInvalidAnswer))
		return
	}

	now := time.Now()
	p.Answer = index
	p.AnswerAt = now
	r.answers = append(r.answers, Answer{UserID: userID, Index: index, At: now})

	r.broadcast(ProgressMsg{Type: OutProgress, Answered: r.answeredCount(), Total: r.requiredCount()})
	r.checkComplete()
}

// beginRound 進入第 i 回合：重置作答、排程截止計時器、廣播題目
func (r *Room) beginRound(i int) {
	r.state = StateActive
	r.current = i
	r.answers = nil
	for _, p := range r.participants {
		p.Answer = noAnswer
		p.AnswerAt = time.Time{}
	}

	dur := time.Duration(r.opts.QuestionTime) * time.Second
	r.deadline = time.Now().Add(dur)
	r.cancelTimer()
	r.timerGen++
	gen := r.timerGen
	r.timer = time.AfterFunc(dur, func() {
		r.post(envelope{kind: evTimeout, gen: gen})
	})

	typ := OutStart
	if i > 0 {
		typ = OutNext
	}
	q := r.set.Questions[i]
	r.broadcast(QuestionMsg{Type: typ, Current: i, Question: q.ForClient(), EndsAt: r.deadline.UnixMilli()})
}

func (r *Room) cancelTimer() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

// requiredCount 本回合需要作答的人數：在線且未被淘汰者
func (r *Room) requiredCount() int {
	count := 0
	for _, p := range r.participants {
		if p.Connected() && !p.Eliminated {
			count++
		}
	}
	return count
}

func (r *Room) answeredCount() int {
	count := 0
	for _, p := range r.participants {
		if p.Connected() && !p.Eliminated && p.Answer != noAnswer {
			count++
		}
	}
	return count
}

func (r *Room) connectedCount() int {
	count := 0
	for _, p := range r.participants {
		if p.Connected() {
			count++
		}
	}
	return count
}

func (r *Room) aliveCount() int {
	count := 0
	for _, p := range r.participants {
		if !p.Eliminated {
			count++
		}
	}
	return count
}

// checkComplete 在線且未淘汰者全數作答即提前揭曉，不等截止計時器
func (r *Room) checkComplete() {
	if r.state != StateActive {
		return
	}
	required := r.requiredCount()
	if required > 0 && r.answeredCount() == required {
		r.reveal()
	}
}

// reveal 結算本回合：套用計分策略、封存回合結果、廣播揭曉
func (r *Room) reveal() {
	r.cancelTimer()
	r.state = StateRevealing

	q := r.set.Questions[r.current]
	out := r.strategy.Score(r.answers, q, r.byID)
	r.apply(out)

	result := RoundResult{
		Round:        r.current,
		CorrectIndex: out.CorrectIndex,
		Counts:       out.Counts,
		Steals:       out.Steals,
		Eliminated:   out.Eliminated,
	}
	r.history = append(r.history, result)

	r.broadcast(RevealMsg{
		Type:         OutReveal,
		CorrectIndex: out.CorrectIndex,
		Counts:       out.Counts,
		Leaderboard:  buildLeaderboard(r.participants),
		Steals:       out.Steals,
		Eliminated:   out.Eliminated,
	})

	// 最後一題，或淘汰賽剩不到兩位存活者，直接結束
	if r.current == r.set.Len()-1 ||
		(r.opts.Mode == ModeRoyale && r.aliveCount() < 2) {
		r.endGame()
	}
}

// apply 將策略產出的差額與事件套用到參加者狀態
func (r *Room) apply(out RoundOutcome) {
	for id, delta := range out.ScoreDeltas {
		if p, ok := r.byID[id]; ok {
			p.Score += delta
		}
	}
	for id, delta := range out.GoldDeltas {
		if p, ok := r.byID[id]; ok {
			p.Gold += delta
		}
	}
	for id, delta := range out.LivesDeltas {
		if p, ok := r.byID[id]; ok {
			p.Lives += delta
		}
	}
	for _, id := range out.Eliminated {
		if p, ok := r.byID[id]; ok {
			p.Eliminated = true
		}
	}
	// 金幣爭奪模式的排行榜名次以金幣餘額計
	if r.opts.Mode == ModeGold {
		for _, p := range r.participants {
			p.Score = p.Gold
		}
	}
}

// endGame 廣播最終排行榜、建立摘要並交給持久化協作者。
// 持久化在廣播之後進行，遊戲體驗不等待儲存結果。
func (r *Room) endGame() {
	if r.state == StateEnded {
		return
	}
	r.state = StateEnded
	r.ended.Store(true)
	r.cancelTimer()

	leaderboard := buildLeaderboard(r.participants)
	r.broadcast(EndMsg{Type: OutEnd, Leaderboard: leaderboard, RoomID: r.Code})

	summary := &Summary{
		RoomID:      r.Code,
		Mode:        r.opts.Mode,
		Options:     r.opts,
		Leaderboard: leaderboard,
		Rounds:      r.history,
		CreatedAt:   time.Now(),
	}
	onEnd := r.onEnd
	store := r.store
	code := r.Code
	go func() {
		if store != nil {
			if err := store.Save(summary); err != nil {
				log.Printf("save summary for room %s: %v", code, err)
			}
		}
		if onEnd != nil {
			onEnd(code)
		}
	}()
}

// sendState 將房間現況送給單一連線（重連同步用）
func (r *Room) sendState(conn Sender) {
	conn.Send(StateMsg{Type: OutState, Participants: buildLeaderboard(r.participants), Mode: r.opts.Mode})
}

// sendTo 送訊息給指定用戶目前的連線，已斷線則為 no-op
func (r *Room) sendTo(userID uint, v interface{}) {
	var conn Sender
	if userID == r.hostID {
		conn = r.hostConn
	} else if p, ok := r.byID[userID]; ok {
		conn = p.conn
	}
	if conn != nil {
		conn.Send(v)
	}
}

// broadcast 向主持人與所有在線參加者廣播。
// 送往佇列已滿的慢速連線時直接斷開該連線，絕不阻塞房間信箱。
func (r *Room) broadcast(v interface{}) {
	if r.hostConn != nil && !r.hostConn.Send(v) {
		r.hostConn.Close()
		r.hostConn = nil
	}
	for _, p := range r.participants {
		if p.conn == nil {
			continue
		}
		if !p.conn.Send(v) {
			p.conn.Close()
			p.conn = nil
		}
	}
	r.syncConnCount()
}
