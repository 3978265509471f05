package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"quizbot/internal/leaderboard"
	"quizbot/internal/logger"
	"quizbot/internal/quiz"
)

// Prompt is an abstract outbound message. The transport decides how to
// render it; Options become a one-column reply keyboard when present.
type Prompt struct {
	Text           string
	Options        []string
	RemoveKeyboard bool
}

const topSize = 10

// User-facing copy, kept in one place so the flow below reads as a script.
const (
	msgGreeting = "Привет! Я бот-викторина по волейболу.\n" +
		"Для отмены в любой момент используйте /cancel.\n\n" +
		"Как тебя зовут?"
	msgAskName        = "Как тебя зовут?"
	msgPickCategory   = "Отлично, %s! Теперь выбери категорию викторины:"
	msgUnknownCat     = "Пожалуйста, выбери категорию из предложенных вариантов."
	msgCategoryChosen = "Вы выбрали категорию: %s.\nНачинаем викторину!\nЧтобы прервать, используйте /cancel."
	msgQuestion       = "Вопрос %d/%d:\n%s"
	msgCorrect        = "Верно! +1 очко.\nПравильный ответ: %s\nПояснение: %s"
	msgWrong          = "Неверно.\nПравильный ответ: %s\nПояснение: %s"
	msgRoundDone      = "Викторина завершена!\nТы набрал %d очк(а/ов) за эту игру.\nТвой общий счёт: %d."
	msgTopHeader      = "Топ-%d участников:"
	msgTopRow         = "%d. %s: %d очков"
	msgTopEmpty       = "В рейтинге пока никого нет."
	msgCancelled      = "Викторина прервана. Возвращайся снова!"
	msgCommitFailed   = "Не удалось сохранить результат раунда: рейтинг временно недоступен. Попробуйте позже."
	msgTopUnavailable = "Рейтинг временно недоступен."
)

// Machine executes conversation transitions against the session registry.
type Machine struct {
	catalog  *quiz.Catalog
	store    leaderboard.Store
	sessions *Registry
	newRand  func() *rand.Rand
}

// Option customises machine construction.
type Option func(*Machine)

// WithRand injects the random source factory used for shuffling.
// Production uses a time-seeded source; tests inject a fixed seed.
func WithRand(factory func() *rand.Rand) Option {
	return func(m *Machine) {
		if factory != nil {
			m.newRand = factory
		}
	}
}

// NewMachine wires the state machine to its collaborators.
func NewMachine(catalog *quiz.Catalog, store leaderboard.Store, sessions *Registry, opts ...Option) *Machine {
	m := &Machine{
		catalog:  catalog,
		store:    store,
		sessions: sessions,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Sessions exposes the registry for transport-level policies (idle timeout,
// diagnostics).
func (m *Machine) Sessions() *Registry {
	return m.sessions
}

// commitOp carries a finished round's data out of the session critical
// section so the store write runs without the player's session lock held.
type commitOp struct {
	feedback    string
	displayName string
	category    string
	score       int
}

// effects is store work a step defers until the session lock is released.
type effects struct {
	registerName string
	commit       *commitOp
}

// Start begins (or restarts) the conversation for a player.
func (m *Machine) Start(ctx context.Context, playerID int64) []Prompt {
	restarted := false
	_ = m.sessions.Do(playerID, func(st *State) error {
		restarted = st.InRound()
		st.reset()
		st.Phase = PhaseAwaitingName
		return nil
	})
	cause := "start"
	if restarted {
		cause = "restart_mid_round"
	}
	m.logTransition(ctx, playerID, PhaseAwaitingName, cause)
	return []Prompt{{Text: msgGreeting}}
}

// Cancel aborts any in-progress round. Cancelling an idle session is a
// no-op beyond the notice.
func (m *Machine) Cancel(ctx context.Context, playerID int64) []Prompt {
	wasActive := false
	_ = m.sessions.Do(playerID, func(st *State) error {
		wasActive = st.Phase != PhaseIdle
		st.reset()
		return nil
	})
	if wasActive {
		m.logTransition(ctx, playerID, PhaseIdle, "cancel")
	}
	return []Prompt{{Text: msgCancelled, RemoveKeyboard: true}}
}

// Handle consumes one player message and returns the prompts to send back.
// The returned error reports store failures that the transport should log;
// prompts are still valid in that case and explain the failure to the player.
//
// Steps mutate session state under the registry lock but never touch the
// store there: registration and the round commit are handed back as effects
// and executed after Do returns, so a slow backend cannot stall the player's
// next message.
func (m *Machine) Handle(ctx context.Context, playerID int64, text string) ([]Prompt, error) {
	var (
		prompts []Prompt
		eff     effects
		stepErr error
	)
	err := m.sessions.Do(playerID, func(st *State) error {
		prompts, eff, stepErr = m.step(ctx, playerID, st, strings.TrimSpace(text))
		return nil
	})
	if err != nil {
		return nil, err
	}
	if stepErr != nil {
		return prompts, stepErr
	}

	if eff.registerName != "" {
		m.register(ctx, playerID, eff.registerName)
	}
	if eff.commit != nil {
		return m.finishRound(ctx, playerID, eff.commit)
	}
	return prompts, nil
}

func (m *Machine) step(ctx context.Context, playerID int64, st *State, text string) ([]Prompt, effects, error) {
	switch st.Phase {
	case PhaseIdle:
		st.Phase = PhaseAwaitingName
		m.logTransition(ctx, playerID, st.Phase, "first_contact")
		return []Prompt{{Text: msgGreeting}}, effects{}, nil

	case PhaseAwaitingName:
		return m.stepName(ctx, playerID, st, text)

	case PhaseAwaitingCategory:
		return m.stepCategory(ctx, playerID, st, text)

	case PhaseAwaitingAnswer:
		return m.stepAnswer(st, text)
	}
	return nil, effects{}, fmt.Errorf("session: unknown phase %q for player %d", st.Phase, playerID)
}

func (m *Machine) stepName(ctx context.Context, playerID int64, st *State, name string) ([]Prompt, effects, error) {
	if name == "" {
		return []Prompt{{Text: msgAskName}}, effects{}, nil
	}
	st.DisplayName = name
	st.Phase = PhaseAwaitingCategory
	m.logTransition(ctx, playerID, st.Phase, "named")
	return []Prompt{{
		Text:    fmt.Sprintf(msgPickCategory, name),
		Options: m.catalog.ListCategories(),
	}}, effects{registerName: name}, nil
}

func (m *Machine) stepCategory(ctx context.Context, playerID int64, st *State, pick string) ([]Prompt, effects, error) {
	cat, err := m.catalog.GetCategory(pick)
	if errors.Is(err, quiz.ErrCategoryNotFound) {
		// Re-prompt without penalty: no question consumed, no state change.
		return []Prompt{{
			Text:    msgUnknownCat,
			Options: m.catalog.ListCategories(),
		}}, effects{}, nil
	}
	if err != nil {
		return nil, effects{}, err
	}

	st.ActiveCategory = cat.Name
	st.Questions = quiz.Shuffle(cat, m.newRand())
	st.CurrentIndex = 0
	st.RoundScore = 0
	st.Phase = PhaseAwaitingAnswer
	m.logTransition(ctx, playerID, st.Phase, "category:"+cat.Name)

	return []Prompt{
		{Text: fmt.Sprintf(msgCategoryChosen, cat.Name)},
		questionPrompt(st),
	}, effects{}, nil
}

func (m *Machine) stepAnswer(st *State, answer string) ([]Prompt, effects, error) {
	q := st.Questions[st.CurrentIndex]

	// Exact match against the shuffled option text. Matching by position
	// would validate wrong answers after a shuffle.
	var feedback string
	if answer == q.Answer {
		st.RoundScore++
		feedback = fmt.Sprintf(msgCorrect, q.Answer, q.Explanation)
	} else {
		feedback = fmt.Sprintf(msgWrong, q.Answer, q.Explanation)
	}
	st.CurrentIndex++

	if st.CurrentIndex < len(st.Questions) {
		return []Prompt{{Text: feedback}, questionPrompt(st)}, effects{}, nil
	}

	// Round over: capture what the commit needs and clear the session
	// before the lock is released.
	commit := &commitOp{
		feedback:    feedback,
		displayName: st.DisplayName,
		category:    st.ActiveCategory,
		score:       st.RoundScore,
	}
	st.reset()
	return nil, effects{commit: commit}, nil
}

// register applies the zero-delta upsert that creates the player record (or
// renames on re-entry). Failure is not fatal: the end-of-round commit
// carries the name again and is retried.
func (m *Machine) register(ctx context.Context, playerID int64, name string) {
	if _, err := m.store.UpsertDelta(ctx, playerID, name, 0); err != nil {
		logger.Warn(ctx, "session", "session.register",
			slog.Int64("player_id", playerID),
			slog.String("err", err.Error()),
		)
	}
}

func (m *Machine) finishRound(ctx context.Context, playerID int64, c *commitOp) ([]Prompt, error) {
	total, err := leaderboard.CommitWithRetry(ctx, m.store, playerID, c.displayName, c.score)
	if err != nil {
		return []Prompt{
			{Text: c.feedback},
			{Text: msgCommitFailed, RemoveKeyboard: true},
		}, fmt.Errorf("commit round for player %d: %w", playerID, err)
	}

	logger.Info(ctx, "session", "session.finish",
		slog.Int64("player_id", playerID),
		slog.String("category", c.category),
		slog.Int("round_score", c.score),
		slog.Int("total_score", total),
	)

	prompts := []Prompt{
		{Text: c.feedback},
		{Text: fmt.Sprintf(msgRoundDone, c.score, total)},
	}
	entries, topErr := m.store.TopK(ctx, topSize)
	if topErr != nil {
		logger.Warn(ctx, "session", "session.top",
			slog.Int64("player_id", playerID),
			slog.String("err", topErr.Error()),
		)
		prompts = append(prompts, Prompt{Text: msgTopUnavailable, RemoveKeyboard: true})
		return prompts, nil
	}
	prompts = append(prompts, Prompt{Text: RenderTop(entries), RemoveKeyboard: true})
	return prompts, nil
}

func questionPrompt(st *State) Prompt {
	q := st.Questions[st.CurrentIndex]
	return Prompt{
		Text:    fmt.Sprintf(msgQuestion, st.CurrentIndex+1, len(st.Questions), q.Text),
		Options: q.Options,
	}
}

// RenderTop formats a ranked slice the way the round summary shows it.
// Shared with the /top command.
func RenderTop(entries []leaderboard.Entry) string {
	if len(entries) == 0 {
		return msgTopEmpty
	}
	var b strings.Builder
	fmt.Fprintf(&b, msgTopHeader, topSize)
	for i, e := range entries {
		b.WriteString("\n")
		fmt.Fprintf(&b, msgTopRow, i+1, e.DisplayName, e.TotalScore)
	}
	return b.String()
}

// TopUnavailableText is the degraded-read message for transport handlers.
func TopUnavailableText() string {
	return msgTopUnavailable
}

func (m *Machine) logTransition(ctx context.Context, playerID int64, next Phase, cause string) {
	logger.Debug(ctx, "session", "session.transition",
		slog.Int64("player_id", playerID),
		slog.String("phase", string(next)),
		slog.String("cause", cause),
	)
}
