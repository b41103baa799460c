package conversation

import (
	"context"
	"errors"
	"iter"
	"strings"
	"sync"
	"time"

	"statement_analyst/pkg/core/calc"
	"statement_analyst/pkg/core/llm"
	"statement_analyst/pkg/core/logger"
	"statement_analyst/pkg/core/prompt"
)

// ProviderSource hands out the provider to use for the next call.
// *agent.Manager implements it.
type ProviderSource interface {
	Active() llm.Provider
}

type staticSource struct{ p llm.Provider }

func (s staticSource) Active() llm.Provider { return s.p }

// Static always returns p.
func Static(p llm.Provider) ProviderSource {
	return staticSource{p: p}
}

// Options configures a Session. Prompts and Logger default to the global
// prompt library and a no-op logger.
type Options struct {
	Providers ProviderSource
	Prompts   *prompt.Registry
	Logger    *logger.Logger
}

// Session is the state of one uploaded statement: the derived analysis, its
// context blob, the one-shot summary and the chat transcript. A new upload
// gets a new Session.
type Session struct {
	ID        string
	FileName  string
	CreatedAt time.Time

	analysis  *calc.Analysis
	context   string
	providers ProviderSource
	prompts   *prompt.Registry
	log       *logger.Logger

	// turn serializes LLM actions: append turn, send, append reply.
	turn sync.Mutex

	mu         sync.RWMutex
	summary    string
	activated  bool
	transcript Transcript
}

func NewSession(id, fileName string, analysis *calc.Analysis, opts Options) *Session {
	if opts.Prompts == nil {
		opts.Prompts = prompt.Get()
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	return &Session{
		ID:        id,
		FileName:  fileName,
		CreatedAt: time.Now(),
		analysis:  analysis,
		context:   BuildContext(analysis.Table, analysis.Liquidity),
		providers: opts.Providers,
		prompts:   opts.Prompts,
		log:       opts.Logger,
	}
}

func (s *Session) Table() *calc.FinancialTable { return s.analysis.Table }

func (s *Session) Liquidity() calc.Liquidity { return s.analysis.Liquidity }

// Warnings returns the lookup warnings of derivation and liquidity.
func (s *Session) Warnings() []calc.LookupWarning {
	out := s.analysis.Table.Warnings()
	return append(out, s.analysis.Liquidity.Warnings...)
}

// Context returns the blob embedded into every request of this session.
func (s *Session) Context() string { return s.context }

func (s *Session) Summary() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary
}

// Activated reports whether a summary was produced, which unlocks chat.
func (s *Session) Activated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activated
}

func (s *Session) Transcript() []llm.Message {
	return s.transcript.Turns()
}

// Reset clears the chat history. The summary and activation are kept.
func (s *Session) Reset() {
	s.turn.Lock()
	defer s.turn.Unlock()
	s.transcript.Reset()
	s.log.Info("conversation", "transcript cleared", map[string]interface{}{"session": s.ID})
}

// Summarize requests the one-shot commentary. The transcript is not touched;
// on success the summary is stored and chat is activated.
func (s *Session) Summarize(ctx context.Context) (string, error) {
	s.turn.Lock()
	defer s.turn.Unlock()

	p, req, err := s.prepare(ModeSummary, "")
	if err != nil {
		return "", err
	}
	reply, err := p.GenerateResponse(ctx, &req)
	if err != nil {
		err = wrapUnknown(err)
		s.logFailure("summary", p, err)
		return "", err
	}
	s.setSummary(reply)
	s.log.Info("conversation", "summary generated", map[string]interface{}{
		"session": s.ID, "provider": p.Name(), "chars": len(reply),
	})
	return reply, nil
}

// SummarizeStream is Summarize delivered incrementally. Each yielded value is
// the running concatenation of the fragments received so far. The summary is
// stored only when the stream completes.
func (s *Session) SummarizeStream(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		s.turn.Lock()
		defer s.turn.Unlock()

		p, req, err := s.prepare(ModeSummary, "")
		if err != nil {
			yield("", err)
			return
		}

		var acc strings.Builder
		for frag, err := range p.StreamResponse(ctx, &req) {
			if err != nil {
				err = wrapUnknown(err)
				s.logFailure("summary", p, err)
				yield("", err)
				return
			}
			acc.WriteString(frag)
			if !yield(acc.String(), nil) {
				return
			}
		}
		s.setSummary(acc.String())
	}
}

// Ask sends a follow-up question with the full transcript replayed.
//
// A missing credential is reported before the transcript is touched. Any
// other failure appends the question and a synthesized error turn, so the
// transcript grows by two either way.
func (s *Session) Ask(ctx context.Context, question string) (string, error) {
	s.turn.Lock()
	defer s.turn.Unlock()

	p, req, err := s.prepareChat(question)
	if err != nil {
		return "", err
	}

	reply, err := p.GenerateResponse(ctx, &req)
	if err != nil {
		err = wrapUnknown(err)
		s.commitFailure(question, p, err)
		return "", err
	}
	s.commit(question, reply)
	return reply, nil
}

// AskStream is Ask delivered incrementally. Each yielded value is the running
// concatenation of the reply so far.
//
// When the stream stops early (provider error, context cancellation or the
// consumer breaking out of the loop) whatever text arrived is committed as
// the reply. A stream failing before any text commits the error turn.
func (s *Session) AskStream(ctx context.Context, question string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		s.turn.Lock()
		defer s.turn.Unlock()

		p, req, err := s.prepareChat(question)
		if err != nil {
			yield("", err)
			return
		}

		var acc strings.Builder
		for frag, err := range p.StreamResponse(ctx, &req) {
			if err != nil {
				err = wrapUnknown(err)
				if acc.Len() == 0 {
					s.commitFailure(question, p, err)
				} else {
					s.commit(question, acc.String())
					s.logFailure("chat stream", p, err)
				}
				yield(acc.String(), err)
				return
			}
			acc.WriteString(frag)
			if !yield(acc.String(), nil) {
				s.commit(question, acc.String())
				return
			}
		}
		s.commit(question, acc.String())
	}
}

func (s *Session) prepareChat(question string) (llm.Provider, llm.Request, error) {
	if !s.Activated() {
		return nil, llm.Request{}, ErrChatNotActivated
	}
	if strings.TrimSpace(question) == "" {
		return nil, llm.Request{}, ErrEmptyQuestion
	}
	return s.prepare(ModeChat, question)
}

func (s *Session) prepare(mode Mode, question string) (llm.Provider, llm.Request, error) {
	if s.providers == nil || s.providers.Active() == nil {
		return nil, llm.Request{}, &UnknownError{Err: errors.New("no LLM provider configured")}
	}
	p := s.providers.Active()
	if err := p.CheckCredential(); err != nil {
		return nil, llm.Request{}, err
	}

	var transcript []llm.Message
	if mode == ModeChat {
		transcript = s.transcript.Turns()
	}
	req, err := ComposeRequestWith(s.prompts, s.context, transcript, question, mode)
	if err != nil {
		return nil, llm.Request{}, wrapUnknown(err)
	}
	return p, req, nil
}

func (s *Session) setSummary(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary = text
	s.activated = true
}

func (s *Session) commit(question, reply string) {
	s.transcript.Append(
		llm.Message{Role: llm.RoleUser, Content: question},
		llm.Message{Role: llm.RoleAssistant, Content: reply},
	)
	s.log.Debug("conversation", "chat turn committed", map[string]interface{}{
		"session": s.ID, "turns": s.transcript.Len(),
	})
}

func (s *Session) commitFailure(question string, p llm.Provider, err error) {
	s.logFailure("chat", p, err)
	var credErr *llm.CredentialError
	if errors.As(err, &credErr) {
		return
	}
	s.transcript.Append(
		llm.Message{Role: llm.RoleUser, Content: question},
		llm.Message{Role: llm.RoleAssistant, Content: errorTurn(err)},
	)
}

func (s *Session) logFailure(action string, p llm.Provider, err error) {
	s.log.Error("conversation", action+" failed", map[string]interface{}{
		"session":  s.ID,
		"provider": p.Name(),
		"kind":     string(Classify(err)),
		"error":    err.Error(),
	})
}
