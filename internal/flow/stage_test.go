package flow

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinoscout/movie-bot/internal/apperr"
	"github.com/kinoscout/movie-bot/internal/channel"
	"github.com/kinoscout/movie-bot/internal/session"
)

type recordingSender struct {
	mu      sync.Mutex
	replies []channel.Reply
}

func (s *recordingSender) Send(_ context.Context, _ string, reply channel.Reply) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, reply)
	return nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.replies)
}

func testStage(t *testing.T) (*Stage, *session.MemoryStore, *recordingSender) {
	t.Helper()

	store := session.NewMemoryStore(time.Hour)
	sender := &recordingSender{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	errHandler := apperr.NewHandler(log, false)

	return NewStage(store, sender, errHandler, log), store, sender
}

func msg(text string) channel.Message {
	return channel.Message{SenderID: "7", MessageID: "1", Text: text}
}

func position(t *testing.T, store *session.MemoryStore) *session.Position {
	t.Helper()

	sess, err := store.Get(context.Background(), "7")
	require.NoError(t, err)
	return sess.Position
}

func TestDispatch_CommandEntersFlowAndAdvances(t *testing.T) {
	stage, store, _ := testStage(t)

	invoked := 0
	f := New("start",
		func(c *Context) (Result, error) {
			invoked++
			return Advance(), nil
		},
		func(c *Context) (Result, error) {
			return Leave(), nil
		},
	)
	require.NoError(t, stage.Register(f))
	stage.RegisterCommand("начать", Command{Target: "start"})
	require.NoError(t, stage.Validate())

	require.NoError(t, stage.Dispatch(context.Background(), msg("Начать")))

	assert.Equal(t, 1, invoked)
	pos := position(t, store)
	require.NotNil(t, pos)
	assert.Equal(t, "start", pos.Flow)
	assert.Equal(t, 1, pos.Step)
}

func TestDispatch_IgnoresUnmatchedMessageOutsideFlows(t *testing.T) {
	stage, store, sender := testStage(t)

	require.NoError(t, stage.Register(New("start", func(c *Context) (Result, error) {
		return Leave(), nil
	})))
	stage.RegisterCommand("начать", Command{Target: "start"})

	require.NoError(t, stage.Dispatch(context.Background(), msg("что-нибудь")))

	assert.Nil(t, position(t, store))
	assert.Zero(t, sender.count())
}

func TestDispatch_TransferRunsTargetStepSynchronously(t *testing.T) {
	stage, store, _ := testStage(t)

	require.NoError(t, stage.Register(
		New("start", func(c *Context) (Result, error) {
			return TransferTo("pick"), nil
		}).DeclareTransfers("pick"),
	))
	require.NoError(t, stage.Register(New("pick",
		func(c *Context) (Result, error) {
			return Advance(), nil
		},
		func(c *Context) (Result, error) {
			return Leave(), nil
		},
	)))
	stage.RegisterCommand("начать", Command{Target: "start"})
	require.NoError(t, stage.Validate())

	require.NoError(t, stage.Dispatch(context.Background(), msg("начать")))

	pos := position(t, store)
	require.NotNil(t, pos)
	assert.Equal(t, "pick", pos.Flow)
	assert.Equal(t, 1, pos.Step)
}

func TestDispatch_ResumeOverridesMessageText(t *testing.T) {
	stage, _, _ := testStage(t)

	var seen string
	require.NoError(t, stage.Register(
		New("confirm", func(c *Context) (Result, error) {
			return Resume("search", 1, "матрица"), nil
		}).DeclareTransfers("search"),
	))
	require.NoError(t, stage.Register(New("search",
		func(c *Context) (Result, error) {
			return Advance(), nil
		},
		func(c *Context) (Result, error) {
			seen = c.Text()
			return Leave(), nil
		},
	)))
	stage.RegisterCommand("да", Command{Target: "confirm"})
	require.NoError(t, stage.Validate())

	require.NoError(t, stage.Dispatch(context.Background(), msg("да")))

	assert.Equal(t, "матрица", seen)
}

func TestDispatch_CommandHonoredMidFlowOnlyWhenAllowed(t *testing.T) {
	stage, store, _ := testStage(t)

	var midFlow, restarted int
	require.NoError(t, stage.Register(New("quiz",
		func(c *Context) (Result, error) {
			return Advance(), nil
		},
		func(c *Context) (Result, error) {
			midFlow++
			return Stay(), nil
		},
	)))
	require.NoError(t, stage.Register(New("start", func(c *Context) (Result, error) {
		restarted++
		return Leave(), nil
	})))
	stage.RegisterCommand("опрос", Command{Target: "quiz"})
	stage.RegisterCommand("стоп", Command{Target: "start"})
	stage.RegisterCommand("начать", Command{Target: "start", AllowInFlow: true})
	require.NoError(t, stage.Validate())

	ctx := context.Background()
	require.NoError(t, stage.Dispatch(ctx, msg("опрос")))

	// Without AllowInFlow the command token is treated as step input.
	require.NoError(t, stage.Dispatch(ctx, msg("стоп")))
	assert.Equal(t, 1, midFlow)
	assert.Zero(t, restarted)

	require.NoError(t, stage.Dispatch(ctx, msg("начать")))
	assert.Equal(t, 1, restarted)
	assert.Nil(t, position(t, store))
}

func TestDispatch_TransferChainBudgetExceeded(t *testing.T) {
	stage, store, sender := testStage(t)

	require.NoError(t, stage.Register(
		New("loop", func(c *Context) (Result, error) {
			return TransferTo("loop"), nil
		}).DeclareTransfers("loop"),
	))
	stage.RegisterCommand("цикл", Command{Target: "loop"})
	require.NoError(t, stage.Validate())

	// The failed directive is swallowed after notifying the user; the
	// session keeps its pre-dispatch position.
	require.NoError(t, stage.Dispatch(context.Background(), msg("цикл")))

	assert.Nil(t, position(t, store))
	assert.Equal(t, 1, sender.count())
}

func TestDispatch_AdvancePastLastStepFails(t *testing.T) {
	stage, store, sender := testStage(t)

	require.NoError(t, stage.Register(New("short", func(c *Context) (Result, error) {
		return Advance(), nil
	})))
	stage.RegisterCommand("старт", Command{Target: "short"})
	require.NoError(t, stage.Validate())

	require.NoError(t, stage.Dispatch(context.Background(), msg("старт")))

	assert.Nil(t, position(t, store))
	assert.Equal(t, 1, sender.count())
}

func TestDispatch_SerializesSameSession(t *testing.T) {
	stage, store, _ := testStage(t)

	// The counter is deliberately unguarded; the per-user lock must
	// serialize the increments.
	counter := 0
	require.NoError(t, stage.Register(New("count", func(c *Context) (Result, error) {
		v := counter
		time.Sleep(time.Millisecond)
		counter = v + 1
		return Stay(), nil
	})))
	stage.RegisterCommand("раз", Command{Target: "count"})
	require.NoError(t, stage.Validate())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = stage.Dispatch(context.Background(), msg("раз"))
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, counter)
	pos := position(t, store)
	require.NotNil(t, pos)
	assert.Equal(t, "count", pos.Flow)
}

func TestDispatch_SurvivesLockEvictionMidDispatch(t *testing.T) {
	stage, _, _ := testStage(t)

	entered := make(chan struct{})
	proceed := make(chan struct{})
	invoked := 0
	require.NoError(t, stage.Register(New("slow", func(c *Context) (Result, error) {
		invoked++
		if invoked == 1 {
			close(entered)
			<-proceed
		}
		return Stay(), nil
	})))
	stage.RegisterCommand("долго", Command{Target: "slow"})
	require.NoError(t, stage.Validate())

	first := make(chan error, 1)
	go func() {
		first <- stage.Dispatch(context.Background(), msg("долго"))
	}()
	<-entered

	// A session sweep may evict while a dispatch holds the lock; the
	// in-flight dispatch must still release cleanly and the next message
	// must wait for it.
	stage.ReleaseLock("7")

	second := make(chan error, 1)
	go func() {
		second <- stage.Dispatch(context.Background(), msg("долго"))
	}()
	select {
	case <-second:
		t.Fatal("second dispatch ran while the first still held the lock")
	case <-time.After(50 * time.Millisecond):
	}

	close(proceed)
	require.NoError(t, <-first)
	select {
	case err := <-second:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("second dispatch never completed")
	}
	assert.Equal(t, 2, invoked)
}

func TestRegister_DuplicateFlow(t *testing.T) {
	stage, _, _ := testStage(t)

	require.NoError(t, stage.Register(New("start", func(c *Context) (Result, error) {
		return Leave(), nil
	})))
	err := stage.Register(New("start", func(c *Context) (Result, error) {
		return Leave(), nil
	}))

	assert.ErrorIs(t, err, ErrDuplicateFlow)
}

func TestValidate_UnknownTransferTarget(t *testing.T) {
	stage, _, _ := testStage(t)

	require.NoError(t, stage.Register(
		New("start", func(c *Context) (Result, error) {
			return Leave(), nil
		}).DeclareTransfers("missing"),
	))

	assert.ErrorIs(t, stage.Validate(), ErrUnknownFlow)
}

func TestValidate_CommandTargetsUnknownFlow(t *testing.T) {
	stage, _, _ := testStage(t)

	stage.RegisterCommand("начать", Command{Target: "missing"})

	assert.ErrorIs(t, stage.Validate(), ErrUnknownFlow)
}

func TestValidate_CommandStepOutOfRange(t *testing.T) {
	stage, _, _ := testStage(t)

	require.NoError(t, stage.Register(New("start", func(c *Context) (Result, error) {
		return Leave(), nil
	})))
	stage.RegisterCommand("начать", Command{Target: "start", Step: 5})

	assert.ErrorIs(t, stage.Validate(), ErrStepOverflow)
}
