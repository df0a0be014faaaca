package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mmcdole/suasor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	N     int
	Items []string
}

func TestLoadingAndErrorAreExclusive(t *testing.T) {
	s := New(counter{})
	boom := errors.New("boom")

	steps := []func(){
		func() { s.SetLoading(true) },
		func() { s.SetError(boom) },
		func() { s.SetError(boom) },
		func() { s.SetLoading(true) },
		func() { s.SetLoading(false) },
		func() { s.SetError(boom) },
		func() { s.SetLoading(true) },
	}

	for i, step := range steps {
		step()
		st := s.State()
		assert.False(t, st.Loading && st.Error != nil, "step %d: loading and error both set", i)
	}

	s.SetError(boom)
	assert.False(t, s.State().Loading)
	s.SetLoading(true)
	assert.Nil(t, s.State().Error)
}

func TestSetErrorNormalizes(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantType string
		wantMsg  string
	}{
		{"plain", errors.New("boom"), domain.ErrorTypeInternal, "boom"},
		{"canceled", fmt.Errorf("load: %w", context.Canceled), domain.ErrorTypeCanceled, "load: context canceled"},
		{"error info", domain.ErrorInfo{Message: "bad", Type: "NOPE"}, "NOPE", "bad"},
		{"typed", typedErr{}, "TYPED", "typed failure"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(counter{})
			s.SetLoading(true)
			s.SetError(tt.err)

			st := s.State()
			require.NotNil(t, st.Error)
			assert.Equal(t, tt.wantType, st.Error.Type)
			assert.Equal(t, tt.wantMsg, st.Error.Message)
			assert.False(t, st.Loading)
		})
	}
}

type typedErr struct{}

func (typedErr) Error() string { return "typed" }
func (typedErr) Info() domain.ErrorInfo {
	return domain.ErrorInfo{Message: "typed failure", Type: "TYPED", Details: map[string]any{"a": 1}}
}

func TestSetErrorNilClears(t *testing.T) {
	s := New(counter{})
	s.SetError(errors.New("boom"))
	s.SetError(nil)
	assert.Nil(t, s.State().Error)
}

func TestErrorKeepsData(t *testing.T) {
	s := New(counter{})
	s.Set(counter{N: 3, Items: []string{"a"}})
	s.SetError(errors.New("refresh failed"))

	assert.Equal(t, counter{N: 3, Items: []string{"a"}}, s.Data())
}

func TestUpdateAndReset(t *testing.T) {
	s := New(counter{N: 1})
	s.Update(func(c counter) counter {
		c.N++
		return c
	})
	s.SetError(errors.New("boom"))
	assert.Equal(t, 2, s.Data().N)

	s.Reset()
	st := s.State()
	assert.Equal(t, 1, st.Data.N)
	assert.Nil(t, st.Error)
	assert.False(t, st.Loading)
}

func TestClearError(t *testing.T) {
	s := New(counter{})
	s.SetError(errors.New("boom"))
	s.ClearError()
	assert.Nil(t, s.State().Error)
}

func TestSuccessAutoDismiss(t *testing.T) {
	s := New(counter{})
	s.SetSuccess("saved", 20*time.Millisecond)
	assert.Equal(t, "saved", s.State().Success)

	assert.Eventually(t, func() bool { return s.State().Success == "" }, time.Second, 5*time.Millisecond)
}

func TestSuccessWithoutDismissStays(t *testing.T) {
	s := New(counter{})
	s.SetSuccess("saved", 0)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, "saved", s.State().Success)
}

func TestNewSuccessCancelsPendingDismissal(t *testing.T) {
	s := New(counter{})
	s.SetSuccess("first", 30*time.Millisecond)
	s.SetSuccess("second", time.Hour)

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, "second", s.State().Success, "earlier timer must not clear a later message")
	s.Close()
}

func TestResetCancelsDismissal(t *testing.T) {
	s := New(counter{})
	s.SetSuccess("saved", 20*time.Millisecond)
	s.Reset()
	s.SetSuccess("kept", 0)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, "kept", s.State().Success)
}

func TestSubscribe(t *testing.T) {
	s := New(counter{})

	var mu sync.Mutex
	var seen []State[counter]
	unsubscribe := s.Subscribe(func(st State[counter]) {
		mu.Lock()
		seen = append(seen, st)
		mu.Unlock()
	})

	s.SetLoading(true)
	s.Set(counter{N: 5})
	unsubscribe()
	s.Set(counter{N: 6})
	unsubscribe()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 3)
	assert.Equal(t, 0, seen[0].Data.N)
	assert.True(t, seen[1].Loading)
	assert.Equal(t, 5, seen[2].Data.N)
}

func TestSubscriberSeesDismissal(t *testing.T) {
	s := New(counter{})
	done := make(chan struct{})
	var once sync.Once
	s.Subscribe(func(st State[counter]) {
		if st.Success == "" {
			return
		}
		once.Do(func() { close(done) })
	})

	s.SetSuccess("hi", 0)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("subscriber not notified")
	}
}
